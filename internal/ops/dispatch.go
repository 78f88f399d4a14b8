package ops

import (
	"context"
	"fmt"
	"time"

	"github.com/danmuck/bootctl/internal/observability"
	"github.com/rs/zerolog/log"
)

// Gate is the slice of the privilege gate the dispatcher needs.
type Gate interface {
	IsElevated() bool
	Delegate(op string, args ...string) error
}

type Dispatcher struct {
	registry *Registry
	gate     Gate
}

func NewDispatcher(registry *Registry, gate Gate) *Dispatcher {
	return &Dispatcher{registry: registry, gate: gate}
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch runs the named operation. Privileged operations reached from an
// unelevated process are re-invoked in an elevated child instead.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args []string) error {
	op, ok := d.registry.Resolve(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
	spec := op.Spec()
	if spec.Privileged && d.gate != nil && !d.gate.IsElevated() {
		log.Info().Str("op", spec.Name).Msg("ops.dispatch elevating")
		return d.gate.Delegate(spec.Name, args...)
	}

	log.Debug().Str("op", spec.Name).Strs("args", args).Msg("ops.dispatch run")
	start := time.Now()
	err := op.Run(ctx, args)
	observability.ObserveOperation(spec.Name, time.Since(start), err == nil)
	if err != nil {
		return fmt.Errorf("op=%s: %w", spec.Name, err)
	}
	return nil
}

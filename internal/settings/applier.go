package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/danmuck/bootctl/internal/observability"
	"github.com/rs/zerolog/log"
)

// ElevatedOp is the operation an elevated child dispatches to apply settings.
const ElevatedOp = "apply"

// Store writes one target's entries. Set must overwrite.
type Store interface {
	Set(scope Scope, key, value string) error
}

// Gate is the slice of the privilege gate the applier needs.
type Gate interface {
	IsElevated() bool
	Delegate(op string, args ...string) error
}

type Applier struct {
	stores map[Target]Store
	gate   Gate
}

// NewApplier routes each entry to the store registered for its target.
func NewApplier(stores map[Target]Store, gate Gate) *Applier {
	m := make(map[Target]Store, len(stores))
	for k, v := range stores {
		m[k] = v
	}
	return &Applier{stores: m, gate: gate}
}

// ApplySettings writes entries in order and stops at the first rejected write.
// Entries already written stay written. When any entry is machine-scoped and
// the process is not elevated the whole batch is delegated to an elevated
// child and nothing is written here. The child re-runs the "apply"
// operation, which applies the loaded profile's settings rather than entries,
// so callers must pass a profile's settings when they expect delegation.
func (a *Applier) ApplySettings(ctx context.Context, entries []Entry) error {
	normalized := make([]Entry, 0, len(entries))
	machine := false
	for _, e := range entries {
		e.Target, _ = ParseTarget(string(e.Target))
		e.Scope, _ = ParseScope(string(e.Scope))
		if err := e.Validate(); err != nil {
			return err
		}
		if _, ok := a.stores[e.Target]; !ok {
			return fmt.Errorf("%w: %s", ErrNoStore, e.Target)
		}
		machine = machine || e.Scope == ScopeMachine
		normalized = append(normalized, e)
	}

	if machine && a.gate != nil && !a.gate.IsElevated() {
		log.Info().Int("entries", len(normalized)).Msg("settings.apply delegating machine scope")
		return a.gate.Delegate(ElevatedOp)
	}

	for _, e := range normalized {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.stores[e.Target].Set(e.Scope, e.Key, e.Value); err != nil {
			if errors.Is(err, ErrPermissionDenied) || errors.Is(err, fs.ErrPermission) {
				return &PermissionDeniedError{Entry: e, Err: err}
			}
			return fmt.Errorf("apply %s: %w", e, err)
		}
		observability.RecordSetting(string(e.Target), string(e.Scope))
		log.Debug().Str("entry", e.String()).Msg("settings.apply set")
	}
	log.Info().Int("entries", len(normalized)).Msg("settings.apply done")
	return nil
}

package privilege

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/bootctl/internal/host"
	"github.com/danmuck/bootctl/internal/observability"
	"github.com/rs/zerolog/log"
)

var (
	ErrElevationDenied = errors.New("privilege: elevation denied")
	ErrNoOperation     = errors.New("privilege: operation name required")
)

// ExitStatus is the exit code of an elevated child.
type ExitStatus int

// Elevator spawns exe with args under an elevation request and waits for it.
type Elevator interface {
	Elevate(exe string, args []string) (ExitStatus, error)
}

// Invocation carries the flags an elevated child needs to rebuild the parent's
// view: profile path, run id and so on. They are placed before the "run" verb.
type Invocation struct {
	ConfigPath string
	RunID      string
	LogLevel   string
	// Child is true when this process is itself an elevated re-invocation.
	Child bool
}

func (i Invocation) flags() []string {
	out := []string{"--elevated"}
	if v := strings.TrimSpace(i.ConfigPath); v != "" {
		out = append(out, "--config", v)
	}
	if v := strings.TrimSpace(i.RunID); v != "" {
		out = append(out, "--run-id", v)
	}
	if v := strings.TrimSpace(i.LogLevel); v != "" {
		out = append(out, "--log-level", v)
	}
	return out
}

// Gate answers elevation queries and delegates privileged operations.
type Gate struct {
	context    host.ProcessContext
	elevator   Elevator
	invocation Invocation
}

// NewGate builds a Gate for ctx. inv is forwarded to every elevated child.
func NewGate(ctx host.ProcessContext, elevator Elevator, inv Invocation) *Gate {
	return &Gate{context: ctx, elevator: elevator, invocation: inv}
}

// IsElevated reports whether the current principal holds administrative rights.
// It queries the identity probe on every call.
func (g *Gate) IsElevated() bool {
	if g.context.Identity == nil {
		return false
	}
	return g.context.Identity.Elevated()
}

// RunElevated re-runs the named operation in an elevated child and returns the
// child's exit status. A declined request yields ErrElevationDenied.
func (g *Gate) RunElevated(op string, args ...string) (ExitStatus, error) {
	op = strings.TrimSpace(op)
	if op == "" {
		return 1, ErrNoOperation
	}
	if g.invocation.Child {
		observability.RecordElevation(op, "denied")
		return 1, fmt.Errorf("%w: op=%s already running as elevated child without rights", ErrElevationDenied, op)
	}
	if g.elevator == nil {
		observability.RecordElevation(op, "denied")
		return 1, fmt.Errorf("%w: op=%s no elevator for %s", ErrElevationDenied, op, g.context.GOOS)
	}

	// "--" keeps operation flags away from the child's own flag parsing.
	childArgs := append(g.invocation.flags(), "run", op)
	if len(args) > 0 {
		childArgs = append(append(childArgs, "--"), args...)
	}

	log.Info().Str("op", op).Strs("args", args).Msg("privilege.elevate request")
	start := time.Now()
	status, err := g.elevator.Elevate(g.context.Executable, childArgs)
	switch {
	case errors.Is(err, ErrElevationDenied):
		observability.RecordElevation(op, "denied")
		log.Warn().Str("op", op).Err(err).Msg("privilege.elevate denied")
		return status, err
	case err != nil:
		observability.RecordElevation(op, "error")
		return status, fmt.Errorf("elevate op=%s: %w", op, err)
	}
	outcome := "ok"
	if status != 0 {
		outcome = "failed"
	}
	observability.RecordElevation(op, outcome)
	log.Info().
		Str("op", op).
		Int("exit", int(status)).
		Dur("elapsed", time.Since(start)).
		Msg("privilege.elevate done")
	return status, nil
}

// ChildExitError reports a delegated operation whose elevated child exited non-zero.
type ChildExitError struct {
	Op     string
	Status ExitStatus
}

func (e *ChildExitError) Error() string {
	return fmt.Sprintf("privilege: elevated op=%s exited %d", e.Op, e.Status)
}

func (e *ChildExitError) ExitCode() int {
	return int(e.Status)
}

// Delegate runs op elevated and folds a non-zero child exit into a ChildExitError.
func (g *Gate) Delegate(op string, args ...string) error {
	status, err := g.RunElevated(op, args...)
	if err != nil {
		return err
	}
	if status != 0 {
		return &ChildExitError{Op: op, Status: status}
	}
	return nil
}

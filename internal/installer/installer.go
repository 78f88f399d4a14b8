package installer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/bootctl/internal/observability"
	"github.com/danmuck/bootctl/internal/privilege"
	"github.com/danmuck/bootctl/internal/tools"
	"github.com/rs/zerolog/log"
)

var (
	ErrInstallFailed     = errors.New("installer: install failed")
	ErrInvalidTool       = errors.New("installer: invalid tool")
	ErrUnsupportedMethod = errors.New("installer: unsupported install method")
	ErrManagerMissing    = errors.New("installer: package manager not found")
)

// ElevatedOp is the operation name an elevated child dispatches to install a
// privileged tool.
const ElevatedOp = "install"

type Status string

const (
	StatusAlreadyPresent Status = "already_present"
	StatusInstalled      Status = "installed"
	StatusFailed         Status = "failed"
)

// Result is the outcome of one EnsureInstalled call.
type Result struct {
	Tool   string
	Status Status
	Reason string
	Err    error
}

// Gate is the slice of the privilege gate the installer needs.
type Gate interface {
	IsElevated() bool
	RunElevated(op string, args ...string) (privilege.ExitStatus, error)
}

type Config struct {
	Runner  tools.CommandRunner
	Locator tools.ToolLocator
	Gate    Gate
}

// Installer ensures tools are present, installing only the missing ones.
type Installer struct {
	runner  tools.CommandRunner
	locator tools.ToolLocator
	gate    Gate
}

// New builds an Installer from cfg. A nil Gate disables delegation.
func New(cfg Config) *Installer {
	runner := cfg.Runner
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	locator := cfg.Locator
	if locator == nil {
		locator = tools.StaticLocator{}
	}
	return &Installer{runner: runner, locator: locator, gate: cfg.Gate}
}

// Check resolves the presence check used for t.
func (i *Installer) Check(t Tool) PresenceCheck {
	if t.Check != nil {
		return t.Check
	}
	if len(t.CheckCommand) > 0 {
		return CommandSucceeds{Runner: i.runner, Argv: t.CheckCommand}
	}
	return BinaryOnPath{Locator: i.locator, Name: t.bin()}
}

// EnsureInstalled installs t unless its presence check reports it present.
func (i *Installer) EnsureInstalled(ctx context.Context, t Tool) Result {
	res := i.ensure(ctx, t)
	observability.RecordInstall(string(res.Status))
	return res
}

func (i *Installer) ensure(ctx context.Context, t Tool) Result {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return failed(t.Name, fmt.Errorf("%w: missing name", ErrInvalidTool))
	}
	if err := ctx.Err(); err != nil {
		return failed(name, err)
	}

	check := i.Check(t)
	present, err := check.Present()
	if err != nil {
		return failed(name, fmt.Errorf("presence check %s: %w", check, err))
	}
	if present {
		log.Debug().Str("tool", name).Str("check", check.String()).Msg("installer.ensure present")
		return Result{Tool: name, Status: StatusAlreadyPresent}
	}
	log.Info().Str("tool", name).Str("check", check.String()).Msg("installer.ensure absent")

	argv, err := Command(t)
	if err != nil {
		return failed(name, err)
	}

	if t.Privileged && i.gate != nil && !i.gate.IsElevated() {
		return i.installElevated(name)
	}

	if mgr := managerBinary(t.Method); mgr != "" {
		if _, ok := i.locator.Locate(mgr); !ok {
			return failed(name, fmt.Errorf("%w: %s", ErrManagerMissing, mgr))
		}
	}
	if err := i.runCommand(argv[0], argv[1:]...); err != nil {
		return failed(name, err)
	}
	log.Info().Str("tool", name).Str("method", string(t.Method)).Msg("installer.ensure installed")
	return Result{Tool: name, Status: StatusInstalled}
}

func (i *Installer) installElevated(name string) Result {
	status, err := i.gate.RunElevated(ElevatedOp, "--tool", name)
	if err != nil {
		return failed(name, err)
	}
	if status != 0 {
		return failed(name, fmt.Errorf("%w: elevated install exited %d", ErrInstallFailed, status))
	}
	return Result{Tool: name, Status: StatusInstalled}
}

func (i *Installer) runCommand(name string, args ...string) error {
	log.Info().Str("cmd", name).Str("args", strings.Join(args, " ")).Msg("installer.exec")
	stdout, stderr, exitCode, err := i.runner.Run(name, args...)
	if err == nil {
		return nil
	}
	return fmt.Errorf(
		"%w: cmd=%s args=%q exit=%d stdout=%q stderr=%q: %v",
		ErrInstallFailed,
		name,
		strings.Join(args, " "),
		exitCode,
		strings.TrimSpace(string(stdout)),
		strings.TrimSpace(string(stderr)),
		err,
	)
}

func failed(name string, err error) Result {
	log.Warn().Str("tool", name).Err(err).Msg("installer.ensure failed")
	return Result{Tool: name, Status: StatusFailed, Reason: err.Error(), Err: err}
}

// Report is the ordered outcome of a batch.
type Report struct {
	Results []Result
}

func (r Report) Failed() []Result {
	out := []Result{}
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			out = append(out, res)
		}
	}
	return out
}

// Err joins every failure in the batch, nil when all tools are present.
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, fmt.Errorf("tool=%q: %w", res.Tool, res.Err))
	}
	return errors.Join(errs...)
}

// EnsureAllInstalled processes tools strictly in order and keeps going past
// failed entries. It stops early only when elevation is denied or ctx is done;
// the returned error is set in exactly those cases.
func (i *Installer) EnsureAllInstalled(ctx context.Context, list []Tool) (Report, error) {
	report := Report{Results: make([]Result, 0, len(list))}
	for _, t := range list {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := i.EnsureInstalled(ctx, t)
		report.Results = append(report.Results, res)
		if errors.Is(res.Err, privilege.ErrElevationDenied) {
			return report, res.Err
		}
	}
	fails := len(report.Failed())
	log.Info().
		Int("tools", len(list)).
		Int("failed", fails).
		Msg("installer.batch done")
	return report, nil
}

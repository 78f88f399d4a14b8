package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/danmuck/bootctl/internal/config"
	"github.com/danmuck/bootctl/internal/host"
	"github.com/danmuck/bootctl/internal/installer"
	"github.com/danmuck/bootctl/internal/links"
	"github.com/danmuck/bootctl/internal/logging"
	"github.com/danmuck/bootctl/internal/ops"
	"github.com/danmuck/bootctl/internal/privilege"
	"github.com/danmuck/bootctl/internal/settings"
	"github.com/danmuck/bootctl/internal/tools"
	"github.com/danmuck/bootctl/internal/updates"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// envRunID carries the run id to every process bootctl spawns.
const envRunID = "BOOTCTL_RUN_ID"

type globalFlags struct {
	configPath  string
	elevated    bool
	runID       string
	metricsFile string
	logLevel    string
}

// app holds the wiring for one CLI invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	flags  globalFlags

	host       host.ProcessContext
	configPath string
	profile    *config.Profile

	gate       *privilege.Gate
	installer  *installer.Installer
	applier    *settings.Applier
	links      *links.Creator
	updater    *updates.Updater
	dispatcher *ops.Dispatcher
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr}
}

// setup resolves the process context and builds every component. It never
// touches the profile so commands like "config init" work without one.
func (a *app) setup() error {
	if a.flags.logLevel != "" {
		if !logging.SetLevel(a.flags.logLevel) {
			return fmt.Errorf("unknown log level %q", a.flags.logLevel)
		}
	}
	ctx, err := host.Current()
	if err != nil {
		return fmt.Errorf("snapshot process context: %w", err)
	}

	runID := strings.TrimSpace(a.flags.runID)
	if runID == "" {
		runID = strings.TrimSpace(ctx.Env.Get(envRunID))
	}
	if runID == "" {
		runID = uuid.NewString()
	}
	log.Logger = log.With().Str("run_id", runID).Logger()
	// Commands bootctl spawns see the run id, so a nested bootctl joins the run.
	ctx.Env = ctx.Env.With(envRunID, runID)
	a.host = ctx

	a.configPath = config.ResolvePath(a.flags.configPath, ctx)
	if abs, err := filepath.Abs(a.configPath); err == nil {
		a.configPath = abs
	}

	// Elevated children may start elsewhere, so they get absolute paths and a
	// runner connected to the terminal for consent prompts.
	elevationRunner := tools.ExecRunner{Stdin: a.stdin, Stdout: a.stdout, Stderr: a.stderr}
	a.gate = privilege.NewGate(ctx, privilege.DefaultElevator(elevationRunner), privilege.Invocation{
		ConfigPath: a.configPath,
		RunID:      runID,
		LogLevel:   a.flags.logLevel,
		Child:      a.flags.elevated,
	})

	streaming := tools.ExecRunner{Dir: ctx.Dir, Env: ctx.Env.List(), Stdout: a.stdout, Stderr: a.stderr}
	captured := tools.ExecRunner{Dir: ctx.Dir, Env: ctx.Env.List()}
	locator := tools.NewPathLocator(ctx)
	a.installer = installer.New(installer.Config{Runner: streaming, Locator: locator, Gate: a.gate})

	// Under sudo, user-scope files go back to the invoking user.
	owner := settings.InvokingOwner(ctx)
	env := settings.DefaultEnvStore(ctx)
	a.applier = settings.NewApplier(map[settings.Target]settings.Store{
		settings.TargetAlias: settings.AliasStore{Paths: settings.DefaultPaths(ctx), Owner: owner},
		settings.TargetEnv:   env,
		settings.TargetVCS: settings.GitStore{
			Runner:     captured,
			GlobalFile: filepath.Join(ctx.HomeDir(), ".gitconfig"),
			Owner:      owner,
		},
	}, a.gate)
	a.links = links.NewCreator(links.DefaultLinker(ctx.Windows(), captured), a.gate)
	a.updater = updates.NewUpdater(streaming, locator, env)

	registry, err := a.operations()
	if err != nil {
		return err
	}
	a.dispatcher = ops.NewDispatcher(registry, a.gate)

	log.Debug().
		Str("user", ctx.Identity.Username()).
		Str("dir", ctx.Dir).
		Str("config", a.configPath).
		Bool("elevated_child", a.flags.elevated).
		Bool("elevated", a.gate.IsElevated()).
		Msg("bootctl.setup")
	return nil
}

// loadProfile reads the profile once. A missing default profile is not an
// error at session start; an explicitly named one is.
func (a *app) loadProfile() (config.Profile, error) {
	if a.profile != nil {
		return *a.profile, nil
	}
	p, err := config.Load(a.configPath)
	if err != nil {
		explicit := a.flags.configPath != "" || a.host.Env.Get(config.EnvConfigPath) != ""
		if !errors.Is(err, fs.ErrNotExist) || explicit {
			return config.Profile{}, err
		}
		log.Warn().Str("config", a.configPath).Msg("bootctl.profile missing, using defaults")
		p = config.DefaultProfile()
	}
	a.profile = &p
	return p, nil
}

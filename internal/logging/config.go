package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "BOOTCTL_LOG_LEVEL"
	EnvLogTimestamp = "BOOTCTL_LOG_TIMESTAMP"
	EnvLogNoColor   = "BOOTCTL_LOG_NOCOLOR"
	EnvLogJSON      = "BOOTCTL_LOG_JSON"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config is the resolved logger shape before it is installed as the global logger.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	JSON      bool
	Out       io.Writer
}

var configureOnce sync.Once

func ConfigureRuntime(app string) {
	Configure(ProfileRuntime, app)
}

func ConfigureTests() {
	Configure(ProfileTest, "bootctl-test")
}

// Configure installs the global zerolog logger once per process.
func Configure(profile Profile, app string) {
	configureOnce.Do(func() {
		cfg := DefaultConfig(profile)
		ApplyEnvOverrides(&cfg, os.Getenv)
		log.Logger = New(cfg, app)
		zerolog.SetGlobalLevel(cfg.Level)
	})
}

// SetLevel overrides the global level after Configure, used by the --log-level flag.
func SetLevel(raw string) bool {
	lvl, ok := ParseLevel(raw)
	if ok {
		log.Logger = log.Logger.Level(lvl)
		zerolog.SetGlobalLevel(lvl)
	}
	return ok
}

func DefaultConfig(profile Profile) Config {
	cfg := Config{Out: os.Stderr}
	switch profile {
	case ProfileTest:
		cfg.Level = zerolog.DebugLevel
		cfg.Timestamp = false
	default:
		cfg.Level = zerolog.InfoLevel
		cfg.Timestamp = true
	}
	if f, ok := cfg.Out.(*os.File); ok {
		fd := f.Fd()
		cfg.NoColor = !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
	}
	return cfg
}

// New builds a logger for cfg without touching global state.
func New(cfg Config, app string) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	if !cfg.JSON {
		if f, ok := out.(*os.File); ok && !cfg.NoColor {
			out = colorable.NewColorable(f)
		}
		out = zerolog.ConsoleWriter{
			Out:          out,
			NoColor:      cfg.NoColor,
			TimeFormat:   time.RFC3339,
			PartsExclude: excludedParts(cfg),
		}
	}
	ctx := zerolog.New(out).Level(cfg.Level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if app != "" {
		ctx = ctx.Str("app", app)
	}
	return ctx.Logger()
}

func excludedParts(cfg Config) []string {
	if cfg.Timestamp {
		return nil
	}
	return []string{zerolog.TimestampFieldName}
}

func ApplyEnvOverrides(cfg *Config, getenv func(string) string) {
	if lvl, ok := ParseLevel(getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
	if v, ok := parseBool(getenv(EnvLogJSON)); ok {
		cfg.JSON = v
	}
}

func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none", "inactive":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

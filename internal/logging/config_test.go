package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevelAliases(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":       zerolog.TraceLevel,
		"diagnostics": zerolog.TraceLevel,
		" DEBUG ":     zerolog.DebugLevel,
		"warning":     zerolog.WarnLevel,
		"off":         zerolog.Disabled,
	}
	for raw, want := range cases {
		got, ok := ParseLevel(raw)
		if !ok || got != want {
			t.Fatalf("parse %q: got=%v ok=%v want=%v", raw, got, ok, want)
		}
	}
	if _, ok := ParseLevel("loud"); ok {
		t.Fatalf("expected unknown level to be rejected")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		EnvLogLevel:     "error",
		EnvLogTimestamp: "false",
		EnvLogNoColor:   "1",
		EnvLogJSON:      "true",
	}
	cfg := DefaultConfig(ProfileRuntime)
	ApplyEnvOverrides(&cfg, func(k string) string { return env[k] })
	if cfg.Level != zerolog.ErrorLevel {
		t.Fatalf("unexpected level: %v", cfg.Level)
	}
	if cfg.Timestamp || !cfg.NoColor || !cfg.JSON {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestApplyEnvOverridesIgnoresGarbage(t *testing.T) {
	cfg := DefaultConfig(ProfileTest)
	ApplyEnvOverrides(&cfg, func(k string) string { return "maybe" })
	if cfg.Level != zerolog.DebugLevel || cfg.Timestamp {
		t.Fatalf("expected test profile defaults to survive, got %+v", cfg)
	}
}

func TestNewJSONCarriesApp(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: zerolog.InfoLevel, JSON: true, Out: &buf}, "bootctl")
	logger.Info().Str("op", "apply").Msg("hello")
	out := buf.String()
	if !strings.Contains(out, `"app":"bootctl"`) || !strings.Contains(out, `"op":"apply"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
	if strings.Contains(out, `"time"`) {
		t.Fatalf("expected no timestamp: %s", out)
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/bootctl/internal/host"
	"github.com/danmuck/bootctl/internal/installer"
	"github.com/danmuck/bootctl/internal/links"
	"github.com/danmuck/bootctl/internal/settings"
	"github.com/google/go-cmp/cmp"
)

func writeProfile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func TestTemplatesDecodeToSameProfile(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "profile.toml")
	yamlPath := filepath.Join(dir, "profile.yaml")
	if err := WriteTemplate(tomlPath, "toml", false); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	if err := WriteTemplate(yamlPath, "yaml", false); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	fromTOML, err := Load(tomlPath)
	if err != nil {
		t.Fatalf("load toml: %v", err)
	}
	fromYAML, err := Load(yamlPath)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if diff := cmp.Diff(fromTOML, fromYAML); diff != "" {
		t.Fatalf("toml and yaml templates differ (-toml +yaml):\n%s", diff)
	}

	if len(fromTOML.Tools) != 5 || fromTOML.Tools[1].Bin != "rg" {
		t.Fatalf("unexpected tools: %+v", fromTOML.Tools)
	}
	if fromTOML.Tools[3].CheckCommand[0] != "dotnet" {
		t.Fatalf("expected dotnet-ef check command, got %+v", fromTOML.Tools[3])
	}
	if fromTOML.Settings[1].Scope != settings.ScopeMachine || fromTOML.Settings[0].Scope != settings.ScopeUser {
		t.Fatalf("unexpected scopes: %+v", fromTOML.Settings)
	}
	if fromTOML.Settings[3].Target != settings.TargetVCS {
		t.Fatalf("unexpected target: %+v", fromTOML.Settings[3])
	}
	if fromTOML.Updates.Interval != 168*time.Hour {
		t.Fatalf("unexpected interval: %v", fromTOML.Updates.Interval)
	}
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.toml")
	if err := WriteTemplate(path, "toml", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteTemplate(path, "toml", false); !errors.Is(err, ErrConfigExists) {
		t.Fatalf("expected ErrConfigExists, got %v", err)
	}
	if err := WriteTemplate(path, "yaml", true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := WriteTemplate(path, "ini", true); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestLoadDefaultsWhenStartupOmitted(t *testing.T) {
	path := writeProfile(t, "p.toml", `
[[tools]]
name = "jq"
method = "SCOOP"
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !p.Startup.ApplySettings || !p.Startup.Update || p.Startup.Links {
		t.Fatalf("unexpected startup defaults: %+v", p.Startup)
	}
	if p.Updates.Interval != 7*24*time.Hour {
		t.Fatalf("unexpected default interval: %v", p.Updates.Interval)
	}
	if p.Tools[0].Method != installer.MethodScoop {
		t.Fatalf("expected method normalization, got %q", p.Tools[0].Method)
	}
}

func TestLoadStartupOptIn(t *testing.T) {
	path := writeProfile(t, "p.yml", "startup:\n  apply_settings: false\n")
	p, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Startup.ApplySettings {
		t.Fatalf("expected apply_settings disabled")
	}
	if !p.Startup.Update {
		t.Fatalf("expected update default to survive")
	}
}

func TestLoadRejections(t *testing.T) {
	cases := map[string]string{
		"dup.toml":      "[[tools]]\nname = \"a\"\nmethod = \"npm\"\n[[tools]]\nname = \"a\"\nmethod = \"npm\"\n",
		"method.toml":   "[[tools]]\nname = \"a\"\nmethod = \"pacman\"\n",
		"target.toml":   "[[settings]]\ntarget = \"registry\"\nkey = \"k\"\n",
		"scope.toml":    "[[settings]]\ntarget = \"env\"\nkey = \"k\"\nscope = \"galaxy\"\n",
		"unknown.toml":  "colour = \"blue\"\n",
		"manager.toml":  "[updates]\nmanagers = [\"pacman\"]\n",
		"interval.toml": "[updates]\ninterval = \"-1h\"\n",
		"link.yaml":     "links:\n  - source: /a\n",
		"unknown.yaml":  "colour: blue\n",
		"newline.toml":  "[[settings]]\ntarget = \"env\"\nkey = \"k\"\nvalue = \"a\\nb\"\n",
	}
	for name, content := range cases {
		if _, err := Load(writeProfile(t, name, content)); err == nil {
			t.Fatalf("%s: expected rejection", name)
		}
	}
}

func TestLoadBadDuration(t *testing.T) {
	path := writeProfile(t, "p.toml", "[updates]\ninterval = \"abc\"\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadEmptyYAML(t *testing.T) {
	p, err := Load(writeProfile(t, "p.yaml", ""))
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if diff := cmp.Diff(DefaultProfile(), p); diff != "" {
		t.Fatalf("expected defaults (-want +got):\n%s", diff)
	}
}

func TestResolvePathOrder(t *testing.T) {
	ctx := host.ProcessContext{GOOS: "linux", Env: host.EnvFromMap(map[string]string{"HOME": "/home/u"})}
	if got := ResolvePath("", ctx); got != filepath.Join("/home/u", ".config", "bootctl", "profile.toml") {
		t.Fatalf("unexpected default path: %q", got)
	}
	ctx.Env = ctx.Env.With(EnvConfigPath, "/etc/bootctl.yaml")
	if got := ResolvePath("", ctx); got != "/etc/bootctl.yaml" {
		t.Fatalf("expected env path, got %q", got)
	}
	if got := ResolvePath("./p.toml", ctx); got != "./p.toml" {
		t.Fatalf("expected flag path, got %q", got)
	}
}

func TestExpandLinks(t *testing.T) {
	path := writeProfile(t, "p.toml", "[[links]]\nsource = \"$HOME/sdk/go1.24\"\ntarget = \"${HOME}/sdk/go\"\n")
	p, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := p.ExpandLinks(host.EnvFromMap(map[string]string{"HOME": "/home/u"}))
	if got[0].Source != "/home/u/sdk/go1.24" || got[0].Target != "/home/u/sdk/go" {
		t.Fatalf("unexpected expansion: %+v", got[0])
	}
}

func TestEncodeRoundTripsThroughParse(t *testing.T) {
	p, err := Parse([]byte(tomlTemplate), "toml")
	if err != nil {
		t.Fatalf("parse template: %v", err)
	}
	p.Links = append(p.Links, links.Link{Source: "/opt/sdk/1.2", Target: "/opt/sdk/current", Privileged: true})
	for _, format := range []string{"toml", "yaml"} {
		data, err := Encode(p, format)
		if err != nil {
			t.Fatalf("encode %s: %v", format, err)
		}
		back, err := Parse(data, format)
		if err != nil {
			t.Fatalf("parse encoded %s: %v\n%s", format, err, data)
		}
		if diff := cmp.Diff(p, back); diff != "" {
			t.Fatalf("%s round trip differs (-want +got):\n%s", format, diff)
		}
	}
	if _, err := Encode(p, "ini"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

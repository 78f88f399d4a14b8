package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/bootctl/internal/host"
	"github.com/danmuck/bootctl/internal/installer"
	"github.com/danmuck/bootctl/internal/links"
	"github.com/danmuck/bootctl/internal/settings"
	"github.com/danmuck/bootctl/internal/updates"
	"gopkg.in/yaml.v3"
)

const EnvConfigPath = "BOOTCTL_CONFIG"

var (
	ErrConfigExists   = errors.New("config: already exists")
	ErrUnknownFormat  = errors.New("config: unknown format")
	ErrInvalidProfile = errors.New("config: invalid profile")
)

// Startup selects what the session entrypoint does.
type Startup struct {
	ApplySettings bool
	Update        bool
	Links         bool
}

// Profile is the validated description of one workstation.
type Profile struct {
	Startup  Startup
	Tools    []installer.Tool
	Settings []settings.Entry
	Links    []links.Link
	Updates  updates.Config
}

func DefaultProfile() Profile {
	return Profile{
		Startup: Startup{ApplySettings: true, Update: true},
		Updates: updates.Config{Interval: updates.DefaultInterval},
	}
}

type fileStartup struct {
	ApplySettings *bool `toml:"apply_settings,omitempty" yaml:"apply_settings,omitempty"`
	Update        *bool `toml:"update,omitempty" yaml:"update,omitempty"`
	Links         *bool `toml:"links,omitempty" yaml:"links,omitempty"`
}

type fileTool struct {
	Name       string   `toml:"name" yaml:"name"`
	Method     string   `toml:"method" yaml:"method"`
	Package    string   `toml:"package,omitempty" yaml:"package,omitempty"`
	Version    string   `toml:"version,omitempty" yaml:"version,omitempty"`
	Args       []string `toml:"args,omitempty" yaml:"args,omitempty"`
	Bin        string   `toml:"bin,omitempty" yaml:"bin,omitempty"`
	Check      []string `toml:"check,omitempty" yaml:"check,omitempty"`
	Privileged bool     `toml:"privileged,omitempty" yaml:"privileged,omitempty"`
}

type fileSetting struct {
	Target string `toml:"target" yaml:"target"`
	Key    string `toml:"key" yaml:"key"`
	Value  string `toml:"value" yaml:"value"`
	Scope  string `toml:"scope,omitempty" yaml:"scope,omitempty"`
}

type fileLink struct {
	Source     string `toml:"source" yaml:"source"`
	Target     string `toml:"target" yaml:"target"`
	Privileged bool   `toml:"privileged,omitempty" yaml:"privileged,omitempty"`
}

type fileUpdates struct {
	Interval    string   `toml:"interval,omitempty" yaml:"interval,omitempty"`
	Managers    []string `toml:"managers,omitempty" yaml:"managers,omitempty"`
	DotnetTools []string `toml:"dotnet_tools,omitempty" yaml:"dotnet_tools,omitempty"`
}

type fileProfile struct {
	Startup  fileStartup   `toml:"startup" yaml:"startup"`
	Tools    []fileTool    `toml:"tools,omitempty" yaml:"tools,omitempty"`
	Settings []fileSetting `toml:"settings,omitempty" yaml:"settings,omitempty"`
	Links    []fileLink    `toml:"links,omitempty" yaml:"links,omitempty"`
	Updates  fileUpdates   `toml:"updates" yaml:"updates"`
}

// ResolvePath picks the profile path: flag, then BOOTCTL_CONFIG, then the
// per-user config directory.
func ResolvePath(flag string, ctx host.ProcessContext) string {
	if p := strings.TrimSpace(flag); p != "" {
		return p
	}
	if p := strings.TrimSpace(ctx.Env.Get(EnvConfigPath)); p != "" {
		return p
	}
	return filepath.Join(ctx.ConfigDir(), "bootctl", "profile.toml")
}

// Format maps a path's extension to "toml" or "yaml".
func Format(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

func Load(path string) (Profile, error) {
	format, err := Format(path)
	if err != nil {
		return Profile{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	p, err := Parse(data, format)
	if err != nil {
		return Profile{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return p, nil
}

func Parse(data []byte, format string) (Profile, error) {
	var raw fileProfile
	switch format {
	case "toml":
		meta, err := toml.Decode(string(data), &raw)
		if err != nil {
			return Profile{}, err
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Profile{}, fmt.Errorf("%w: unknown keys %v", ErrInvalidProfile, undecoded)
		}
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return Profile{}, err
		}
	default:
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return raw.profile()
}

func (raw fileProfile) profile() (Profile, error) {
	p := DefaultProfile()
	if raw.Startup.ApplySettings != nil {
		p.Startup.ApplySettings = *raw.Startup.ApplySettings
	}
	if raw.Startup.Update != nil {
		p.Startup.Update = *raw.Startup.Update
	}
	if raw.Startup.Links != nil {
		p.Startup.Links = *raw.Startup.Links
	}

	seen := map[string]struct{}{}
	for i, t := range raw.Tools {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return Profile{}, fmt.Errorf("%w: tools[%d] missing name", ErrInvalidProfile, i)
		}
		if _, dup := seen[name]; dup {
			return Profile{}, fmt.Errorf("%w: duplicate tool %q", ErrInvalidProfile, name)
		}
		seen[name] = struct{}{}
		method, ok := installer.ParseMethod(t.Method)
		if !ok {
			return Profile{}, fmt.Errorf("%w: tool %q unknown method %q", ErrInvalidProfile, name, t.Method)
		}
		tool := installer.Tool{
			Name:         name,
			Method:       method,
			Package:      strings.TrimSpace(t.Package),
			Version:      strings.TrimSpace(t.Version),
			Args:         t.Args,
			Bin:          strings.TrimSpace(t.Bin),
			CheckCommand: t.Check,
			Privileged:   t.Privileged,
		}
		if _, err := installer.Command(tool); err != nil {
			return Profile{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
		}
		p.Tools = append(p.Tools, tool)
	}

	for i, s := range raw.Settings {
		target, ok := settings.ParseTarget(s.Target)
		if !ok {
			return Profile{}, fmt.Errorf("%w: settings[%d] unknown target %q", ErrInvalidProfile, i, s.Target)
		}
		scope, ok := settings.ParseScope(s.Scope)
		if !ok {
			return Profile{}, fmt.Errorf("%w: settings[%d] unknown scope %q", ErrInvalidProfile, i, s.Scope)
		}
		entry := settings.Entry{Key: strings.TrimSpace(s.Key), Value: s.Value, Target: target, Scope: scope}
		if err := entry.Validate(); err != nil {
			return Profile{}, fmt.Errorf("%w: settings[%d]: %v", ErrInvalidProfile, i, err)
		}
		p.Settings = append(p.Settings, entry)
	}

	for i, l := range raw.Links {
		if strings.TrimSpace(l.Source) == "" || strings.TrimSpace(l.Target) == "" {
			return Profile{}, fmt.Errorf("%w: links[%d] needs source and target", ErrInvalidProfile, i)
		}
		p.Links = append(p.Links, links.Link{Source: l.Source, Target: l.Target, Privileged: l.Privileged})
	}

	if v := strings.TrimSpace(raw.Updates.Interval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Profile{}, fmt.Errorf("parse updates.interval: %w", err)
		}
		if d <= 0 {
			return Profile{}, fmt.Errorf("%w: updates.interval must be positive", ErrInvalidProfile)
		}
		p.Updates.Interval = d
	}
	for _, m := range raw.Updates.Managers {
		if _, err := updates.Commands(m, nil); err != nil {
			return Profile{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
		}
		p.Updates.Managers = append(p.Updates.Managers, strings.ToLower(strings.TrimSpace(m)))
	}
	p.Updates.DotnetTools = raw.Updates.DotnetTools
	return p, nil
}

// ExpandLinks resolves $VAR references in link paths against env.
func (p Profile) ExpandLinks(env host.Env) []links.Link {
	out := make([]links.Link, 0, len(p.Links))
	for _, l := range p.Links {
		l.Source = os.Expand(l.Source, env.Get)
		l.Target = os.Expand(l.Target, env.Get)
		out = append(out, l)
	}
	return out
}

// Tool finds a tool by name.
func (p Profile) Tool(name string) (installer.Tool, bool) {
	for _, t := range p.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return installer.Tool{}, false
}

package host

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// IdentityProbe reports facts about the security principal running the process.
// Implementations must query the OS on every call.
type IdentityProbe interface {
	Username() string
	Elevated() bool
}

// ProcessContext is an explicit snapshot of the state a shell session would
// otherwise provide implicitly.
type ProcessContext struct {
	Dir        string
	Executable string
	GOOS       string
	Env        Env
	Identity   IdentityProbe
}

// Current snapshots the running process.
func Current() (ProcessContext, error) {
	dir, err := os.Getwd()
	if err != nil {
		return ProcessContext{}, err
	}
	exe, err := os.Executable()
	if err != nil {
		return ProcessContext{}, err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return ProcessContext{
		Dir:        dir,
		Executable: exe,
		GOOS:       runtime.GOOS,
		Env:        EnvFromList(os.Environ()),
		Identity:   OSIdentity{},
	}, nil
}

func (p ProcessContext) Windows() bool {
	return p.GOOS == "windows"
}

// HomeDir resolves the user's home from the snapshot rather than the live process.
func (p ProcessContext) HomeDir() string {
	if p.Windows() {
		if v := p.Env.Get("USERPROFILE"); v != "" {
			return v
		}
	}
	return p.Env.Get("HOME")
}

// ConfigDir mirrors os.UserConfigDir over the snapshot.
func (p ProcessContext) ConfigDir() string {
	switch p.GOOS {
	case "windows":
		return p.Env.Get("APPDATA")
	case "darwin":
		if home := p.HomeDir(); home != "" {
			return filepath.Join(home, "Library", "Application Support")
		}
		return ""
	default:
		if v := p.Env.Get("XDG_CONFIG_HOME"); v != "" {
			return v
		}
		if home := p.HomeDir(); home != "" {
			return filepath.Join(home, ".config")
		}
		return ""
	}
}

// Env is an environment snapshot. Keys are case-insensitive on Windows.
type Env struct {
	vars     map[string]string
	foldCase bool
}

func EnvFromList(list []string) Env {
	return envFromList(list, runtime.GOOS == "windows")
}

// EnvFromMap builds a case-sensitive snapshot from vars.
func EnvFromMap(vars map[string]string) Env {
	e := Env{vars: make(map[string]string, len(vars))}
	for k, v := range vars {
		e.vars[k] = v
	}
	return e
}

func envFromList(list []string, foldCase bool) Env {
	e := Env{vars: make(map[string]string, len(list)), foldCase: foldCase}
	for _, kv := range list {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		e.vars[e.key(k)] = v
	}
	return e
}

func (e Env) key(k string) string {
	if e.foldCase {
		return strings.ToUpper(k)
	}
	return k
}

func (e Env) Get(k string) string {
	return e.vars[e.key(k)]
}

func (e Env) Lookup(k string) (string, bool) {
	v, ok := e.vars[e.key(k)]
	return v, ok
}

// With returns a copy of e with k set to v.
func (e Env) With(k, v string) Env {
	out := Env{vars: make(map[string]string, len(e.vars)+1), foldCase: e.foldCase}
	for key, val := range e.vars {
		out.vars[key] = val
	}
	out.vars[out.key(k)] = v
	return out
}

// List renders the snapshot in os.Environ form, sorted by key.
func (e Env) List() []string {
	keys := make([]string, 0, len(e.vars))
	for k := range e.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+e.vars[k])
	}
	return out
}

// PathList splits PATH using the separator of the snapshot's platform.
func (p ProcessContext) PathList() []string {
	sep := ":"
	if p.Windows() {
		sep = ";"
	}
	raw := p.Env.Get("PATH")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, sep)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

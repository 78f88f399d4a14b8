package tools

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/bootctl/internal/host"
)

// ToolLocator answers whether a named executable is available.
type ToolLocator interface {
	Locate(name string) (string, bool)
}

// PathLocator searches the PATH of a process context snapshot instead of the
// live environment, so lookups are reproducible in tests.
type PathLocator struct {
	Context host.ProcessContext
	// Stat defaults to os.Stat.
	Stat func(string) (os.FileInfo, error)
}

func NewPathLocator(ctx host.ProcessContext) PathLocator {
	return PathLocator{Context: ctx}
}

func (l PathLocator) Locate(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	candidates := l.candidates(name)
	if strings.ContainsAny(name, `/\`) {
		for _, c := range candidates {
			if l.executable(c) {
				return c, true
			}
		}
		return "", false
	}
	for _, dir := range l.Context.PathList() {
		for _, c := range candidates {
			full := filepath.Join(dir, c)
			if l.executable(full) {
				return full, true
			}
		}
	}
	return "", false
}

func (l PathLocator) candidates(name string) []string {
	if !l.Context.Windows() {
		return []string{name}
	}
	if filepath.Ext(name) != "" {
		return []string{name}
	}
	exts := l.Context.Env.Get("PATHEXT")
	if exts == "" {
		exts = ".COM;.EXE;.BAT;.CMD"
	}
	out := []string{}
	for _, ext := range strings.Split(exts, ";") {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		out = append(out, name+strings.ToLower(ext))
	}
	return out
}

func (l PathLocator) executable(path string) bool {
	stat := l.Stat
	if stat == nil {
		stat = os.Stat
	}
	info, err := stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if l.Context.Windows() {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

// StaticLocator is a fixed name->path table, useful for tests and dry runs.
type StaticLocator map[string]string

func (s StaticLocator) Locate(name string) (string, bool) {
	p, ok := s[name]
	return p, ok
}

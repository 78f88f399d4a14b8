// Package links creates directory links that point tool roots at shared locations.
package links

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/bootctl/internal/tools"
	"github.com/rs/zerolog/log"
)

var (
	ErrPathNotFound = errors.New("links: path not found")
	ErrTargetExists = errors.New("links: target exists and is not the expected link")
	ErrInvalidLink  = errors.New("links: invalid link")
)

// ElevatedOp is the operation an elevated child dispatches to create links.
const ElevatedOp = "link"

// Link makes Target resolve to Source.
type Link struct {
	Source     string
	Target     string
	Privileged bool
}

// Linker creates and inspects links. Junction links need an external command
// on Windows; everything else goes through os.
type Linker interface {
	Create(source, target string) error
	Resolve(target string) (string, error)
}

// Gate is the slice of the privilege gate the link step needs.
type Gate interface {
	IsElevated() bool
	Delegate(op string, args ...string) error
}

type Creator struct {
	linker Linker
	gate   Gate
}

// NewCreator builds a Creator that delegates privileged links through gate.
func NewCreator(linker Linker, gate Gate) *Creator {
	return &Creator{linker: linker, gate: gate}
}

// Create makes every link in order, stopping at the first error. Links already
// pointing at their source are left alone.
func (c *Creator) Create(ctx context.Context, list []Link) error {
	privileged := false
	for _, l := range list {
		if strings.TrimSpace(l.Source) == "" || strings.TrimSpace(l.Target) == "" {
			return fmt.Errorf("%w: source and target are required", ErrInvalidLink)
		}
		privileged = privileged || l.Privileged
	}
	if privileged && c.gate != nil && !c.gate.IsElevated() {
		return c.gate.Delegate(ElevatedOp)
	}
	for _, l := range list {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.ensure(l); err != nil {
			return err
		}
	}
	return nil
}

func (c *Creator) ensure(l Link) error {
	source := filepath.Clean(l.Source)
	target := filepath.Clean(l.Target)
	info, err := os.Stat(source)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: source=%q", ErrPathNotFound, l.Source)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: source=%q is not a directory", ErrInvalidLink, l.Source)
	}

	if _, err := os.Lstat(target); err == nil {
		current, rerr := c.linker.Resolve(target)
		if rerr == nil && samePath(current, source) {
			log.Debug().Str("target", target).Msg("links.ensure present")
			return nil
		}
		return fmt.Errorf("%w: target=%q", ErrTargetExists, l.Target)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if _, err := os.Stat(filepath.Dir(target)); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: parent of target=%q", ErrPathNotFound, l.Target)
	}
	if err := c.linker.Create(source, target); err != nil {
		return fmt.Errorf("link %s -> %s: %w", target, source, err)
	}
	log.Info().Str("source", source).Str("target", target).Msg("links.ensure created")
	return nil
}

func samePath(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if ra, err := filepath.EvalSymlinks(a); err == nil {
		a = ra
	}
	if rb, err := filepath.EvalSymlinks(b); err == nil {
		b = rb
	}
	return strings.EqualFold(a, b) || a == b
}

// SymlinkLinker uses os.Symlink.
type SymlinkLinker struct{}

func (SymlinkLinker) Create(source, target string) error {
	return os.Symlink(source, target)
}

func (SymlinkLinker) Resolve(target string) (string, error) {
	return os.Readlink(target)
}

// JunctionLinker creates NTFS junctions with `cmd /c mklink /J`, which needs no
// elevation unlike directory symlinks.
type JunctionLinker struct {
	Runner tools.CommandRunner
}

func (j JunctionLinker) Create(source, target string) error {
	_, stderr, code, err := j.Runner.Run("cmd", "/c", "mklink", "/J", target, source)
	if err != nil {
		return fmt.Errorf("mklink exit=%d stderr=%q: %w", code, strings.TrimSpace(string(stderr)), err)
	}
	return nil
}

func (JunctionLinker) Resolve(target string) (string, error) {
	return os.Readlink(target)
}

// DefaultLinker picks junctions on Windows and symlinks elsewhere.
func DefaultLinker(windows bool, runner tools.CommandRunner) Linker {
	if windows {
		return JunctionLinker{Runner: runner}
	}
	return SymlinkLinker{}
}

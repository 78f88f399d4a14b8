package settings

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/bootctl/internal/tools"
)

// GitStore writes global or system git configuration through git itself.
type GitStore struct {
	Runner tools.CommandRunner
	Binary string
	// GlobalFile is the --global config path handed to Owner after a
	// user-scope write. git replaces the file on each write.
	GlobalFile string
	Owner      *Owner
}

func (g GitStore) scopeFlag(scope Scope) string {
	if scope == ScopeMachine {
		return "--system"
	}
	return "--global"
}

func (g GitStore) binary() string {
	if g.Binary != "" {
		return g.Binary
	}
	return "git"
}

func (g GitStore) Set(scope Scope, key, value string) error {
	args := []string{"config", g.scopeFlag(scope), key, value}
	_, stderr, code, err := g.Runner.Run(g.binary(), args...)
	if err == nil {
		if scope == ScopeUser && g.Owner != nil && g.GlobalFile != "" {
			if _, serr := os.Stat(g.GlobalFile); serr == nil {
				return g.Owner.give(g.GlobalFile)
			}
		}
		return nil
	}
	msg := strings.TrimSpace(string(stderr))
	if strings.Contains(strings.ToLower(msg), "permission denied") {
		return fmt.Errorf("%w: git config %s %s: %s", ErrPermissionDenied, g.scopeFlag(scope), key, msg)
	}
	return fmt.Errorf("git config %s %s exit=%d stderr=%q: %w", g.scopeFlag(scope), key, code, msg, err)
}

// Get reads a single value; git exits 1 when the key is unset.
func (g GitStore) Get(scope Scope, key string) (string, bool, error) {
	stdout, stderr, code, err := g.Runner.Run(g.binary(), "config", g.scopeFlag(scope), "--get", key)
	if err == nil {
		return strings.TrimRight(string(stdout), "\r\n"), true, nil
	}
	if code == 1 {
		return "", false, nil
	}
	return "", false, fmt.Errorf("git config --get %s exit=%d stderr=%q: %w", key, code, strings.TrimSpace(string(stderr)), err)
}

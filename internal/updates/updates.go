// Package updates runs package-manager refreshes at most once per interval.
//
// The last run time is kept in a user-scoped environment variable so no state
// lives outside OS-level configuration.
package updates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/bootctl/internal/settings"
	"github.com/danmuck/bootctl/internal/tools"
	"github.com/rs/zerolog/log"
)

// StampVar holds the RFC3339 time of the last completed update run.
const StampVar = "BOOTCTL_LAST_UPDATE"

const DefaultInterval = 7 * 24 * time.Hour

var ErrUnknownManager = errors.New("updates: unknown package manager")

// Managers lists the package managers with a refresh command.
var Managers = []string{"scoop", "winget", "npm", "dotnet", "brew"}

type Config struct {
	Interval    time.Duration
	Managers    []string
	DotnetTools []string
}

// Commands returns the refresh argv list for one manager.
func Commands(manager string, dotnetTools []string) ([][]string, error) {
	switch strings.ToLower(strings.TrimSpace(manager)) {
	case "scoop":
		return [][]string{{"scoop", "update"}, {"scoop", "update", "*"}}, nil
	case "winget":
		return [][]string{{"winget", "upgrade", "--all", "--silent", "--accept-source-agreements", "--accept-package-agreements"}}, nil
	case "npm":
		return [][]string{{"npm", "update", "-g"}}, nil
	case "dotnet":
		out := make([][]string, 0, len(dotnetTools))
		for _, t := range dotnetTools {
			out = append(out, []string{"dotnet", "tool", "update", "-g", t})
		}
		return out, nil
	case "brew":
		return [][]string{{"brew", "update"}, {"brew", "upgrade"}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownManager, manager)
	}
}

// Summary describes one Run.
type Summary struct {
	Skipped bool
	Next    time.Time
	Ran     []string
	Missing []string
	Failed  []error
}

func (s Summary) Err() error {
	return errors.Join(s.Failed...)
}

type Updater struct {
	runner  tools.CommandRunner
	locator tools.ToolLocator
	env     settings.EnvStore
	now     func() time.Time
}

// NewUpdater builds an Updater that keeps its last-run stamp in env.
func NewUpdater(runner tools.CommandRunner, locator tools.ToolLocator, env settings.EnvStore) *Updater {
	return &Updater{runner: runner, locator: locator, env: env, now: time.Now}
}

// Due reports whether the interval since the last stamp has elapsed.
func (u *Updater) Due(cfg Config) (bool, time.Time, error) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	raw, ok, err := u.env.Get(settings.ScopeUser, StampVar)
	if err != nil {
		return false, time.Time{}, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return true, time.Time{}, nil
	}
	last, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		log.Warn().Str("value", raw).Msg("updates.due unparsable stamp, treating as due")
		return true, time.Time{}, nil
	}
	next := last.Add(interval)
	return !u.now().Before(next), next, nil
}

// Run refreshes every configured manager in order, continuing past failures.
// A manager counts as ran only when all of its commands succeed. The stamp is
// written unless every attempted manager failed.
func (u *Updater) Run(ctx context.Context, cfg Config, force bool) (Summary, error) {
	var sum Summary
	if !force {
		due, next, err := u.Due(cfg)
		if err != nil {
			return sum, err
		}
		if !due {
			log.Info().Time("next", next).Msg("updates.run not due")
			return Summary{Skipped: true, Next: next}, nil
		}
	}

	for _, manager := range cfg.Managers {
		cmds, err := Commands(manager, cfg.DotnetTools)
		if err != nil {
			return sum, err
		}
		if _, ok := u.locator.Locate(manager); !ok {
			log.Debug().Str("manager", manager).Msg("updates.run manager not installed")
			sum.Missing = append(sum.Missing, manager)
			continue
		}
		ok := true
		for _, argv := range cmds {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			log.Info().Strs("argv", argv).Msg("updates.exec")
			_, stderr, code, err := u.runner.Run(argv[0], argv[1:]...)
			if err != nil {
				ok = false
				sum.Failed = append(sum.Failed, fmt.Errorf(
					"updates %s exit=%d stderr=%q: %w",
					strings.Join(argv, " "), code, strings.TrimSpace(string(stderr)), err,
				))
			}
		}
		if ok {
			sum.Ran = append(sum.Ran, manager)
		}
	}

	// Nothing refreshed: leave the stamp so the next session retries.
	if len(sum.Failed) > 0 && len(sum.Ran) == 0 {
		log.Warn().Int("failed", len(sum.Failed)).Msg("updates.run no manager refreshed")
		return sum, nil
	}
	if err := u.env.Set(settings.ScopeUser, StampVar, u.now().UTC().Format(time.RFC3339)); err != nil {
		return sum, fmt.Errorf("record update stamp: %w", err)
	}
	log.Info().Strs("ran", sum.Ran).Int("failed", len(sum.Failed)).Msg("updates.run done")
	return sum, nil
}

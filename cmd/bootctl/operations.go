package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/bootctl/internal/config"
	"github.com/danmuck/bootctl/internal/installer"
	"github.com/danmuck/bootctl/internal/links"
	"github.com/danmuck/bootctl/internal/ops"
	"github.com/danmuck/bootctl/internal/settings"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

var errInstallBatch = errors.New("bootctl: one or more tools failed to install")

// operations builds the dispatch table shared by the CLI verbs and the
// elevated child's "run" entry.
func (a *app) operations() (*ops.Registry, error) {
	registry := ops.NewRegistry()
	for _, op := range []ops.Func{
		{
			Meta: ops.Spec{Name: "start", Description: "session entrypoint: settings, links and due updates", Idempotent: true},
			Fn:   a.runStart,
		},
		{
			Meta: ops.Spec{Name: settings.ElevatedOp, Description: "apply profile settings", Idempotent: true},
			Fn:   a.runApply,
		},
		{
			Meta: ops.Spec{Name: installer.ElevatedOp, Description: "install missing tools [--tool name]", Idempotent: true},
			Fn:   a.runInstall,
		},
		{
			Meta: ops.Spec{Name: links.ElevatedOp, Description: "create profile links", Idempotent: true},
			Fn:   a.runLink,
		},
		{
			Meta: ops.Spec{Name: "update", Description: "refresh package managers when due [--force]"},
			Fn:   a.runUpdate,
		},
		{
			Meta: ops.Spec{Name: "admin-apply", Description: "apply profile settings from an elevated process", Privileged: true, Idempotent: true},
			Fn:   a.runApply,
		},
		{
			Meta: ops.Spec{Name: "admin-install", Description: "install missing tools from an elevated process", Privileged: true, Idempotent: true},
			Fn:   a.runInstall,
		},
	} {
		if err := registry.Register(op); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (a *app) runStart(ctx context.Context, args []string) error {
	p, err := a.loadProfile()
	if err != nil {
		return err
	}
	if p.Startup.ApplySettings {
		if err := a.applier.ApplySettings(ctx, p.Settings); err != nil {
			return err
		}
	} else {
		log.Debug().Msg("bootctl.start settings disabled")
	}
	if p.Startup.Links {
		if err := a.links.Create(ctx, p.ExpandLinks(a.host.Env)); err != nil {
			return err
		}
	}
	if p.Startup.Update && len(p.Updates.Managers) > 0 {
		// Refresh failures never block a shell from starting.
		sum, err := a.updater.Run(ctx, p.Updates, false)
		if err == nil {
			err = sum.Err()
		}
		if err != nil {
			log.Warn().Err(err).Msg("bootctl.start update failed")
		}
	}
	return nil
}

func (a *app) runApply(ctx context.Context, args []string) error {
	p, err := a.loadProfile()
	if err != nil {
		return err
	}
	return a.applier.ApplySettings(ctx, p.Settings)
}

func (a *app) runLink(ctx context.Context, args []string) error {
	p, err := a.loadProfile()
	if err != nil {
		return err
	}
	return a.links.Create(ctx, p.ExpandLinks(a.host.Env))
}

func (a *app) runInstall(ctx context.Context, args []string) error {
	names, err := parseInstallArgs(args)
	if err != nil {
		return err
	}
	p, err := a.loadProfile()
	if err != nil {
		return err
	}
	list, err := selectTools(p, names)
	if err != nil {
		return err
	}
	report, err := a.installer.EnsureAllInstalled(ctx, list)
	for _, res := range report.Results {
		line := fmt.Sprintf("%-24s %s", res.Tool, res.Status)
		if res.Status == installer.StatusFailed {
			line += "  " + res.Reason
		}
		fmt.Fprintln(a.stdout, line)
	}
	if err != nil {
		return err
	}
	if failures := report.Err(); failures != nil {
		return fmt.Errorf("%w: %w", errInstallBatch, failures)
	}
	return nil
}

func (a *app) runUpdate(ctx context.Context, args []string) error {
	force, err := parseUpdateArgs(args)
	if err != nil {
		return err
	}
	p, err := a.loadProfile()
	if err != nil {
		return err
	}
	sum, err := a.updater.Run(ctx, p.Updates, force)
	if err != nil {
		return err
	}
	if sum.Skipped {
		fmt.Fprintf(a.stdout, "updates not due until %s\n", sum.Next.Local().Format("2006-01-02 15:04"))
		return nil
	}
	if len(sum.Missing) > 0 {
		fmt.Fprintf(a.stdout, "skipped (not installed): %s\n", strings.Join(sum.Missing, ", "))
	}
	return sum.Err()
}

func parseInstallArgs(args []string) ([]string, error) {
	fs := pflag.NewFlagSet("install", pflag.ContinueOnError)
	names := fs.StringArray("tool", nil, "tool name from the profile")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("install: unexpected arguments %v", fs.Args())
	}
	return *names, nil
}

func parseUpdateArgs(args []string) (bool, error) {
	fs := pflag.NewFlagSet("update", pflag.ContinueOnError)
	force := fs.Bool("force", false, "ignore the update interval")
	if err := fs.Parse(args); err != nil {
		return false, err
	}
	if fs.NArg() > 0 {
		return false, fmt.Errorf("update: unexpected arguments %v", fs.Args())
	}
	return *force, nil
}

// selectTools keeps profile order; an empty selection means every tool.
func selectTools(p config.Profile, names []string) ([]installer.Tool, error) {
	if len(names) == 0 {
		return p.Tools, nil
	}
	out := make([]installer.Tool, 0, len(names))
	for _, name := range names {
		if _, ok := p.Tool(name); !ok {
			return nil, fmt.Errorf("%w: %q is not in the profile", installer.ErrInvalidTool, name)
		}
	}
	for _, t := range p.Tools {
		for _, name := range names {
			if t.Name == name {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}

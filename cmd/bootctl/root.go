package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/danmuck/bootctl/internal/config"
	"github.com/danmuck/bootctl/internal/logging"
	"github.com/danmuck/bootctl/internal/observability"
	"github.com/danmuck/bootctl/internal/settings"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logging.ConfigureRuntime("bootctl")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(stdin, stdout, stderr)
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if path := strings.TrimSpace(a.flags.metricsFile); path != "" {
		if werr := observability.WriteTextfile(path); werr != nil {
			log.Warn().Err(werr).Str("path", path).Msg("bootctl.metrics write failed")
		}
	}
	if err != nil {
		reportError(stderr, err)
	}
	return exitCode(err)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "bootctl",
		Short:         "Workstation bootstrap: tools, settings, links and updates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatcher.Dispatch(cmd.Context(), "start", nil)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "profile path (default $"+config.EnvConfigPath+" or the user config dir)")
	pf.StringVar(&a.flags.metricsFile, "metrics-file", "", "write prometheus textfile metrics here on exit")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "trace|debug|info|warn|error")
	pf.BoolVar(&a.flags.elevated, "elevated", false, "set by the elevated re-invocation")
	pf.StringVar(&a.flags.runID, "run-id", "", "run id inherited from the parent process")
	_ = pf.MarkHidden("elevated")
	_ = pf.MarkHidden("run-id")

	root.AddCommand(
		opCmd(a, "start", "Run the session entrypoint"),
		opCmd(a, "apply", "Apply profile settings"),
		installCmd(a),
		opCmd(a, "link", "Create profile links"),
		updateCmd(a),
		runCmd(a),
		opsCmd(a),
		hookCmd(a),
		configCmd(a),
	)
	return root
}

func opCmd(a *app, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatcher.Dispatch(cmd.Context(), name, nil)
		},
	}
}

func installCmd(a *app) *cobra.Command {
	var names []string
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install missing profile tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opArgs []string
			for _, n := range names {
				opArgs = append(opArgs, "--tool", n)
			}
			return a.dispatcher.Dispatch(cmd.Context(), "install", opArgs)
		},
	}
	cmd.Flags().StringArrayVar(&names, "tool", nil, "limit to this tool (repeatable)")
	return cmd
}

func updateCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Refresh package managers when the interval elapsed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opArgs []string
			if force {
				opArgs = []string{"--force"}
			}
			return a.dispatcher.Dispatch(cmd.Context(), "update", opArgs)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore the update interval")
	return cmd
}

func runCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run <op> [-- args]",
		Short: "Dispatch a named operation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatcher.Dispatch(cmd.Context(), args[0], args[1:])
		},
	}
}

func opsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List dispatchable operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPRIVILEGED\tDESCRIPTION")
			for _, spec := range a.dispatcher.Registry().List() {
				fmt.Fprintf(tw, "%s\t%t\t%s\n", spec.Name, spec.Privileged, spec.Description)
			}
			return tw.Flush()
		},
	}
}

func hookCmd(a *app) *cobra.Command {
	var shell string
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Print shell profile lines that load managed settings and run bootctl",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if shell == "" {
				shell = "posix"
				if a.host.Windows() {
					shell = "powershell"
				}
			}
			lines, err := hookLines(shell, a.host.Executable, settings.DefaultPaths(a.host).Sources())
			if err != nil {
				return err
			}
			for _, l := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&shell, "shell", "", "posix|powershell (default by platform)")
	return cmd
}

// hookLines runs bootctl first so that freshly written files are sourced.
func hookLines(shell, exe string, sources []string) ([]string, error) {
	switch shell {
	case "posix", "sh", "bash", "zsh":
		out := []string{posixQuote(exe)}
		for _, s := range sources {
			out = append(out, fmt.Sprintf("[ -r %s ] && . %s", posixQuote(s), posixQuote(s)))
		}
		return out, nil
	case "powershell", "pwsh":
		out := []string{"& " + psQuote(exe)}
		for _, s := range sources {
			out = append(out, fmt.Sprintf("if (Test-Path %s) { . %s }", psQuote(s), psQuote(s)))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown shell %q", shell)
	}
}

func posixQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func configCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the bootctl profile",
	}

	var format string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a profile template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if format == "" {
				format = "toml"
				if f, err := config.Format(path); err == nil {
					format = f
				}
			}
			if err := config.WriteTemplate(path, format, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&format, "format", "", "toml|yaml (default from the file extension)")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing profile")

	var showFormat string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProfile()
			if err != nil {
				return err
			}
			if showFormat == "" {
				showFormat = "toml"
				if f, err := config.Format(a.configPath); err == nil {
					showFormat = f
				}
			}
			data, err := config.Encode(p, showFormat)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", a.configPath)
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	showCmd.Flags().StringVar(&showFormat, "format", "", "toml|yaml (default from the file extension)")

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

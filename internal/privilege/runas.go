package privilege

import (
	"fmt"
	"strings"

	"github.com/danmuck/bootctl/internal/tools"
)

// RunAsElevator re-invokes through PowerShell's Start-Process -Verb RunAs,
// which raises the UAC consent dialog and waits for the child.
type RunAsElevator struct {
	Runner tools.CommandRunner
	Shell  string
}

func (r RunAsElevator) Elevate(exe string, args []string) (ExitStatus, error) {
	shell := r.Shell
	if shell == "" {
		shell = "powershell"
	}
	_, stderr, code, err := r.Runner.Run(shell, "-NoProfile", "-NonInteractive", "-Command", runAsScript(exe, args))
	if err == nil {
		return 0, nil
	}
	if code == tools.ExitNotFound {
		return ExitStatus(code), fmt.Errorf("%w: %s unavailable: %v", ErrElevationDenied, shell, err)
	}
	if strings.Contains(strings.ToLower(string(stderr)), "canceled by the user") {
		return ExitStatus(code), fmt.Errorf("%w: consent dialog declined", ErrElevationDenied)
	}
	return ExitStatus(code), nil
}

func runAsScript(exe string, args []string) string {
	quoted := make([]string, 0, len(args))
	for _, a := range args {
		quoted = append(quoted, psQuote(psArg(a)))
	}
	list := "@()"
	if len(quoted) > 0 {
		list = "@(" + strings.Join(quoted, ",") + ")"
	}
	return fmt.Sprintf(
		"$ErrorActionPreference = 'Stop'; $p = Start-Process -FilePath %s -ArgumentList %s -Verb RunAs -Wait -PassThru; exit $p.ExitCode",
		psQuote(exe),
		list,
	)
}

// psQuote wraps s in a PowerShell single-quoted literal.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// psArg quotes one argument for the child command line Start-Process builds.
func psArg(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

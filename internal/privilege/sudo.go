package privilege

import (
	"fmt"
	"strings"

	"github.com/danmuck/bootctl/internal/tools"
)

var sudoDenials = []string{
	"incorrect password attempt",
	"a password is required",
	"is not in the sudoers file",
	"is not allowed to execute",
	"a terminal is required",
}

// PreservedEnv is kept across sudo so user-scoped writes in the child still
// land in the invoking user's files.
var PreservedEnv = []string{"HOME", "XDG_CONFIG_HOME", "BOOTCTL_CONFIG"}

// SudoElevator re-invokes through sudo. The runner should stream to the
// operator's terminal so the child's output stays visible.
type SudoElevator struct {
	Runner tools.CommandRunner
}

func (s SudoElevator) Elevate(exe string, args []string) (ExitStatus, error) {
	argv := []string{"--preserve-env=" + strings.Join(PreservedEnv, ","), "--", exe}
	argv = append(argv, args...)
	_, stderr, code, err := s.Runner.Run("sudo", argv...)
	if err == nil {
		return 0, nil
	}
	if code == tools.ExitNotFound {
		return ExitStatus(code), fmt.Errorf("%w: sudo unavailable: %v", ErrElevationDenied, err)
	}
	msg := strings.ToLower(string(stderr))
	for _, denial := range sudoDenials {
		if strings.Contains(msg, denial) {
			return ExitStatus(code), fmt.Errorf("%w: %s", ErrElevationDenied, strings.TrimSpace(string(stderr)))
		}
	}
	return ExitStatus(code), nil
}

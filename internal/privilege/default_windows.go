//go:build windows

package privilege

import "github.com/danmuck/bootctl/internal/tools"

func DefaultElevator(runner tools.CommandRunner) Elevator {
	return RunAsElevator{Runner: runner}
}

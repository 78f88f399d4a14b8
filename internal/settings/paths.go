package settings

import (
	"path/filepath"

	"github.com/danmuck/bootctl/internal/host"
)

// Paths locates the managed files per scope.
type Paths struct {
	UserAliases    string
	MachineAliases string
	UserEnv        string
	MachineEnv     string
	PowerShell     bool
}

func DefaultPaths(ctx host.ProcessContext) Paths {
	userDir := filepath.Join(ctx.ConfigDir(), "bootctl")
	if ctx.Windows() {
		programData := ctx.Env.Get("ProgramData")
		if programData == "" {
			programData = `C:\ProgramData`
		}
		machineDir := filepath.Join(programData, "bootctl")
		return Paths{
			UserAliases:    filepath.Join(userDir, "aliases.ps1"),
			MachineAliases: filepath.Join(machineDir, "aliases.ps1"),
			UserEnv:        filepath.Join(userDir, "env.ps1"),
			MachineEnv:     filepath.Join(machineDir, "env.ps1"),
			PowerShell:     true,
		}
	}
	return Paths{
		UserAliases:    filepath.Join(userDir, "aliases.sh"),
		MachineAliases: "/etc/profile.d/bootctl-aliases.sh",
		UserEnv:        filepath.Join(userDir, "env.sh"),
		MachineEnv:     "/etc/profile.d/bootctl-env.sh",
	}
}

func (p Paths) aliases(scope Scope) string {
	if scope == ScopeMachine {
		return p.MachineAliases
	}
	return p.UserAliases
}

func (p Paths) env(scope Scope) string {
	if scope == ScopeMachine {
		return p.MachineEnv
	}
	return p.UserEnv
}

// Sources lists the files a shell profile should dot-source, machine first.
func (p Paths) Sources() []string {
	return []string{p.MachineEnv, p.UserEnv, p.MachineAliases, p.UserAliases}
}

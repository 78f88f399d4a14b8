package installer

import (
	"fmt"
	"strings"

	"github.com/danmuck/bootctl/internal/tools"
)

type Method string

const (
	MethodScoop   Method = "scoop"
	MethodWinget  Method = "winget"
	MethodNpm     Method = "npm"
	MethodDotnet  Method = "dotnet"
	MethodGo      Method = "go"
	MethodBrew    Method = "brew"
	MethodApt     Method = "apt"
	MethodCommand Method = "command"
)

// Methods lists every supported install method.
var Methods = []Method{MethodScoop, MethodWinget, MethodNpm, MethodDotnet, MethodGo, MethodBrew, MethodApt, MethodCommand}

func ParseMethod(raw string) (Method, bool) {
	m := Method(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Methods {
		if m == known {
			return m, true
		}
	}
	return "", false
}

// Tool describes one external tool bootctl keeps installed.
type Tool struct {
	Name    string
	Method  Method
	Package string
	Version string
	// Args is the literal argv for MethodCommand and extra flags otherwise.
	Args []string
	// Bin is the executable the default presence check looks for; Name when empty.
	Bin string
	// CheckCommand, when set, replaces the PATH lookup with a command that exits
	// zero when the tool is present.
	CheckCommand []string
	// Check overrides both Bin and CheckCommand.
	Check      PresenceCheck
	Privileged bool
}

func (t Tool) pkg() string {
	if p := strings.TrimSpace(t.Package); p != "" {
		return p
	}
	return strings.TrimSpace(t.Name)
}

func (t Tool) bin() string {
	if b := strings.TrimSpace(t.Bin); b != "" {
		return b
	}
	return strings.TrimSpace(t.Name)
}

// PresenceCheck reports whether a tool is already available.
type PresenceCheck interface {
	Present() (bool, error)
	String() string
}

// BinaryOnPath is satisfied when the locator finds Name. It never spawns a process.
type BinaryOnPath struct {
	Locator tools.ToolLocator
	Name    string
}

func (b BinaryOnPath) Present() (bool, error) {
	_, ok := b.Locator.Locate(b.Name)
	return ok, nil
}

func (b BinaryOnPath) String() string {
	return "path:" + b.Name
}

// CommandSucceeds is satisfied when Argv exits zero. A missing executable
// counts as absent rather than an error.
type CommandSucceeds struct {
	Runner tools.CommandRunner
	Argv   []string
}

func (c CommandSucceeds) Present() (bool, error) {
	if len(c.Argv) == 0 {
		return false, fmt.Errorf("%w: empty check command", ErrInvalidTool)
	}
	_, _, _, err := c.Runner.Run(c.Argv[0], c.Argv[1:]...)
	return err == nil, nil
}

func (c CommandSucceeds) String() string {
	return "cmd:" + strings.Join(c.Argv, " ")
}

// Command returns the argv that installs t. Privileged selects the machine-wide
// variant where the package manager has one.
func Command(t Tool) ([]string, error) {
	pkg := t.pkg()
	version := strings.TrimSpace(t.Version)
	var argv []string
	switch t.Method {
	case MethodScoop:
		if version != "" {
			pkg += "@" + version
		}
		argv = []string{"scoop", "install", pkg}
		if t.Privileged {
			argv = append(argv, "--global")
		}
	case MethodWinget:
		argv = []string{"winget", "install", "--id", pkg, "-e", "--silent",
			"--accept-source-agreements", "--accept-package-agreements"}
		if version != "" {
			argv = append(argv, "--version", version)
		}
		if t.Privileged {
			argv = append(argv, "--scope", "machine")
		}
	case MethodNpm:
		if version != "" {
			pkg += "@" + version
		}
		argv = []string{"npm", "install", "-g", pkg}
	case MethodDotnet:
		argv = []string{"dotnet", "tool", "install", "-g", pkg}
		if version != "" {
			argv = append(argv, "--version", version)
		}
	case MethodGo:
		if version == "" {
			version = "latest"
		}
		argv = []string{"go", "install", pkg + "@" + version}
	case MethodBrew:
		argv = []string{"brew", "install", pkg}
	case MethodApt:
		if version != "" {
			pkg += "=" + version
		}
		argv = []string{"apt-get", "install", "-y", pkg}
	case MethodCommand:
		if len(t.Args) == 0 || strings.TrimSpace(t.Args[0]) == "" {
			return nil, fmt.Errorf("%w: tool=%q method=command needs args", ErrInvalidTool, t.Name)
		}
		return append([]string(nil), t.Args...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, t.Method)
	}
	return append(argv, t.Args...), nil
}

// managerBinary is the executable a method depends on, empty for MethodCommand.
func managerBinary(m Method) string {
	switch m {
	case MethodApt:
		return "apt-get"
	case MethodCommand:
		return ""
	default:
		return string(m)
	}
}

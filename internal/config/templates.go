package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func Template(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "toml":
		return tomlTemplate, nil
	case "yaml", "yml":
		return yamlTemplate, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func WriteTemplate(path, format string, overwrite bool) error {
	template, err := Template(format)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const tomlTemplate = `[startup]
apply_settings = true
update = true
links = false

[[tools]]
name = "git"
method = "winget"
package = "Git.Git"

[[tools]]
name = "ripgrep"
method = "scoop"
bin = "rg"

[[tools]]
name = "typescript"
method = "npm"
bin = "tsc"

[[tools]]
name = "dotnet-ef"
method = "dotnet"
check = ["dotnet", "ef", "--version"]

[[tools]]
name = "gopls"
method = "go"
package = "golang.org/x/tools/gopls"

[[settings]]
target = "env"
key = "DOTNET_CLI_TELEMETRY_OPTOUT"
value = "1"

[[settings]]
target = "env"
key = "POWERSHELL_TELEMETRY_OPTOUT"
value = "1"
scope = "machine"

[[settings]]
target = "alias"
key = "ll"
value = "ls -la"

[[settings]]
target = "vcs"
key = "alias.st"
value = "status -sb"

[[settings]]
target = "vcs"
key = "core.autocrlf"
value = "input"

[[settings]]
target = "vcs"
key = "credential.helper"
value = "manager"

[updates]
interval = "168h"
managers = ["scoop", "winget", "npm", "dotnet"]
dotnet_tools = ["dotnet-ef"]
`

const yamlTemplate = `startup:
  apply_settings: true
  update: true
  links: false

tools:
  - name: git
    method: winget
    package: Git.Git
  - name: ripgrep
    method: scoop
    bin: rg
  - name: typescript
    method: npm
    bin: tsc
  - name: dotnet-ef
    method: dotnet
    check: [dotnet, ef, --version]
  - name: gopls
    method: go
    package: golang.org/x/tools/gopls

settings:
  - target: env
    key: DOTNET_CLI_TELEMETRY_OPTOUT
    value: "1"
  - target: env
    key: POWERSHELL_TELEMETRY_OPTOUT
    value: "1"
    scope: machine
  - target: alias
    key: ll
    value: ls -la
  - target: vcs
    key: alias.st
    value: status -sb
  - target: vcs
    key: core.autocrlf
    value: input
  - target: vcs
    key: credential.helper
    value: manager

updates:
  interval: 168h
  managers: [scoop, winget, npm, dotnet]
  dotnet_tools: [dotnet-ef]
`

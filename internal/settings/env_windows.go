//go:build windows

package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/bootctl/internal/host"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

const machineEnvKey = `SYSTEM\CurrentControlSet\Control\Session Manager\Environment`

func DefaultEnvStore(host.ProcessContext) EnvStore {
	return RegistryEnv{}
}

// RegistryEnv writes the same keys [Environment]::SetEnvironmentVariable uses.
type RegistryEnv struct{}

func (RegistryEnv) key(scope Scope) (registry.Key, string) {
	if scope == ScopeMachine {
		return registry.LOCAL_MACHINE, machineEnvKey
	}
	return registry.CURRENT_USER, "Environment"
}

func (r RegistryEnv) Set(scope Scope, key, value string) error {
	root, path := r.key(scope)
	k, _, err := registry.CreateKey(root, path, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return registryErr(path, err)
	}
	defer k.Close()
	if strings.Contains(value, "%") {
		err = k.SetExpandStringValue(key, value)
	} else {
		err = k.SetStringValue(key, value)
	}
	return registryErr(path, err)
}

func (r RegistryEnv) Get(scope Scope, key string) (string, bool, error) {
	root, path := r.key(scope)
	k, err := registry.OpenKey(root, path, registry.QUERY_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, registryErr(path, err)
	}
	defer k.Close()
	v, _, err := k.GetStringValue(key)
	if errors.Is(err, registry.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, registryErr(path, err)
	}
	return v, true, nil
}

func registryErr(path string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, windows.ERROR_ACCESS_DENIED) {
		return fmt.Errorf("%w: registry %s", ErrPermissionDenied, path)
	}
	return fmt.Errorf("registry %s: %w", path, err)
}

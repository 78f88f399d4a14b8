package settings

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPermissionDenied = errors.New("settings: permission denied")
	ErrInvalidEntry     = errors.New("settings: invalid entry")
	ErrNoStore          = errors.New("settings: no store for target")
)

type Target string

const (
	TargetAlias Target = "alias"
	TargetEnv   Target = "env"
	TargetVCS   Target = "vcs"
)

type Scope string

const (
	ScopeUser    Scope = "user"
	ScopeMachine Scope = "machine"
)

func ParseTarget(raw string) (Target, bool) {
	switch t := Target(strings.ToLower(strings.TrimSpace(raw))); t {
	case TargetAlias, TargetEnv, TargetVCS:
		return t, true
	case "git":
		return TargetVCS, true
	case "environment":
		return TargetEnv, true
	}
	return "", false
}

// ParseScope treats an empty scope as user.
func ParseScope(raw string) (Scope, bool) {
	switch s := Scope(strings.ToLower(strings.TrimSpace(raw))); s {
	case "", ScopeUser:
		return ScopeUser, true
	case ScopeMachine, "system":
		return ScopeMachine, true
	}
	return "", false
}

// Entry is one key/value write against a target store.
type Entry struct {
	Key    string
	Value  string
	Target Target
	Scope  Scope
}

func (e Entry) String() string {
	return fmt.Sprintf("%s/%s:%s", e.Target, e.Scope, e.Key)
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.Key) == "" {
		return fmt.Errorf("%w: missing key", ErrInvalidEntry)
	}
	if _, ok := ParseTarget(string(e.Target)); !ok {
		return fmt.Errorf("%w: %s unknown target %q", ErrInvalidEntry, e.Key, e.Target)
	}
	if _, ok := ParseScope(string(e.Scope)); !ok {
		return fmt.Errorf("%w: %s unknown scope %q", ErrInvalidEntry, e.Key, e.Scope)
	}
	// Stores keep one entry per line; a line break would split the entry.
	if strings.ContainsAny(e.Key, "\r\n") || strings.ContainsAny(e.Value, "\r\n") {
		return fmt.Errorf("%w: %s value contains a line break", ErrInvalidEntry, e.Key)
	}
	if e.Target == TargetAlias && strings.ContainsAny(e.Key, " \t'\"=;{}") {
		return fmt.Errorf("%w: alias name %q", ErrInvalidEntry, e.Key)
	}
	if e.Target == TargetEnv && strings.ContainsAny(e.Key, " \t='\"") {
		return fmt.Errorf("%w: variable name %q", ErrInvalidEntry, e.Key)
	}
	return nil
}

// PermissionDeniedError names the entry whose write was rejected.
type PermissionDeniedError struct {
	Entry Entry
	Err   error
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("settings: permission denied writing %s: %v", e.Entry, e.Err)
}

func (e *PermissionDeniedError) Is(target error) bool {
	return target == ErrPermissionDenied
}

func (e *PermissionDeniedError) Unwrap() error {
	return e.Err
}

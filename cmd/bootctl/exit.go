package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/bootctl/internal/links"
	"github.com/danmuck/bootctl/internal/privilege"
	"github.com/danmuck/bootctl/internal/settings"
)

const (
	exitOK               = 0
	exitGeneric          = 1
	exitInstallFailures  = 2
	exitElevationDenied  = 3
	exitPermissionDenied = 4
	exitPathNotFound     = 5
)

// exitCode maps an error to the process status. A failed elevated child
// passes its own status through.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var child *privilege.ChildExitError
	switch {
	case errors.As(err, &child):
		if code := child.ExitCode(); code != 0 {
			return code
		}
		return exitGeneric
	case errors.Is(err, privilege.ErrElevationDenied):
		return exitElevationDenied
	case errors.Is(err, settings.ErrPermissionDenied):
		return exitPermissionDenied
	case errors.Is(err, links.ErrPathNotFound):
		return exitPathNotFound
	case errors.Is(err, errInstallBatch):
		return exitInstallFailures
	default:
		return exitGeneric
	}
}

// reportError prints one line per joined failure.
func reportError(w io.Writer, err error) {
	for _, e := range flatten(err) {
		fmt.Fprintf(w, "bootctl: %v\n", e)
	}
}

// flatten expands the first errors.Join found along the wrap chain.
func flatten(err error) []error {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			var out []error
			for _, c := range joined.Unwrap() {
				out = append(out, flatten(c)...)
			}
			return out
		}
	}
	if err == nil {
		return nil
	}
	return []error{err}
}

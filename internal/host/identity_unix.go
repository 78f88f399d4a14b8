//go:build !windows

package host

import (
	"os/user"

	"golang.org/x/sys/unix"
)

// OSIdentity queries the live process identity.
type OSIdentity struct{}

func (OSIdentity) Username() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	return u.Username
}

// Elevated reports an effective uid of root.
func (OSIdentity) Elevated() bool {
	return unix.Geteuid() == 0
}

//go:build windows

package host

import (
	"os/user"

	"golang.org/x/sys/windows"
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

// Elevated reports whether the process token is elevated or a member of
// BUILTIN\Administrators.
func (OSIdentity) Elevated() bool {
	if windows.GetCurrentProcessToken().IsElevated() {
		return true
	}
	member, err := adminMember()
	return err == nil && member
}

// adminMember checks group membership through Token(0), which makes
// CheckTokenMembership use the calling thread's impersonation token. The
// primary process pseudo-token is rejected by that call.
func adminMember() (bool, error) {
	adminSID, err := windows.CreateWellKnownSid(windows.WinBuiltinAdministratorsSid)
	if err != nil {
		return false, err
	}
	return windows.Token(0).IsMember(adminSID)
}

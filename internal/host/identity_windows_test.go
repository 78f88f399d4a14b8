//go:build windows

package host

import "testing"

func TestAdminMembershipQuerySucceeds(t *testing.T) {
	if _, err := adminMember(); err != nil {
		t.Fatalf("membership check failed: %v", err)
	}
	first := OSIdentity{}.Elevated()
	if second := (OSIdentity{}).Elevated(); first != second {
		t.Fatalf("elevation changed between calls: %t then %t", first, second)
	}
}

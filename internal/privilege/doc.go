// Package privilege owns the elevation gate.
//
// Ownership boundary:
// - elevation state queries against the process identity
// - re-invocation of bootctl under an elevation request
//
// Privileged work never runs in an unelevated process. It is delegated to a
// fresh elevated child that re-enters the operation dispatch table by name.
package privilege

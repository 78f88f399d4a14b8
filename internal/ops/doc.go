// Package ops owns the operation dispatch table.
//
// Ownership boundary:
// - operation specs keyed by stable name
// - dispatch that runs in-process or re-enters through an elevated child
//
// A fresh elevated process and a direct call resolve the same table entry, so
// no operation needs to know which way it was reached.
package ops

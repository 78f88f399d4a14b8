// Package tools provides process helpers shared by the installer, appliers and
// the privilege gate.
//
// Ownership boundary:
// - command execution helpers
// - tool presence lookup over a process context's PATH
package tools

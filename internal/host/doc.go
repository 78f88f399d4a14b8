// Package host captures the ambient process state bootctl depends on.
//
// Ownership boundary:
// - working directory, environment snapshot and executable path
// - identity probe used for elevation checks
package host

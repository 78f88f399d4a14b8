// Package settings owns the configuration applier.
//
// Ownership boundary:
// - setting entries (alias, environment variable, git config)
// - user and machine scoped stores with overwrite semantics
// - delegation of machine-scoped batches through the privilege gate
package settings

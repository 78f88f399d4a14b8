// Package installer owns idempotent tool installation.
//
// Ownership boundary:
// - tool descriptors and presence checks
// - package-manager install command construction
// - ordered batch installs with end-of-batch failure reporting
package installer

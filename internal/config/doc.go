// Package config loads the workstation profile.
//
// Ownership boundary:
// - profile path resolution and TOML/YAML decoding
// - validation into installer, settings, links and updates types
// - profile templates for "config init"
package config

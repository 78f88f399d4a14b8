// Package observability owns bootctl's prometheus series.
//
// Ownership boundary:
// - counters and histograms for installs, settings, elevation and operations
// - textfile export for node_exporter
package observability

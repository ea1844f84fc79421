// Package bibkit flattens catalog records into tables and aggregates loan
// statistics for visualization.
package bibkit

const (
	Version = "0.1.0"
	AppName = "bibkit"
)

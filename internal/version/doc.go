// Package version exposes build metadata for the tool.
//
// Version, Commit and BuildTime are injected via Go ldflags and fall back
// to sensible defaults for local builds. Short and Full render the metadata
// for CLI output and logs.
package version

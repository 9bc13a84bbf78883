// Package version contains build version information.
package version

// Version is the current application version, set at build time via ldflags.
var Version = "0.1.0"

// GitCommit is the git commit hash.
var GitCommit = "unknown"

// BuildDate is the build date.
var BuildDate = "unknown"

package core

import "context"

// Inspector reads control metadata out of a package archive
type Inspector interface {
	// Name identifies the implementation ("dpkg", "native")
	Name() string

	// Validate reports whether the archive can be read at all
	Validate(ctx context.Context, path string) bool

	// Field returns a single control field, or "" when absent or unreadable
	Field(ctx context.Context, path, field string) string
}

// StateLookup answers "is this package installed, and at what version"
type StateLookup interface {
	Name() string

	// Lookup returns nil when the package is unknown to the database
	Lookup(ctx context.Context, pkgName string) (*InstalledState, error)
}

// Checker runs the pre-install checks for an archive
type Checker interface {
	Check(ctx context.Context, path string, info PackageInfo) CheckResult
}

// InstallEvent is produced by a running installer. Exactly one event carries
// a Result and it is always the last one before the channel is closed.
type InstallEvent struct {
	Output string
	Result *InstallResult
}

// Executor spawns the real installer
type Executor interface {
	Start(ctx context.Context, path string) (<-chan InstallEvent, error)
}

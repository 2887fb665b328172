package core

import "time"

// Status is the lifecycle state of an install session
type Status int

const (
	StatusNotStarted Status = iota
	StatusInstalling
	StatusFailed
	StatusSucceeded
)

// String returns the lowercase name of the status
func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not-started"
	case StatusInstalling:
		return "installing"
	case StatusFailed:
		return "failed"
	case StatusSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// PackageInfo holds the control fields extracted from a .deb archive
type PackageInfo struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	Maintainer    string `json:"maintainer,omitempty"`
	Description   string `json:"description,omitempty"`
	Homepage      string `json:"homepage,omitempty"`
	InstalledSize string `json:"installed_size,omitempty"`

	// Relations used by the system safety check. Raw control field values.
	Breaks    string `json:"breaks,omitempty"`
	Conflicts string `json:"conflicts,omitempty"`
}

// InstalledState describes what the package database knows about a package name
type InstalledState struct {
	Installed bool   `json:"installed"`
	Version   string `json:"version,omitempty"`
	Essential bool   `json:"essential,omitempty"`
}

// CheckProblem classifies why a package cannot be installed
type CheckProblem int

const (
	ProblemNone CheckProblem = iota
	ProblemDependency
	ProblemConflict
	ProblemBreaksSystem
	ProblemUnknown
)

// String returns the name of the problem class
func (p CheckProblem) String() string {
	switch p {
	case ProblemNone:
		return "none"
	case ProblemDependency:
		return "dependency"
	case ProblemConflict:
		return "conflict"
	case ProblemBreaksSystem:
		return "breaks-system"
	default:
		return "unknown"
	}
}

// CheckResult is the outcome of the pre-install checks
type CheckResult struct {
	Installable bool
	Problem     CheckProblem
	Message     string
	Output      string
}

// InstallResult is the outcome of a finished installer process
type InstallResult struct {
	ExitCode   int
	NormalExit bool
	// ErrorOutput is installer output that was never relayed as an event,
	// set only on failure
	ErrorOutput string
	Duration    time.Duration
}

// Succeeded reports whether the installer exited normally with code 0
func (r InstallResult) Succeeded() bool {
	return r.NormalExit && r.ExitCode == 0
}

// User-facing messages
const (
	MsgNotDebianPackage    = "Error: Not a valid Debian package"
	MsgInvalidPackage      = "Error: Invalid or corrupted package"
	MsgUnmetDependencies   = "Error: Unmet dependencies"
	MsgPackageConflicts    = "Error: Package conflicts"
	MsgBreaksSystem        = "Error: Package would break the system"
	MsgCannotSatisfy       = "Error: Cannot satisfy dependencies"
	MsgStartingInstall     = "Starting installation"
	MsgInstallSucceeded    = "Installation successful"
	MsgInstallFailed       = "Installation failed"
	MsgCacheUnavailable    = "Failed to open package status database"
	InstallErrorLogHeading = "Error:"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitGeneral         = 1
	ExitInvalidArgs     = 2
	ExitInstallFailed   = 3
	ExitNotInstallable  = 4
	ExitDatabase        = 5
	ExitCommandNotFound = 8
	ExitInterrupted     = 130
)

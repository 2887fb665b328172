package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{StatusNotStarted, "not-started"},
		{StatusInstalling, "installing"},
		{StatusFailed, "failed"},
		{StatusSucceeded, "succeeded"},
		{Status(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.String())
		})
	}
}

func TestCheckProblem_String(t *testing.T) {
	tests := []struct {
		problem  CheckProblem
		expected string
	}{
		{ProblemNone, "none"},
		{ProblemDependency, "dependency"},
		{ProblemConflict, "conflict"},
		{ProblemBreaksSystem, "breaks-system"},
		{ProblemUnknown, "unknown"},
		{CheckProblem(-1), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.problem.String())
		})
	}
}

func TestInstallResult_Succeeded(t *testing.T) {
	tests := []struct {
		name     string
		result   InstallResult
		expected bool
	}{
		{"normal exit 0", InstallResult{ExitCode: 0, NormalExit: true, Duration: time.Second}, true},
		{"normal exit 1", InstallResult{ExitCode: 1, NormalExit: true}, false},
		{"abnormal exit 0", InstallResult{ExitCode: 0, NormalExit: false}, false},
		{"killed", InstallResult{ExitCode: -1, NormalExit: false}, false},
		{"zero value", InstallResult{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.Succeeded())
		})
	}
}

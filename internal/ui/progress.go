package ui

import (
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Spinner shows an indeterminate progress indicator while dpkg runs
type Spinner struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

// NewSpinner creates a spinner for unknown-length operations
func NewSpinner(description string) *Spinner {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(10),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)

	return &Spinner{bar: bar}
}

// Describe changes the description of the spinner
func (s *Spinner) Describe(description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bar.Describe(description)
}

// Tick advances the spinner animation
func (s *Spinner) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.bar.Add(1)
}

// Finish clears the spinner
func (s *Spinner) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bar.Finish()
}

// Feed advances the spinner for a chunk of dpkg output and updates the
// description with the latest recognised phase
func (s *Spinner) Feed(output string) {
	if phase := LastPhase(output); phase != "" {
		s.Describe(phase)
	}
	s.Tick()
}

var dpkgPhases = []string{
	"Selecting previously unselected package",
	"Preparing to unpack",
	"Unpacking",
	"Setting up",
	"Processing triggers for",
}

// LastPhase returns the last line of dpkg output that starts a known
// install phase, or "" when the chunk has none
func LastPhase(output string) string {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		for _, phase := range dpkgPhases {
			if strings.HasPrefix(line, phase) {
				return strings.TrimSpace(strings.TrimSuffix(line, "..."))
			}
		}
	}
	return ""
}

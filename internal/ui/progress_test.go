package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLastPhase(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{
			name:   "empty",
			output: "",
			want:   "",
		},
		{
			name:   "no known phase",
			output: "(Reading database ... 12345 files and directories currently installed.)\n",
			want:   "",
		},
		{
			name:   "unpacking",
			output: "Preparing to unpack foo_1.2_amd64.deb ...\nUnpacking foo (1.2) ...\n",
			want:   "Unpacking foo (1.2)",
		},
		{
			name:   "last phase wins",
			output: "Unpacking foo (1.2) ...\nSetting up foo (1.2) ...\n",
			want:   "Setting up foo (1.2)",
		},
		{
			name:   "triggers",
			output: "Processing triggers for man-db (2.12.0-4) ...",
			want:   "Processing triggers for man-db (2.12.0-4)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LastPhase(tt.output))
		})
	}
}

func TestSpinner(t *testing.T) {
	captureOutput(t)

	s := NewSpinner("Installing")
	s.Feed("Unpacking foo (1.2) ...\n")
	s.Feed("random line\n")
	s.Tick()
	assert.NoError(t, s.Finish())
}

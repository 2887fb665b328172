package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		query  string
		target string
		want   bool
	}{
		{"", "anything", true},
		{"   ", "anything", true},
		{"foo", "foo 1.2", true},
		{"FOO", "foo 1.2", true},
		{"fb", "foobar", true},
		{"bar", "foo", false},
		{"lbssl", "libssl3 3.0.2", true},
	}

	for _, tt := range tests {
		t.Run(tt.query+"/"+tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, FuzzyMatch(tt.query, tt.target))
		})
	}
}

func TestErrCancelled(t *testing.T) {
	assert.EqualError(t, ErrCancelled, "operation cancelled by user")
}

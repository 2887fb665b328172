package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple", input: "foo", wantErr: false},
		{name: "with digits and plus", input: "libstdc++6", wantErr: false},
		{name: "with dots and dashes", input: "python3.12-venv", wantErr: false},
		{name: "empty", input: "", wantErr: true},
		{name: "single char", input: "a", wantErr: true},
		{name: "uppercase", input: "Foo", wantErr: true},
		{name: "leading dash", input: "-foo", wantErr: true},
		{name: "option injection", input: "--admindir=/tmp", wantErr: true},
		{name: "spaces", input: "foo bar", wantErr: true},
		{name: "shell metachar", input: "foo;rm", wantErr: true},
		{name: "arch qualifier", input: "foo:amd64", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 256), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateVersion(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple", input: "1.2", wantErr: false},
		{name: "with revision", input: "1.2.3-1ubuntu2", wantErr: false},
		{name: "with epoch", input: "2:8.2.3995-1", wantErr: false},
		{name: "tilde", input: "1.0~rc1-1", wantErr: false},
		{name: "plus", input: "1.0+dfsg-2", wantErr: false},
		{name: "empty", input: "", wantErr: true},
		{name: "leading dot", input: ".1", wantErr: true},
		{name: "spaces", input: "1.0 beta", wantErr: true},
		{name: "slash", input: "1.0/2", wantErr: true},
		{name: "too long", input: strings.Repeat("1", 256), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVersion(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFieldName(t *testing.T) {
	for _, field := range []string{"Package", "Installed-Size", "Pre-Depends", "X-Custom1"} {
		assert.NoError(t, ValidateFieldName(field), field)
	}
	for _, field := range []string{"", "1Field", "Field:", "Fie ld", "Field.*", "(Package)"} {
		assert.Error(t, ValidateFieldName(field), field)
	}
}

func TestValidateArchivePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "absolute", input: "/tmp/foo_1.2_amd64.deb", wantErr: false},
		{name: "spaces allowed", input: "/home/user/My Downloads/foo.deb", wantErr: false},
		{name: "empty", input: "", wantErr: true},
		{name: "relative", input: "foo.deb", wantErr: true},
		{name: "option-like", input: "--force-all", wantErr: true},
		{name: "null byte", input: "/tmp/foo\x00.deb", wantErr: true},
		{name: "newline", input: "/tmp/foo\n.deb", wantErr: true},
		{name: "too long", input: "/" + strings.Repeat("a", 4096), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArchivePath(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

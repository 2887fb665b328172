package helpers

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDebianPackage(t *testing.T) {
	fs := afero.NewMemMapFs()

	tarHeader := make([]byte, 512)
	copy(tarHeader[257:], "ustar")

	files := map[string][]byte{
		"/pkgs/foo.deb":      []byte("!<arch>\ndebian-binary   0           0     0     100644  4         `\n2.0\n"),
		"/pkgs/renamed.bin":  []byte("!<arch>\ndebian-binary"),
		"/pkgs/plain.ar":     []byte("!<arch>\nfoo.o/"),
		"/pkgs/plain-ar.deb": []byte("!<arch>\nfoo.o/"),
		"/pkgs/broken.deb":   {0x00, 0x01, 0x02, 0xff},
		"/pkgs/empty.deb":    {},
		"/pkgs/text.deb":     []byte("this is not a package\n"),
		"/pkgs/foo.rpm":      {0xED, 0xAB, 0xEE, 0xDB, 0x03},
		"/pkgs/rpm.deb":      {0xED, 0xAB, 0xEE, 0xDB, 0x03},
		"/pkgs/elf.deb":      {0x7F, 'E', 'L', 'F', 0x02},
		"/pkgs/script.deb":   []byte("#!/bin/sh\necho hi\n"),
		"/pkgs/tar.deb":      tarHeader,
		"/pkgs/gz.deb":       {0x1F, 0x8B, 0x08},
		"/pkgs/xz.deb":       {0xFD, '7', 'z', 'X', 'Z', 0x00},
		"/pkgs/zst.deb":      {0x28, 0xB5, 0x2F, 0xFD},
		"/pkgs/zip.deb":      []byte("PK\x03\x04"),
		"/pkgs/notes.txt":    []byte("hello\n"),
		"/pkgs/UPPER.DEB":    {0x00, 0x01},
		"/pkgs/binary.noext": {0x00, 0x01},
	}
	for path, data := range files {
		require.NoError(t, afero.WriteFile(fs, path, data, 0644))
	}

	tests := []struct {
		path string
		want bool
	}{
		{"/pkgs/foo.deb", true},
		{"/pkgs/renamed.bin", true},
		{"/pkgs/plain.ar", false},
		{"/pkgs/plain-ar.deb", true},
		{"/pkgs/broken.deb", true},
		{"/pkgs/empty.deb", true},
		{"/pkgs/text.deb", false},
		{"/pkgs/foo.rpm", false},
		{"/pkgs/rpm.deb", false},
		{"/pkgs/elf.deb", false},
		{"/pkgs/script.deb", false},
		{"/pkgs/tar.deb", false},
		{"/pkgs/gz.deb", false},
		{"/pkgs/xz.deb", false},
		{"/pkgs/zst.deb", false},
		{"/pkgs/zip.deb", false},
		{"/pkgs/notes.txt", false},
		{"/pkgs/UPPER.DEB", true},
		{"/pkgs/binary.noext", false},
		{"/pkgs/missing.deb", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDebianPackage(fs, tt.path))
		})
	}
}

func TestDetectDebianErrors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := detectDebian(fs, "/pkgs/missing.deb")
	assert.Error(t, err)
}

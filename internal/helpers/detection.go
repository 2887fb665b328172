package helpers

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

var (
	// Debian packages are ar archives whose first member is debian-binary
	debMagic = []byte("!<arch>\ndebian")
	arMagic  = []byte("!<arch>\n")

	// Headers of other package and archive formats. A file starting with one
	// of these is never a .deb, whatever its name.
	foreignMagics = [][]byte{
		{0xED, 0xAB, 0xEE, 0xDB},         // rpm
		{0x7F, 'E', 'L', 'F'},            // elf
		[]byte("#!"),                     // script
		{0x1F, 0x8B},                     // gzip
		{0xFD, '7', 'z', 'X', 'Z', 0x00}, // xz
		{0x28, 0xB5, 0x2F, 0xFD},         // zstd
		{'P', 'K'},                       // zip
	}
)

// IsDebianPackage reports whether the file looks like a Debian binary package
func IsDebianPackage(fs afero.Fs, filePath string) bool {
	ok, err := detectDebian(fs, filePath)
	return err == nil && ok
}

// detectDebian checks the magic bytes, falling back to the extension for
// .deb files whose header is damaged
func detectDebian(fs afero.Fs, filePath string) (bool, error) {
	f, err := fs.Open(filePath)
	if err != nil {
		return false, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 512)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, fmt.Errorf("failed to read file header: %w", err)
	}
	header = header[:n]

	if bytes.HasPrefix(header, debMagic) {
		return true, nil
	}
	if isForeign(header) {
		return false, nil
	}

	// A truncated or damaged archive still counts as a .deb by name, the
	// inspector is the one that rejects it
	if strings.EqualFold(filepath.Ext(filePath), ".deb") {
		return len(header) == 0 || bytes.HasPrefix(header, arMagic) || !isText(header), nil
	}
	return false, nil
}

func isForeign(header []byte) bool {
	for _, magic := range foreignMagics {
		if bytes.HasPrefix(header, magic) {
			return true
		}
	}
	// POSIX tar
	return len(header) >= 262 && bytes.Equal(header[257:262], []byte("ustar"))
}

// isText reports whether the header is printable ASCII
func isText(header []byte) bool {
	for _, b := range header {
		if b == '\n' || b == '\r' || b == '\t' {
			continue
		}
		if b < 0x20 || b > 0x7E {
			return false
		}
	}
	return true
}

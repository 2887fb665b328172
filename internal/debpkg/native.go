package debpkg

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/quantmind-br/debinstall/internal/security"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/ulikunitz/xz"
)

const (
	arGlobalHeader = "!<arch>\n"
	arHeaderSize   = 60

	// control.tar members are tiny; anything larger is not a real package
	maxControlArchiveSize = 64 << 20
)

var (
	errNoControlArchive = errors.New("control.tar not found in package")
	errNoControlFile    = errors.New("control file not found in control.tar")
)

// NativeInspector reads control metadata directly from the ar/tar structure
// of the archive, for systems where dpkg is not installed
type NativeInspector struct {
	fs     afero.Fs
	logger *zerolog.Logger
}

// NewNativeInspector creates a native inspector reading through fs
func NewNativeInspector(fs afero.Fs, log *zerolog.Logger) *NativeInspector {
	l := log.With().Str("component", "inspector").Str("inspector", "native").Logger()
	return &NativeInspector{fs: fs, logger: &l}
}

// Name returns the inspector name
func (n *NativeInspector) Name() string {
	return "native"
}

// Validate reports whether the control file can be extracted
func (n *NativeInspector) Validate(_ context.Context, path string) bool {
	if _, err := ReadControl(n.fs, path); err != nil {
		n.logger.Debug().Err(err).Str("path", path).Msg("archive rejected")
		return false
	}
	return true
}

// Field extracts a single control field
func (n *NativeInspector) Field(_ context.Context, path, field string) string {
	if err := security.ValidateFieldName(field); err != nil {
		return ""
	}
	control, err := ReadControl(n.fs, path)
	if err != nil {
		return ""
	}
	return MatchField(control, field)
}

// ReadControl extracts the text of the control file from a .deb archive
func ReadControl(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	magic := make([]byte, len(arGlobalHeader))
	if _, err := io.ReadFull(f, magic); err != nil {
		return "", fmt.Errorf("failed to read ar magic: %w", err)
	}
	if string(magic) != arGlobalHeader {
		return "", fmt.Errorf("not an ar archive")
	}

	header := make([]byte, arHeaderSize)
	for {
		if _, err := io.ReadFull(f, header); err != nil {
			if err == io.EOF {
				return "", errNoControlArchive
			}
			return "", fmt.Errorf("failed to read ar header: %w", err)
		}

		// Trailing slash is the GNU ar name terminator
		name := strings.TrimRight(strings.TrimSpace(string(header[0:16])), "/")
		size, err := strconv.ParseInt(strings.TrimSpace(string(header[48:58])), 10, 64)
		if err != nil || size < 0 {
			return "", fmt.Errorf("invalid ar member size for %q", name)
		}

		if strings.HasPrefix(name, "control.tar") {
			if size > maxControlArchiveSize {
				return "", fmt.Errorf("control archive too large: %d bytes", size)
			}
			data := make([]byte, size)
			if _, err := io.ReadFull(f, data); err != nil {
				return "", fmt.Errorf("failed to read %s: %w", name, err)
			}
			control, err := extractControlFromTar(data, name)
			if err != nil {
				return "", err
			}
			return string(control), nil
		}

		// Members are 2-byte aligned
		skip := size + size%2
		if _, err := f.Seek(skip, io.SeekCurrent); err != nil {
			return "", fmt.Errorf("failed to skip %s: %w", name, err)
		}
	}
}

// extractControlFromTar extracts the control file from control.tar*
func extractControlFromTar(data []byte, member string) ([]byte, error) {
	var reader io.Reader

	switch {
	case strings.HasSuffix(member, ".gz"):
		gr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip control archive: %w", err)
		}
		defer gr.Close()
		reader = gr
	case strings.HasSuffix(member, ".xz"):
		xr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open xz control archive: %w", err)
		}
		reader = xr
	case strings.HasSuffix(member, ".zst"):
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd control archive: %w", err)
		}
		defer zr.Close()
		reader = zr
	default:
		reader = bytes.NewReader(data)
	}

	tr := tar.NewReader(reader)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil, errNoControlFile
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read control archive: %w", err)
		}

		if header.Name == "./control" || header.Name == "control" {
			return io.ReadAll(io.LimitReader(tr, maxControlArchiveSize))
		}
	}
}

package helpers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// NormalizePackagePath strips a file:// URL prefix and returns an absolute path
func NormalizePackagePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "file://")
	if path == "" {
		return "", fmt.Errorf("empty package path")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return abs, nil
}

// FirstLine returns text up to the first newline
func FirstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

// GenerateInstallID generates a unique installation ID from a name
func GenerateInstallID(name string) string {
	return fmt.Sprintf("%s-%d", name, time.Now().UnixNano())
}

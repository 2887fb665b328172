package security

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ValidPackageNameRegex follows Debian policy: lowercase alphanumerics, plus, minus and dots,
	// at least two characters, starting with an alphanumeric
	ValidPackageNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9+.-]+$`)

	// ValidVersionRegex allows [epoch:]upstream[-revision]
	ValidVersionRegex = regexp.MustCompile(`^([0-9]+:)?[A-Za-z0-9][A-Za-z0-9.+~:-]*$`)

	// ValidFieldNameRegex matches control field names
	ValidFieldNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)
)

// ValidatePackageName validates a Debian package name before it is handed to a query tool
func ValidatePackageName(name string) error {
	if name == "" {
		return fmt.Errorf("package name cannot be empty")
	}

	if len(name) > 255 {
		return fmt.Errorf("package name too long (max 255 characters)")
	}

	if !ValidPackageNameRegex.MatchString(name) {
		return fmt.Errorf("invalid package name %q", name)
	}

	return nil
}

// ValidateVersion validates a Debian version string
func ValidateVersion(version string) error {
	if version == "" {
		return fmt.Errorf("invalid version: version cannot be empty")
	}

	if len(version) >= 256 {
		return fmt.Errorf("version string too long (max 255 characters)")
	}

	if !ValidVersionRegex.MatchString(version) {
		return fmt.Errorf("invalid version format: %q", version)
	}

	return nil
}

// ValidateFieldName validates a control field name used to build an inspector pattern
func ValidateFieldName(field string) error {
	if !ValidFieldNameRegex.MatchString(field) {
		return fmt.Errorf("invalid control field name %q", field)
	}
	return nil
}

// ValidateArchivePath validates a package archive path before it is passed to dpkg
func ValidateArchivePath(path string) error {
	if path == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	if len(path) >= 4096 {
		return fmt.Errorf("file path too long (max 4096 characters)")
	}

	// Null bytes truncate paths at the syscall boundary
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("file path contains null byte")
	}

	if strings.ContainsAny(path, "\n\r") {
		return fmt.Errorf("file path contains line break")
	}

	// A relative path starting with "-" would be read as a dpkg option
	if !filepath.IsAbs(path) {
		return fmt.Errorf("file path must be absolute: %s", path)
	}

	return nil
}

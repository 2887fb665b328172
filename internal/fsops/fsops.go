package fsops

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// EnsureDir ensures a directory exists with the given permissions
func EnsureDir(fs afero.Fs, path string, perm os.FileMode) error {
	if err := fs.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("ensure directory: %w", err)
	}
	return nil
}

// CheckWritable creates and removes a scratch file inside dir
func CheckWritable(fs afero.Fs, dir string) error {
	f, err := afero.TempFile(fs, dir, ".debinstall-test-")
	if err != nil {
		return fmt.Errorf("path not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	if err := fs.Remove(name); err != nil {
		return fmt.Errorf("remove scratch file: %w", err)
	}
	return nil
}

// IsDir checks if a path is a directory
func IsDir(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// IsRegularFile reports whether path exists and is a plain file
func IsRegularFile(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

package helpers

import "golang.org/x/sys/unix"

// IsRoot reports whether the process runs with an effective uid of 0
func IsRoot() bool {
	return unix.Geteuid() == 0
}

// Privileged prefixes a command with the escalation binary when requested
// and the process is not already root
func Privileged(useSudo bool, sudoBinary, name string, args ...string) (string, []string) {
	if !useSudo || sudoBinary == "" || IsRoot() {
		return name, args
	}
	return sudoBinary, append([]string{name}, args...)
}

//go:build !windows

package proxy

import (
	"fmt"
	"os"
	"syscall"
)

// Exec replaces the current process with the binary, preserving argv
// conventions and the environment. It only returns on error.
func Exec(binPath string, args []string) error {
	argv := append([]string{binPath}, args...)
	if err := syscall.Exec(binPath, argv, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", binPath, err)
	}
	return nil
}

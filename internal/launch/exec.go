// Package launch implements exec replacement: the current process image is
// swapped for the target server so it inherits the pid and signal handling.
package launch

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// execve is the raw exec syscall, swappable in tests.
var execve = syscall.Exec

// Replace resolves argv[0] on PATH and replaces the current process with it.
// It only returns on error; on success the new program owns the process.
func Replace(argv []string, env []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty argv")
	}
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("resolve %s: %w", argv[0], err)
	}
	if env == nil {
		env = os.Environ()
	}
	if err := execve(path, argv, env); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}
	return nil
}

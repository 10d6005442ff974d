//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// setPlatformAttrs puts the backend in its own process group on Unix so
// a signal sent to lazymc's process group (such as a terminal's Ctrl-C)
// does not also reach the backend.
func setPlatformAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

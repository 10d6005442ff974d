//go:build windows

package process

import "os/exec"

// setPlatformAttrs is a no-op on Windows; graceful shutdown there is
// RCON-only, per the component design.
func setPlatformAttrs(cmd *exec.Cmd) {}

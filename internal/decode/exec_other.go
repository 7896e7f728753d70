//go:build !windows

package decode

import "os/exec"

// hideWindow is a no-op outside Windows; no console window exists to hide.
func hideWindow(cmd *exec.Cmd) {}

//go:build !windows

package launcher

import (
	"os/exec"
	"syscall"
)

// detach puts the client in its own session so it outlives the plugin process.
func detach(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

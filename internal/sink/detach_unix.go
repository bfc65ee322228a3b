//go:build unix

package sink

import (
	"os/exec"
	"syscall"
)

// detach puts the player in a new session so it survives the MCP client
// tearing down our process group.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

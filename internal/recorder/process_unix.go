//go:build !windows

package recorder

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureCommand puts the encoder in its own process group so that a
// terminal interrupt reaches the recorder only, which then stops the encoder
// gracefully.
func configureCommand(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

func (p *execProcess) Terminate() error {
	return p.cmd.Process.Signal(unix.SIGTERM)
}

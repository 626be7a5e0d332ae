//go:build windows

package recorder

import "os/exec"

func configureCommand(*exec.Cmd) {}

// Terminate falls back to Kill; console processes on Windows have no
// catchable termination signal that can be sent from outside.
func (p *execProcess) Terminate() error {
	return p.cmd.Process.Kill()
}

package recorder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/fakeyudi/lapse/internal/encoder"
	"github.com/fakeyudi/lapse/internal/processutil"
)

// Process is a running encoder as seen by the Orchestrator.
type Process interface {
	Pid() int
	// Stderr yields the encoder's diagnostic output until it exits.
	Stderr() io.ReadCloser
	// Quit asks the encoder to finish the file and exit.
	Quit() error
	// Terminate sends a catchable termination signal.
	Terminate() error
	// Kill ends the process immediately.
	Kill() error
	// Wait blocks until the process exits and returns its exit code.
	Wait() (int, error)
}

// Launcher starts encoder processes.
type Launcher interface {
	Launch(inv encoder.Invocation) (Process, error)
}

// quitCommand makes ffmpeg stop reading input and finalise the container.
const quitCommand = "q\n"

// newPipe creates the stderr pipe; replaced in tests.
var newPipe = os.Pipe

// ExecLauncher starts the encoder as an operating system process.
type ExecLauncher struct{}

// Launch starts inv. Stdin stays open for Quit; stderr is delivered through
// a pipe that is independent of Wait.
func (ExecLauncher) Launch(inv encoder.Invocation) (Process, error) {
	cmd := exec.Command(inv.Binary, inv.Args()...)
	processutil.HideConsoleWindow(cmd)
	configureCommand(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	pr, pw, err := newPipe()
	if err != nil {
		_ = stdin.Close()
		return nil, err
	}
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, err
	}
	_ = pw.Close()
	return &execProcess{cmd: cmd, stdin: stdin, stderr: pr}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *os.File

	stdinOnce sync.Once
}

func (p *execProcess) Pid() int              { return p.cmd.Process.Pid }
func (p *execProcess) Stderr() io.ReadCloser { return p.stderr }

func (p *execProcess) Quit() error {
	_, err := io.WriteString(p.stdin, quitCommand)
	p.closeStdin()
	if err != nil {
		return fmt.Errorf("write quit command: %w", err)
	}
	return nil
}

func (p *execProcess) Kill() error {
	return p.cmd.Process.Kill()
}

func (p *execProcess) closeStdin() {
	p.stdinOnce.Do(func() { _ = p.stdin.Close() })
}

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	p.closeStdin()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

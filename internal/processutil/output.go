// Package processutil runs short-lived helper commands on behalf of the
// recorder and hides their console windows where the platform has them.
package processutil

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds helper commands started by Output.
const DefaultTimeout = 5 * time.Second

// Output runs name with args and returns its combined stdout and stderr. The
// command is killed when ctx is done or DefaultTimeout elapses.
func Output(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	HideConsoleWindow(cmd)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if ctx.Err() != nil {
		return out.String(), fmt.Errorf("%s: timed out: %w", name, ctx.Err())
	}
	if err != nil {
		return out.String(), fmt.Errorf("%s: %w: %s", name, err, Tail(out.String(), 240))
	}
	return out.String(), nil
}

// Tail returns at most the last n bytes of s, trimmed of surrounding space.
func Tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

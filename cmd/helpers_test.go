package cmd

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fakeyudi/lapse/internal/target"
)

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	resetFlags(root)
	_, err = root.ExecuteC()
	return buf.String(), err
}

// resetFlags restores every flag to its default so runs do not leak into
// each other.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// isolate points every lapse directory at a fresh temp dir and returns it.
func isolate(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("USERPROFILE", tmp)
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))
	t.Setenv("LAPSE_LOG_LEVEL", "off")

	orig := newProvider
	newProvider = func(string, hclog.Logger) target.Provider { return stubProvider{} }
	t.Cleanup(func() { newProvider = orig })
	return tmp
}

// writeConfig writes the global config file under home.
func writeConfig(t *testing.T, home, body string) {
	t.Helper()
	dir := filepath.Join(home, ".config", "lapse")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

type stubProvider struct{}

func (stubProvider) PrimaryDisplay(context.Context) (target.Geometry, error) {
	return target.Geometry{Width: 1280, Height: 800}, nil
}

func (stubProvider) Sources(context.Context, image.Point) ([]target.Source, error) {
	return nil, errors.New("no desktop in tests")
}

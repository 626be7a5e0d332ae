package encoder

import (
	"strings"
)

// Invocation is a fully built encoder command line. The last argument is
// always the output path.
type Invocation struct {
	Binary   string
	Platform Platform
	// Warnings lists preparation problems that did not stop the build.
	Warnings []string

	args []string
}

// Args returns a copy of the argument list.
func (inv Invocation) Args() []string {
	return append([]string(nil), inv.args...)
}

// OutputPath returns the file the encoder writes to.
func (inv Invocation) OutputPath() string {
	if len(inv.args) == 0 {
		return ""
	}
	return inv.args[len(inv.args)-1]
}

// String renders the command line for logs. Arguments containing spaces are
// quoted.
func (inv Invocation) String() string {
	parts := make([]string, 0, len(inv.args)+1)
	parts = append(parts, inv.Binary)
	for _, a := range inv.args {
		if a == "" || strings.ContainsAny(a, " \t\"") {
			a = `"` + strings.ReplaceAll(a, `"`, `\"`) + `"`
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

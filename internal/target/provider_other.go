//go:build !linux && !darwin && !windows

package target

import (
	"context"
	"errors"
	"image"

	"github.com/hashicorp/go-hclog"
)

var errUnsupported = errors.New("target enumeration is not supported on this platform")

type otherProvider struct{}

// NewHostProvider returns a Provider that only ever yields the whole-screen
// fallback.
func NewHostProvider(string, hclog.Logger) Provider {
	return otherProvider{}
}

func (otherProvider) PrimaryDisplay(context.Context) (Geometry, error) {
	return Geometry{}, errUnsupported
}

func (otherProvider) Sources(context.Context, image.Point) ([]Source, error) {
	return nil, errUnsupported
}

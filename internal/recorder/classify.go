package recorder

import (
	"strings"
)

type pattern struct {
	kind   CaptureErrorKind
	substr string
}

// patterns are matched case-insensitively against one stderr line, in order.
var patterns = []pattern{
	{PermissionDenied, "permission denied"},
	{PermissionDenied, "operation not permitted"},
	{PermissionDenied, "not authorized to capture"},
	{PermissionDenied, "screen recording permission"},
	{PermissionDenied, "failed to create avcapturescreeninput"},
	{DisplayUnavailable, "cannot open display"},
	{DisplayUnavailable, "can't open display"},
	{DisplayUnavailable, "cannot connect to x server"},
	{DeviceRejected, "can't find window"},
	{DeviceRejected, "could not find window"},
	{DeviceRejected, "invalid device index"},
	{DeviceRejected, "is not supported by the device"},
	{DeviceRejected, "capture area"},
	{DeviceRejected, "failed to capture image"},
	{DeviceRejected, "error opening input"},
	{DeviceRejected, "no such device"},
}

// Classify reports whether line is a driver failure worth surfacing as a
// structured error rather than a log line.
func Classify(line string) (*CaptureError, bool) {
	lower := strings.ToLower(line)
	for _, p := range patterns {
		if strings.Contains(lower, p.substr) {
			return &CaptureError{Kind: p.kind, Line: strings.TrimSpace(line)}, true
		}
	}
	return nil, false
}

package serbridge

import (
	"fmt"
)

// DefaultDevicePrefix and DefaultProbeCount describe the candidates tried
// when no explicit device is configured: /dev/ttyUSB0, /dev/ttyUSB1, /dev/ttyUSB2.
const (
	DefaultDevicePrefix = "/dev/ttyUSB"
	DefaultProbeCount   = 3
)

// Candidates returns prefix0 .. prefix(n-1) in ascending order
func Candidates(prefix string, n int) []string {
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		paths = append(paths, fmt.Sprintf("%s%d", prefix, i))
	}
	return paths
}

// Probe tries each path in order with open and returns the first that
// succeeds. Every failed candidate is reported to onFail, which may be nil.
// When all candidates fail the error wraps ErrDeviceUnavailable.
func Probe[P any](paths []string, open func(path string) (P, error), onFail func(path string, err error)) (P, string, error) {
	var zero P
	var last error
	for _, path := range paths {
		p, err := open(path)
		if err == nil {
			return p, path, nil
		}
		last = err
		if onFail != nil {
			onFail(path, err)
		}
	}
	if last == nil {
		return zero, "", fmt.Errorf("%w: no candidates", ErrDeviceUnavailable)
	}
	return zero, "", fmt.Errorf("%w: tried %d candidate(s), last error: %v", ErrDeviceUnavailable, len(paths), last)
}

//go:build !linux && !darwin && !windows

package clip

import "fmt"

func newNative() (Backend, error) {
	return nil, fmt.Errorf("native clipboard not supported on this platform: %w", ErrUnavailable)
}

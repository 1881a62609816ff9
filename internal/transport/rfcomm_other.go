//go:build !linux

package transport

import (
	"context"
	"io"
)

// DialRFCOMM is only available on Linux
func DialRFCOMM(ctx context.Context, mac string, channel uint8) (io.WriteCloser, error) {
	return nil, ErrUnsupported
}

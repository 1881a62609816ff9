//go:build linux

package transport

import (
	"context"
	"io"

	"golang.org/x/sys/unix"
)

type rfcommSocket struct {
	fd int
}

func (s *rfcommSocket) Write(p []byte) (int, error) {
	return unix.Write(s.fd, p)
}

func (s *rfcommSocket) Close() error {
	return unix.Close(s.fd)
}

// DialRFCOMM connects an RFCOMM stream socket to mac on channel
func DialRFCOMM(ctx context.Context, mac string, channel uint8) (io.WriteCloser, error) {
	addr, err := ParseMAC(mac)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, err
	}

	done := make(chan error, 1)
	go func() {
		done <- unix.Connect(fd, &unix.SockaddrRFCOMM{Addr: addr, Channel: channel})
	}()

	select {
	case err := <-done:
		if err != nil {
			unix.Close(fd)
			return nil, err
		}
		return &rfcommSocket{fd: fd}, nil
	case <-ctx.Done():
		// Closing the socket aborts the pending connect
		unix.Close(fd)
		return nil, ctx.Err()
	}
}

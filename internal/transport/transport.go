// Package transport abstracts a single physical receipt printer link.
//
// Every variant implements Transport. Optional operations are separate
// interfaces (RawWriter, Cutter, Disconnecter) discovered with a type
// assertion; callers treat a missing capability as a no-op.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Vandanarajput/PosAPP/internal/escpos"
)

var (
	// ErrUnsupported marks an optional capability the link cannot provide
	ErrUnsupported = errors.New("transport: capability not supported")
	// ErrNotConnected is returned when printing before Connect
	ErrNotConnected = errors.New("transport: not connected")
	// ErrConnection wraps failures to establish a link
	ErrConnection = errors.New("transport: connection failed")
)

// Kind names a transport variant
type Kind string

const (
	KindNetwork   Kind = "network"
	KindBluetooth Kind = "bluetooth"
	KindRFCOMM    Kind = "rfcomm"
	KindSerial    Kind = "serial"
	KindUSB       Kind = "usb"
)

// ParseKind normalizes a kind name
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindNetwork, KindBluetooth, KindRFCOMM, KindSerial, KindUSB:
		return k, nil
	case "tcp", "net", "lan", "wifi":
		return KindNetwork, nil
	case "ble", "bt":
		return KindBluetooth, nil
	}
	return "", fmt.Errorf("unknown transport kind: %q", s)
}

// TextOptions controls a printText call
type TextOptions struct {
	Align     string
	Bold      bool
	Underline bool
}

// ImageOptions controls a printImageBase64 call
type ImageOptions struct {
	Width int
}

// Transport is the required capability set of a printer link
type Transport interface {
	Kind() Kind
	Init() error
	Connect(ctx context.Context, address string) error
	PrintText(ctx context.Context, text string, opts TextOptions) error
	PrintImageBase64(ctx context.Context, data string, opts ImageOptions) error
}

// RawWriter sends bytes unchanged
type RawWriter interface {
	PrintRaw(ctx context.Context, data []byte) error
}

// Cutter exposes a native cut primitive
type Cutter interface {
	Cut(ctx context.Context, mode escpos.CutMode) error
}

// Disconnecter releases the link
type Disconnecter interface {
	Disconnect() error
}

// CutConfirmer reports whether a successful native or raw cut write can be
// trusted to have cut the paper. Transports that don't implement it are
// trusted.
type CutConfirmer interface {
	CutReliable() bool
}

// DirectDialer is implemented by transports whose device accepts a second,
// fresh socket on the same endpoint.
type DirectDialer interface {
	DirectAddress() string
}

// DeviceAddresser is implemented by Bluetooth transports and returns the
// device MAC address.
type DeviceAddresser interface {
	DeviceAddress() string
}

// PrintRaw sends data if t supports raw writes, otherwise returns ErrUnsupported
func PrintRaw(ctx context.Context, t Transport, data []byte) error {
	rw, ok := t.(RawWriter)
	if !ok {
		return ErrUnsupported
	}
	return rw.PrintRaw(ctx, data)
}

// Disconnect releases t if it supports it. Errors are returned for logging only.
func Disconnect(t Transport) error {
	if t == nil {
		return nil
	}
	d, ok := t.(Disconnecter)
	if !ok {
		return nil
	}
	return d.Disconnect()
}

// CutReliable reports whether t's cut writes can be trusted
func CutReliable(t Transport) bool {
	if c, ok := t.(CutConfirmer); ok {
		return c.CutReliable()
	}
	return true
}

func connErr(address string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrConnection, address, err)
}

// Sleep waits for d or until ctx is done, returning ctx.Err() in that case
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

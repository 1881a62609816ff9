package transport

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// DefaultRFCOMMChannel is the serial port profile channel most printers expose
const DefaultRFCOMMChannel = 1

// RFCOMMDialer opens a classic Bluetooth serial link to a device
type RFCOMMDialer func(ctx context.Context, mac string, channel uint8) (io.WriteCloser, error)

// RFCOMM prints over a classic Bluetooth serial port profile socket
type RFCOMM struct {
	stream
	dial    RFCOMMDialer
	channel uint8
	address string
}

// NewRFCOMM creates an unconnected RFCOMM transport. A nil dialer uses DialRFCOMM.
func NewRFCOMM(dial RFCOMMDialer, channel uint8, writeTimeout time.Duration) *RFCOMM {
	if dial == nil {
		dial = DialRFCOMM
	}
	if channel == 0 {
		channel = DefaultRFCOMMChannel
	}
	r := &RFCOMM{dial: dial, channel: channel}
	r.writeTimeout = writeTimeout
	return r
}

// ParseRFCOMMAddress splits "MAC" or "MAC#channel"
func ParseRFCOMMAddress(address string, def uint8) (string, uint8) {
	mac, ch, ok := strings.Cut(strings.TrimSpace(address), "#")
	if !ok {
		return mac, def
	}
	n, err := strconv.ParseUint(ch, 10, 8)
	if err != nil || n == 0 {
		return mac, def
	}
	return mac, uint8(n)
}

// ParseMAC converts "AA:BB:CC:DD:EE:FF" to the little-endian byte order
// used by Bluetooth socket addresses.
func ParseMAC(mac string) ([6]byte, error) {
	var b [6]byte
	parts := strings.Split(strings.TrimSpace(mac), ":")
	if len(parts) != 6 {
		return b, fmt.Errorf("invalid bluetooth address: %q", mac)
	}
	for i, part := range parts {
		u, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return b, fmt.Errorf("invalid bluetooth address: %q", mac)
		}
		b[len(b)-1-i] = byte(u)
	}
	return b, nil
}

func (r *RFCOMM) Kind() Kind { return KindRFCOMM }

func (r *RFCOMM) Init() error { return nil }

func (r *RFCOMM) Connect(ctx context.Context, address string) error {
	mac, channel := ParseRFCOMMAddress(address, r.channel)
	w, err := r.dial(ctx, mac, channel)
	if err != nil {
		return connErr(address, err)
	}
	r.attach(w)
	r.address = mac
	return nil
}

// DeviceAddress returns the MAC address of the last Connect
func (r *RFCOMM) DeviceAddress() string { return r.address }

package transport

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/tarm/serial"
)

// DefaultBaud is the rate most thermal printers ship with
const DefaultBaud = 9600

// Serial prints to a serial device, including bound /dev/rfcommN ports and
// USB-serial adapters.
type Serial struct {
	stream
	address string
}

// NewSerial creates an unconnected serial transport
func NewSerial(writeTimeout time.Duration) *Serial {
	s := &Serial{}
	s.writeTimeout = writeTimeout
	return s
}

// ParseSerialAddress splits "/dev/ttyUSB0" or "/dev/ttyUSB0@19200"
func ParseSerialAddress(address string) (string, int) {
	device, baudStr, ok := strings.Cut(strings.TrimSpace(address), "@")
	if !ok {
		return device, DefaultBaud
	}
	baud, err := strconv.Atoi(baudStr)
	if err != nil || baud <= 0 {
		return device, DefaultBaud
	}
	return device, baud
}

func (s *Serial) Kind() Kind { return KindSerial }

func (s *Serial) Init() error { return nil }

func (s *Serial) Connect(ctx context.Context, address string) error {
	device, baud := ParseSerialAddress(address)
	port, err := serial.OpenPort(&serial.Config{
		Name: device,
		Baud: baud,
	})
	if err != nil {
		return connErr(device, err)
	}
	s.attach(port)
	s.address = device
	return nil
}

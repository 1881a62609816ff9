package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/Vandanarajput/PosAPP/internal/escpos"
)

// Write characteristics used by common ESC/POS BLE printers
var defaultWriteChars = []string{
	"00002af1-0000-1000-8000-00805f9b34fb",
	"0000ff02-0000-1000-8000-00805f9b34fb",
	"49535343-8841-43f4-a8d4-ecbe34729bb3",
	"0000ae01-0000-1000-8000-00805f9b34fb",
}

var (
	adapterOnce sync.Once
	adapterErr  error
)

func enableAdapter() error {
	adapterOnce.Do(func() {
		adapterErr = bluetooth.DefaultAdapter.Enable()
	})
	return adapterErr
}

// BluetoothOptions configures a Bluetooth LE transport
type BluetoothOptions struct {
	ScanTimeout  time.Duration
	WriteTimeout time.Duration
	ChunkSize    int
	ChunkDelay   time.Duration
	// RawReliable is false when GATT writes of cut opcodes may be ignored silently
	RawReliable bool
	WriteChars  []string
}

// Bluetooth prints through a BLE GATT write-without-response characteristic
type Bluetooth struct {
	stream
	opts    BluetoothOptions
	address string
}

// NewBluetooth creates an unconnected BLE transport
func NewBluetooth(opts BluetoothOptions) *Bluetooth {
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = 10 * time.Second
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 20
	}
	if len(opts.WriteChars) == 0 {
		opts.WriteChars = defaultWriteChars
	}
	b := &Bluetooth{opts: opts}
	b.writeTimeout = opts.WriteTimeout
	return b
}

func (b *Bluetooth) Kind() Kind { return KindBluetooth }

// Init enables the default adapter
func (b *Bluetooth) Init() error {
	return enableAdapter()
}

// Connect scans for the device MAC, connects and locates a write characteristic
func (b *Bluetooth) Connect(ctx context.Context, address string) error {
	if err := enableAdapter(); err != nil {
		return connErr(address, err)
	}
	adapter := bluetooth.DefaultAdapter

	ctx, cancel := context.WithTimeout(ctx, b.opts.ScanTimeout)
	defer cancel()

	found := make(chan bluetooth.ScanResult, 1)
	scanErr := make(chan error, 1)
	go func() {
		err := adapter.Scan(func(a *bluetooth.Adapter, result bluetooth.ScanResult) {
			if strings.EqualFold(result.Address.String(), address) {
				select {
				case found <- result:
				default:
				}
				a.StopScan()
			}
		})
		if err != nil {
			scanErr <- err
		}
	}()

	var result bluetooth.ScanResult
	select {
	case result = <-found:
	case err := <-scanErr:
		return connErr(address, err)
	case <-ctx.Done():
		adapter.StopScan()
		return connErr(address, fmt.Errorf("device not found: %w", ctx.Err()))
	}

	device, err := adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return connErr(address, err)
	}

	char, err := b.findWriteChar(device)
	if err != nil {
		device.Disconnect()
		return connErr(address, err)
	}

	b.attach(&gattWriter{device: device, char: char, chunk: b.opts.ChunkSize, delay: b.opts.ChunkDelay})
	b.address = address
	return nil
}

func (b *Bluetooth) findWriteChar(device bluetooth.Device) (bluetooth.DeviceCharacteristic, error) {
	services, err := device.DiscoverServices(nil)
	if err != nil {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("failed to discover services: %w", err)
	}

	var all []bluetooth.DeviceCharacteristic
	for _, svc := range services {
		chars, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			continue
		}
		all = append(all, chars...)
	}
	return pickWriteChar(all, b.opts.WriteChars)
}

// gattChar is the part of a GATT characteristic used to pick the write
// target
type gattChar interface {
	UUID() bluetooth.UUID
	WriteWithoutResponse(p []byte) (int, error)
}

// pickWriteChar returns the first characteristic whose UUID is in preferred.
// Otherwise it returns the first one that accepts a write-without-response
// of the ESC/POS init sequence; characteristics that reject it are read-only
// or notify-only.
func pickWriteChar[C gattChar](chars []C, preferred []string) (C, error) {
	for _, c := range chars {
		id := strings.ToLower(c.UUID().String())
		for _, want := range preferred {
			if id == strings.ToLower(want) {
				return c, nil
			}
		}
	}
	for _, c := range chars {
		if _, err := c.WriteWithoutResponse(escpos.Init); err == nil {
			return c, nil
		}
	}
	var zero C
	return zero, fmt.Errorf("no writable characteristic found")
}

func (b *Bluetooth) CutReliable() bool { return b.opts.RawReliable }

// DeviceAddress returns the MAC address of the last Connect
func (b *Bluetooth) DeviceAddress() string { return b.address }

type gattWriter struct {
	device bluetooth.Device
	char   bluetooth.DeviceCharacteristic
	chunk  int
	delay  time.Duration
}

func (g *gattWriter) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		end := written + g.chunk
		if end > len(p) {
			end = len(p)
		}
		if _, err := g.char.WriteWithoutResponse(p[written:end]); err != nil {
			return written, err
		}
		written = end
		if g.delay > 0 {
			time.Sleep(g.delay)
		}
	}
	return written, nil
}

func (g *gattWriter) Close() error {
	return g.device.Disconnect()
}

package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/Vandanarajput/PosAPP/internal/escpos"
)

func TestHostPort(t *testing.T) {
	tests := []struct {
		in   string
		host string
		port int
	}{
		{"192.168.1.10", "192.168.1.10", 9100},
		{"192.168.1.10:9101", "192.168.1.10", 9101},
		{" printer.local:9100 ", "printer.local", 9100},
		{"10.0.0.5:abc", "10.0.0.5", 9100},
		{"[fe80::1]:9100", "fe80::1", 9100},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			host, port := HostPort(tt.in)
			if host != tt.host || port != tt.port {
				t.Errorf("HostPort(%q) = %q, %d; want %q, %d", tt.in, host, port, tt.host, tt.port)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"network":   KindNetwork,
		"TCP":       KindNetwork,
		"ble":       KindBluetooth,
		"bluetooth": KindBluetooth,
		"rfcomm":    KindRFCOMM,
		"serial":    KindSerial,
		"usb":       KindUSB,
	}
	for in, want := range tests {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseKind("carrier-pigeon"); err == nil {
		t.Error("Expected error for unknown kind")
	}
}

func TestParseAddresses(t *testing.T) {
	mac, err := ParseMAC("01:23:45:67:89:AB")
	if err != nil {
		t.Fatalf("ParseMAC failed: %v", err)
	}
	if mac != [6]byte{0xAB, 0x89, 0x67, 0x45, 0x23, 0x01} {
		t.Errorf("Unexpected MAC bytes % X", mac)
	}
	if _, err := ParseMAC("not-a-mac"); err == nil {
		t.Error("Expected error for invalid MAC")
	}

	if m, ch := ParseRFCOMMAddress("01:23:45:67:89:AB#3", 1); m != "01:23:45:67:89:AB" || ch != 3 {
		t.Errorf("Unexpected rfcomm address %q #%d", m, ch)
	}
	if _, ch := ParseRFCOMMAddress("01:23:45:67:89:AB", 2); ch != 2 {
		t.Errorf("Expected default channel 2, got %d", ch)
	}

	if dev, baud := ParseSerialAddress("/dev/ttyUSB0@19200"); dev != "/dev/ttyUSB0" || baud != 19200 {
		t.Errorf("Unexpected serial address %q @%d", dev, baud)
	}
	if _, baud := ParseSerialAddress("/dev/rfcomm0"); baud != DefaultBaud {
		t.Errorf("Expected default baud, got %d", baud)
	}

	vid, pid, err := ParseUSBAddress("04b8:0x0202")
	if err != nil || vid != 0x04b8 || pid != 0x0202 {
		t.Errorf("Unexpected usb address %v:%v (%v)", vid, pid, err)
	}
	if _, _, err := ParseUSBAddress("04b8"); err == nil {
		t.Error("Expected error for usb address without pid")
	}
}

func TestEncodeText(t *testing.T) {
	got := EncodeText("Cafe", TextOptions{Align: "center", Bold: true})
	want := []byte{
		0x1B, 'a', 1,
		0x1B, 'E', 1,
		'C', 'a', 'f', 'e', 0x0A,
		0x1B, 'E', 0,
		0x1B, 'a', 0,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeText:\n got % X\nwant % X", got, want)
	}

	// A trailing newline is a blank line
	plain := EncodeText("a\n", TextOptions{})
	if bytes.Count(plain, []byte{0x0A}) != 2 {
		t.Errorf("Expected two line feeds, got % X", plain)
	}
}

func testPNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.Black)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode failed: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestEncodeImageBase64(t *testing.T) {
	data := testPNG(t, 16, 4)

	got, err := EncodeImageBase64("data:image/png;base64,"+data, ImageOptions{Width: 8})
	if err != nil {
		t.Fatalf("EncodeImageBase64 failed: %v", err)
	}
	raster := []byte{0x1D, 'v', '0', 0, 1, 0, 2, 0}
	if !bytes.Contains(got, raster) {
		t.Errorf("Expected 8x2 raster header in % X", got)
	}

	if _, err := EncodeImageBase64("!!!", ImageOptions{}); err == nil {
		t.Error("Expected error for invalid base64")
	}
}

func TestNetwork_PrintOverSocket(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	n := NewNetwork(NetworkOptions{DialTimeout: time.Second, WriteTimeout: time.Second})
	ctx := context.Background()

	if err := n.PrintText(ctx, "early", TextOptions{}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected before Connect, got %v", err)
	}

	if err := n.Connect(ctx, ln.Addr().String()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if n.DirectAddress() != ln.Addr().String() {
		t.Errorf("Expected direct address %s, got %s", ln.Addr(), n.DirectAddress())
	}
	if err := n.PrintText(ctx, "Hi", TextOptions{}); err != nil {
		t.Fatalf("PrintText failed: %v", err)
	}
	if err := n.Cut(ctx, escpos.CutFull); err != nil {
		t.Fatalf("Cut failed: %v", err)
	}
	if err := n.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}

	select {
	case data := <-received:
		if !bytes.Contains(data, []byte("Hi\n")) {
			t.Errorf("Expected text in stream, got % X", data)
		}
		if !bytes.HasSuffix(data, escpos.CutFullCode) {
			t.Errorf("Expected stream to end with cut, got % X", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for data")
	}
}

func TestNetwork_ConnectFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	n := NewNetwork(NetworkOptions{DialTimeout: 500 * time.Millisecond})
	err = n.Connect(context.Background(), addr)
	if !errors.Is(err, ErrConnection) {
		t.Errorf("Expected ErrConnection, got %v", err)
	}
}

func TestRFCOMM_InjectedDialer(t *testing.T) {
	var gotMAC string
	var gotChannel uint8
	buf := &closeBuffer{}
	r := NewRFCOMM(func(ctx context.Context, mac string, channel uint8) (io.WriteCloser, error) {
		gotMAC, gotChannel = mac, channel
		return buf, nil
	}, 0, 0)

	if err := r.Connect(context.Background(), "AA:BB:CC:DD:EE:FF#2"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if gotMAC != "AA:BB:CC:DD:EE:FF" || gotChannel != 2 {
		t.Errorf("Unexpected dial %s #%d", gotMAC, gotChannel)
	}
	if err := r.PrintRaw(context.Background(), []byte{0x0A}); err != nil {
		t.Fatalf("PrintRaw failed: %v", err)
	}
	r.Disconnect()
	if !buf.closed || buf.String() != "\n" {
		t.Errorf("Unexpected writer state closed=%v data=%q", buf.closed, buf.String())
	}
}

type closeBuffer struct {
	bytes.Buffer
	closed bool
}

func (c *closeBuffer) Close() error {
	c.closed = true
	return nil
}

// fakeTransport records connects and disconnects
type fakeTransport struct {
	mu           sync.Mutex
	kind         Kind
	address      string
	disconnected bool
	connectErr   error
}

func (f *fakeTransport) Kind() Kind  { return f.kind }
func (f *fakeTransport) Init() error { return nil }
func (f *fakeTransport) Connect(ctx context.Context, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.address = address
	return f.connectErr
}
func (f *fakeTransport) PrintText(ctx context.Context, text string, opts TextOptions) error {
	return nil
}
func (f *fakeTransport) PrintImageBase64(ctx context.Context, data string, opts ImageOptions) error {
	return nil
}
func (f *fakeTransport) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = true
	return nil
}

func (f *fakeTransport) isDisconnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnected
}

func TestSessions_OnePerKind(t *testing.T) {
	var created []*fakeTransport
	factory := func(kind Kind) (Transport, error) {
		ft := &fakeTransport{kind: kind}
		created = append(created, ft)
		return ft, nil
	}
	s := NewSessions(factory, time.Second, nil)
	ctx := context.Background()

	first, err := s.Open(ctx, KindBluetooth, "AA:BB:CC:DD:EE:FF")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := s.Open(ctx, KindNetwork, "10.0.0.1"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if s.OpenCount() != 2 {
		t.Errorf("Expected 2 open sessions, got %d", s.OpenCount())
	}

	second, err := s.Open(ctx, KindBluetooth, "AA:BB:CC:DD:EE:FF")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !created[0].isDisconnected() {
		t.Error("Expected prior bluetooth session to be closed")
	}
	if first.Transport() == second.Transport() {
		t.Error("Expected a fresh transport per session")
	}
	if s.OpenCount() != 2 {
		t.Errorf("Expected 2 open sessions, got %d", s.OpenCount())
	}

	// Closing a stale session must not evict its replacement
	first.Close()
	if s.OpenCount() != 2 {
		t.Errorf("Expected 2 open sessions after stale close, got %d", s.OpenCount())
	}

	second.Close()
	second.Close()
	if s.OpenCount() != 1 {
		t.Errorf("Expected 1 open session, got %d", s.OpenCount())
	}

	s.CloseAll()
	if s.OpenCount() != 0 {
		t.Errorf("Expected no open sessions, got %d", s.OpenCount())
	}
}

func TestSessions_ConnectFailureIsNotRegistered(t *testing.T) {
	factory := func(kind Kind) (Transport, error) {
		return &fakeTransport{kind: kind, connectErr: ErrConnection}, nil
	}
	s := NewSessions(factory, time.Second, nil)

	if _, err := s.Open(context.Background(), KindNetwork, "10.0.0.1"); !errors.Is(err, ErrConnection) {
		t.Errorf("Expected ErrConnection, got %v", err)
	}
	if s.OpenCount() != 0 {
		t.Errorf("Expected no open sessions, got %d", s.OpenCount())
	}
}

func TestManagedConnection(t *testing.T) {
	var created []*fakeTransport
	factory := func(kind Kind) (Transport, error) {
		ft := &fakeTransport{kind: kind}
		created = append(created, ft)
		return ft, nil
	}
	s := NewSessions(factory, time.Second, nil)
	ctx := context.Background()

	if err := s.Managed.Connect(ctx, KindBluetooth, "AA:BB:CC:DD:EE:FF"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	st := s.Managed.Status()
	if !st.Connected || st.Kind != KindBluetooth {
		t.Errorf("Unexpected status %+v", st)
	}

	// A job on the same device takes the link from the managed connection
	js, err := s.Open(ctx, KindBluetooth, "AA:BB:CC:DD:EE:FF")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer js.Close()

	if !created[0].isDisconnected() {
		t.Error("Expected managed connection to be released")
	}
	if s.Managed.Status().Connected {
		t.Error("Expected managed connection to report disconnected")
	}
	if js.Transport() == Transport(created[0]) {
		t.Error("Job session must not reuse the managed transport")
	}
}

func TestOptionalCapabilities(t *testing.T) {
	ft := &fakeTransport{}
	if err := PrintRaw(context.Background(), ft, []byte{0x0A}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
	if !CutReliable(ft) {
		t.Error("Transports without a confirmer are trusted")
	}
	if CutReliable(NewBluetooth(BluetoothOptions{})) {
		t.Error("BLE cuts are unconfirmed by default")
	}
	if err := Disconnect(nil); err != nil {
		t.Errorf("Disconnect(nil) = %v", err)
	}
}

func TestSleep(t *testing.T) {
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("Expected nil for zero delay, got %v", err)
	}
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Expected nil after timer, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := Sleep(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Sleep ignored cancellation")
	}
	if err := Sleep(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled for zero delay on a done ctx, got %v", err)
	}
}

package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Factory creates a fresh, unconnected transport of a kind
type Factory func(kind Kind) (Transport, error)

// Options configures the default factory
type Options struct {
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	// NetworkCutReliable trusts cuts written on the print socket
	NetworkCutReliable bool
	// BluetoothRawReliable trusts cut opcodes written over BLE
	BluetoothRawReliable bool
	RFCOMMChannel        uint8
	RFCOMMDialer         RFCOMMDialer
}

// NewFactory returns a Factory building the concrete transports
func NewFactory(opts Options) Factory {
	return func(kind Kind) (Transport, error) {
		switch kind {
		case KindNetwork:
			return NewNetwork(NetworkOptions{
				DialTimeout:  opts.ConnectTimeout,
				WriteTimeout: opts.WriteTimeout,
				CutReliable:  opts.NetworkCutReliable,
			}), nil
		case KindBluetooth:
			return NewBluetooth(BluetoothOptions{
				ScanTimeout:  opts.ConnectTimeout,
				WriteTimeout: opts.WriteTimeout,
				RawReliable:  opts.BluetoothRawReliable,
			}), nil
		case KindRFCOMM:
			return NewRFCOMM(opts.RFCOMMDialer, opts.RFCOMMChannel, opts.WriteTimeout), nil
		case KindSerial:
			return NewSerial(opts.WriteTimeout), nil
		case KindUSB:
			return NewUSB(opts.WriteTimeout), nil
		}
		return nil, fmt.Errorf("unknown transport kind: %q", kind)
	}
}

// JobSession owns one connected transport for the duration of a print job
type JobSession struct {
	kind      Kind
	address   string
	transport Transport
	owner     *Sessions
	closeOnce sync.Once
}

// Transport returns the connected transport
func (js *JobSession) Transport() Transport { return js.transport }

// Address returns the address the session was opened on
func (js *JobSession) Address() string { return js.address }

// Close disconnects the session. It is safe to call more than once.
func (js *JobSession) Close() {
	js.closeOnce.Do(func() {
		if err := Disconnect(js.transport); err != nil {
			js.owner.log.Debug("session.close", "kind", js.kind, "address", js.address, "error", err)
		} else {
			js.owner.log.Debug("session.close", "kind", js.kind, "address", js.address)
		}
		js.owner.release(js)
	})
}

// Sessions hands out per-job sessions, keeping at most one open per kind,
// and holds the long-lived ManagedConnection used for manual control.
type Sessions struct {
	mu             sync.Mutex
	factory        Factory
	connectTimeout time.Duration
	open           map[Kind]*JobSession
	log            *slog.Logger

	Managed *ManagedConnection
}

// NewSessions creates a session registry
func NewSessions(factory Factory, connectTimeout time.Duration, logger *slog.Logger) *Sessions {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sessions{
		factory:        factory,
		connectTimeout: connectTimeout,
		open:           make(map[Kind]*JobSession),
		log:            logger,
	}
	s.Managed = &ManagedConnection{factory: factory, connectTimeout: connectTimeout, log: logger}
	return s
}

// Open creates and connects a new session. Any session of the same kind still
// open is closed first, and the managed connection is released when it holds
// the same address.
func (s *Sessions) Open(ctx context.Context, kind Kind, address string) (*JobSession, error) {
	s.mu.Lock()
	prior := s.open[kind]
	delete(s.open, kind)
	s.mu.Unlock()

	if prior != nil {
		prior.Close()
	}
	s.Managed.releaseIfHolding(kind, address)

	t, err := s.factory(kind)
	if err != nil {
		return nil, err
	}
	if err := t.Init(); err != nil {
		return nil, fmt.Errorf("failed to init %s transport: %w", kind, err)
	}

	cctx := ctx
	if s.connectTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, s.connectTimeout)
		defer cancel()
	}
	if err := t.Connect(cctx, address); err != nil {
		Disconnect(t)
		return nil, err
	}

	js := &JobSession{kind: kind, address: address, transport: t, owner: s}
	s.mu.Lock()
	s.open[kind] = js
	s.mu.Unlock()

	s.log.Debug("session.open", "kind", kind, "address", address)
	return js, nil
}

// OpenCount returns the number of open job sessions
func (s *Sessions) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}

// CloseAll closes every open session and the managed connection
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	open := make([]*JobSession, 0, len(s.open))
	for _, js := range s.open {
		open = append(open, js)
	}
	s.mu.Unlock()

	for _, js := range open {
		js.Close()
	}
	s.Managed.Disconnect()
}

func (s *Sessions) release(js *JobSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open[js.kind] == js {
		delete(s.open, js.kind)
	}
}

// ConnectionStatus describes the managed connection
type ConnectionStatus struct {
	Kind      Kind   `json:"kind,omitempty"`
	Address   string `json:"address,omitempty"`
	Connected bool   `json:"connected"`
}

// ManagedConnection is the user-controlled connection behind manual
// connect and disconnect actions. It is never handed to print jobs.
type ManagedConnection struct {
	mu             sync.Mutex
	factory        Factory
	connectTimeout time.Duration
	log            *slog.Logger

	transport Transport
	kind      Kind
	address   string
}

// Connect replaces any current connection with a new one
func (m *ManagedConnection) Connect(ctx context.Context, kind Kind, address string) error {
	m.Disconnect()

	t, err := m.factory(kind)
	if err != nil {
		return err
	}
	if err := t.Init(); err != nil {
		return err
	}

	cctx := ctx
	if m.connectTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, m.connectTimeout)
		defer cancel()
	}
	if err := t.Connect(cctx, address); err != nil {
		return err
	}

	m.mu.Lock()
	m.transport, m.kind, m.address = t, kind, address
	m.mu.Unlock()

	m.log.Info("session.open", "scope", "managed", "kind", kind, "address", address)
	return nil
}

// Disconnect closes the managed connection, if any
func (m *ManagedConnection) Disconnect() error {
	m.mu.Lock()
	t, kind, address := m.transport, m.kind, m.address
	m.transport = nil
	m.mu.Unlock()

	if t == nil {
		return nil
	}
	m.log.Info("session.close", "scope", "managed", "kind", kind, "address", address)
	return Disconnect(t)
}

// Status reports the current connection
func (m *ManagedConnection) Status() ConnectionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ConnectionStatus{Kind: m.kind, Address: m.address, Connected: m.transport != nil}
}

func (m *ManagedConnection) releaseIfHolding(kind Kind, address string) {
	m.mu.Lock()
	holding := m.transport != nil && m.kind == kind && m.address == address
	m.mu.Unlock()
	if holding {
		m.Disconnect()
	}
}

// Package cut delivers a paper cut through whichever path a printer honors.
//
// A Resolver walks an ordered list of strategies and stops at the first one
// that reports Sent. Cut failures never escape the package; callers receive
// a Report describing every attempt.
package cut

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/Vandanarajput/PosAPP/internal/escpos"
	"github.com/Vandanarajput/PosAPP/internal/transport"
)

// Outcome is the result of one strategy
type Outcome string

const (
	// Skipped means the strategy does not apply to the transport
	Skipped Outcome = "skipped"
	// Failed means the strategy applied but the write failed
	Failed Outcome = "failed"
	// Sent means the cut was delivered on a trusted path
	Sent Outcome = "sent"
	// Unconfirmed means the bytes were written on a path known to drop cuts
	Unconfirmed Outcome = "unconfirmed"
)

// Attempt records one strategy run
type Attempt struct {
	Strategy string  `json:"strategy"`
	Outcome  Outcome `json:"outcome"`
	Err      error   `json:"-"`
}

// Report lists the attempts made for one cut
type Report struct {
	Mode     escpos.CutMode `json:"mode"`
	Attempts []Attempt      `json:"attempts"`
}

// Succeeded reports whether any strategy sent the cut on a trusted path
func (r Report) Succeeded() bool {
	return r.Winner() != ""
}

// Winner returns the strategy that delivered the cut, or ""
func (r Report) Winner() string {
	for _, a := range r.Attempts {
		if a.Outcome == Sent {
			return a.Strategy
		}
	}
	return ""
}

// Sequence returns the names of strategies that were not skipped
func (r Report) Sequence() []string {
	var out []string
	for _, a := range r.Attempts {
		if a.Outcome != Skipped {
			out = append(out, a.Strategy)
		}
	}
	return out
}

// Strategy is one way of delivering a cut
type Strategy struct {
	Name string
	// InBand strategies write through the job's own transport. Once an in-band
	// write is unconfirmed the remaining in-band strategies are skipped.
	InBand bool
	Run    func(ctx context.Context, t transport.Transport, mode escpos.CutMode) (Outcome, error)
}

// Options configures the default strategy list
type Options struct {
	// Settle is the pause around out-of-band writes
	Settle      time.Duration
	DialTimeout time.Duration
	// FeedLines is the number of line feeds sent before an out-of-band cut
	FeedLines int
	// DirectSocket enables the fresh-socket strategy for network transports
	DirectSocket bool
	// ClassicFallback enables the RFCOMM strategy for Bluetooth transports
	ClassicFallback bool
	RFCOMMDialer    transport.RFCOMMDialer
	RFCOMMChannel   uint8
	Logger          *slog.Logger
	// Observe is called once per attempt
	Observe func(Attempt)
}

// Resolver runs cut strategies in order
type Resolver struct {
	strategies []Strategy
	log        *slog.Logger
	observe    func(Attempt)
}

// New creates a resolver with the default strategy order: native cut, raw
// opcodes, direct socket, classic Bluetooth.
func New(opts Options) *Resolver {
	if opts.Settle <= 0 {
		opts.Settle = 300 * time.Millisecond
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 3 * time.Second
	}
	if opts.FeedLines <= 0 {
		opts.FeedLines = 4
	}
	if opts.RFCOMMDialer == nil {
		opts.RFCOMMDialer = transport.DialRFCOMM
	}
	if opts.RFCOMMChannel == 0 {
		opts.RFCOMMChannel = transport.DefaultRFCOMMChannel
	}

	strategies := []Strategy{Native()}
	strategies = append(strategies, RawStrategies()...)
	if opts.DirectSocket {
		strategies = append(strategies, DirectSocket(opts.Settle, opts.DialTimeout, opts.FeedLines))
	}
	if opts.ClassicFallback {
		strategies = append(strategies, Classic(opts.RFCOMMDialer, opts.RFCOMMChannel, opts.Settle, opts.FeedLines))
	}
	return NewWithStrategies(opts.Logger, opts.Observe, strategies...)
}

// NewWithStrategies creates a resolver with an explicit strategy list
func NewWithStrategies(logger *slog.Logger, observe func(Attempt), strategies ...Strategy) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{strategies: strategies, log: logger, observe: observe}
}

// Strategies returns the strategy names in order
func (r *Resolver) Strategies() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name
	}
	return names
}

// Resolve tries each strategy until one reports Sent. It never panics and
// never returns an error.
func (r *Resolver) Resolve(ctx context.Context, t transport.Transport, mode escpos.CutMode) Report {
	report := Report{Mode: mode}
	inBandDone := false

	for _, s := range r.strategies {
		var a Attempt
		if s.InBand && inBandDone {
			a = Attempt{Strategy: s.Name, Outcome: Skipped}
		} else {
			a = r.run(ctx, s, t, mode)
		}
		report.Attempts = append(report.Attempts, a)

		if a.Outcome != Skipped {
			r.log.Debug("cut.attempt", "strategy", a.Strategy, "outcome", a.Outcome, "error", a.Err)
		}
		if r.observe != nil {
			r.observe(a)
		}

		if a.Outcome == Sent {
			break
		}
		if a.Outcome == Unconfirmed && s.InBand {
			inBandDone = true
		}
	}

	r.log.Debug("cut.done", "mode", mode, "winner", report.Winner(), "tried", report.Sequence())
	return report
}

func (r *Resolver) run(ctx context.Context, s Strategy, t transport.Transport, mode escpos.CutMode) (a Attempt) {
	a.Strategy = s.Name
	defer func() {
		if p := recover(); p != nil {
			a.Outcome = Failed
			a.Err = fmt.Errorf("cut strategy %s panicked: %v", s.Name, p)
		}
	}()

	if t == nil {
		a.Outcome = Skipped
		return a
	}
	outcome, err := s.Run(ctx, t, mode)
	if errors.Is(err, transport.ErrUnsupported) {
		outcome, err = Skipped, nil
	}
	a.Outcome, a.Err = outcome, err
	return a
}

func confirmed(t transport.Transport) Outcome {
	if transport.CutReliable(t) {
		return Sent
	}
	return Unconfirmed
}

// Native calls the transport's own cut primitive
func Native() Strategy {
	return Strategy{
		Name:   "native",
		InBand: true,
		Run: func(ctx context.Context, t transport.Transport, mode escpos.CutMode) (Outcome, error) {
			c, ok := t.(transport.Cutter)
			if !ok {
				return Skipped, nil
			}
			if err := c.Cut(ctx, mode); err != nil {
				return Failed, err
			}
			return confirmed(t), nil
		},
	}
}

// RawStrategies returns one strategy per raw cut opcode for the mode. The
// opcode is chosen at run time, so the same list serves both modes.
func RawStrategies() []Strategy {
	names := []string{"raw_standard", "raw_feed_cut", "raw_alt"}
	out := make([]Strategy, len(names))
	for i, name := range names {
		idx := i
		out[i] = Strategy{
			Name:   name,
			InBand: true,
			Run: func(ctx context.Context, t transport.Transport, mode escpos.CutMode) (Outcome, error) {
				if _, ok := t.(transport.RawWriter); !ok {
					return Skipped, nil
				}
				seq := escpos.CutSequences(mode)[idx]
				if err := transport.PrintRaw(ctx, t, seq.Bytes); err != nil {
					return Failed, fmt.Errorf("%s: %w", seq.Name, err)
				}
				return confirmed(t), nil
			},
		}
	}
	return out
}

// DirectSocket closes the transport's connection, waits for the printer to
// finish the job, then sends feeds and one cut opcode on a fresh socket to
// the same endpoint.
func DirectSocket(settle, dialTimeout time.Duration, feeds int) Strategy {
	return Strategy{
		Name: "direct_socket",
		Run: func(ctx context.Context, t transport.Transport, mode escpos.CutMode) (Outcome, error) {
			dd, ok := t.(transport.DirectDialer)
			if !ok || dd.DirectAddress() == "" {
				return Skipped, nil
			}
			addr := dd.DirectAddress()

			transport.Disconnect(t)
			if err := transport.Sleep(ctx, settle); err != nil {
				return Failed, err
			}

			dialer := &net.Dialer{Timeout: dialTimeout}
			conn, err := dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				return Failed, err
			}
			defer conn.Close()

			conn.SetWriteDeadline(time.Now().Add(dialTimeout))
			payload := append(escpos.Feeds(feeds), escpos.CutCode(mode)...)
			if _, err := conn.Write(payload); err != nil {
				return Failed, err
			}
			transport.Sleep(ctx, settle)
			return Sent, nil
		},
	}
}

// Classic sends feeds and one cut opcode over an RFCOMM link to the
// Bluetooth device's address.
func Classic(dial transport.RFCOMMDialer, channel uint8, settle time.Duration, feeds int) Strategy {
	return Strategy{
		Name: "rfcomm",
		Run: func(ctx context.Context, t transport.Transport, mode escpos.CutMode) (Outcome, error) {
			da, ok := t.(transport.DeviceAddresser)
			if !ok || da.DeviceAddress() == "" || t.Kind() != transport.KindBluetooth {
				return Skipped, nil
			}
			mac := da.DeviceAddress()

			transport.Disconnect(t)
			if err := transport.Sleep(ctx, settle); err != nil {
				return Failed, err
			}

			w, err := dial(ctx, mac, channel)
			if err != nil {
				return Failed, err
			}
			defer w.Close()

			payload := append(escpos.Feeds(feeds), escpos.CutCode(mode)...)
			if _, err := w.Write(payload); err != nil {
				return Failed, err
			}
			transport.Sleep(ctx, settle)
			return Sent, nil
		},
	}
}

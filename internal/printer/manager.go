// Package printer serializes print jobs and decides, per job, whether a
// document is routed to profile printers or printed on the legacy printer.
package printer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vandanarajput/PosAPP/internal/metrics"
	"github.com/Vandanarajput/PosAPP/internal/preview"
	"github.com/Vandanarajput/PosAPP/internal/profiles"
	"github.com/Vandanarajput/PosAPP/internal/renderer"
	"github.com/Vandanarajput/PosAPP/internal/routing"
	"github.com/Vandanarajput/PosAPP/internal/transport"
	"github.com/Vandanarajput/PosAPP/pkg/receiptformat"
)

// ErrNoPrinter is returned when the legacy path is needed but no legacy
// printer is configured
var ErrNoPrinter = errors.New("no legacy printer configured")

// Job paths
const (
	PathRouting = "routing"
	PathLegacy  = "legacy"
)

// Legacy is the single configured printer used when routing does not apply
type Legacy struct {
	Kind       transport.Kind `json:"kind"`
	Address    string         `json:"address"`
	PaperWidth int            `json:"paper_width"`
}

// Config wires a Manager
type Config struct {
	Store    profiles.Store
	Sessions *transport.Sessions
	Renderer *renderer.Renderer
	Legacy   Legacy
	Metrics  *metrics.Metrics
	// AttemptTimeout bounds one connect, render and disconnect cycle
	AttemptTimeout time.Duration
	RetryDelay     time.Duration
	Logger         *slog.Logger
}

// Manager owns the job queue and the print pipeline
type Manager struct {
	cfg    Config
	queue  *Queue
	router *routing.Executor
	log    *slog.Logger

	onJobFinished func(Job)
}

// NewManager creates a manager and starts its queue
func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Renderer == nil {
		cfg.Renderer = renderer.New(renderer.Options{Logger: cfg.Logger})
	}

	m := &Manager{cfg: cfg, log: cfg.Logger, queue: NewQueue(cfg.Logger)}
	m.router = routing.NewExecutor(cfg.Sessions, cfg.Renderer, routing.Options{
		AttemptTimeout: cfg.AttemptTimeout,
		RetryDelay:     cfg.RetryDelay,
		Logger:         cfg.Logger,
		Observe: func(tr routing.TargetResult) {
			cfg.Metrics.ObserveTarget(string(tr.Target.Section), tr.Err)
		},
	})
	m.queue.OnFinished(m.finished)
	return m
}

// OnJobFinished sets a callback for when a job completes or fails
func (m *Manager) OnJobFinished(callback func(Job)) {
	m.onJobFinished = callback
}

// Queue returns the job queue
func (m *Manager) Queue() *Queue { return m.queue }

// Store returns the profile store
func (m *Manager) Store() profiles.Store { return m.cfg.Store }

// Legacy returns the legacy printer configuration
func (m *Manager) Legacy() Legacy { return m.cfg.Legacy }

// Submit validates doc and queues it for printing
func (m *Manager) Submit(doc *receiptformat.Document, source string) (string, error) {
	if err := receiptformat.Validate(doc); err != nil {
		return "", err
	}
	return m.queue.Enqueue(source, func(ctx context.Context) (Summary, error) {
		return m.Print(ctx, doc)
	}), nil
}

// Print runs the full pipeline for doc on the calling goroutine. Use Submit
// to keep prints serialized.
func (m *Manager) Print(ctx context.Context, doc *receiptformat.Document) (Summary, error) {
	enabled, err := m.cfg.Store.FeatureFlag(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read routing flag: %w", err)
	}

	if enabled {
		list, err := m.cfg.Store.List(ctx)
		if err != nil {
			return Summary{}, fmt.Errorf("failed to load printer profiles: %w", err)
		}

		res := m.router.Route(ctx, doc, list)
		if res.Handled {
			return routedSummary(res)
		}
		m.log.Debug("route.legacy", "reason", "no routing hints")
	}

	return m.printLegacy(ctx, doc)
}

func routedSummary(res routing.Result) (Summary, error) {
	s := Summary{Path: PathRouting, Targets: len(res.Targets), Failed: res.Failed()}
	if err := res.Err(); err != nil {
		s.NoMatch = true
		return s, err
	}
	if s.Targets > 0 && s.Failed == s.Targets {
		var first error
		for _, t := range res.Targets {
			if t.Err != nil {
				first = t.Err
				break
			}
		}
		return s, fmt.Errorf("all %d routing targets failed: %w", s.Targets, first)
	}
	return s, nil
}

// printLegacy prints the whole document on the legacy printer with one
// reconnect-and-retry
func (m *Manager) printLegacy(ctx context.Context, doc *receiptformat.Document) (Summary, error) {
	s := Summary{Path: PathLegacy, Targets: 1}
	l := m.cfg.Legacy
	if l.Address == "" {
		s.Failed = 1
		return s, ErrNoPrinter
	}

	err := m.legacyAttempt(ctx, doc)
	if err != nil {
		m.log.Warn("legacy.retry", "kind", l.Kind, "address", l.Address, "error", err)
		if err = transport.Sleep(ctx, m.cfg.RetryDelay); err == nil {
			err = m.legacyAttempt(ctx, doc)
		}
	}
	if err != nil {
		s.Failed = 1
		return s, fmt.Errorf("legacy printer %s: %w", l.Address, err)
	}
	return s, nil
}

func (m *Manager) legacyAttempt(ctx context.Context, doc *receiptformat.Document) error {
	if m.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.AttemptTimeout)
		defer cancel()
	}

	kind := m.cfg.Legacy.Kind
	if kind == "" {
		kind = transport.KindNetwork
	}
	js, err := m.cfg.Sessions.Open(ctx, kind, m.cfg.Legacy.Address)
	if err != nil {
		return err
	}
	defer js.Close()

	_, err = m.cfg.Renderer.WithDotsWidth(m.cfg.Legacy.PaperWidth).Render(ctx, doc, js.Transport())
	return err
}

// Preview renders doc at dotsWidth into a PNG without touching a printer
func (m *Manager) Preview(ctx context.Context, doc *receiptformat.Document, dotsWidth int) ([]byte, error) {
	if err := receiptformat.Validate(doc); err != nil {
		return nil, err
	}
	r := m.cfg.Renderer.WithDotsWidth(dotsWidth)

	rec := preview.NewRecorder()
	if err := rec.Connect(ctx, "preview"); err != nil {
		return nil, err
	}
	res, err := r.Render(ctx, doc, rec)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := preview.EncodePNG(&buf, rec.Ops(), r.DotsWidth(), res.Width); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Connect opens the managed connection used for manual control
func (m *Manager) Connect(ctx context.Context, kind transport.Kind, address string) error {
	return m.cfg.Sessions.Managed.Connect(ctx, kind, address)
}

// Disconnect closes the managed connection
func (m *Manager) Disconnect() error {
	return m.cfg.Sessions.Managed.Disconnect()
}

// ConnectionStatus describes the managed connection
func (m *Manager) ConnectionStatus() transport.ConnectionStatus {
	return m.cfg.Sessions.Managed.Status()
}

// Close stops the queue and closes every session
func (m *Manager) Close() {
	m.queue.Stop()
	m.cfg.Sessions.CloseAll()
}

func (m *Manager) finished(j Job) {
	m.cfg.Metrics.ObserveJob(string(j.Status), j.Duration())
	if j.Summary.NoMatch {
		m.log.Warn("job.nomatch", "id", j.ID)
	}
	if m.onJobFinished != nil {
		m.onJobFinished(j)
	}
}

package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vandanarajput/PosAPP/internal/profiles"
	"github.com/Vandanarajput/PosAPP/internal/renderer"
	"github.com/Vandanarajput/PosAPP/internal/transport"
	"github.com/Vandanarajput/PosAPP/pkg/receiptformat"
)

// ErrNoMatch is reported when a document declared hints that resolved to no
// enabled profile
var ErrNoMatch = errors.New("no printer profile matched the routing hints")

// Opener opens a connected per-job session
type Opener interface {
	Open(ctx context.Context, kind transport.Kind, address string) (*transport.JobSession, error)
}

// TargetResult is the outcome of printing one target
type TargetResult struct {
	Target  Target
	Copies  int
	Retried bool
	Err     error
}

// Result is the outcome of routing one document
type Result struct {
	Handled bool
	Matched bool
	Targets []TargetResult
}

// Failed counts targets that were abandoned
func (r Result) Failed() int {
	n := 0
	for _, t := range r.Targets {
		if t.Err != nil {
			n++
		}
	}
	return n
}

// Err summarizes the result as an error: ErrNoMatch when nothing matched,
// nil otherwise. Per-target failures stay in Targets.
func (r Result) Err() error {
	if r.Handled && !r.Matched {
		return ErrNoMatch
	}
	return nil
}

// Options configures an Executor
type Options struct {
	// AttemptTimeout bounds one connect, render and disconnect cycle
	AttemptTimeout time.Duration
	// RetryDelay is waited before the reconnect-and-retry
	RetryDelay time.Duration
	Logger     *slog.Logger
	// Observe is called once per finished target
	Observe func(TargetResult)
}

// Executor prints routing plans one target at a time
type Executor struct {
	sessions Opener
	renderer *renderer.Renderer
	opts     Options
	log      *slog.Logger
}

// NewExecutor creates an Executor printing through sessions with r
func NewExecutor(sessions Opener, r *renderer.Renderer, opts Options) *Executor {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Executor{sessions: sessions, renderer: r, opts: opts, log: opts.Logger}
}

// Route resolves doc against list and prints every target
func (e *Executor) Route(ctx context.Context, doc *receiptformat.Document, list []profiles.Profile) Result {
	plan := BuildPlan(doc, list)
	if !plan.Handled {
		return Result{}
	}
	if !plan.Matched() {
		e.log.Warn("route.nomatch", "unmatched", plan.Unmatched)
		return Result{Handled: true}
	}
	if len(plan.Unmatched) > 0 {
		e.log.Warn("route.unmatched", "tokens", plan.Unmatched)
	}
	return e.Execute(ctx, plan)
}

// Execute prints every target of plan in order. A failing target is
// abandoned after one retry and the remaining targets still print.
func (e *Executor) Execute(ctx context.Context, plan Plan) Result {
	res := Result{Handled: plan.Handled, Matched: plan.Matched()}
	for _, t := range plan.Targets {
		if err := ctx.Err(); err != nil {
			res.Targets = append(res.Targets, TargetResult{Target: t, Err: err})
			continue
		}
		tr := e.target(ctx, t)
		res.Targets = append(res.Targets, tr)
		if e.opts.Observe != nil {
			e.opts.Observe(tr)
		}
	}
	return res
}

func (e *Executor) target(ctx context.Context, t Target) TargetResult {
	tr := TargetResult{Target: t}
	copies := t.Profile.Copies
	if copies < 1 {
		copies = 1
	}

	for c := 1; c <= copies; c++ {
		err := e.attempt(ctx, t)
		if err != nil {
			e.log.Warn("route.retry", "target", t.String(), "copy", c, "error", err)
			tr.Retried = true
			if err = transport.Sleep(ctx, e.opts.RetryDelay); err == nil {
				err = e.attempt(ctx, t)
			}
		}
		if err != nil {
			tr.Err = fmt.Errorf("print %s: %w", t, err)
			e.log.Error("route.target", "target", t.String(), "copies", tr.Copies, "error", err)
			return tr
		}
		tr.Copies++
	}

	e.log.Info("route.target", "target", t.String(), "copies", tr.Copies, "retried", tr.Retried)
	return tr
}

// attempt runs one connect, render and disconnect cycle
func (e *Executor) attempt(ctx context.Context, t Target) error {
	if e.opts.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.AttemptTimeout)
		defer cancel()
	}

	js, err := e.sessions.Open(ctx, transport.KindNetwork, t.Profile.Address())
	if err != nil {
		return err
	}
	defer js.Close()

	_, err = e.renderer.WithDotsWidth(t.Profile.PaperWidth).Render(ctx, t.Document, js.Transport())
	return err
}

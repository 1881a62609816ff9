// Package preview renders receipts without a printer: Recorder captures the
// print stream a Transport would receive and Render draws it to an image.
package preview

import (
	"context"
	"strings"
	"sync"

	"github.com/Vandanarajput/PosAPP/internal/escpos"
	"github.com/Vandanarajput/PosAPP/internal/transport"
)

// KindPreview identifies the recording transport
const KindPreview transport.Kind = "preview"

// OpKind is the type of a recorded operation
type OpKind string

const (
	OpText  OpKind = "text"
	OpImage OpKind = "image"
	OpRaw   OpKind = "raw"
	OpCut   OpKind = "cut"
)

// Op is one recorded transport call
type Op struct {
	Kind  OpKind                `json:"kind"`
	Text  string                `json:"text,omitempty"`
	Style transport.TextOptions `json:"style,omitempty"`
	Image string                `json:"-"`
	Width int                   `json:"width,omitempty"`
	Raw   []byte                `json:"raw,omitempty"`
	Mode  escpos.CutMode        `json:"mode,omitempty"`
}

// Recorder is an in-memory transport with every optional capability
type Recorder struct {
	mu        sync.Mutex
	ops       []Op
	connected bool
	address   string
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Kind() transport.Kind { return KindPreview }

func (r *Recorder) Init() error { return nil }

func (r *Recorder) Connect(ctx context.Context, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = true
	r.address = address
	return nil
}

func (r *Recorder) record(op Op) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.connected {
		return transport.ErrNotConnected
	}
	r.ops = append(r.ops, op)
	return nil
}

func (r *Recorder) PrintText(ctx context.Context, text string, opts transport.TextOptions) error {
	return r.record(Op{Kind: OpText, Text: text, Style: opts})
}

func (r *Recorder) PrintImageBase64(ctx context.Context, data string, opts transport.ImageOptions) error {
	return r.record(Op{Kind: OpImage, Image: data, Width: opts.Width})
}

func (r *Recorder) PrintRaw(ctx context.Context, data []byte) error {
	return r.record(Op{Kind: OpRaw, Raw: append([]byte(nil), data...)})
}

func (r *Recorder) Cut(ctx context.Context, mode escpos.CutMode) error {
	return r.record(Op{Kind: OpCut, Mode: mode})
}

func (r *Recorder) Disconnect() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = false
	return nil
}

// Ops returns a copy of the recorded operations
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op(nil), r.ops...)
}

// Lines returns every printed text line in order. Each text call ends its
// last line, so "a\n" is the line "a" followed by a blank line.
func (r *Recorder) Lines() []string {
	var lines []string
	for _, op := range r.Ops() {
		if op.Kind != OpText {
			continue
		}
		lines = append(lines, strings.Split(op.Text, "\n")...)
	}
	return lines
}

// Text returns all printed text joined by newlines
func (r *Recorder) Text() string {
	return strings.Join(r.Lines(), "\n")
}

// Reset discards the recorded operations
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = nil
}

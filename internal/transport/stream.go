package transport

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/Vandanarajput/PosAPP/internal/escpos"
)

type deadlineWriter interface {
	SetWriteDeadline(t time.Time) error
}

// stream is the shared body of every transport that writes an ESC/POS byte
// stream to an io.WriteCloser.
type stream struct {
	mu           sync.Mutex
	w            io.WriteCloser
	writeTimeout time.Duration
}

func (s *stream) attach(w io.WriteCloser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w != nil {
		s.w.Close()
	}
	s.w = w
}

func (s *stream) connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w != nil
}

func (s *stream) write(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == nil {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if dw, ok := s.w.(deadlineWriter); ok {
		deadline, has := ctx.Deadline()
		if s.writeTimeout > 0 {
			if d := time.Now().Add(s.writeTimeout); !has || d.Before(deadline) {
				deadline, has = d, true
			}
		}
		if has {
			dw.SetWriteDeadline(deadline)
		} else {
			dw.SetWriteDeadline(time.Time{})
		}
	}

	for len(data) > 0 {
		n, err := s.w.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func (s *stream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return nil
	}
	err := s.w.Close()
	s.w = nil
	return err
}

func (s *stream) PrintText(ctx context.Context, text string, opts TextOptions) error {
	return s.write(ctx, EncodeText(text, opts))
}

func (s *stream) PrintImageBase64(ctx context.Context, data string, opts ImageOptions) error {
	if !s.connected() {
		return ErrNotConnected
	}
	payload, err := EncodeImageBase64(data, opts)
	if err != nil {
		return err
	}
	return s.write(ctx, payload)
}

func (s *stream) PrintRaw(ctx context.Context, data []byte) error {
	return s.write(ctx, data)
}

func (s *stream) Cut(ctx context.Context, mode escpos.CutMode) error {
	return s.write(ctx, escpos.CutCode(mode))
}

func (s *stream) Disconnect() error {
	return s.close()
}

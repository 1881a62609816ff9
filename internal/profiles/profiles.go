// Package profiles stores the network printers that routing can target,
// plus the feature flag that turns multi-printer routing on.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Vandanarajput/PosAPP/internal/transport"
)

// ErrNotFound is returned when a profile ID does not exist
var ErrNotFound = errors.New("printer profile not found")

// Supported paper widths in dots
const (
	Width58mm = 384
	Width80mm = 576
)

// Profile is one network printer endpoint
type Profile struct {
	ID         string `json:"id"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	PaperWidth int    `json:"paper_width"`
	Copies     int    `json:"copies"`
	Enabled    bool   `json:"enabled"`
	Label      string `json:"label,omitempty"`
}

// New creates an enabled profile with defaults applied
func New(host string, port, paperWidth, copies int, label string) Profile {
	p := Profile{Host: host, Port: port, PaperWidth: paperWidth, Copies: copies, Enabled: true, Label: label}
	p.Normalize()
	return p
}

// Normalize fills defaults: an ID, port 9100, a supported paper width and
// at least one copy.
func (p *Profile) Normalize() {
	p.Host = strings.TrimSpace(p.Host)
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Port <= 0 {
		p.Port = transport.DefaultPort
	}
	p.PaperWidth = NormalizeWidth(p.PaperWidth)
	if p.Copies < 1 {
		p.Copies = 1
	}
}

// NormalizeWidth snaps a dot width to 384 or 576
func NormalizeWidth(w int) int {
	switch {
	case w <= 0:
		return Width80mm
	case w <= (Width58mm+Width80mm)/2:
		return Width58mm
	default:
		return Width80mm
	}
}

// Validate checks required fields
func (p Profile) Validate() error {
	if p.Host == "" {
		return fmt.Errorf("printer profile requires a host")
	}
	if p.Port > 65535 {
		return fmt.Errorf("invalid port %d", p.Port)
	}
	return nil
}

// Address is the host:port the printer listens on
func (p Profile) Address() string {
	return transport.JoinHostPort(p.Host, p.Port)
}

// Name is the label, or the address when unlabelled
func (p Profile) Name() string {
	if p.Label != "" {
		return p.Label
	}
	return p.Address()
}

// Store persists profiles in order and the routing feature flag
type Store interface {
	List(ctx context.Context) ([]Profile, error)
	Save(ctx context.Context, list []Profile) error
	// Update applies fn to the current list and saves its result as one
	// step; no other write can land in between
	Update(ctx context.Context, fn func([]Profile) ([]Profile, error)) error
	FeatureFlag(ctx context.Context) (bool, error)
	SetFeatureFlag(ctx context.Context, enabled bool) error
	Close() error
}

// Prepare normalizes and validates a list before it is saved
func Prepare(list []Profile) ([]Profile, error) {
	out := make([]Profile, len(list))
	seen := make(map[string]bool, len(list))
	for i, p := range list {
		p.Normalize()
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate profile id %s", p.ID)
		}
		seen[p.ID] = true
		out[i] = p
	}
	return out, nil
}

// Add appends p to the store
func Add(ctx context.Context, s Store, p Profile) (Profile, error) {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	err := s.Update(ctx, func(list []Profile) ([]Profile, error) {
		return append(list, p), nil
	})
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Remove deletes the profile with id
func Remove(ctx context.Context, s Store, id string) error {
	return s.Update(ctx, func(list []Profile) ([]Profile, error) {
		for i, p := range list {
			if p.ID == id {
				return append(list[:i:i], list[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	})
}

// SetEnabled enables or disables the profile with id
func SetEnabled(ctx context.Context, s Store, id string, enabled bool) error {
	return s.Update(ctx, func(list []Profile) ([]Profile, error) {
		for i := range list {
			if list[i].ID == id {
				list[i].Enabled = enabled
				return list, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	})
}

// Get returns the profile with id
func Get(ctx context.Context, s Store, id string) (Profile, error) {
	list, err := s.List(ctx)
	if err != nil {
		return Profile{}, err
	}
	for _, p := range list {
		if p.ID == id {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Open opens the store for backend ("json", "sqlite" or "memory") at path
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "json", "file":
		return NewFileStore(path)
	case "sqlite", "sqlite3":
		return NewSQLiteStore(path)
	case "memory":
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown profile store backend: %q", backend)
}

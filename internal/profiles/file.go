package profiles

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// fileData is the on-disk layout of a FileStore
type fileData struct {
	RoutingEnabled bool      `json:"routing_enabled"`
	Printers       []Profile `json:"printers"`
}

// FileStore persists profiles to a JSON file
type FileStore struct {
	filePath string
	data     fileData
	mu       sync.RWMutex
}

// NewFileStore opens or creates the JSON store at filePath
func NewFileStore(filePath string) (*FileStore, error) {
	s := &FileStore{filePath: filePath}

	if err := s.load(); err != nil {
		// A missing file is created on first save
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load profiles: %w", err)
		}
	}
	return s, nil
}

func (s *FileStore) List(ctx context.Context) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Profile(nil), s.data.Printers...), nil
}

func (s *FileStore) Save(ctx context.Context, list []Profile) error {
	prepared, err := Prepare(list)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(prepared)
}

func (s *FileStore) Update(ctx context.Context, fn func([]Profile) ([]Profile, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(append([]Profile(nil), s.data.Printers...))
	if err != nil {
		return err
	}
	prepared, err := Prepare(next)
	if err != nil {
		return err
	}
	return s.replace(prepared)
}

// replace swaps in prepared and persists it. Callers hold mu.
func (s *FileStore) replace(prepared []Profile) error {
	prev := s.data.Printers
	s.data.Printers = prepared
	if err := s.save(); err != nil {
		s.data.Printers = prev
		return err
	}
	return nil
}

func (s *FileStore) FeatureFlag(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.RoutingEnabled, nil
}

func (s *FileStore) SetFeatureFlag(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.data.RoutingEnabled
	s.data.RoutingEnabled = enabled
	if err := s.save(); err != nil {
		s.data.RoutingEnabled = prev
		return err
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, &s.data); err != nil {
		return err
	}
	for i := range s.data.Printers {
		s.data.Printers[i].Normalize()
	}
	return nil
}

func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create profile directory: %w", err)
		}
	}

	// Write then rename so a crash never leaves a half-written file
	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), filepath.Base(s.filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write profiles: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write profiles: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write profiles: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.filePath); err != nil {
		return fmt.Errorf("failed to replace profiles: %w", err)
	}
	return nil
}

package profiles

import (
	"context"
	"errors"
	"os"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		in    Profile
		port  int
		width int
		copy  int
	}{
		{"defaults", Profile{Host: " 10.0.0.5 "}, 9100, 576, 1},
		{"58mm", Profile{Host: "h", Port: 9101, PaperWidth: 384, Copies: 3}, 9101, 384, 3},
		{"snap down", Profile{Host: "h", PaperWidth: 400}, 9100, 384, 1},
		{"snap up", Profile{Host: "h", PaperWidth: 512}, 9100, 576, 1},
		{"negative copies", Profile{Host: "h", Copies: -2}, 9100, 576, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Normalize()
			if p.ID == "" {
				t.Error("Expected generated ID")
			}
			if p.Port != tt.port || p.PaperWidth != tt.width || p.Copies != tt.copy {
				t.Errorf("Got port=%d width=%d copies=%d", p.Port, p.PaperWidth, p.Copies)
			}
			if p.Host != "h" && p.Host != "10.0.0.5" {
				t.Errorf("Host not trimmed: %q", p.Host)
			}
		})
	}
}

func TestProfileAddressAndName(t *testing.T) {
	p := New("192.168.1.10", 0, 0, 0, "")
	if p.Address() != "192.168.1.10:9100" {
		t.Errorf("Address = %q", p.Address())
	}
	if p.Name() != p.Address() {
		t.Errorf("Name = %q", p.Name())
	}
	if !p.Enabled {
		t.Error("New profiles should be enabled")
	}
	p.Label = "Grill"
	if p.Name() != "Grill" {
		t.Errorf("Name = %q", p.Name())
	}
}

func TestPrepare_Rejects(t *testing.T) {
	if _, err := Prepare([]Profile{{Host: ""}}); err == nil {
		t.Error("Expected error for empty host")
	}
	if _, err := Prepare([]Profile{{ID: "a", Host: "x"}, {ID: "a", Host: "y"}}); err == nil {
		t.Error("Expected error for duplicate id")
	}
}

// exerciseStore runs the same contract against every backend
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("Expected empty store, got %d", len(list))
	}

	a, err := Add(ctx, s, New("10.0.0.1", 9100, 576, 1, "Cashier"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	b, err := Add(ctx, s, New("10.0.0.2", 9101, 384, 2, "Kitchen"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	list, _ = s.List(ctx)
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != b.ID {
		t.Fatalf("Order not preserved: %+v", list)
	}
	if list[1].Port != 9101 || list[1].PaperWidth != 384 || list[1].Copies != 2 || !list[1].Enabled {
		t.Errorf("Fields not round-tripped: %+v", list[1])
	}

	if err := SetEnabled(ctx, s, b.ID, false); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}
	got, err := Get(ctx, s, b.ID)
	if err != nil || got.Enabled {
		t.Errorf("Expected disabled profile, got %+v err=%v", got, err)
	}

	if err := Remove(ctx, s, a.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := Remove(ctx, s, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	list, _ = s.List(ctx)
	if len(list) != 1 || list[0].ID != b.ID {
		t.Errorf("Unexpected list after remove: %+v", list)
	}

	on, err := s.FeatureFlag(ctx)
	if err != nil || on {
		t.Errorf("Expected flag off, got %v err=%v", on, err)
	}
	if err := s.SetFeatureFlag(ctx, true); err != nil {
		t.Fatalf("SetFeatureFlag failed: %v", err)
	}
	if on, _ := s.FeatureFlag(ctx); !on {
		t.Error("Expected flag on")
	}
}

func TestStores(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		exerciseStore(t, NewMemoryStore())
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "profiles.json")
		s, err := NewFileStore(path)
		if err != nil {
			t.Fatalf("NewFileStore failed: %v", err)
		}
		exerciseStore(t, s)

		// Reopen and check persistence
		s2, err := NewFileStore(path)
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		list, _ := s2.List(context.Background())
		if len(list) != 1 || list[0].Label != "Kitchen" {
			t.Errorf("Unexpected persisted list: %+v", list)
		}
		if on, _ := s2.FeatureFlag(context.Background()); !on {
			t.Error("Feature flag not persisted")
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "profiles.db")
		s, err := NewSQLiteStore(path)
		if err != nil {
			t.Fatalf("NewSQLiteStore failed: %v", err)
		}
		exerciseStore(t, s)
		s.Close()

		s2, err := NewSQLiteStore(path)
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		defer s2.Close()
		list, _ := s2.List(context.Background())
		if len(list) != 1 || list[0].Label != "Kitchen" || list[0].Enabled {
			t.Errorf("Unexpected persisted list: %+v", list)
		}
		if on, _ := s2.FeatureFlag(context.Background()); !on {
			t.Error("Feature flag not persisted")
		}
	})
}

func TestStores_ConcurrentEdits(t *testing.T) {
	const n = 50

	backends := []struct {
		name string
		open func(t *testing.T) Store
	}{
		{"memory", func(t *testing.T) Store { return NewMemoryStore() }},
		{"json", func(t *testing.T) Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "profiles.json"))
			if err != nil {
				t.Fatalf("NewFileStore failed: %v", err)
			}
			return s
		}},
		{"sqlite", func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "profiles.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore failed: %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		}},
	}

	for _, tt := range backends {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.open(t)
			ctx := context.Background()

			var wg sync.WaitGroup
			errs := make(chan error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, err := Add(ctx, s, New(fmt.Sprintf("10.0.1.%d", i), 9100, 576, 1, ""))
					errs <- err
				}(i)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				if err != nil {
					t.Fatalf("Add failed: %v", err)
				}
			}

			list, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(list) != n {
				t.Fatalf("Expected %d profiles, got %d", n, len(list))
			}

			// Disable half while removing the other half
			for i, p := range list {
				wg.Add(1)
				go func(i int, id string) {
					defer wg.Done()
					if i%2 == 0 {
						SetEnabled(ctx, s, id, false)
					} else {
						Remove(ctx, s, id)
					}
				}(i, p.ID)
			}
			wg.Wait()

			list, _ = s.List(ctx)
			if len(list) != n/2 {
				t.Fatalf("Expected %d profiles after removals, got %d", n/2, len(list))
			}
			for _, p := range list {
				if p.Enabled {
					t.Errorf("Profile %s lost its disable", p.Host)
				}
			}
		})
	}
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "profiles.json"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := Add(context.Background(), s, New(fmt.Sprintf("10.0.2.%d", i), 9100, 576, 1, "")); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "profiles.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Expected only profiles.json, got %v", names)
	}
}

func TestUpdate_ErrorKeepsList(t *testing.T) {
	s := NewMemoryStore(New("10.0.0.1", 9100, 576, 1, "Cashier"))
	boom := errors.New("boom")
	err := s.Update(context.Background(), func([]Profile) ([]Profile, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	if list, _ := s.List(context.Background()); len(list) != 1 {
		t.Errorf("Expected list untouched, got %+v", list)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path); err == nil {
		t.Error("Expected error for corrupt file")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		backend string
		wantErr bool
	}{
		{"json", false},
		{"", false},
		{"sqlite", false},
		{"memory", false},
		{"redis", true},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			s, err := Open(tt.backend, filepath.Join(dir, tt.backend+".store"))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open(%q) err = %v", tt.backend, err)
			}
			if s != nil {
				s.Close()
			}
		})
	}
}

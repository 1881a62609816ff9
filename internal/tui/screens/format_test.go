package screens

import (
	"strings"
	"testing"
	"time"

	"github.com/Vandanarajput/PosAPP/internal/printer"
	"github.com/Vandanarajput/PosAPP/internal/profiles"
	"github.com/Vandanarajput/PosAPP/internal/transport"
)

func TestJobTarget(t *testing.T) {
	tests := []struct {
		name    string
		summary printer.Summary
		want    string
	}{
		{"not started", printer.Summary{}, "-"},
		{"legacy", printer.Summary{Path: printer.PathLegacy, Targets: 1}, "legacy"},
		{"routed", printer.Summary{Path: printer.PathRouting, Targets: 3}, "routing x3"},
		{"partial", printer.Summary{Path: printer.PathRouting, Targets: 3, Failed: 1}, "routing 2/3"},
		{"no match", printer.Summary{Path: printer.PathRouting, NoMatch: true}, "routing (no match)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JobTarget(printer.Job{Summary: tt.summary}); got != tt.want {
				t.Errorf("JobTarget() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProfileLine(t *testing.T) {
	p := profiles.New("10.0.0.5", 0, 384, 2, "Bar")
	main, secondary := ProfileLine(p)
	if !strings.Contains(main, "Bar") || !strings.HasPrefix(main, "🟢") {
		t.Errorf("Unexpected main text %q", main)
	}
	if secondary != "10.0.0.5:9100 • 384 dots • x2" {
		t.Errorf("Unexpected secondary text %q", secondary)
	}

	p.Enabled = false
	if main, _ := ProfileLine(p); !strings.HasPrefix(main, "⚫") {
		t.Errorf("Expected disabled marker, got %q", main)
	}
}

func TestJobDetails(t *testing.T) {
	start := time.Now()
	j := printer.Job{
		ID:         "abc",
		Source:     "http",
		Status:     printer.StatusFailed,
		Error:      "no printer profile matched",
		CreatedAt:  start,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
	}
	got := JobDetails(j)
	for _, want := range []string{"abc", "http", "❌ failed", "1.5s", "no printer profile matched"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected %q in %q", want, got)
		}
	}
}

func TestConnectionLine(t *testing.T) {
	if got := ConnectionLine(transport.ConnectionStatus{}); !strings.Contains(got, "not connected") {
		t.Errorf("Unexpected line %q", got)
	}
	got := ConnectionLine(transport.ConnectionStatus{Kind: transport.KindSerial, Address: "/dev/ttyUSB0", Connected: true})
	if !strings.Contains(got, "serial") || !strings.Contains(got, "/dev/ttyUSB0") {
		t.Errorf("Unexpected line %q", got)
	}
}

package tui

import (
	"strings"
	"testing"
	"time"
)

func TestLevelOf(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"3:04PM INF job.end id=1", "info"},
		{"3:04PM WRN route.retry target=x", "warning"},
		{"3:04PM ERR job.end error=boom", "error"},
		{"plain text", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := levelOf(tt.line); got != tt.want {
				t.Errorf("levelOf(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestFormatLog(t *testing.T) {
	now := time.Date(2026, 1, 2, 13, 4, 5, 0, time.UTC)

	got := formatLog(now, "routing on", "command")
	if !strings.HasPrefix(got, "[cyan][13:04:05] > routing on") || !strings.HasSuffix(got, "\n") {
		t.Errorf("Unexpected entry %q", got)
	}

	// tview color tags in messages are escaped
	got = formatLog(now, "job [red] text", "info")
	if strings.Contains(got, "job [red] text") {
		t.Errorf("Expected escaped tag, got %q", got)
	}
}

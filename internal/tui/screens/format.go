// Package screens holds the full-screen tview views opened from the main
// console.
package screens

import (
	"fmt"
	"strings"
	"time"

	"github.com/Vandanarajput/PosAPP/internal/printer"
	"github.com/Vandanarajput/PosAPP/internal/profiles"
	"github.com/Vandanarajput/PosAPP/internal/transport"
)

// StatusIcon returns the marker drawn next to a job status
func StatusIcon(status printer.JobStatus) string {
	switch status {
	case printer.StatusQueued:
		return "⏳"
	case printer.StatusPrinting:
		return "🟡"
	case printer.StatusCompleted:
		return "✅"
	case printer.StatusFailed:
		return "❌"
	default:
		return "⚪"
	}
}

// ProfileLine renders a profile as list main and secondary text
func ProfileLine(p profiles.Profile) (string, string) {
	state := "🟢"
	if !p.Enabled {
		state = "⚫"
	}
	return fmt.Sprintf("%s %s", state, p.Name()),
		fmt.Sprintf("%s • %d dots • x%d", p.Address(), p.PaperWidth, p.Copies)
}

// JobTarget summarizes where a job went
func JobTarget(j printer.Job) string {
	s := j.Summary
	switch {
	case s.Path == "":
		return "-"
	case s.NoMatch:
		return s.Path + " (no match)"
	case s.Failed > 0:
		return fmt.Sprintf("%s %d/%d", s.Path, s.Targets-s.Failed, s.Targets)
	case s.Targets > 1:
		return fmt.Sprintf("%s x%d", s.Path, s.Targets)
	default:
		return s.Path
	}
}

// JobDetails renders a job for a details pane
func JobDetails(j printer.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]Job ID:[white] %s\n", j.ID)
	fmt.Fprintf(&b, "[yellow]Source:[white] %s\n", j.Source)
	fmt.Fprintf(&b, "[yellow]Status:[white] %s %s\n", StatusIcon(j.Status), j.Status)
	fmt.Fprintf(&b, "[yellow]Path:[white] %s\n", JobTarget(j))
	fmt.Fprintf(&b, "[yellow]Created:[white] %s\n", j.CreatedAt.Format("2006-01-02 15:04:05"))
	if d := j.Duration(); d > 0 {
		fmt.Fprintf(&b, "[yellow]Took:[white] %s\n", d.Truncate(time.Millisecond))
	}
	if j.Error != "" {
		fmt.Fprintf(&b, "\n[red]Error:[white] %s\n", j.Error)
	}
	return b.String()
}

// ConnectionLine describes the managed connection
func ConnectionLine(st transport.ConnectionStatus) string {
	if !st.Connected {
		return "[gray]not connected[white]"
	}
	return fmt.Sprintf("[green]%s[white] %s", st.Kind, st.Address)
}

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Vandanarajput/PosAPP/internal/profiles"
	"github.com/Vandanarajput/PosAPP/internal/transport"
	"github.com/Vandanarajput/PosAPP/pkg/receiptformat"
)

// maxDocumentSize bounds receipts fetched over HTTP
const maxDocumentSize = 4 << 20

// handlePrint queues a receipt
// Usage: print <file|url>
func (e *Executor) handlePrint(ctx context.Context, args []string) *Result {
	if len(args) < 1 {
		return fail("usage: print <file|url>")
	}

	doc, err := LoadDocument(ctx, args[0])
	if err != nil {
		return fail("failed to load receipt: %v", err)
	}

	jobID, err := e.manager.Submit(doc, "command")
	if err != nil {
		return fail("invalid receipt: %v", err)
	}

	return ok(fmt.Sprintf("Print job queued: %s", jobID), map[string]any{"job_id": jobID})
}

// handlePreview renders a receipt to a PNG file
// Usage: preview <file|url> <out.png> [width]
func (e *Executor) handlePreview(ctx context.Context, args []string) *Result {
	if len(args) < 2 {
		return fail("usage: preview <file|url> <out.png> [width]")
	}

	width := profiles.Width80mm
	if len(args) >= 3 {
		w, err := strconv.Atoi(args[2])
		if err != nil {
			return fail("invalid width: %s", args[2])
		}
		width = profiles.NormalizeWidth(w)
	}

	doc, err := LoadDocument(ctx, args[0])
	if err != nil {
		return fail("failed to load receipt: %v", err)
	}
	data, err := e.manager.Preview(ctx, doc, width)
	if err != nil {
		return fail("failed to render preview: %v", err)
	}
	if err := os.WriteFile(args[1], data, 0644); err != nil {
		return fail("failed to write preview: %v", err)
	}

	return ok(fmt.Sprintf("Preview written to %s", args[1]), map[string]any{"path": args[1], "width": width})
}

// handleProfile manages printer profiles
// Usage: profile list | add <host> [port] [width] [copies] [label] | remove <id> | enable <id> | disable <id>
func (e *Executor) handleProfile(ctx context.Context, args []string) *Result {
	if len(args) == 0 {
		return fail("usage: profile <list|add|remove|enable|disable>")
	}
	store := e.manager.Store()

	switch sub := strings.ToLower(args[0]); sub {
	case "list":
		list, err := store.List(ctx)
		if err != nil {
			return fail("failed to list profiles: %v", err)
		}
		return ok(fmt.Sprintf("Found %d profile(s)", len(list)), map[string]any{"profiles": list})

	case "add":
		if len(args) < 2 {
			return fail("usage: profile add <host> [port] [width] [copies] [label]")
		}
		nums := make([]int, 3)
		for i := range nums {
			if len(args) <= 2+i {
				break
			}
			n, err := strconv.Atoi(args[2+i])
			if err != nil {
				return fail("invalid number: %s", args[2+i])
			}
			nums[i] = n
		}
		label := ""
		if len(args) >= 6 {
			label = strings.Join(args[5:], " ")
		}

		p, err := profiles.Add(ctx, store, profiles.New(args[1], nums[0], nums[1], nums[2], label))
		if err != nil {
			return fail("failed to add profile: %v", err)
		}
		return ok(fmt.Sprintf("Added printer profile %s (%s)", p.ID, p.Name()), map[string]any{"profile": p})

	case "remove", "enable", "disable":
		if len(args) < 2 {
			return fail("usage: profile %s <id>", sub)
		}
		id := args[1]
		var err error
		switch sub {
		case "remove":
			err = profiles.Remove(ctx, store, id)
		case "enable":
			err = profiles.SetEnabled(ctx, store, id, true)
		default:
			err = profiles.SetEnabled(ctx, store, id, false)
		}
		if errors.Is(err, profiles.ErrNotFound) {
			return fail("profile not found: %s", id)
		}
		if err != nil {
			return fail("failed to update profile: %v", err)
		}
		return ok(fmt.Sprintf("Profile %s: %s", id, sub+"d"), nil)

	default:
		return fail("unknown profile subcommand: %s. Use: list, add, remove, enable, disable", sub)
	}
}

// handleRouting reads or sets the routing feature flag
// Usage: routing on | off | status
func (e *Executor) handleRouting(ctx context.Context, args []string) *Result {
	store := e.manager.Store()
	sub := "status"
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
	}

	switch sub {
	case "on", "off":
		if err := store.SetFeatureFlag(ctx, sub == "on"); err != nil {
			return fail("failed to set routing: %v", err)
		}
		return ok("Routing "+sub, map[string]any{"enabled": sub == "on"})
	case "status":
		on, err := store.FeatureFlag(ctx)
		if err != nil {
			return fail("failed to read routing: %v", err)
		}
		state := "off"
		if on {
			state = "on"
		}
		return ok("Routing is "+state, map[string]any{"enabled": on})
	default:
		return fail("usage: routing <on|off|status>")
	}
}

// handleJob handles job commands
// Usage: job list | status <id> | clear
func (e *Executor) handleJob(args []string) *Result {
	if len(args) == 0 {
		return fail("usage: job <list|status|clear>")
	}
	queue := e.manager.Queue()

	switch sub := strings.ToLower(args[0]); sub {
	case "list":
		jobs := queue.GetAllJobs()
		return ok(fmt.Sprintf("Found %d job(s)", len(jobs)), map[string]any{"jobs": jobs})

	case "status":
		if len(args) < 2 {
			return fail("usage: job status <id>")
		}
		job, found := queue.GetJob(args[1])
		if !found {
			return fail("job not found: %s", args[1])
		}
		msg := fmt.Sprintf("Job %s: %s", job.ID, job.Status)
		if job.Error != "" {
			msg += " (" + job.Error + ")"
		}
		return ok(msg, map[string]any{"job": job})

	case "clear":
		n := queue.ClearCompleted()
		return ok(fmt.Sprintf("Cleared %d finished job(s)", n), map[string]any{"cleared": n})

	default:
		return fail("unknown job subcommand: %s. Use: list, status, clear", sub)
	}
}

// handleConnect opens the managed connection
// Usage: connect <kind> <address>
func (e *Executor) handleConnect(ctx context.Context, args []string) *Result {
	if len(args) < 2 {
		return fail("usage: connect <network|bluetooth|rfcomm|serial|usb> <address>")
	}
	kind, err := transport.ParseKind(args[0])
	if err != nil {
		return fail("%v", err)
	}
	if err := e.manager.Connect(ctx, kind, args[1]); err != nil {
		return fail("failed to connect: %v", err)
	}
	return ok(fmt.Sprintf("Connected to %s %s", kind, args[1]), map[string]any{"connection": e.manager.ConnectionStatus()})
}

// handleDisconnect closes the managed connection
func (e *Executor) handleDisconnect() *Result {
	if err := e.manager.Disconnect(); err != nil {
		return fail("failed to disconnect: %v", err)
	}
	return ok("Disconnected", nil)
}

// handleHelp handles help command
func (e *Executor) handleHelp() *Result {
	helpText := `Available Commands:

  print <file|url>
    Queue a receipt document for printing

  preview <file|url> <out.png> [width]
    Render a receipt to a PNG (width 384 or 576 dots)

  profile list
  profile add <host> [port] [width] [copies] [label]
  profile remove|enable|disable <id>
    Manage network printer profiles used for routing

  routing on|off|status
    Turn multi-printer routing on or off

  job list | job status <id> | job clear
    Inspect the print queue

  connect <kind> <address>
    Open the manual connection (network, bluetooth, rfcomm, serial, usb).
    Network addresses are host[:port], Bluetooth a MAC, serial a device
    path with optional @baud and USB vid:pid.

  disconnect
    Close the manual connection

Examples:
  print ./order.json
  profile add 192.168.1.50 9100 576 1 Kitchen
  routing on
  connect network 192.168.1.40:9100
  connect bluetooth 66:22:A1:B2:C3:D4
`
	return ok(helpText, nil)
}

// LoadDocument reads a receipt document from a file path or an http(s) URL
func LoadDocument(ctx context.Context, pathOrURL string) (*receiptformat.Document, error) {
	if !strings.HasPrefix(pathOrURL, "http://") && !strings.HasPrefix(pathOrURL, "https://") {
		return receiptformat.ParseFile(pathOrURL)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pathOrURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch receipt from URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch receipt: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt from URL: %w", err)
	}
	return receiptformat.Parse(data)
}

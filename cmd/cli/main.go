package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	defaultServerURL = "http://localhost:12212"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true).MarginTop(1)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func main() {
	var serverURL string
	flag.StringVar(&serverURL, "server", defaultServerURL, "Server URL")
	flag.StringVar(&serverURL, "s", defaultServerURL, "Server URL (short)")
	flag.Parse()

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}

	command, cleanup, err := buildCommand(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
	defer cleanup()

	result := executeCommand(serverURL, command)
	if !result.Success {
		printError(result)
		cleanup()
		os.Exit(1)
	}
	printSuccess(result)
}

// buildCommand turns CLI args into a server command. Local receipt paths are
// made absolute and --compose builds a temporary receipt file.
func buildCommand(args []string) (string, func(), error) {
	noop := func() {}

	if len(args) < 2 || !(args[0] == "print" || args[0] == "preview") {
		return joinArgs(args), noop, nil
	}

	for i, arg := range args {
		if arg != "--compose" {
			continue
		}
		doc, err := compose(args[i+1:])
		if err != nil {
			return "", noop, fmt.Errorf("failed to compose receipt: %w", err)
		}
		path, err := writeTemp(doc)
		if err != nil {
			return "", noop, err
		}
		rest := append(append([]string{}, args[:i]...), path)
		return joinArgs(rest), func() { os.Remove(path) }, nil
	}

	out := append([]string{}, args...)
	for i := 1; i < len(out); i++ {
		if isURL(out[i]) {
			continue
		}
		if abs, err := filepath.Abs(out[i]); err == nil {
			out[i] = abs
		}
	}
	return joinArgs(out), noop, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// joinArgs quotes arguments containing spaces so the server splits them back
func joinArgs(args []string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t") {
			a = `"` + a + `"`
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `PosAPP CLI

Usage:
  posapp-cli [flags] <command>

Flags:
  -s, -server <url>    Server URL (default: %s)

Commands:
  print <file|url>
    Queue a receipt document

  print --compose <blocks...>
    Compose and print a receipt from command-line arguments
    Compose blocks:
      printer:10.0.0.5                 - Setting block with the cashier printer
      header:"Cafe" sub:"Main St"      - Header with sub title
      item:"Latte" qty:2 amount:7.00   - Item line (adds to the open item or kitchen block)
      kitchen:10.0.0.6                 - Kitchen ticket for the following items
      summary:"Tax" value:"0.70"       - Summary row
      bigsummary:"Total" value:"7.70"  - Emphasized summary row
      separator                        - Rule line
      qrcode:"https://x" size:6        - QR code
      barcode:"123456" format:code128  - Barcode
      footer:"Come again" align:center - Footer line
      thanks:"Thank you!"              - Thank-you line

  preview <file|url> <out.png> [width]
    Render a receipt to a PNG

  profile list
  profile add <host> [port] [width] [copies] [label]
  profile remove|enable|disable <id>

  routing on|off|status

  job list | job status <id> | job clear

  connect <kind> <address>
  disconnect

  help

Examples:
  posapp-cli print ./order.json
  posapp-cli print --compose printer:10.0.0.5 header:"Cafe" item:"Soup" amount:4.5 kitchen:10.0.0.6 item:"Soup"
  posapp-cli profile add 192.168.1.50 9100 576 1 Kitchen
  posapp-cli -s http://localhost:8080 routing on

`, defaultServerURL)
}

// CommandResult is the /command response; command data is flattened into
// the top-level object
type CommandResult struct {
	Success bool
	Message string
	Error   string
	Data    map[string]any
}

func executeCommand(serverURL, command string) *CommandResult {
	url := strings.TrimSuffix(serverURL, "/") + "/command"

	jsonData, err := json.Marshal(map[string]string{"command": command})
	if err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to connect to server: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to read response: %v", err)}
	}
	return decodeResult(body)
}

func decodeResult(body []byte) *CommandResult {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to parse response: %v", err)}
	}

	res := &CommandResult{Data: make(map[string]any)}
	for k, v := range raw {
		switch k {
		case "success":
			res.Success, _ = v.(bool)
		case "message":
			res.Message, _ = v.(string)
		case "error":
			res.Error, _ = v.(string)
		default:
			res.Data[k] = v
		}
	}
	return res
}

func printSuccess(result *CommandResult) {
	if result.Message != "" {
		fmt.Println(successStyle.Render(result.Message))
	}

	if list, ok := result.Data["profiles"].([]any); ok && len(list) > 0 {
		fmt.Println(headingStyle.Render("Profiles:"))
		for _, item := range list {
			p, _ := item.(map[string]any)
			state := "enabled"
			if enabled, _ := p["enabled"].(bool); !enabled {
				state = "disabled"
			}
			fmt.Printf("  %v  %v:%v  %v dots x%v  %s %s\n",
				p["id"], p["host"], p["port"], p["paper_width"], p["copies"], p["label"], dimStyle.Render(state))
		}
	}

	if jobs, ok := result.Data["jobs"].([]any); ok && len(jobs) > 0 {
		fmt.Println(headingStyle.Render("Jobs:"))
		for _, item := range jobs {
			j, _ := item.(map[string]any)
			line := fmt.Sprintf("  %v: %v (%v)", j["id"], j["status"], j["source"])
			if e, _ := j["error"].(string); e != "" {
				line += " " + errorStyle.Render(e)
			}
			fmt.Println(line)
		}
	}

	if conn, ok := result.Data["connection"].(map[string]any); ok {
		fmt.Printf("Connection: %v %v %s\n", conn["kind"], conn["address"], dimStyle.Render(fmt.Sprintf("connected=%v", conn["connected"])))
	}

	if jobID, ok := result.Data["job_id"].(string); ok {
		fmt.Printf("Job ID: %s\n", jobID)
	}
}

func printError(result *CommandResult) {
	msg := result.Error
	if msg == "" {
		msg = result.Message
	}
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+msg)
}

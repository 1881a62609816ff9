// Package command provides the textual command set shared by the HTTP
// /command endpoint, the CLI and the console.
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/Vandanarajput/PosAPP/internal/printer"
)

// Executor executes commands
type Executor struct {
	manager *printer.Manager
}

// NewExecutor creates a new command executor
func NewExecutor(manager *printer.Manager) *Executor {
	return &Executor{manager: manager}
}

// Result represents the result of executing a command
type Result struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func ok(msg string, data map[string]any) *Result {
	return &Result{Success: true, Message: msg, Data: data}
}

func fail(format string, args ...any) *Result {
	return &Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Execute executes a command string and returns a result
func (e *Executor) Execute(ctx context.Context, cmdStr string) *Result {
	parts := parseCommand(cmdStr)
	if len(parts) == 0 {
		return fail("empty command")
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "print":
		return e.handlePrint(ctx, args)
	case "preview":
		return e.handlePreview(ctx, args)
	case "profile", "profiles":
		return e.handleProfile(ctx, args)
	case "routing":
		return e.handleRouting(ctx, args)
	case "job", "jobs":
		return e.handleJob(args)
	case "connect":
		return e.handleConnect(ctx, args)
	case "disconnect":
		return e.handleDisconnect()
	case "help":
		return e.handleHelp()
	default:
		return fail("unknown command: %s. Type 'help' for available commands", command)
	}
}

// parseCommand splits a command string on spaces, keeping quoted strings
// together
func parseCommand(cmdStr string) []string {
	cmdStr = strings.TrimSpace(cmdStr)
	if cmdStr == "" {
		return nil
	}

	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := byte(0)
	quoted := false

	for i := 0; i < len(cmdStr); i++ {
		char := cmdStr[i]

		switch {
		case (char == '"' || char == '\'') && !inQuotes:
			inQuotes, quoteChar, quoted = true, char, true
		case inQuotes && char == quoteChar:
			inQuotes, quoteChar = false, 0
		case (char == ' ' || char == '\t') && !inQuotes:
			if current.Len() > 0 || quoted {
				parts = append(parts, current.String())
				current.Reset()
				quoted = false
			}
		default:
			current.WriteByte(char)
		}
	}

	if current.Len() > 0 || quoted {
		parts = append(parts, current.String())
	}

	return parts
}

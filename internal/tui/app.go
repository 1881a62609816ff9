// Package tui is the interactive console shown when the server runs in a
// terminal.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/Vandanarajput/PosAPP/internal/command"
	"github.com/Vandanarajput/PosAPP/internal/printer"
	"github.com/Vandanarajput/PosAPP/internal/tui/screens"
)

const maxLogLines = 500

// App is the main TUI application
type App struct {
	App      *tview.Application
	manager  *printer.Manager
	executor *command.Executor
	port     string

	flex         *tview.Flex
	profilesList *tview.List
	jobsTable   *tview.Table
	agentBox    *tview.TextView
	logPane     *tview.TextView
	cmdLine *tview.InputField

	started     time.Time
	currentScreen string

	profilesScreen   *screens.ProfilesEditor
	connectionScreen *screens.ConnectionView
	jobsScreen       *screens.JobsView
}

// New creates the console
func New(manager *printer.Manager, executor *command.Executor, port string) *App {
	t := &App{
		App:           tview.NewApplication(),
		manager:       manager,
		executor:      executor,
		port:          port,
		started:     time.Now(),
		currentScreen: "main",
	}

	t.setupUI()
	t.profilesScreen = screens.NewProfilesEditor(t.App, manager.Store())
	t.connectionScreen = screens.NewConnectionView(t.App, manager)
	t.jobsScreen = screens.NewJobsView(t.App, manager.Queue())
	return t
}

func (t *App) setupUI() {
	t.profilesList = framed(tview.NewList(), "Profiles")
	t.jobsTable = framed(tview.NewTable(), "Jobs")
	t.agentBox = framed(tview.NewTextView().SetDynamicColors(true), "Agent")

	t.logPane = framed(tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetMaxLines(maxLogLines).
		SetChangedFunc(func() { t.App.Draw() }), "Log")

	t.cmdLine = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0).
		SetPlaceholder("help, print <file>, profile list, routing on ...")
	t.cmdLine.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		line := t.cmdLine.GetText()
		t.cmdLine.SetText("")
		t.executeCommand(line)
	})

	panels := tview.NewFlex()
	for _, p := range []tview.Primitive{t.profilesList, t.jobsTable, t.agentBox} {
		panels.AddItem(p, 0, 1, false)
	}
	console := tview.NewFlex().SetDirection(tview.FlexRow)
	console.AddItem(t.logPane, 0, 3, false)
	console.AddItem(t.cmdLine, 1, 0, true)

	t.flex = tview.NewFlex().SetDirection(tview.FlexRow)
	t.flex.AddItem(panels, 0, 1, false)
	t.flex.AddItem(console, 0, 1, false)

	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if t.currentScreen != "main" {
			if event.Key() == tcell.KeyEsc {
				t.showMainScreen()
				return nil
			}
			return event
		}

		// typing goes to the command line untouched
		if t.cmdLine.HasFocus() {
			if event.Key() == tcell.KeyEsc {
				t.App.SetFocus(t.profilesList)
				return nil
			}
			return event
		}

		switch event.Key() {
		case tcell.KeyCtrlC, tcell.KeyEsc:
			t.App.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case ':':
				t.App.SetFocus(t.cmdLine)
			case 'q':
				t.App.Stop()
			case 'p':
				t.showScreen("profiles")
			case 'c':
				t.showScreen("connection")
			case 'j':
				t.showScreen("jobs")
			default:
				return event
			}
			return nil
		}
		return event
	})

	t.App.SetRoot(t.flex, true)
}

// Run starts the TUI and blocks until it exits or ctx is cancelled
func (t *App) Run(ctx context.Context) error {
	t.refreshAll()

	go t.refreshTicker(ctx)
	go func() {
		<-ctx.Done()
		t.App.Stop()
	}()

	t.AddLog("print agent listening on :"+t.port, "info")
	return t.App.Run()
}

// Stop exits the TUI
func (t *App) Stop() { t.App.Stop() }

// framed gives a panel a border and title
func framed[P interface {
	SetBorder(bool) *tview.Box
	SetTitle(string) *tview.Box
}](p P, title string) P {
	p.SetBorder(true)
	p.SetTitle(" " + title + " ")
	return p
}

func (t *App) refreshTicker(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.App.QueueUpdateDraw(t.refreshAll)
		}
	}
}

func (t *App) refreshAll() {
	t.refreshProfiles()
	t.refreshQueue()
	t.refreshStatus()
	switch t.currentScreen {
	case "jobs":
		t.jobsScreen.Refresh()
	case "connection":
		t.connectionScreen.Refresh()
	}
}

func (t *App) refreshProfiles() {
	current := t.profilesList.GetCurrentItem()
	t.profilesList.Clear()

	list, err := t.manager.Store().List(context.Background())
	if err != nil {
		t.profilesList.AddItem("Error loading profiles", err.Error(), 0, nil)
		return
	}
	if len(list) == 0 {
		t.profilesList.AddItem("No profiles", "press 'p' to add one", 0, nil)
		return
	}
	for _, p := range list {
		main, secondary := screens.ProfileLine(p)
		t.profilesList.AddItem(main, secondary, 0, nil)
	}
	if current < len(list) {
		t.profilesList.SetCurrentItem(current)
	}
}

func (t *App) refreshQueue() {
	t.jobsTable.Clear()

	for col, title := range []string{"Status", "Path", "Source", "Age"} {
		t.jobsTable.SetCell(0, col, tview.NewTableCell(title).SetAlign(tview.AlignCenter).SetSelectable(false))
	}

	jobs := t.manager.Queue().GetAllJobs()
	counts := make(map[printer.JobStatus]int)

	for i, job := range jobs {
		row := i + 1
		t.jobsTable.SetCell(row, 0, tview.NewTableCell(screens.StatusIcon(job.Status)+" "+string(job.Status)))
		t.jobsTable.SetCell(row, 1, tview.NewTableCell(screens.JobTarget(job)))
		t.jobsTable.SetCell(row, 2, tview.NewTableCell(job.Source))
		t.jobsTable.SetCell(row, 3, tview.NewTableCell(time.Since(job.CreatedAt).Truncate(time.Second).String()))
		counts[job.Status]++
	}

	if len(jobs) > 0 {
		summary := fmt.Sprintf("queued %d  printing %d  done %d  failed %d",
			counts[printer.StatusQueued], counts[printer.StatusPrinting],
			counts[printer.StatusCompleted], counts[printer.StatusFailed])
		t.jobsTable.SetCell(len(jobs)+1, 0, tview.NewTableCell(summary).SetSelectable(false))
	}
}

func (t *App) refreshStatus() {
	up := time.Since(t.started)

	routing := "[gray]off[white]"
	if on, err := t.manager.Store().FeatureFlag(context.Background()); err == nil && on {
		routing = "[green]on[white]"
	}

	legacy := t.manager.Legacy()
	legacyLine := "[gray]none[white]"
	if legacy.Address != "" {
		legacyLine = fmt.Sprintf("%s %s", legacy.Kind, legacy.Address)
	}

	rows := [][2]string{
		{"uptime", fmt.Sprintf("%dh %dm", int(up.Hours()), int(up.Minutes())%60)},
		{"api", ":" + t.port},
		{"routing", routing},
		{"legacy", legacyLine},
		{"manual", screens.ConnectionLine(t.manager.ConnectionStatus())},
		{"pending", fmt.Sprint(t.manager.Queue().Pending())},
	}
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "[yellow]%-8s[white] %s\n", r[0], r[1])
	}
	t.agentBox.SetText(b.String())
}

// executeCommand handles console navigation locally and hands everything
// else to the shared command set
func (t *App) executeCommand(cmd string) {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return
	}
	t.AddLog(cmd, "command")

	switch strings.ToLower(cmd) {
	case "profiles", "p":
		t.showScreen("profiles")
		return
	case "connection", "c":
		t.showScreen("connection")
		return
	case "jobs", "j":
		t.showScreen("jobs")
		return
	case "clear":
		t.logPane.Clear()
		return
	case "refresh":
		t.refreshAll()
		return
	case "quit", "q", "exit":
		t.App.Stop()
		return
	}

	res := t.executor.Execute(context.Background(), cmd)
	if !res.Success {
		t.AddLog(res.Error, "error")
		return
	}
	if res.Message != "" {
		t.AddLog(res.Message, "info")
	}
	t.refreshAll()
}

func (t *App) showScreen(name string) {
	var root tview.Primitive
	switch name {
	case "profiles":
		t.profilesScreen.Refresh()
		root = t.profilesScreen.GetRoot()
	case "connection":
		t.connectionScreen.Refresh()
		root = t.connectionScreen.GetRoot()
	case "jobs":
		t.jobsScreen.Refresh()
		root = t.jobsScreen.GetRoot()
	default:
		t.showMainScreen()
		return
	}
	t.currentScreen = name
	t.App.SetRoot(root, true)
	t.App.SetFocus(root)
}

func (t *App) showMainScreen() {
	t.currentScreen = "main"
	t.App.SetRoot(t.flex, true)
	t.App.SetFocus(t.cmdLine)
	t.refreshAll()
}

// AddLog appends a line to the log pane. Safe from any goroutine.
func (t *App) AddLog(message string, level string) {
	fmt.Fprint(t.logPane, formatLog(time.Now(), message, level))
	t.logPane.ScrollToEnd()
}

func formatLog(now time.Time, message, level string) string {
	var color, icon string
	switch level {
	case "error":
		color, icon = "[red]", "❌"
	case "warning":
		color, icon = "[yellow]", "⚠️"
	case "command":
		color, icon = "[cyan]", ">"
	default:
		color, icon = "[white]", "ℹ️"
	}
	return fmt.Sprintf("%s[%s] %s %s[white]\n", color, now.Format("15:04:05"), icon, tview.Escape(message))
}

// levelOf picks a pane color from a plain slog text line
func levelOf(line string) string {
	switch {
	case strings.Contains(line, " ERR "):
		return "error"
	case strings.Contains(line, " WRN "):
		return "warning"
	default:
		return "info"
	}
}

// LogWriter returns a writer that feeds the log pane, one entry per line
func (t *App) LogWriter() io.Writer {
	return &logWriter{app: t}
}

type logWriter struct {
	app *App
}

func (w *logWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			w.app.AddLog(line, levelOf(line))
		}
	}
	return len(p), nil
}

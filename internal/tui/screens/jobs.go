package screens

import (
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/Vandanarajput/PosAPP/internal/printer"
)

var jobColumns = []string{"ID", "Source", "Status", "Path", "Age"}

// JobsView lists queue history with a details pane for the selected job
type JobsView struct {
	queue   *printer.Queue
	jobs    []printer.Job
	table   *tview.Table
	details *tview.TextView
	root    *tview.Flex
}

// NewJobsView builds the jobs screen over queue
func NewJobsView(app *tview.Application, queue *printer.Queue) *JobsView {
	j := &JobsView{
		queue:   queue,
		table:   tview.NewTable().SetSelectable(true, false).SetFixed(1, 0),
		details: tview.NewTextView().SetDynamicColors(true).SetWrap(true),
	}
	j.table.SetBorder(true).SetTitle(" Jobs ")
	j.details.SetBorder(true).SetTitle(" Details ")

	j.table.SetSelectedFunc(func(row, _ int) {
		if row >= 1 && row <= len(j.jobs) {
			j.details.SetText(JobDetails(j.jobs[row-1]))
		}
	})
	j.table.SetInputCapture(j.keys)

	j.root = tview.NewFlex()
	j.root.AddItem(j.table, 0, 2, true)
	j.root.AddItem(j.details, 0, 1, false)

	j.Refresh()
	return j
}

func (j *JobsView) keys(ev *tcell.EventKey) *tcell.EventKey {
	if ev.Key() != tcell.KeyRune {
		return ev
	}
	switch ev.Rune() {
	case 'c':
		j.queue.ClearCompleted()
	case 'r':
	default:
		return ev
	}
	j.Refresh()
	return nil
}

// Refresh reloads the job table
func (j *JobsView) Refresh() {
	j.table.Clear()
	for col, name := range jobColumns {
		j.table.SetCell(0, col, tview.NewTableCell(name).SetTextColor(tcell.ColorYellow).SetSelectable(false))
	}

	j.jobs = j.queue.GetAllJobs()
	for i, job := range j.jobs {
		cells := []string{
			shortID(job.ID),
			job.Source,
			StatusIcon(job.Status) + " " + string(job.Status),
			JobTarget(job),
			time.Since(job.CreatedAt).Truncate(time.Second).String(),
		}
		for col, text := range cells {
			j.table.SetCell(i+1, col, tview.NewTableCell(text))
		}
	}

	hint := "[gray]enter: details  r: refresh  c: clear finished[white]"
	if len(j.jobs) == 0 {
		hint = "[gray]no jobs yet[white]"
	}
	j.details.SetText(hint)
}

// GetRoot returns the root primitive for this screen
func (j *JobsView) GetRoot() tview.Primitive {
	return j.root
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

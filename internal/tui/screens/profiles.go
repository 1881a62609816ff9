package screens

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/Vandanarajput/PosAPP/internal/profiles"
)

// ProfilesEditor lists printer profiles and edits them in place
type ProfilesEditor struct {
	app     *tview.Application
	store   profiles.Store
	list    *tview.List
	details *tview.TextView
	form    *tview.Form
	layout  *tview.Flex

	profiles []profiles.Profile
}

// NewProfilesEditor creates a new profile editor screen
func NewProfilesEditor(app *tview.Application, store profiles.Store) *ProfilesEditor {
	r := &ProfilesEditor{app: app, store: store}
	r.setupUI()
	return r
}

func (r *ProfilesEditor) setupUI() {
	r.list = tview.NewList()
	r.list.SetBorder(true)
	r.list.SetTitle("Printer Profiles")
	r.list.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		r.showProfile(index)
	})

	r.details = tview.NewTextView()
	r.details.SetBorder(true)
	r.details.SetTitle("Profile Details")
	r.details.SetDynamicColors(true)

	r.form = tview.NewForm()
	r.form.SetBorder(true)
	r.form.SetTitle("Add Profile")
	r.form.AddInputField("Host", "", 30, nil, nil)
	r.form.AddInputField("Port", strconv.Itoa(9100), 6, tview.InputFieldInteger, nil)
	r.form.AddDropDown("Paper", []string{"80mm", "58mm"}, 0, nil)
	r.form.AddInputField("Copies", "1", 3, tview.InputFieldInteger, nil)
	r.form.AddInputField("Label", "", 30, nil, nil)
	r.form.AddButton("Add", r.addProfile)
	r.form.AddButton("Back", func() { r.app.SetFocus(r.list) })

	right := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(r.details, 0, 1, false).
		AddItem(r.form, 0, 1, false)

	r.layout = tview.NewFlex().
		AddItem(r.list, 0, 1, true).
		AddItem(right, 0, 2, false)

	r.list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() != tcell.KeyRune {
			return event
		}
		switch event.Rune() {
		case 'r':
			r.Refresh()
		case 'a':
			r.app.SetFocus(r.form)
		case 't':
			r.toggleCurrent()
		case 'x':
			r.removeCurrent()
		default:
			return event
		}
		return nil
	})

	r.Refresh()
}

// Refresh reloads profiles from the store
func (r *ProfilesEditor) Refresh() {
	current := r.list.GetCurrentItem()
	r.list.Clear()

	list, err := r.store.List(context.Background())
	if err != nil {
		r.details.SetText(fmt.Sprintf("[red]✗ Failed to load profiles: %v[white]", err))
		return
	}
	r.profiles = list

	if len(list) == 0 {
		r.details.SetText("[yellow]No profiles yet. Press 'a' to add one.[white]")
		return
	}
	for _, p := range list {
		main, secondary := ProfileLine(p)
		r.list.AddItem(main, secondary, 0, nil)
	}
	if current >= len(list) {
		current = len(list) - 1
	}
	r.list.SetCurrentItem(current)
	r.showProfile(current)
}

func (r *ProfilesEditor) selected() (profiles.Profile, bool) {
	i := r.list.GetCurrentItem()
	if i < 0 || i >= len(r.profiles) {
		return profiles.Profile{}, false
	}
	return r.profiles[i], true
}

func (r *ProfilesEditor) showProfile(index int) {
	if index < 0 || index >= len(r.profiles) {
		return
	}
	p := r.profiles[index]
	r.details.SetText(fmt.Sprintf(`[yellow]ID:[white] %s
[yellow]Label:[white] %s
[yellow]Address:[white] %s
[yellow]Paper:[white] %d dots
[yellow]Copies:[white] %d
[yellow]Enabled:[white] %t

[yellow]'a' add, 't' toggle, 'x' remove, 'r' refresh[white]`,
		p.ID, p.Label, p.Address(), p.PaperWidth, p.Copies, p.Enabled))
}

func (r *ProfilesEditor) addProfile() {
	text := func(label string) string {
		return strings.TrimSpace(r.form.GetFormItemByLabel(label).(*tview.InputField).GetText())
	}
	port, _ := strconv.Atoi(text("Port"))
	copies, _ := strconv.Atoi(text("Copies"))
	width := profiles.Width80mm
	if _, paper := r.form.GetFormItemByLabel("Paper").(*tview.DropDown).GetCurrentOption(); paper == "58mm" {
		width = profiles.Width58mm
	}

	p, err := profiles.Add(context.Background(), r.store, profiles.New(text("Host"), port, width, copies, text("Label")))
	if err != nil {
		r.details.SetText(fmt.Sprintf("[red]✗ %v[white]", err))
		return
	}
	r.form.GetFormItemByLabel("Host").(*tview.InputField).SetText("")
	r.form.GetFormItemByLabel("Label").(*tview.InputField).SetText("")
	r.Refresh()
	r.list.SetCurrentItem(len(r.profiles) - 1)
	r.app.SetFocus(r.list)
	r.details.SetText(fmt.Sprintf("[green]✓ Added %s[white]", p.Name()))
}

func (r *ProfilesEditor) toggleCurrent() {
	p, ok := r.selected()
	if !ok {
		return
	}
	if err := profiles.SetEnabled(context.Background(), r.store, p.ID, !p.Enabled); err != nil {
		r.details.SetText(fmt.Sprintf("[red]✗ %v[white]", err))
		return
	}
	r.Refresh()
}

func (r *ProfilesEditor) removeCurrent() {
	p, ok := r.selected()
	if !ok {
		return
	}
	if err := profiles.Remove(context.Background(), r.store, p.ID); err != nil {
		r.details.SetText(fmt.Sprintf("[red]✗ %v[white]", err))
		return
	}
	r.Refresh()
}

// GetRoot returns the root primitive for this screen
func (r *ProfilesEditor) GetRoot() tview.Primitive {
	return r.layout
}

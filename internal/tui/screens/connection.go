package screens

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rivo/tview"

	"github.com/Vandanarajput/PosAPP/internal/printer"
	"github.com/Vandanarajput/PosAPP/internal/transport"
)

// connectionKinds are offered in the kind drop-down, in order
var connectionKinds = []transport.Kind{
	transport.KindNetwork,
	transport.KindBluetooth,
	transport.KindRFCOMM,
	transport.KindSerial,
	transport.KindUSB,
}

// ConnectionView opens and closes the manual connection
type ConnectionView struct {
	app     *tview.Application
	manager *printer.Manager
	form    *tview.Form
	status  *tview.TextView
	layout  *tview.Flex
}

// NewConnectionView creates a new connection screen
func NewConnectionView(app *tview.Application, manager *printer.Manager) *ConnectionView {
	c := &ConnectionView{app: app, manager: manager}
	c.setupUI()
	return c
}

func (c *ConnectionView) setupUI() {
	names := make([]string, len(connectionKinds))
	for i, k := range connectionKinds {
		names[i] = string(k)
	}

	c.form = tview.NewForm()
	c.form.SetBorder(true)
	c.form.SetTitle("Manual Connection")
	c.form.AddDropDown("Kind", names, 0, nil)
	c.form.AddInputField("Address", "", 40, nil, nil)
	c.form.AddButton("Connect", c.connect)
	c.form.AddButton("Disconnect", c.disconnect)

	c.status = tview.NewTextView()
	c.status.SetBorder(true)
	c.status.SetTitle("Status")
	c.status.SetDynamicColors(true)

	c.layout = tview.NewFlex().
		AddItem(c.form, 0, 1, true).
		AddItem(c.status, 0, 1, false)

	c.Refresh()
}

// Refresh redraws the connection status
func (c *ConnectionView) Refresh() {
	c.status.SetText(fmt.Sprintf(`[yellow]Connection:[white] %s

[yellow]Address formats:[white]
  network    host[:port]
  bluetooth  MAC address
  rfcomm     MAC[#channel]
  serial     /dev/ttyUSB0[@baud]
  usb        vid:pid

[yellow]Esc to go back[white]`, ConnectionLine(c.manager.ConnectionStatus())))
}

func (c *ConnectionView) connect() {
	_, kind := c.form.GetFormItemByLabel("Kind").(*tview.DropDown).GetCurrentOption()
	address := strings.TrimSpace(c.form.GetFormItemByLabel("Address").(*tview.InputField).GetText())
	if address == "" {
		c.status.SetText("[red]✗ Address is required[white]")
		return
	}

	c.status.SetText(fmt.Sprintf("[yellow]Connecting to %s %s...[white]", kind, address))
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := c.manager.Connect(ctx, transport.Kind(kind), address)
		c.app.QueueUpdateDraw(func() {
			if err != nil {
				c.status.SetText(fmt.Sprintf("[red]✗ Failed to connect: %v[white]", tview.Escape(err.Error())))
				return
			}
			c.Refresh()
		})
	}()
}

func (c *ConnectionView) disconnect() {
	if err := c.manager.Disconnect(); err != nil {
		c.status.SetText(fmt.Sprintf("[red]✗ %v[white]", tview.Escape(err.Error())))
		return
	}
	c.Refresh()
}

// GetRoot returns the root primitive for this screen
func (c *ConnectionView) GetRoot() tview.Primitive {
	return c.layout
}

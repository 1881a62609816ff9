package transport

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/gousb"
)

// USB prints to a USB printer-class bulk OUT endpoint via libusb
type USB struct {
	stream
}

// NewUSB creates an unconnected USB transport
func NewUSB(writeTimeout time.Duration) *USB {
	u := &USB{}
	u.writeTimeout = writeTimeout
	return u
}

// ParseUSBAddress parses "vid:pid" in hex, e.g. "04b8:0202"
func ParseUSBAddress(address string) (gousb.ID, gousb.ID, error) {
	v, p, ok := strings.Cut(strings.TrimSpace(address), ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid usb address %q, want vid:pid", address)
	}
	vid, err := strconv.ParseUint(strings.TrimPrefix(v, "0x"), 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid usb vendor id %q: %w", v, err)
	}
	pid, err := strconv.ParseUint(strings.TrimPrefix(p, "0x"), 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid usb product id %q: %w", p, err)
	}
	return gousb.ID(vid), gousb.ID(pid), nil
}

func (u *USB) Kind() Kind { return KindUSB }

func (u *USB) Init() error { return nil }

func (u *USB) Connect(ctx context.Context, address string) error {
	vid, pid, err := ParseUSBAddress(address)
	if err != nil {
		return err
	}
	w, err := openUSB(vid, pid)
	if err != nil {
		return connErr(address, err)
	}
	u.attach(w)
	return nil
}

type usbWriter struct {
	ctx   *gousb.Context
	dev   *gousb.Device
	cfg   *gousb.Config
	iface *gousb.Interface
	ep    *gousb.OutEndpoint
	done  func()
}

func (w *usbWriter) Write(p []byte) (int, error) {
	return w.ep.Write(p)
}

func (w *usbWriter) Close() error {
	if w.done != nil {
		w.done()
	} else if w.iface != nil {
		w.iface.Close()
	}
	if w.cfg != nil {
		w.cfg.Close()
	}
	if w.dev != nil {
		w.dev.Close()
	}
	return w.ctx.Close()
}

func outEndpoint(iface *gousb.Interface) *gousb.OutEndpoint {
	for _, desc := range iface.Setting.Endpoints {
		if desc.Direction != gousb.EndpointDirectionOut {
			continue
		}
		if ep, err := iface.OutEndpoint(desc.Number); err == nil {
			return ep
		}
	}
	return nil
}

// openUSB claims the first interface with a bulk OUT endpoint. The default
// interface is tried first, then every interface of every configuration.
func openUSB(vid, pid gousb.ID) (*usbWriter, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(vid, pid)
	if err != nil || dev == nil {
		ctx.Close()
		if err == nil {
			err = fmt.Errorf("device not found")
		}
		return nil, fmt.Errorf("%s:%s: %w", vid, pid, err)
	}
	dev.SetAutoDetach(true)

	w := &usbWriter{ctx: ctx, dev: dev}

	iface, done, err := dev.DefaultInterface()
	if err == nil {
		if ep := outEndpoint(iface); ep != nil {
			w.iface, w.ep, w.done = iface, ep, done
			return w, nil
		}
		done()
	}

	var lastErr error
	for num, cfgDesc := range dev.Desc.Configs {
		cfg, err := dev.Config(num)
		if err != nil {
			lastErr = fmt.Errorf("failed to set config %d: %w", num, err)
			continue
		}
		for _, ifaceDesc := range cfgDesc.Interfaces {
			iface, err := cfg.Interface(ifaceDesc.Number, 0)
			if err != nil {
				lastErr = fmt.Errorf("failed to claim interface %d: %w", ifaceDesc.Number, err)
				continue
			}
			if ep := outEndpoint(iface); ep != nil {
				w.cfg, w.iface, w.ep = cfg, iface, ep
				return w, nil
			}
			iface.Close()
		}
		cfg.Close()
	}

	w.Close()
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("no bulk out endpoint on %s:%s", vid, pid)
}

// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux

// Package handle provides a sevenseg.Backend using the GPIO character device
// uAPI v1 directly.
//
// This is suitable for kernels prior to 5.10, which lack the uAPI v2
// required by backend/cdev.
package handle

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/warthog618/go-sevenseg"
	"github.com/warthog618/go-sevenseg/uapi"
	"golang.org/x/sys/unix"
)

// Backend provides chips via the GPIO character devices in a device
// directory.
type Backend struct {
	dir string
}

// Option modifies the construction of a Backend.
type Option func(*Backend)

// WithDevDir sets the directory searched for GPIO character devices.
//
// The default is /dev.
func WithDevDir(dir string) Option {
	return func(b *Backend) {
		b.dir = dir
	}
}

// New creates a Backend.
func New(options ...Option) *Backend {
	b := Backend{dir: "/dev"}
	for _, option := range options {
		option(&b)
	}
	return &b
}

// Chips returns the names of the GPIO character devices in the device
// directory.
func (b *Backend) Chips() ([]string, error) {
	ee, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, err
	}
	cc := []string(nil)
	for _, e := range ee {
		if !strings.HasPrefix(e.Name(), "gpiochip") {
			continue
		}
		if e.Type()&os.ModeCharDevice == 0 {
			continue
		}
		cc = append(cc, e.Name())
	}
	return cc, nil
}

// OpenChip opens the named chip.
//
// The name may be either the device name, e.g. gpiochip0, or a path.
func (b *Backend) OpenChip(name string) (sevenseg.Chip, error) {
	path := name
	if !strings.Contains(name, "/") {
		path = filepath.Join(b.dir, name)
	}
	fd, err := unix.Open(path, unix.O_CLOEXEC|unix.O_RDONLY, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	ci, err := uapi.GetChipInfo(uintptr(fd))
	if err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(err, "chip info %s", path)
	}
	return &Chip{
		fd:    fd,
		name:  uapi.BytesToString(ci.Name[:]),
		label: uapi.BytesToString(ci.Label[:]),
		lines: int(ci.Lines),
	}, nil
}

// Chip is an open GPIO character device.
type Chip struct {
	fd    int
	name  string
	label string
	lines int
}

// Name returns the system name of the chip.
func (c *Chip) Name() string {
	return c.name
}

// Label returns the label of the chip.
func (c *Chip) Label() string {
	return c.label
}

// Lines returns the number of lines on the chip.
func (c *Chip) Lines() int {
	return c.lines
}

// LineName returns the name of the line.
func (c *Chip) LineName(offset int) (string, error) {
	li, err := uapi.GetLineInfo(uintptr(c.fd), offset)
	if err != nil {
		return "", err
	}
	return uapi.BytesToString(li.Name[:]), nil
}

// LineInfo describes the current state of a line.
type LineInfo struct {
	Offset    int
	Name      string
	Consumer  string
	Requested bool
	Output    bool
	ActiveLow bool
}

// LineInfo returns the current state of the line, which may be requested by
// another process.
func (c *Chip) LineInfo(offset int) (LineInfo, error) {
	li, err := uapi.GetLineInfo(uintptr(c.fd), offset)
	if err != nil {
		return LineInfo{}, err
	}
	return LineInfo{
		Offset:    int(li.Offset),
		Name:      uapi.BytesToString(li.Name[:]),
		Consumer:  uapi.BytesToString(li.Consumer[:]),
		Requested: li.Flags.IsRequested(),
		Output:    li.Flags.IsOut(),
		ActiveLow: li.Flags.IsActiveLow(),
	}, nil
}

// RequestLine requests the line.
//
// Inputs with edge detection are requested as event requests, all others as
// handle requests.
func (c *Chip) RequestLine(offset int, cfg sevenseg.LineConfig) (sevenseg.Line, error) {
	flags := handleFlags(cfg)
	if flags.IsInput() && cfg.Edge != sevenseg.EdgeNone {
		er := uapi.NewEventRequest(offset, flags, eventFlags(cfg.Edge), cfg.Consumer)
		if err := uapi.GetLineEvent(uintptr(c.fd), &er); err != nil {
			return nil, err
		}
		return &Line{fd: int(er.Fd), event: true}, nil
	}
	hr := uapi.NewHandleRequest(offset, flags, int(cfg.Value), cfg.Consumer)
	if err := uapi.GetLineHandle(uintptr(c.fd), &hr); err != nil {
		return nil, err
	}
	return &Line{fd: int(hr.Fd)}, nil
}

// Close closes the chip.
//
// Lines requested from the chip remain requested.
func (c *Chip) Close() error {
	return unix.Close(c.fd)
}

func handleFlags(cfg sevenseg.LineConfig) uapi.HandleFlag {
	var flags uapi.HandleFlag
	if cfg.Direction == sevenseg.Output {
		flags |= uapi.HandleRequestOutput
	} else {
		flags |= uapi.HandleRequestInput
	}
	if cfg.Polarity == sevenseg.ActiveLow {
		flags |= uapi.HandleRequestActiveLow
	}
	return flags
}

func eventFlags(e sevenseg.Edge) uapi.EventFlag {
	var flags uapi.EventFlag
	if e&sevenseg.EdgeRising != 0 {
		flags |= uapi.EventRequestRisingEdge
	}
	if e&sevenseg.EdgeFalling != 0 {
		flags |= uapi.EventRequestFallingEdge
	}
	return flags
}

// Line is a line requested via the uAPI v1.
type Line struct {
	fd    int
	event bool
}

// SetValue sets the logical value of the line.
func (l *Line) SetValue(v int) error {
	var hd uapi.HandleData
	hd[0] = uint8(v)
	return uapi.SetLineValues(uintptr(l.fd), hd)
}

// Value returns the logical value of the line.
func (l *Line) Value() (int, error) {
	var hd uapi.HandleData
	if err := uapi.GetLineValues(uintptr(l.fd), &hd); err != nil {
		return 0, err
	}
	return int(hd[0]), nil
}

// Reconfigure changes the configuration of a handle request.
//
// Event requests, changes to edge detection, and kernels lacking the
// SetLineConfig ioctl all return ErrNotReconfigurable.
func (l *Line) Reconfigure(cfg sevenseg.LineConfig) error {
	if l.event || cfg.Edge != sevenseg.EdgeNone {
		return sevenseg.ErrNotReconfigurable
	}
	hc := uapi.HandleConfig{Flags: handleFlags(cfg)}
	if hc.Flags.IsOutput() {
		hc.DefaultValues[0] = uint8(cfg.Value)
	}
	err := uapi.SetLineConfig(uintptr(l.fd), &hc)
	if err == unix.ENOTTY {
		return sevenseg.WithKind(sevenseg.ErrNotReconfigurable, err)
	}
	return err
}

// Close releases the line.
func (l *Line) Close() error {
	return unix.Close(l.fd)
}

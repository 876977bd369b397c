// SPDX-FileCopyrightText: 2020 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux

// Package cdev provides a sevenseg.Backend using the GPIO character device,
// via go-gpiocdev.
package cdev

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/warthog618/go-gpiocdev"
	"github.com/warthog618/go-sevenseg"
	"golang.org/x/sys/unix"
)

// Backend provides chips via go-gpiocdev.
type Backend struct {
	log *logrus.Entry
}

// Option modifies the construction of a Backend.
type Option func(*Backend)

// WithLogger provides the logger used to report edge events detected on
// input lines.
func WithLogger(log *logrus.Entry) Option {
	return func(b *Backend) {
		b.log = log
	}
}

// New creates a Backend.
func New(options ...Option) *Backend {
	b := Backend{}
	for _, option := range options {
		option(&b)
	}
	if b.log == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		b.log = logrus.NewEntry(logger)
	}
	return &b
}

// Chips returns the names of the GPIO character devices.
func (b *Backend) Chips() ([]string, error) {
	return gpiocdev.Chips(), nil
}

// OpenChip opens the named chip.
//
// The name may be either the device name, e.g. gpiochip0, or a path.
func (b *Backend) OpenChip(name string) (sevenseg.Chip, error) {
	c, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, mapError(err)
	}
	return &Chip{c: c, log: b.log}, nil
}

// Chip wraps a gpiocdev.Chip.
type Chip struct {
	c   *gpiocdev.Chip
	log *logrus.Entry
}

// Name returns the system name of the chip.
func (c *Chip) Name() string {
	return c.c.Name
}

// Label returns the label of the chip.
func (c *Chip) Label() string {
	return c.c.Label
}

// Lines returns the number of lines on the chip.
func (c *Chip) Lines() int {
	return c.c.Lines()
}

// LineName returns the name of the line.
func (c *Chip) LineName(offset int) (string, error) {
	li, err := c.c.LineInfo(offset)
	if err != nil {
		return "", mapError(err)
	}
	return li.Name, nil
}

// RequestLine requests the line.
func (c *Chip) RequestLine(offset int, cfg sevenseg.LineConfig) (sevenseg.Line, error) {
	options := []gpiocdev.LineReqOption{gpiocdev.WithConsumer(cfg.Consumer)}
	for _, o := range configOptions(cfg) {
		options = append(options, o.(gpiocdev.LineReqOption))
	}
	if cfg.Direction == sevenseg.Input && cfg.Edge != sevenseg.EdgeNone {
		log := c.log.WithFields(logrus.Fields{"chip": c.c.Name, "offset": offset})
		options = append(options, gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			log.WithField("type", evt.Type).Debug("edge")
		}))
	}
	l, err := c.c.RequestLine(offset, options...)
	if err != nil {
		return nil, mapError(err)
	}
	return &Line{l: l, edge: cfg.Edge}, nil
}

// Close closes the chip.
func (c *Chip) Close() error {
	return c.c.Close()
}

// configOptions returns the options that apply cfg.
//
// All returned options are both LineReqOptions and LineConfigOptions.
func configOptions(cfg sevenseg.LineConfig) []gpiocdev.LineConfigOption {
	var options []gpiocdev.LineConfigOption
	if cfg.Direction == sevenseg.Output {
		options = append(options, gpiocdev.AsOutput(int(cfg.Value)))
	} else {
		options = append(options, gpiocdev.AsInput)
	}
	if cfg.Polarity == sevenseg.ActiveLow {
		options = append(options, gpiocdev.AsActiveLow)
	} else {
		options = append(options, gpiocdev.AsActiveHigh)
	}
	switch cfg.Edge {
	case sevenseg.EdgeRising:
		options = append(options, gpiocdev.WithRisingEdge)
	case sevenseg.EdgeFalling:
		options = append(options, gpiocdev.WithFallingEdge)
	case sevenseg.EdgeBoth:
		options = append(options, gpiocdev.WithBothEdges)
	}
	return options
}

// Line wraps a gpiocdev.Line.
type Line struct {
	l    *gpiocdev.Line
	edge sevenseg.Edge
}

// SetValue sets the logical value of the line.
func (l *Line) SetValue(v int) error {
	return mapError(l.l.SetValue(v))
}

// Value returns the logical value of the line.
func (l *Line) Value() (int, error) {
	v, err := l.l.Value()
	return v, mapError(err)
}

// Reconfigure changes the direction or polarity of the line.
//
// Changes to edge detection require the line be requested again, as does
// any change the kernel uAPI cannot apply in place.
func (l *Line) Reconfigure(cfg sevenseg.LineConfig) error {
	if cfg.Edge != l.edge {
		return sevenseg.ErrNotReconfigurable
	}
	err := l.l.Reconfigure(configOptions(cfg)...)
	if err == nil {
		return nil
	}
	var ue gpiocdev.ErrUapiIncompatibility
	if errors.As(err, &ue) || err == unix.EINVAL || err == unix.ENOTTY {
		return sevenseg.WithKind(sevenseg.ErrNotReconfigurable, err)
	}
	return mapError(err)
}

// Close releases the line.
func (l *Line) Close() error {
	return mapError(l.l.Close())
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gpiocdev.ErrInvalidOffset):
		return sevenseg.WithKind(sevenseg.ErrNotFound, err)
	case errors.Is(err, gpiocdev.ErrPermissionDenied):
		return sevenseg.WithKind(sevenseg.ErrPermission, err)
	case errors.Is(err, gpiocdev.ErrClosed):
		return sevenseg.WithKind(sevenseg.ErrClosed, err)
	}
	return sevenseg.MapError(err)
}

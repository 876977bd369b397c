// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package clock displays the time of day on a four digit multiplexed display.
package clock

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/warthog618/go-sevenseg/display"
)

// Format determines how hours are displayed.
type Format int

const (
	// TwentyFourHour displays hours 0-23.
	TwentyFourHour Format = iota

	// TwelveHour displays hours 1-12.
	TwelveHour
)

func (f Format) String() string {
	if f == TwelveHour {
		return "12h"
	}
	return "24h"
}

// ErrInvalidFormat indicates a format name is not recognised.
var ErrInvalidFormat = errors.New("invalid format")

// ParseFormat returns the format with the given name, either "12h" or "24h".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "12h":
		return TwelveHour, nil
	case "24h":
		return TwentyFourHour, nil
	}
	return TwentyFourHour, errors.Wrapf(ErrInvalidFormat, "%q", s)
}

// DisplayHour converts an hour of the day, 0-23, to the hour displayed in
// the given format.
func DisplayHour(h int, f Format) int {
	if f != TwelveHour {
		return h
	}
	if h == 0 {
		return 12
	}
	if h > 12 {
		return h - 12
	}
	return h
}

// Digits returns the four digits displaying the hours and minutes.
func Digits(h, m int) []int {
	return []int{h / 10, h % 10, m / 10, m % 10}
}

// Sweeper displays frames on a multiplexed display.
type Sweeper interface {
	Sweep(f display.Frame) error
}

// Clock displays the time on a multiplexed display.
type Clock struct {
	m         Sweeper
	format    Format
	now       func() time.Time
	separator int
}

// Option modifies the construction of a Clock.
type Option func(*Clock)

// WithNow sets the source of the time.
//
// The default is time.Now.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) {
		c.now = now
	}
}

// WithSeparator sets the position whose decimal point separates the hours
// from the minutes.
//
// The default is position 2, the first minutes digit. A negative position
// disables the separator.
func WithSeparator(pos int) Option {
	return func(c *Clock) {
		c.separator = pos
	}
}

// New creates a Clock displaying on the sweeper.
func New(m Sweeper, f Format, options ...Option) *Clock {
	c := Clock{m: m, format: f, now: time.Now, separator: 2}
	for _, option := range options {
		option(&c)
	}
	return &c
}

// CurrentTime returns the hours and minutes to display.
//
// The hours are converted to the display format.
func (c *Clock) CurrentTime() (int, int) {
	t := c.now()
	secs := t.Hour()*3600 + t.Minute()*60 + t.Second()
	h := secs / 3600
	m := (secs % 3600) / 60
	return DisplayHour(h, c.format), m
}

// Frame returns the frame displaying the current time.
func (c *Clock) Frame() display.Frame {
	h, m := c.CurrentTime()
	f := display.Frame{Digits: Digits(h, m)}
	if c.separator >= 0 {
		f.Dots = make([]bool, c.separator+1)
		f.Dots[c.separator] = true
	}
	return f
}

// DisplayTime displays the current time for one sweep of the display.
func (c *Clock) DisplayTime() error {
	return c.m.Sweep(c.Frame())
}

// Run displays the time until the context is done.
//
// The context is checked between sweeps. Returns nil if the context is done,
// else the error that stopped the display.
func (c *Clock) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := c.DisplayTime(); err != nil {
			return err
		}
	}
}

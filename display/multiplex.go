// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package display

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/warthog618/go-sevenseg"
	"github.com/warthog618/go-sevenseg/segment"
)

var (
	// ErrFlicker indicates the sweep of all digits would take too long to
	// appear steady.
	ErrFlicker = errors.New("sweep period would flicker")

	// ErrNoDigits indicates a multiplexed display has no digits.
	ErrNoDigits = errors.New("no digits")
)

// Pins identifies the lines connected to a multiplexed display.
type Pins struct {
	// The segment lines, ordered A, B, C, D, E, F, G, DP.
	Segments [8]int

	// The digit enable lines, in sweep order.
	Digits []int
}

// Frame is the content of a multiplexed display.
type Frame struct {
	// The value to display in each digit position.
	//
	// Positions without a value are blank.
	Digits []int

	// The state of the decimal point in each position.
	Dots []bool
}

// Set returns the segments lit for the digit position.
func (f Frame) Set(pos int) segment.Set {
	set := segment.Set(0)
	if pos < len(f.Digits) {
		set = segment.For(f.Digits[pos])
	}
	if pos < len(f.Dots) && f.Dots[pos] {
		set = set.With(segment.DP)
	}
	return set
}

// Multiplexer drives several digits that share segment lines, enabling one
// digit at a time.
//
// The Multiplexer is intended to be driven by a single goroutine.
type Multiplexer struct {
	d     *Display
	dwell time.Duration
	sleep func(time.Duration)

	// mu covers all that follow.
	mu     sync.Mutex
	digits []*sevenseg.Lease
	closed bool
}

// NewMultiplexed creates a Multiplexer driving the lines on the given pins.
//
// All digits are initially disabled.
func NewMultiplexed(l sevenseg.Leaser, pins Pins, options ...Option) (*Multiplexer, error) {
	opts := defaultOptions()
	for _, option := range options {
		option.applyOption(&opts)
	}
	if len(pins.Digits) == 0 {
		return nil, ErrNoDigits
	}
	if opts.dwell*time.Duration(len(pins.Digits)) >= FlickerLimit {
		return nil, errors.Wrapf(ErrFlicker, "%d digits with dwell %s", len(pins.Digits), opts.dwell)
	}
	d, err := newDisplay(l, pins.Segments, opts)
	if err != nil {
		return nil, err
	}
	m := Multiplexer{d: d, dwell: opts.dwell, sleep: opts.sleep}
	for i, p := range pins.Digits {
		lease, err := l.Acquire(p,
			sevenseg.AsOutput(sevenseg.Inactive),
			polarity(opts.digitPolarity),
			sevenseg.WithConsumer(opts.consumer))
		if err != nil {
			m.release()
			return nil, errors.Wrapf(err, "digit %d", i)
		}
		m.digits = append(m.digits, lease)
	}
	return &m, nil
}

// release closes the leases acquired so far.
func (m *Multiplexer) release() error {
	var err error
	for _, l := range m.digits {
		if cerr := l.Close(); err == nil {
			err = cerr
		}
	}
	m.digits = nil
	if cerr := m.d.Close(); err == nil {
		err = cerr
	}
	return err
}

// Digits returns the number of digit positions.
func (m *Multiplexer) Digits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.digits)
}

// Sweep displays the frame, enabling each digit position in turn for the
// dwell period.
//
// For each position all digits are disabled, the segments for the position
// are set, and then the position is enabled. The last position remains
// enabled on return.
//
// The first error aborts the sweep and is returned.
func (m *Multiplexer) Sweep(f Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return sevenseg.ErrClosed
	}
	for pos := range m.digits {
		if err := m.disable(); err != nil {
			return err
		}
		if err := m.d.SetSegments(f.Set(pos)); err != nil {
			return err
		}
		if err := m.digits[pos].SetValue(sevenseg.Active); err != nil {
			return errors.Wrapf(err, "enable digit %d", pos)
		}
		m.sleep(m.dwell)
	}
	return nil
}

// Run sweeps the frames returned by next until the context is done, then
// blanks the display.
//
// The context is checked between sweeps. If the context is done the result
// of blanking the display is returned, else the error that stopped the
// sweep.
func (m *Multiplexer) Run(ctx context.Context, next func() Frame) error {
	for {
		select {
		case <-ctx.Done():
			return m.Blank()
		default:
		}
		if err := m.Sweep(next()); err != nil {
			m.Blank()
			return err
		}
	}
}

// Blank disables all digits and clears the segments.
func (m *Multiplexer) Blank() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return sevenseg.ErrClosed
	}
	if err := m.disable(); err != nil {
		return err
	}
	return m.d.Clear()
}

// Close blanks the display and releases all lines.
//
// All lines are released even if blanking fails, and the first error
// encountered is returned. Calling Close on a closed Multiplexer has no
// effect.
func (m *Multiplexer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	var err error
	for _, l := range m.digits {
		if werr := l.SetValue(sevenseg.Inactive); err == nil {
			err = werr
		}
	}
	if rerr := m.release(); err == nil {
		err = rerr
	}
	return err
}

// disable disables all digits.
//
// Assumes m is locked.
func (m *Multiplexer) disable() error {
	for i, l := range m.digits {
		if err := l.SetValue(sevenseg.Inactive); err != nil {
			return errors.Wrapf(err, "disable digit %d", i)
		}
	}
	return nil
}

// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package display drives seven segment LED displays connected to GPIO lines.
//
// A Display drives the eight segment lines of a single digit. A Multiplexer
// shares the segment lines between several digits, enabling each in turn
// for a short period, so the digits appear lit simultaneously.
package display

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/warthog618/go-sevenseg"
	"github.com/warthog618/go-sevenseg/segment"
)

// Display is a single seven segment digit, plus decimal point.
//
// All segments are initially inactive.
type Display struct {
	// mu covers all that follow.
	mu     sync.Mutex
	segs   [8]*sevenseg.Lease
	state  segment.Set
	closed bool
}

// New creates a Display driving the segment lines on the given pins.
//
// The pins are ordered A, B, C, D, E, F, G, DP.
func New(l sevenseg.Leaser, pins [8]int, options ...Option) (*Display, error) {
	opts := defaultOptions()
	for _, option := range options {
		option.applyOption(&opts)
	}
	return newDisplay(l, pins, opts)
}

func newDisplay(l sevenseg.Leaser, pins [8]int, opts options) (*Display, error) {
	d := Display{}
	for i, p := range pins {
		lease, err := l.Acquire(p,
			sevenseg.AsOutput(sevenseg.Inactive),
			polarity(opts.segmentPolarity),
			sevenseg.WithConsumer(opts.consumer))
		if err != nil {
			d.release()
			return nil, errors.Wrapf(err, "segment %s", segment.Segments[i])
		}
		d.segs[i] = lease
	}
	return &d, nil
}

func polarity(p sevenseg.Polarity) sevenseg.PolarityOption {
	if p == sevenseg.ActiveLow {
		return sevenseg.AsActiveLow
	}
	return sevenseg.AsActiveHigh
}

// release closes the leases acquired so far.
func (d *Display) release() error {
	var err error
	for i, l := range d.segs {
		if l == nil {
			continue
		}
		if cerr := l.Close(); err == nil {
			err = cerr
		}
		d.segs[i] = nil
	}
	return err
}

// SetDigit displays the digit, with the decimal point off.
//
// All segments are cleared before those for the digit are set, so the old
// and new digits are never superimposed.
func (d *Display) SetDigit(v int) error {
	return d.SetSegments(segment.For(v))
}

// SetSegments lights exactly the segments in the set.
//
// All segments are cleared before those in the set are lit.
func (d *Display) SetSegments(set segment.Set) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return sevenseg.ErrClosed
	}
	if err := d.clear(); err != nil {
		return err
	}
	for _, s := range set.Segments() {
		if err := d.write(s, true); err != nil {
			return err
		}
	}
	return nil
}

// SetSegment lights or clears an individual segment.
func (d *Display) SetSegment(s segment.Segment, on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return sevenseg.ErrClosed
	}
	if s < segment.A || s > segment.DP {
		return errors.Errorf("unknown segment %d", int(s))
	}
	return d.write(s, on)
}

// SetDecimalPoint lights or clears the decimal point, leaving the other
// segments unchanged.
func (d *Display) SetDecimalPoint(on bool) error {
	return d.SetSegment(segment.DP, on)
}

// Clear turns off all segments.
func (d *Display) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return sevenseg.ErrClosed
	}
	return d.clear()
}

// Segments returns the segments currently lit.
func (d *Display) Segments() segment.Set {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Close turns off all segments and releases the segment lines.
//
// All lines are released even if clearing a segment fails, and the first
// error encountered is returned. Calling Close on a closed Display has no
// effect.
func (d *Display) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	var err error
	for _, s := range segment.Segments {
		if werr := d.write(s, false); err == nil {
			err = werr
		}
	}
	if rerr := d.release(); err == nil {
		err = rerr
	}
	return err
}

// clear turns off all segments.
//
// Assumes d is locked.
func (d *Display) clear() error {
	for _, s := range segment.Segments {
		if err := d.write(s, false); err != nil {
			return err
		}
	}
	return nil
}

// write sets the segment line.
//
// Assumes d is locked.
func (d *Display) write(s segment.Segment, on bool) error {
	v := sevenseg.Inactive
	if on {
		v = sevenseg.Active
	}
	if err := d.segs[s].SetValue(v); err != nil {
		return errors.Wrapf(err, "segment %s", s)
	}
	if on {
		d.state = d.state.With(s)
	} else {
		d.state = d.state.Without(s)
	}
	return nil
}

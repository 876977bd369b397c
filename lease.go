// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package sevenseg

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/warthog618/go-sevenseg/pin"
)

// Leaser provides leases on lines identified by logical pin number.
type Leaser interface {
	Acquire(p int, options ...LeaseOption) (*Lease, error)
}

// chipFunc returns the chip providing a leased line, and a function to call
// once the chip is no longer required.
type chipFunc func() (Chip, func(), error)

// Lease represents exclusive control of a single requested line.
//
// The line remains requested until the lease is closed.
type Lease struct {
	loc     pin.Location
	getChip chipFunc

	// mu covers all that follow - those above are immutable
	mu     sync.Mutex
	cfg    LineConfig
	line   Line
	closed bool
}

// Acquire requests exclusive control of the line at the location.
//
// The chip is opened using the opener for the duration of the request, and
// again whenever the lease needs to re-request the line.
//
// By default the line is requested as an active high input.
func Acquire(o ChipOpener, loc pin.Location, options ...LeaseOption) (*Lease, error) {
	getChip := func() (Chip, func(), error) {
		c, err := o.OpenChip(loc.Chip)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { c.Close() }, nil
	}
	return acquire(getChip, loc, DefaultConsumer, options)
}

func acquire(getChip chipFunc, loc pin.Location, consumer string, options []LeaseOption) (*Lease, error) {
	cfg := LineConfig{Consumer: consumer}
	for _, option := range options {
		option.applyLeaseOption(&cfg)
	}
	l := Lease{loc: loc, getChip: getChip, cfg: cfg}
	line, err := l.request(cfg)
	if err != nil {
		return nil, err
	}
	l.line = line
	return &l, nil
}

// request requests the line with the given config.
//
// Assumes l is locked or not yet shared.
func (l *Lease) request(cfg LineConfig) (Line, error) {
	c, release, err := l.openChip()
	if err != nil {
		return nil, err
	}
	defer release()
	return l.requestFrom(c, cfg)
}

func (l *Lease) openChip() (Chip, func(), error) {
	c, release, err := l.getChip()
	if err != nil {
		return nil, nil, errors.Wrapf(MapError(err), "open %s", l.loc.Chip)
	}
	return c, release, nil
}

func (l *Lease) requestFrom(c Chip, cfg LineConfig) (Line, error) {
	if l.loc.Offset < 0 || l.loc.Offset >= c.Lines() {
		return nil, errors.Wrapf(ErrNotFound, "request %s", l.loc)
	}
	line, err := c.RequestLine(l.loc.Offset, cfg)
	if err != nil {
		return nil, errors.Wrapf(MapError(err), "request %s", l.loc)
	}
	return line, nil
}

// Location returns the location of the leased line.
func (l *Lease) Location() pin.Location {
	return l.loc
}

// Config returns the current configuration of the line.
func (l *Lease) Config() LineConfig {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

// Close releases the line.
//
// Calling Close on a closed lease has no effect.
func (l *Lease) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.line == nil {
		return nil
	}
	err := l.line.Close()
	l.line = nil
	return err
}

// SetValue sets the logical value of the line.
//
// Only valid for output lines.
func (l *Lease) SetValue(v Level) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if l.cfg.Direction != Output {
		return ErrWrongDirection
	}
	if err := l.line.SetValue(int(v)); err != nil {
		return err
	}
	l.cfg.Value = v
	return nil
}

// Value returns the logical value of the line.
//
// For outputs this is the last value set, for inputs the line is sampled.
func (l *Lease) Value() (Level, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return Inactive, ErrClosed
	}
	if l.cfg.Direction == Output {
		return l.cfg.Value, nil
	}
	v, err := l.line.Value()
	if err != nil {
		return Inactive, err
	}
	return levelFromInt(v)
}

// SetDirection changes the direction of the line.
//
// Outputs are driven to the last value set. Switching to an output disables
// edge detection.
//
// If the line does not support reconfiguration it is released and requested
// again, so another process may claim the line in the interim. If the line
// cannot be restored after a failed re-request then the lease is closed.
func (l *Lease) SetDirection(d Direction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if d == l.cfg.Direction {
		return nil
	}
	cfg := l.cfg
	cfg.Direction = d
	if d == Output {
		cfg.Edge = EdgeNone
	}
	return l.reconfigure(cfg)
}

// SetEdge enables edge detection on the line.
//
// Only valid for input lines. EdgeNone has no effect.
func (l *Lease) SetEdge(e Edge) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if l.cfg.Direction != Input {
		return ErrWrongDirection
	}
	if e == EdgeNone || e == l.cfg.Edge {
		return nil
	}
	cfg := l.cfg
	cfg.Edge = e
	return l.reconfigure(cfg)
}

// SetPolarity changes the polarity of the line.
//
// The logical value of an output is retained, so its electrical level is
// inverted.
func (l *Lease) SetPolarity(p Polarity) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if p == l.cfg.Polarity {
		return nil
	}
	cfg := l.cfg
	cfg.Polarity = p
	return l.reconfigure(cfg)
}

// reconfigure applies the config to the line.
//
// The line is only released once the chip is available to request it again.
// If the line cannot be requested with the new config then the old config is
// restored.
//
// Assumes l is locked.
func (l *Lease) reconfigure(cfg LineConfig) error {
	if r, ok := l.line.(Reconfigurer); ok {
		err := r.Reconfigure(cfg)
		if err == nil {
			l.cfg = cfg
			return nil
		}
		if !errors.Is(err, ErrNotReconfigurable) {
			return errors.Wrapf(MapError(err), "reconfigure %s", l.loc)
		}
	}
	c, release, err := l.openChip()
	if err != nil {
		return err
	}
	defer release()
	if err := l.line.Close(); err != nil {
		return errors.Wrapf(err, "release %s", l.loc)
	}
	line, err := l.requestFrom(c, cfg)
	if err == nil {
		l.line = line
		l.cfg = cfg
		return nil
	}
	line, rerr := l.requestFrom(c, l.cfg)
	if rerr != nil {
		l.line = nil
		l.closed = true
		return err
	}
	l.line = line
	return err
}

// Pinout provides leases on lines located by a static resolver.
type Pinout struct {
	Resolver pin.Resolver
	Backend  ChipOpener

	// Options are applied to every lease, ahead of the options passed to
	// Acquire.
	Options []LeaseOption
}

// Acquire resolves the pin and requests exclusive control of its line.
func (p Pinout) Acquire(n int, options ...LeaseOption) (*Lease, error) {
	loc, err := p.Resolver.Resolve(n)
	if err != nil {
		return nil, err
	}
	return Acquire(p.Backend, loc, append(append([]LeaseOption(nil), p.Options...), options...)...)
}

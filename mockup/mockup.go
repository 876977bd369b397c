// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package mockup provides an in-memory GPIO backend.
//
// This is intended for testing of sevenseg, but could also be used for testing
// by users of their own code that uses sevenseg.
//
// Every change to the level of a mocked output line is recorded, so tests can
// verify the order in which lines are driven.
package mockup

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-sevenseg"
	"golang.org/x/sys/unix"
)

// Mockup represents a number of GPIO chips being mocked.
type Mockup struct {
	reconfigure bool

	// mu covers all that follow.
	mu        sync.Mutex
	cc        []Chip
	events    []Event
	opens     int
	chipsErr  error
	openErr   error
	writeErrs map[lineKey]error
	closeErrs map[lineKey]error
	reqErrs   map[lineKey][]error
	cfgErrs   map[lineKey]error
}

// Chip represents a single mocked GPIO chip.
type Chip struct {
	Name  string
	Label string
	Lines int

	m     *Mockup
	named bool
	lines []lineState
}

// Event records a change in the electrical level of an output line.
type Event struct {
	Chip   string
	Offset int
	Level  int
}

func (e Event) String() string {
	return fmt.Sprintf("%s:%d=%d", e.Chip, e.Offset, e.Level)
}

type lineKey struct {
	chip   string
	offset int
}

type lineState struct {
	requested bool
	cfg       sevenseg.LineConfig
	// electrical level driven by an output
	level int
	// electrical level an input is pulled to
	pull int
	// the current request
	handle *line
}

// Option modifies the construction of a Mockup.
type Option func(*Mockup)

// WithReconfigure indicates the mocked lines support reconfiguration without
// being released.
func WithReconfigure() Option {
	return func(m *Mockup) {
		m.reconfigure = true
	}
}

// New creates a new Mockup.
//
// A number of GPIO chips can be mocked, with the number of lines on each
// specified in lines. e.g. []int{4,6} would create two chips, the first with 4
// lines and the second with 6.
//
// If namedLines is set then the lines are named after their chip and offset,
// e.g. "mockup-A-3".
func New(lines []int, namedLines bool, options ...Option) (*Mockup, error) {
	if len(lines) == 0 {
		return nil, unix.EINVAL
	}
	m := Mockup{
		writeErrs: map[lineKey]error{},
		closeErrs: map[lineKey]error{},
		reqErrs:   map[lineKey][]error{},
		cfgErrs:   map[lineKey]error{},
	}
	for _, option := range options {
		option(&m)
	}
	m.cc = make([]Chip, len(lines))
	for i, l := range lines {
		m.cc[i] = Chip{
			Name:  fmt.Sprintf("gpiochip%d", i),
			Label: fmt.Sprintf("mockup-%c", 'A'+i),
			Lines: l,
			m:     &m,
			named: namedLines,
			lines: make([]lineState, l),
		}
	}
	return &m, nil
}

// Chip returns the mocked chip indicated by num.
func (m *Mockup) Chip(num int) (*Chip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if num < 0 || num >= len(m.cc) {
		return nil, ErrorIndexRange{num, len(m.cc)}
	}
	return &m.cc[num], nil
}

// Chips returns the names of the mocked chips.
func (m *Mockup) Chips() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chipsErr != nil {
		return nil, m.chipsErr
	}
	names := make([]string, len(m.cc))
	for i := range m.cc {
		names[i] = m.cc[i].Name
	}
	return names, nil
}

// OpenChip opens the named chip.
func (m *Mockup) OpenChip(name string) (sevenseg.Chip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return nil, m.openErr
	}
	for i := range m.cc {
		if m.cc[i].Name == name {
			m.opens++
			return &chipHandle{c: &m.cc[i]}, nil
		}
	}
	return nil, unix.ENOENT
}

// Opens returns the number of times chips have been opened.
func (m *Mockup) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

// Events returns the level changes recorded since the last call to
// ResetEvents.
func (m *Mockup) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// ResetEvents discards the recorded events.
func (m *Mockup) ResetEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

// SetChipsError sets the error returned when enumerating the chips.
func (m *Mockup) SetChipsError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chipsErr = err
}

// SetWriteError sets the error returned by the next write to the line.
func (m *Mockup) SetWriteError(chip string, offset int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErrs[lineKey{chip, offset}] = err
}

// SetOpenError sets the error returned when opening any chip.
//
// A nil error clears it.
func (m *Mockup) SetOpenError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
}

// SetRequestError queues errors to be returned by the following requests of
// the line, one error per request.
func (m *Mockup) SetRequestError(chip string, offset int, errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := lineKey{chip, offset}
	m.reqErrs[key] = append(m.reqErrs[key], errs...)
}

// SetCloseError sets the error returned by the next release of the line.
//
// The line remains requested.
func (m *Mockup) SetCloseError(chip string, offset int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeErrs[lineKey{chip, offset}] = err
}

// SetReconfigureError sets the error returned by the next reconfiguration of
// the line.
func (m *Mockup) SetReconfigureError(chip string, offset int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfgErrs[lineKey{chip, offset}] = err
}

// Close releases all lines held by the Mockup.
//
// Outstanding lines are closed.
func (m *Mockup) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.cc {
		for o := range m.cc[i].lines {
			ls := &m.cc[i].lines[o]
			if ls.handle != nil {
				ls.handle.closed = true
				ls.handle = nil
			}
			ls.requested = false
		}
	}
	return nil
}

// Level returns the electrical level of the line.
//
// For outputs this is the level the line is driven to, and for inputs the
// level it is pulled to.
func (c *Chip) Level(line int) (int, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if line < 0 || line >= c.Lines {
		return 0, ErrorIndexRange{line, c.Lines}
	}
	ls := &c.lines[line]
	if ls.requested && ls.cfg.Direction == sevenseg.Output {
		return ls.level, nil
	}
	return ls.pull, nil
}

// SetPull sets the electrical level an input line is pulled to.
func (c *Chip) SetPull(line int, value int) error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if line < 0 || line >= c.Lines {
		return ErrorIndexRange{line, c.Lines}
	}
	c.lines[line].pull = value
	return nil
}

// Requested returns true if the line is currently requested.
func (c *Chip) Requested(line int) bool {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if line < 0 || line >= c.Lines {
		return false
	}
	return c.lines[line].requested
}

// Config returns the configuration of a requested line.
func (c *Chip) Config(line int) (sevenseg.LineConfig, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if line < 0 || line >= c.Lines {
		return sevenseg.LineConfig{}, ErrorIndexRange{line, c.Lines}
	}
	return c.lines[line].cfg, nil
}

// physical converts between logical and electrical levels.
func physical(v int, p sevenseg.Polarity) int {
	if p == sevenseg.ActiveLow {
		return v ^ 1
	}
	return v
}

// drive sets the electrical level of an output and records the event.
//
// Assumes c.m is locked.
func (c *Chip) drive(offset, level int) {
	c.lines[offset].level = level
	c.m.events = append(c.m.events, Event{Chip: c.Name, Offset: offset, Level: level})
}

// chipHandle is an open mocked chip.
type chipHandle struct {
	c *Chip
}

func (h *chipHandle) Name() string {
	return h.c.Name
}

func (h *chipHandle) Label() string {
	return h.c.Label
}

func (h *chipHandle) Lines() int {
	return h.c.Lines
}

func (h *chipHandle) LineName(offset int) (string, error) {
	if offset < 0 || offset >= h.c.Lines {
		return "", ErrorIndexRange{offset, h.c.Lines}
	}
	if !h.c.named {
		return "", nil
	}
	return fmt.Sprintf("%s-%d", h.c.Label, offset), nil
}

func (h *chipHandle) RequestLine(offset int, cfg sevenseg.LineConfig) (sevenseg.Line, error) {
	c := h.c
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if offset < 0 || offset >= c.Lines {
		return nil, ErrorIndexRange{offset, c.Lines}
	}
	ls := &c.lines[offset]
	if ls.requested {
		return nil, unix.EBUSY
	}
	key := lineKey{c.Name, offset}
	if errs := c.m.reqErrs[key]; len(errs) > 0 {
		c.m.reqErrs[key] = errs[1:]
		return nil, errs[0]
	}
	ls.requested = true
	ls.cfg = cfg
	if cfg.Direction == sevenseg.Output {
		c.drive(offset, physical(int(cfg.Value), cfg.Polarity))
	}
	l := &line{c: c, offset: offset}
	ls.handle = l
	if c.m.reconfigure {
		return &reconfigLine{l}, nil
	}
	return l, nil
}

func (h *chipHandle) Close() error {
	return nil
}

// line is a requested mocked line.
type line struct {
	c      *Chip
	offset int
	closed bool
}

func (l *line) SetValue(v int) error {
	m := l.c.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.closed {
		return sevenseg.ErrClosed
	}
	ls := &l.c.lines[l.offset]
	if ls.cfg.Direction != sevenseg.Output {
		return sevenseg.ErrWrongDirection
	}
	key := lineKey{l.c.Name, l.offset}
	if err := m.writeErrs[key]; err != nil {
		delete(m.writeErrs, key)
		return err
	}
	l.c.drive(l.offset, physical(v, ls.cfg.Polarity))
	return nil
}

func (l *line) Value() (int, error) {
	m := l.c.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.closed {
		return 0, sevenseg.ErrClosed
	}
	ls := &l.c.lines[l.offset]
	if ls.cfg.Direction == sevenseg.Output {
		return physical(ls.level, ls.cfg.Polarity), nil
	}
	return physical(ls.pull, ls.cfg.Polarity), nil
}

func (l *line) Close() error {
	m := l.c.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.closed {
		return sevenseg.ErrClosed
	}
	key := lineKey{l.c.Name, l.offset}
	if err := m.closeErrs[key]; err != nil {
		delete(m.closeErrs, key)
		return err
	}
	l.closed = true
	ls := &l.c.lines[l.offset]
	ls.requested = false
	ls.handle = nil
	return nil
}

// reconfigLine is a mocked line that supports reconfiguration.
type reconfigLine struct {
	*line
}

func (l *reconfigLine) Reconfigure(cfg sevenseg.LineConfig) error {
	m := l.c.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.closed {
		return sevenseg.ErrClosed
	}
	key := lineKey{l.c.Name, l.offset}
	if err := m.cfgErrs[key]; err != nil {
		delete(m.cfgErrs, key)
		return err
	}
	ls := &l.c.lines[l.offset]
	ls.cfg = cfg
	if cfg.Direction == sevenseg.Output {
		level := physical(int(cfg.Value), cfg.Polarity)
		if level != ls.level {
			l.c.drive(l.offset, level)
		}
	}
	return nil
}

// ErrorIndexRange indicates the requested index is beyond the limit of the array.
type ErrorIndexRange struct {
	Req   int
	Limit int
}

func (e ErrorIndexRange) Error() string {
	return fmt.Sprintf("index out of range - got %d, limit is %d.", e.Req, e.Limit)
}

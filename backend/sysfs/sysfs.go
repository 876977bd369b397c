// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package sysfs provides a sevenseg.Backend using the deprecated GPIO sysfs
// interface.
//
// Lines are exported when requested and unexported when released. The
// kernel has no notion of a line being requested via sysfs, so exclusive
// access is only enforced within the process.
package sysfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/warthog618/go-sevenseg"
	"golang.org/x/sys/unix"
)

// DefaultRoot is the location of the GPIO sysfs interface.
const DefaultRoot = "/sys/class/gpio"

// DefaultExportTimeout is the period allowed for udev to prepare an exported
// line.
const DefaultExportTimeout = time.Second

// Backend provides chips via the GPIO sysfs interface.
type Backend struct {
	root    string
	watcher Watcher
	timeout time.Duration
	log     *logrus.Entry

	// mu covers requested.
	mu        sync.Mutex
	requested map[int]bool
}

// Option modifies the construction of a Backend.
type Option func(*Backend)

// WithRoot sets the location of the GPIO sysfs interface.
func WithRoot(root string) Option {
	return func(b *Backend) {
		b.root = root
	}
}

// WithWatcher sets the watcher used to wait for exported lines to become
// available.
//
// The default watches udev events. A nil watcher disables watching, and
// exported lines are polled for instead.
func WithWatcher(w Watcher) Option {
	return func(b *Backend) {
		b.watcher = w
	}
}

// WithExportTimeout sets the period allowed for an exported line to become
// available.
func WithExportTimeout(d time.Duration) Option {
	return func(b *Backend) {
		b.timeout = d
	}
}

// WithLogger provides the logger used to report exports.
func WithLogger(log *logrus.Entry) Option {
	return func(b *Backend) {
		b.log = log
	}
}

// New creates a Backend.
func New(options ...Option) *Backend {
	b := Backend{
		root:      DefaultRoot,
		watcher:   UdevWatcher{},
		timeout:   DefaultExportTimeout,
		requested: map[int]bool{},
	}
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

// Chips returns the names of the chips available via sysfs.
func (b *Backend) Chips() ([]string, error) {
	ee, err := os.ReadDir(b.root)
	if err != nil {
		return nil, err
	}
	cc := []string(nil)
	for _, e := range ee {
		if strings.HasPrefix(e.Name(), "gpiochip") {
			cc = append(cc, e.Name())
		}
	}
	sort.Strings(cc)
	return cc, nil
}

// OpenChip opens the named chip.
//
// Note that sysfs names chips by the number of their first line, so these
// may differ from the names of the corresponding character devices.
func (b *Backend) OpenChip(name string) (sevenseg.Chip, error) {
	dir := filepath.Join(b.root, name)
	base, err := readInt(filepath.Join(dir, "base"))
	if err != nil {
		return nil, err
	}
	ngpio, err := readInt(filepath.Join(dir, "ngpio"))
	if err != nil {
		return nil, err
	}
	label, err := readString(filepath.Join(dir, "label"))
	if err != nil {
		return nil, err
	}
	return &Chip{b: b, name: name, label: label, base: base, lines: ngpio}, nil
}

// Chip is a GPIO chip exposed via sysfs.
type Chip struct {
	b     *Backend
	name  string
	label string
	base  int
	lines int
}

// Name returns the sysfs name of the chip.
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

// Base returns the sysfs number of the first line of the chip.
func (c *Chip) Base() int {
	return c.base
}

// LineName returns the name of the line.
//
// Line names are not available via sysfs.
func (c *Chip) LineName(offset int) (string, error) {
	if offset < 0 || offset >= c.lines {
		return "", sevenseg.ErrNotFound
	}
	return "", nil
}

// RequestLine exports and configures the line.
func (c *Chip) RequestLine(offset int, cfg sevenseg.LineConfig) (sevenseg.Line, error) {
	if offset < 0 || offset >= c.lines {
		return nil, sevenseg.ErrNotFound
	}
	return c.b.request(c.base+offset, cfg)
}

// Close has no effect, as sysfs chips hold no resources.
func (c *Chip) Close() error {
	return nil
}

func (b *Backend) request(n int, cfg sevenseg.LineConfig) (*Line, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.requested[n] {
		return nil, sevenseg.ErrBusy
	}
	l := Line{b: b, n: n, dir: filepath.Join(b.root, fmt.Sprintf("gpio%d", n))}
	if err := b.export(n, l.dir); err != nil {
		return nil, err
	}
	if err := l.configure(cfg); err != nil {
		b.unexport(n)
		return nil, err
	}
	b.requested[n] = true
	return &l, nil
}

// export exports the line and waits for it to become available.
//
// Lines already exported are accepted as is.
func (b *Backend) export(n int, dir string) error {
	name := filepath.Base(dir)
	var arrived <-chan struct{}
	if b.watcher != nil {
		ch, stop, err := b.watcher.Watch(name)
		if err != nil {
			b.log.WithError(err).Debug("watch failed")
		} else {
			defer stop()
			arrived = ch
		}
	}
	err := writeFile(filepath.Join(b.root, "export"), strconv.Itoa(n))
	if errors.Is(err, unix.EBUSY) || errors.Is(err, unix.EINVAL) {
		// already exported
		b.log.WithField("line", name).Debug("already exported")
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "export %d", n)
	}
	b.log.WithField("line", name).Debug("exported")
	if arrived != nil {
		select {
		case <-arrived:
			return nil
		case <-time.After(b.timeout):
			b.log.WithField("line", name).Debug("no udev event")
		}
	}
	return waitForFile(filepath.Join(dir, "value"), b.timeout)
}

func (b *Backend) unexport(n int) error {
	err := writeFile(filepath.Join(b.root, "unexport"), strconv.Itoa(n))
	if errors.Is(err, unix.EINVAL) {
		// already unexported
		return nil
	}
	return err
}

// Line is a line exported via sysfs.
type Line struct {
	b   *Backend
	n   int
	dir string

	// mu covers closed.
	mu     sync.Mutex
	closed bool
}

// configure writes the config to the line.
//
// Outputs are set to their initial value as part of setting the direction.
func (l *Line) configure(cfg sevenseg.LineConfig) error {
	activeLow := "0"
	if cfg.Polarity == sevenseg.ActiveLow {
		activeLow = "1"
	}
	if err := l.write("active_low", activeLow); err != nil {
		return err
	}
	if cfg.Direction == sevenseg.Output {
		// direction levels are electrical, not logical
		high := (cfg.Value == sevenseg.Active) != (cfg.Polarity == sevenseg.ActiveLow)
		dir := "low"
		if high {
			dir = "high"
		}
		return l.write("direction", dir)
	}
	if err := l.write("direction", "in"); err != nil {
		return err
	}
	return l.write("edge", edgeName(cfg.Edge))
}

func edgeName(e sevenseg.Edge) string {
	switch e {
	case sevenseg.EdgeRising:
		return "rising"
	case sevenseg.EdgeFalling:
		return "falling"
	case sevenseg.EdgeBoth:
		return "both"
	}
	return "none"
}

func (l *Line) write(attr, value string) error {
	err := writeFile(filepath.Join(l.dir, attr), value)
	if os.IsNotExist(err) {
		return sevenseg.WithKind(sevenseg.ErrNotExported, err)
	}
	return errors.Wrapf(err, "write %s", attr)
}

// SetValue sets the logical value of the line.
func (l *Line) SetValue(v int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return sevenseg.ErrClosed
	}
	return l.write("value", strconv.Itoa(v))
}

// Value returns the logical value of the line.
func (l *Line) Value() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, sevenseg.ErrClosed
	}
	v, err := readInt(filepath.Join(l.dir, "value"))
	if os.IsNotExist(errors.Cause(err)) {
		return 0, sevenseg.WithKind(sevenseg.ErrNotExported, err)
	}
	return v, err
}

// Reconfigure rewrites the config of the exported line.
func (l *Line) Reconfigure(cfg sevenseg.LineConfig) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return sevenseg.ErrClosed
	}
	if cfg.Direction == sevenseg.Output {
		// disable edge detection before switching direction
		if err := l.write("edge", "none"); err != nil {
			return err
		}
	}
	return l.configure(cfg)
}

// Close unexports the line.
func (l *Line) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return sevenseg.ErrClosed
	}
	l.closed = true
	l.b.mu.Lock()
	defer l.b.mu.Unlock()
	delete(l.b.requested, l.n)
	return l.b.unexport(l.n)
}

func readString(path string) (string, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(buf)), nil
}

func readInt(path string) (int, error) {
	s, err := readString(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", path)
	}
	return v, nil
}

// writeFile writes the value to an existing sysfs attribute.
func writeFile(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	_, err = f.WriteString(value)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// waitForFile polls for the file to become writable.
func waitForFile(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		err := unix.Access(path, unix.W_OK)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return sevenseg.WithKind(sevenseg.ErrNotExported, errors.Wrapf(err, "wait for %s", path))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

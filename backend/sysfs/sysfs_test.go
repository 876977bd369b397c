// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package sysfs_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-sevenseg"
	"github.com/warthog618/go-sevenseg/backend/sysfs"
	"github.com/warthog618/go-sevenseg/pin"
)

// newRoot creates a fake sysfs GPIO tree with a single chip of four lines,
// with all lines already present.
func newRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeAttr(t, filepath.Join(root, "export"), "")
	writeAttr(t, filepath.Join(root, "unexport"), "")
	chip := filepath.Join(root, "gpiochip512")
	require.Nil(t, os.Mkdir(chip, 0755))
	writeAttr(t, filepath.Join(chip, "base"), "512\n")
	writeAttr(t, filepath.Join(chip, "ngpio"), "4\n")
	writeAttr(t, filepath.Join(chip, "label"), "gpio-a\n")
	for n := 512; n < 516; n++ {
		addLine(t, root, n)
	}
	return root
}

func addLine(t *testing.T, root string, n int) {
	t.Helper()
	dir := filepath.Join(root, fmt.Sprintf("gpio%d", n))
	require.Nil(t, os.Mkdir(dir, 0755))
	for _, attr := range []string{"active_low", "direction", "edge", "value"} {
		writeAttr(t, filepath.Join(dir, attr), "")
	}
}

func writeAttr(t *testing.T, path, value string) {
	t.Helper()
	require.Nil(t, os.WriteFile(path, []byte(value), 0644))
}

func readAttr(t *testing.T, path string) string {
	t.Helper()
	buf, err := os.ReadFile(path)
	require.Nil(t, err)
	return strings.TrimSpace(string(buf))
}

type fakeWatcher struct {
	watched []string
	stopped int
}

func (w *fakeWatcher) Watch(name string) (<-chan struct{}, func(), error) {
	w.watched = append(w.watched, name)
	ch := make(chan struct{})
	close(ch)
	return ch, func() { w.stopped++ }, nil
}

func newBackend(root string, options ...sysfs.Option) *sysfs.Backend {
	options = append([]sysfs.Option{
		sysfs.WithRoot(root),
		sysfs.WithWatcher(nil),
		sysfs.WithExportTimeout(50 * time.Millisecond),
	}, options...)
	return sysfs.New(options...)
}

func TestChips(t *testing.T) {
	root := newRoot(t)
	b := newBackend(root)
	cc, err := b.Chips()
	require.Nil(t, err)
	assert.Equal(t, []string{"gpiochip512"}, cc)

	b = newBackend(filepath.Join(root, "missing"))
	_, err = b.Chips()
	assert.NotNil(t, err)
}

func TestOpenChip(t *testing.T) {
	root := newRoot(t)
	b := newBackend(root)
	c, err := b.OpenChip("gpiochip512")
	require.Nil(t, err)
	defer c.Close()
	assert.Equal(t, "gpiochip512", c.Name())
	assert.Equal(t, "gpio-a", c.Label())
	assert.Equal(t, 4, c.Lines())
	assert.Equal(t, 512, c.(*sysfs.Chip).Base())
	n, err := c.LineName(2)
	assert.Nil(t, err)
	assert.Empty(t, n)
	_, err = c.LineName(4)
	assert.Equal(t, sevenseg.ErrNotFound, err)

	_, err = b.OpenChip("gpiochip0")
	assert.True(t, os.IsNotExist(err))
}

func TestRequestOutput(t *testing.T) {
	root := newRoot(t)
	w := fakeWatcher{}
	b := newBackend(root, sysfs.WithWatcher(&w))
	loc := pin.Location{Chip: "gpiochip512", Offset: 1}
	l, err := sevenseg.Acquire(b, loc, sevenseg.AsOutput(sevenseg.Active))
	require.Nil(t, err)
	assert.Equal(t, "513", readAttr(t, filepath.Join(root, "export")))
	assert.Equal(t, []string{"gpio513"}, w.watched)
	assert.Equal(t, 1, w.stopped)
	line := filepath.Join(root, "gpio513")
	assert.Equal(t, "0", readAttr(t, filepath.Join(line, "active_low")))
	assert.Equal(t, "high", readAttr(t, filepath.Join(line, "direction")))

	require.Nil(t, l.SetValue(sevenseg.Inactive))
	assert.Equal(t, "0", readAttr(t, filepath.Join(line, "value")))

	// busy within the process
	_, err = sevenseg.Acquire(b, loc)
	assert.True(t, errors.Is(err, sevenseg.ErrBusy))

	require.Nil(t, l.Close())
	assert.Equal(t, "513", readAttr(t, filepath.Join(root, "unexport")))

	l, err = sevenseg.Acquire(b, loc)
	require.Nil(t, err)
	assert.Nil(t, l.Close())
}

func TestRequestActiveLow(t *testing.T) {
	root := newRoot(t)
	b := newBackend(root)
	loc := pin.Location{Chip: "gpiochip512", Offset: 2}
	l, err := sevenseg.Acquire(b, loc, sevenseg.AsOutput(sevenseg.Inactive), sevenseg.AsActiveLow)
	require.Nil(t, err)
	defer l.Close()
	line := filepath.Join(root, "gpio514")
	assert.Equal(t, "1", readAttr(t, filepath.Join(line, "active_low")))
	assert.Equal(t, "high", readAttr(t, filepath.Join(line, "direction")))

	require.Nil(t, l.SetPolarity(sevenseg.ActiveHigh))
	assert.Equal(t, "0", readAttr(t, filepath.Join(line, "active_low")))
	assert.Equal(t, "low", readAttr(t, filepath.Join(line, "direction")))
}

func TestRequestInput(t *testing.T) {
	root := newRoot(t)
	b := newBackend(root)
	loc := pin.Location{Chip: "gpiochip512", Offset: 0}
	writeAttr(t, filepath.Join(root, "gpio512", "value"), "1\n")
	l, err := sevenseg.Acquire(b, loc, sevenseg.WithBothEdges)
	require.Nil(t, err)
	defer l.Close()
	line := filepath.Join(root, "gpio512")
	assert.Equal(t, "in", readAttr(t, filepath.Join(line, "direction")))
	assert.Equal(t, "both", readAttr(t, filepath.Join(line, "edge")))
	v, err := l.Value()
	assert.Nil(t, err)
	assert.Equal(t, sevenseg.Active, v)

	writeAttr(t, filepath.Join(line, "value"), "2\n")
	_, err = l.Value()
	assert.True(t, errors.Is(err, sevenseg.ErrInvalidValue))

	require.Nil(t, l.SetDirection(sevenseg.Output))
	assert.Equal(t, "none", readAttr(t, filepath.Join(line, "edge")))
	assert.Equal(t, "low", readAttr(t, filepath.Join(line, "direction")))
}

func TestNotExported(t *testing.T) {
	root := newRoot(t)
	require.Nil(t, os.RemoveAll(filepath.Join(root, "gpio515")))
	b := newBackend(root)
	loc := pin.Location{Chip: "gpiochip512", Offset: 3}
	_, err := sevenseg.Acquire(b, loc, sevenseg.AsOutput(sevenseg.Active))
	assert.True(t, errors.Is(err, sevenseg.ErrNotExported))

	// line is not left requested
	addLine(t, root, 515)
	l, err := sevenseg.Acquire(b, loc)
	require.Nil(t, err)
	require.Nil(t, os.RemoveAll(filepath.Join(root, "gpio515")))
	_, err = l.Value()
	assert.True(t, errors.Is(err, sevenseg.ErrNotExported))
}

func TestOutOfRange(t *testing.T) {
	root := newRoot(t)
	b := newBackend(root)
	_, err := sevenseg.Acquire(b, pin.Location{Chip: "gpiochip512", Offset: 4})
	assert.True(t, errors.Is(err, sevenseg.ErrNotFound))
}

func TestLineClose(t *testing.T) {
	root := newRoot(t)
	b := newBackend(root)
	c, err := b.OpenChip("gpiochip512")
	require.Nil(t, err)
	l, err := c.RequestLine(1, sevenseg.LineConfig{Direction: sevenseg.Output})
	require.Nil(t, err)
	assert.Nil(t, l.Close())
	assert.Equal(t, sevenseg.ErrClosed, l.Close())
	assert.Equal(t, sevenseg.ErrClosed, l.SetValue(1))
	_, err = l.Value()
	assert.Equal(t, sevenseg.ErrClosed, err)
}

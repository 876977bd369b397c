// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package sevenseg_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-sevenseg"
	"github.com/warthog618/go-sevenseg/mockup"
	"github.com/warthog618/go-sevenseg/pin"
	"golang.org/x/sys/unix"
)

var bands = pin.Bands{
	Base:  512,
	Size:  8,
	Chips: []string{"gpiochip0", "gpiochip1"},
}

func newPinout(t *testing.T, options ...mockup.Option) (*mockup.Mockup, sevenseg.Pinout) {
	t.Helper()
	m, err := mockup.New([]int{8, 8}, false, options...)
	require.Nil(t, err)
	return m, sevenseg.Pinout{Resolver: bands, Backend: m}
}

func TestAcquire(t *testing.T) {
	m, po := newPinout(t)
	mc, err := m.Chip(1)
	require.Nil(t, err)
	l, err := po.Acquire(523)
	require.Nil(t, err)
	assert.Equal(t, pin.Location{Chip: "gpiochip1", Offset: 3}, l.Location())
	cfg := l.Config()
	assert.Equal(t, sevenseg.Input, cfg.Direction)
	assert.Equal(t, sevenseg.ActiveHigh, cfg.Polarity)
	assert.Equal(t, sevenseg.EdgeNone, cfg.Edge)
	assert.Equal(t, sevenseg.DefaultConsumer, cfg.Consumer)
	assert.True(t, mc.Requested(3))

	// busy
	_, err = po.Acquire(523)
	assert.True(t, errors.Is(err, sevenseg.ErrBusy))

	// release then reacquire
	require.Nil(t, l.Close())
	assert.False(t, mc.Requested(3))
	l, err = po.Acquire(523)
	require.Nil(t, err)
	assert.Nil(t, l.Close())

	// chip is only held for the request
	assert.Equal(t, 3, m.Opens())

	_, err = po.Acquire(528)
	assert.True(t, errors.Is(err, pin.ErrUnsupportedPin))
}

func TestAcquireNotFound(t *testing.T) {
	m, err := mockup.New([]int{4}, false)
	require.Nil(t, err)
	_, err = sevenseg.Acquire(m, pin.Location{Chip: "gpiochip0", Offset: 4})
	assert.True(t, errors.Is(err, sevenseg.ErrNotFound))
	_, err = sevenseg.Acquire(m, pin.Location{Chip: "gpiochip0", Offset: -1})
	assert.True(t, errors.Is(err, sevenseg.ErrNotFound))
	_, err = sevenseg.Acquire(m, pin.Location{Chip: "gpiochip7", Offset: 0})
	assert.True(t, errors.Is(err, sevenseg.ErrNotFound))
}

func TestPinoutOptions(t *testing.T) {
	m, po := newPinout(t)
	po.Options = []sevenseg.LeaseOption{sevenseg.AsActiveLow, sevenseg.WithConsumer("pinout")}
	l, err := po.Acquire(512, sevenseg.AsOutput(sevenseg.Active))
	require.Nil(t, err)
	defer l.Close()
	cfg := l.Config()
	assert.Equal(t, sevenseg.ActiveLow, cfg.Polarity)
	assert.Equal(t, "pinout", cfg.Consumer)
	mc, _ := m.Chip(0)
	v, err := mc.Level(0)
	assert.Nil(t, err)
	assert.Equal(t, 0, v)
}

func TestLeaseClose(t *testing.T) {
	_, po := newPinout(t)
	l, err := po.Acquire(512, sevenseg.AsOutput(sevenseg.Inactive))
	require.Nil(t, err)
	assert.Nil(t, l.Close())
	// idempotent
	assert.Nil(t, l.Close())
	assert.Equal(t, sevenseg.ErrClosed, l.SetValue(sevenseg.Active))
	_, err = l.Value()
	assert.Equal(t, sevenseg.ErrClosed, err)
	assert.Equal(t, sevenseg.ErrClosed, l.SetDirection(sevenseg.Input))
	assert.Equal(t, sevenseg.ErrClosed, l.SetEdge(sevenseg.EdgeRising))
	assert.Equal(t, sevenseg.ErrClosed, l.SetPolarity(sevenseg.ActiveLow))
}

func TestLeaseSetValue(t *testing.T) {
	m, po := newPinout(t)
	mc, _ := m.Chip(0)
	l, err := po.Acquire(514, sevenseg.AsOutput(sevenseg.Inactive))
	require.Nil(t, err)
	defer l.Close()
	require.Nil(t, l.SetValue(sevenseg.Active))
	v, err := l.Value()
	assert.Nil(t, err)
	assert.Equal(t, sevenseg.Active, v)
	lvl, _ := mc.Level(2)
	assert.Equal(t, 1, lvl)

	// failed writes are not recorded
	werr := errors.New("write failed")
	m.SetWriteError("gpiochip0", 2, werr)
	assert.Equal(t, werr, l.SetValue(sevenseg.Inactive))
	v, err = l.Value()
	assert.Nil(t, err)
	assert.Equal(t, sevenseg.Active, v)

	in, err := po.Acquire(515)
	require.Nil(t, err)
	defer in.Close()
	assert.Equal(t, sevenseg.ErrWrongDirection, in.SetValue(sevenseg.Active))
}

func TestLeaseInput(t *testing.T) {
	m, po := newPinout(t)
	mc, _ := m.Chip(0)
	require.Nil(t, mc.SetPull(4, 1))
	l, err := po.Acquire(516, sevenseg.AsInput)
	require.Nil(t, err)
	defer l.Close()
	v, err := l.Value()
	assert.Nil(t, err)
	assert.Equal(t, sevenseg.Active, v)
	require.Nil(t, l.SetPolarity(sevenseg.ActiveLow))
	v, err = l.Value()
	assert.Nil(t, err)
	assert.Equal(t, sevenseg.Inactive, v)
}

func TestLeaseReconfigure(t *testing.T) {
	patterns := []struct {
		name    string
		options []mockup.Option
		opens   int
	}{
		{"rerequest", nil, 5},
		{"reconfigure", []mockup.Option{mockup.WithReconfigure()}, 1},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			m, po := newPinout(t, p.options...)
			mc, _ := m.Chip(0)
			l, err := po.Acquire(517)
			require.Nil(t, err)
			defer l.Close()

			require.Nil(t, l.SetEdge(sevenseg.EdgeBoth))
			cfg, err := mc.Config(5)
			assert.Nil(t, err)
			assert.Equal(t, sevenseg.EdgeBoth, cfg.Edge)
			// no change
			require.Nil(t, l.SetEdge(sevenseg.EdgeNone))
			require.Nil(t, l.SetEdge(sevenseg.EdgeBoth))

			require.Nil(t, l.SetDirection(sevenseg.Output))
			cfg, err = mc.Config(5)
			assert.Nil(t, err)
			assert.Equal(t, sevenseg.Output, cfg.Direction)
			assert.Equal(t, sevenseg.EdgeNone, cfg.Edge)
			assert.Equal(t, sevenseg.EdgeNone, l.Config().Edge)
			assert.Equal(t, sevenseg.ErrWrongDirection, l.SetEdge(sevenseg.EdgeRising))
			require.Nil(t, l.SetDirection(sevenseg.Output))

			require.Nil(t, l.SetValue(sevenseg.Active))
			lvl, _ := mc.Level(5)
			assert.Equal(t, 1, lvl)
			// logical value is retained
			require.Nil(t, l.SetPolarity(sevenseg.ActiveLow))
			lvl, _ = mc.Level(5)
			assert.Equal(t, 0, lvl)
			v, err := l.Value()
			assert.Nil(t, err)
			assert.Equal(t, sevenseg.Active, v)
			require.Nil(t, l.SetPolarity(sevenseg.ActiveLow))

			require.Nil(t, l.SetDirection(sevenseg.Input))
			cfg, err = mc.Config(5)
			assert.Nil(t, err)
			assert.Equal(t, sevenseg.Input, cfg.Direction)
			assert.True(t, mc.Requested(5))
			assert.Equal(t, p.opens, m.Opens())
		}
		t.Run(p.name, tf)
	}
}

func TestLeaseReconfigureFailure(t *testing.T) {
	patterns := []struct {
		name    string
		options []mockup.Option
		inject  func(m *mockup.Mockup)
		kind    error
		opens   int
	}{
		{"request failed", nil,
			func(m *mockup.Mockup) {
				m.SetRequestError("gpiochip0", 5, unix.EIO)
			},
			unix.EIO, 2},
		{"request busy", nil,
			func(m *mockup.Mockup) {
				m.SetRequestError("gpiochip0", 5, unix.EBUSY)
			},
			sevenseg.ErrBusy, 2},
		{"open failed", nil,
			func(m *mockup.Mockup) {
				m.SetOpenError(unix.EMFILE)
			},
			unix.EMFILE, 1},
		{"release failed", nil,
			func(m *mockup.Mockup) {
				m.SetCloseError("gpiochip0", 5, unix.EIO)
			},
			unix.EIO, 2},
		{"reconfigure failed", []mockup.Option{mockup.WithReconfigure()},
			func(m *mockup.Mockup) {
				m.SetReconfigureError("gpiochip0", 5, unix.EPERM)
			},
			sevenseg.ErrPermission, 1},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			m, po := newPinout(t, p.options...)
			mc, _ := m.Chip(0)
			l, err := po.Acquire(517, sevenseg.AsOutput(sevenseg.Active))
			require.Nil(t, err)
			defer l.Close()
			cfg := l.Config()

			p.inject(m)
			err = l.SetPolarity(sevenseg.ActiveLow)
			require.NotNil(t, err)
			assert.True(t, errors.Is(err, p.kind), err)

			// line retains its old config
			assert.Equal(t, cfg, l.Config())
			assert.True(t, mc.Requested(5))
			lvl, _ := mc.Level(5)
			assert.Equal(t, 1, lvl)
			mcfg, err := mc.Config(5)
			assert.Nil(t, err)
			assert.Equal(t, sevenseg.ActiveHigh, mcfg.Polarity)
			assert.Equal(t, p.opens, m.Opens())

			// and remains usable
			require.Nil(t, l.SetValue(sevenseg.Inactive))
			lvl, _ = mc.Level(5)
			assert.Equal(t, 0, lvl)
			m.SetOpenError(nil)
			require.Nil(t, l.SetPolarity(sevenseg.ActiveLow))
			lvl, _ = mc.Level(5)
			assert.Equal(t, 1, lvl)
		}
		t.Run(p.name, tf)
	}
}

func TestLeaseRestoreFailure(t *testing.T) {
	m, po := newPinout(t)
	mc, _ := m.Chip(0)
	l, err := po.Acquire(517, sevenseg.AsOutput(sevenseg.Active))
	require.Nil(t, err)
	m.SetRequestError("gpiochip0", 5, unix.EIO, unix.EIO)
	err = l.SetDirection(sevenseg.Input)
	assert.True(t, errors.Is(err, unix.EIO))

	// neither config could be requested
	assert.False(t, mc.Requested(5))
	assert.Equal(t, sevenseg.ErrClosed, l.SetValue(sevenseg.Active))
	_, err = l.Value()
	assert.Equal(t, sevenseg.ErrClosed, err)
	assert.Nil(t, l.Close())
}

func TestRegistryLeaseReconfigureAfterClose(t *testing.T) {
	m, err := mockup.New([]int{4}, false)
	require.Nil(t, err)
	mc, _ := m.Chip(0)
	r := sevenseg.NewRegistry(m)
	l, err := r.Acquire(1, sevenseg.AsOutput(sevenseg.Active))
	require.Nil(t, err)
	defer l.Close()
	require.Nil(t, r.Close())

	err = l.SetPolarity(sevenseg.ActiveLow)
	assert.True(t, errors.Is(err, sevenseg.ErrClosed))
	assert.True(t, mc.Requested(1))
	assert.Equal(t, sevenseg.ActiveHigh, l.Config().Polarity)
	require.Nil(t, l.SetValue(sevenseg.Inactive))
	lvl, _ := mc.Level(1)
	assert.Equal(t, 0, lvl)
	require.Nil(t, l.Close())
	assert.False(t, mc.Requested(1))
}

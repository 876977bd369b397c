// SPDX-FileCopyrightText: 2020 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux

package cdev_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-gpiosim"
	"github.com/warthog618/go-sevenseg"
	"github.com/warthog618/go-sevenseg/backend/cdev"
	"github.com/warthog618/go-sevenseg/pin"
)

func newSim(t *testing.T, lines int) *gpiosim.Simpleton {
	t.Helper()
	s, err := gpiosim.NewSimpleton(lines)
	if err != nil {
		t.Skip(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestChips(t *testing.T) {
	s := newSim(t, 4)
	cc, err := cdev.New().Chips()
	require.Nil(t, err)
	assert.Contains(t, cc, s.ChipName())
}

func TestOpenChip(t *testing.T) {
	s := newSim(t, 6)
	b := cdev.New()
	c, err := b.OpenChip(s.ChipName())
	require.Nil(t, err)
	defer c.Close()
	assert.Equal(t, s.ChipName(), c.Name())
	assert.Equal(t, s.Config().Label, c.Label())
	assert.Equal(t, 6, c.Lines())
	_, err = c.LineName(6)
	assert.True(t, errors.Is(err, sevenseg.ErrNotFound))

	_, err = b.OpenChip(s.ChipName() + "not")
	assert.True(t, errors.Is(err, sevenseg.ErrNotFound))
}

func TestRegistry(t *testing.T) {
	s := newSim(t, 8)
	r := sevenseg.NewRegistry(cdev.New())
	defer r.Close()
	require.Nil(t, r.Discover())
	pp, err := r.Pins()
	require.Nil(t, err)
	found := false
	for _, p := range pp {
		loc, err := r.Lookup(p)
		require.Nil(t, err)
		if loc.Chip == s.ChipName() && loc.Offset == 5 {
			found = true
			l, err := r.Acquire(p, sevenseg.AsOutput(sevenseg.Active))
			require.Nil(t, err)
			v, err := s.Level(5)
			assert.Nil(t, err)
			assert.Equal(t, 1, v)
			assert.Nil(t, l.Close())
		}
	}
	assert.True(t, found)
}

func TestOutput(t *testing.T) {
	s := newSim(t, 4)
	b := cdev.New()
	loc := pin.Location{Chip: s.ChipName(), Offset: 3}
	l, err := sevenseg.Acquire(b, loc, sevenseg.AsOutput(sevenseg.Inactive), sevenseg.AsActiveLow)
	require.Nil(t, err)
	defer l.Close()
	v, err := s.Level(3)
	assert.Nil(t, err)
	assert.Equal(t, 1, v)

	require.Nil(t, l.SetValue(sevenseg.Active))
	v, err = s.Level(3)
	assert.Nil(t, err)
	assert.Equal(t, 0, v)

	_, err = sevenseg.Acquire(b, loc)
	assert.True(t, errors.Is(err, sevenseg.ErrBusy))

	require.Nil(t, l.SetPolarity(sevenseg.ActiveHigh))
	v, err = s.Level(3)
	assert.Nil(t, err)
	assert.Equal(t, 1, v)

	assert.Nil(t, l.Close())
	l2, err := sevenseg.Acquire(b, loc)
	assert.Nil(t, err)
	l2.Close()
}

func TestInput(t *testing.T) {
	s := newSim(t, 4)
	b := cdev.New()
	loc := pin.Location{Chip: s.ChipName(), Offset: 0}
	require.Nil(t, s.SetPull(0, 1))
	l, err := sevenseg.Acquire(b, loc, sevenseg.WithRisingEdge)
	require.Nil(t, err)
	defer l.Close()
	v, err := l.Value()
	assert.Nil(t, err)
	assert.Equal(t, sevenseg.Active, v)

	assert.Equal(t, sevenseg.ErrWrongDirection, l.SetValue(sevenseg.Active))

	require.Nil(t, l.SetEdge(sevenseg.EdgeBoth))
	assert.Equal(t, sevenseg.EdgeBoth, l.Config().Edge)

	require.Nil(t, l.SetDirection(sevenseg.Output))
	cfg := l.Config()
	assert.Equal(t, sevenseg.Output, cfg.Direction)
	assert.Equal(t, sevenseg.EdgeNone, cfg.Edge)
}

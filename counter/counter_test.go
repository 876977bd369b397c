// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package counter_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-sevenseg"
	"github.com/warthog618/go-sevenseg/counter"
	"github.com/warthog618/go-sevenseg/display"
	"github.com/warthog618/go-sevenseg/mockup"
	"github.com/warthog618/go-sevenseg/segment"
)

func TestParseMode(t *testing.T) {
	patterns := []struct {
		name string
		mode counter.Mode
	}{
		{"up", counter.Up},
		{"down", counter.Down},
		{"updown", counter.UpDown},
		{"random", counter.Random},
	}
	for _, p := range patterns {
		m, err := counter.ParseMode(p.name)
		assert.Nil(t, err)
		assert.Equal(t, p.mode, m)
		assert.Equal(t, p.name, m.String())
	}
	_, err := counter.ParseMode("sideways")
	assert.True(t, errors.Is(err, counter.ErrInvalidMode))
	assert.Equal(t, "unknown", counter.Mode(7).String())
}

func TestClampDelay(t *testing.T) {
	patterns := []struct {
		delay    time.Duration
		expected time.Duration
		clamped  bool
	}{
		{0, 0, false},
		{250 * time.Millisecond, 250 * time.Millisecond, false},
		{counter.MaxDelay, counter.MaxDelay, false},
		{counter.MaxDelay + time.Millisecond, counter.DefaultDelay, true},
		{-time.Second, 0, false},
	}
	for _, p := range patterns {
		d, clamped := counter.ClampDelay(p.delay)
		assert.Equal(t, p.expected, d, p.delay)
		assert.Equal(t, p.clamped, clamped, p.delay)
	}
}

func TestSequence(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, counter.Sequence(counter.Up))
	assert.Equal(t, []int{10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0}, counter.Sequence(counter.Down))
	assert.Equal(t,
		[]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1},
		counter.Sequence(counter.UpDown))
	assert.Nil(t, counter.Sequence(counter.Random))
}

type recorder struct {
	digits []int
	err    error
}

func (r *recorder) SetDigit(d int) error {
	r.digits = append(r.digits, d)
	return r.err
}

func TestStep(t *testing.T) {
	r := recorder{}
	var slept []time.Duration
	c := counter.New(&r, counter.UpDown,
		counter.WithDelay(20*time.Millisecond),
		counter.WithSleeper(func(d time.Duration) { slept = append(slept, d) }))
	for i := 0; i < 22; i++ {
		require.Nil(t, c.Step())
	}
	expected := append(counter.Sequence(counter.UpDown), 0, 1)
	assert.Equal(t, expected, r.digits)
	assert.Len(t, slept, 22)
	assert.Equal(t, 20*time.Millisecond, slept[0])

	r = recorder{err: errors.New("set failed")}
	c = counter.New(&r, counter.Up, counter.WithSleeper(func(time.Duration) {}))
	assert.True(t, errors.Is(c.Step(), r.err))
}

func TestRandom(t *testing.T) {
	r := recorder{}
	c := counter.New(&r, counter.Random,
		counter.WithSource(rand.NewSource(1)),
		counter.WithSleeper(func(time.Duration) {}))
	for i := 0; i < 100; i++ {
		require.Nil(t, c.Step())
	}
	for _, d := range r.digits {
		assert.GreaterOrEqual(t, d, 0)
		assert.Less(t, d, 10)
	}
	// deterministic for a given source
	r2 := recorder{}
	c = counter.New(&r2, counter.Random,
		counter.WithSource(rand.NewSource(1)),
		counter.WithSleeper(func(time.Duration) {}))
	for i := 0; i < 100; i++ {
		require.Nil(t, c.Step())
	}
	assert.Equal(t, r.digits, r2.digits)
}

func TestWithDelayClamped(t *testing.T) {
	r := recorder{}
	var slept time.Duration
	c := counter.New(&r, counter.Down,
		counter.WithDelay(10*time.Second),
		counter.WithSleeper(func(d time.Duration) { slept = d }))
	require.Nil(t, c.Step())
	assert.Equal(t, counter.DefaultDelay, slept)
	assert.Equal(t, []int{10}, r.digits)
}

func TestRun(t *testing.T) {
	m, err := mockup.New([]int{8}, false)
	require.Nil(t, err)
	mc, err := m.Chip(0)
	require.Nil(t, err)
	reg := sevenseg.NewRegistry(m)
	defer reg.Close()
	d, err := display.New(reg, [8]int{0, 1, 2, 3, 4, 5, 6, 7})
	require.Nil(t, err)
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	steps := 0
	c := counter.New(d, counter.Down, counter.WithSleeper(func(time.Duration) {
		steps++
		if steps == 3 {
			cancel()
		}
	}))
	assert.Nil(t, c.Run(ctx))
	assert.Equal(t, 3, steps)
	// 10, 9, 8
	assert.Equal(t, segment.For(8), d.Segments())
	for _, s := range segment.Segments {
		v, err := mc.Level(int(s))
		assert.Nil(t, err)
		assert.Equal(t, segment.For(8).Has(s), v == 1, s)
	}
}

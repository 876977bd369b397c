// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package counter counts on a single digit display.
package counter

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

const (
	// MinDigit is the lowest value displayed.
	MinDigit = 0

	// MaxDigit is the highest value displayed, which is shown as the wrap
	// glyph.
	MaxDigit = 10

	// MaxDelay is the longest delay between counts.
	MaxDelay = 9999 * time.Millisecond

	// DefaultDelay is the delay used in place of one exceeding MaxDelay.
	DefaultDelay = time.Second
)

// Mode determines the sequence of values displayed.
type Mode int

const (
	// Up counts from MinDigit to MaxDigit, then repeats.
	Up Mode = iota

	// Down counts from MaxDigit to MinDigit, then repeats.
	Down

	// UpDown counts up from MinDigit to MaxDigit then back down.
	UpDown

	// Random displays random digits.
	Random
)

var modeNames = map[Mode]string{
	Up:     "up",
	Down:   "down",
	UpDown: "updown",
	Random: "random",
}

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return "unknown"
}

// ErrInvalidMode indicates a mode name is not recognised.
var ErrInvalidMode = errors.New("invalid mode")

// ParseMode returns the mode with the given name.
func ParseMode(s string) (Mode, error) {
	for m, n := range modeNames {
		if n == s {
			return m, nil
		}
	}
	return Up, errors.Wrapf(ErrInvalidMode, "%q", s)
}

// ClampDelay returns the delay to use for the requested delay, and true if
// the delay exceeded MaxDelay and was replaced by DefaultDelay.
func ClampDelay(d time.Duration) (time.Duration, bool) {
	if d > MaxDelay {
		return DefaultDelay, true
	}
	if d < 0 {
		return 0, false
	}
	return d, false
}

// Sequence returns one cycle of the values displayed by the mode.
//
// Random has no fixed sequence and returns nil.
func Sequence(m Mode) []int {
	var seq []int
	switch m {
	case Up:
		for i := MinDigit; i <= MaxDigit; i++ {
			seq = append(seq, i)
		}
	case Down:
		for i := MaxDigit; i >= MinDigit; i-- {
			seq = append(seq, i)
		}
	case UpDown:
		for i := MinDigit; i < MaxDigit; i++ {
			seq = append(seq, i)
		}
		for i := MaxDigit; i > MinDigit; i-- {
			seq = append(seq, i)
		}
	}
	return seq
}

// DigitSetter displays a single digit.
type DigitSetter interface {
	SetDigit(d int) error
}

// Counter displays a sequence of digits.
type Counter struct {
	d     DigitSetter
	mode  Mode
	seq   []int
	delay time.Duration
	sleep func(time.Duration)
	rng   *rand.Rand
	idx   int
}

// Option modifies the construction of a Counter.
type Option func(*Counter)

// WithDelay sets the delay between counts.
//
// The delay is clamped by ClampDelay.
func WithDelay(d time.Duration) Option {
	return func(c *Counter) {
		c.delay, _ = ClampDelay(d)
	}
}

// WithSleeper sets the function used to wait between counts.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Counter) {
		c.sleep = sleep
	}
}

// WithSource sets the source of random digits.
func WithSource(src rand.Source) Option {
	return func(c *Counter) {
		c.rng = rand.New(src)
	}
}

// New creates a Counter displaying on d.
func New(d DigitSetter, mode Mode, options ...Option) *Counter {
	c := Counter{
		d:     d,
		mode:  mode,
		seq:   Sequence(mode),
		delay: DefaultDelay,
		sleep: time.Sleep,
	}
	for _, option := range options {
		option(&c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &c
}

// Next returns the next value to display.
func (c *Counter) Next() int {
	if c.mode == Random || len(c.seq) == 0 {
		return c.rng.Intn(MaxDigit)
	}
	v := c.seq[c.idx]
	c.idx = (c.idx + 1) % len(c.seq)
	return v
}

// Step displays the next value and waits for the delay.
func (c *Counter) Step() error {
	v := c.Next()
	if err := c.d.SetDigit(v); err != nil {
		return errors.Wrapf(err, "display %d", v)
	}
	c.sleep(c.delay)
	return nil
}

// Run counts until the context is done.
//
// The context is checked between counts. Returns nil if the context is done,
// else the error that stopped the count.
func (c *Counter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
}

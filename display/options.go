// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package display

import (
	"time"

	"github.com/warthog618/go-sevenseg"
)

// DefaultDwell is the period each digit of a multiplexed display is enabled
// during a sweep.
const DefaultDwell = 3 * time.Millisecond

// FlickerLimit is the longest sweep that appears steady under persistence of
// vision.
const FlickerLimit = 16 * time.Millisecond

type options struct {
	segmentPolarity sevenseg.Polarity
	digitPolarity   sevenseg.Polarity
	consumer        string
	dwell           time.Duration
	sleep           func(time.Duration)
}

func defaultOptions() options {
	return options{
		consumer: "sevenseg-display",
		dwell:    DefaultDwell,
		sleep:    time.Sleep,
	}
}

// Option modifies the construction of a Display or Multiplexer.
type Option interface {
	applyOption(*options)
}

// SegmentPolarityOption sets the polarity of the segment lines.
type SegmentPolarityOption struct {
	polarity sevenseg.Polarity
}

// WithSegmentPolarity sets the polarity of the segment lines.
//
// The default is active high, as for a common cathode display.
func WithSegmentPolarity(p sevenseg.Polarity) SegmentPolarityOption {
	return SegmentPolarityOption{p}
}

func (o SegmentPolarityOption) applyOption(opts *options) {
	opts.segmentPolarity = o.polarity
}

// DigitPolarityOption sets the polarity of the digit enable lines.
type DigitPolarityOption struct {
	polarity sevenseg.Polarity
}

// WithDigitPolarity sets the polarity of the digit enable lines of a
// multiplexed display.
//
// A digit is enabled when its line is active. The default is active high.
func WithDigitPolarity(p sevenseg.Polarity) DigitPolarityOption {
	return DigitPolarityOption{p}
}

func (o DigitPolarityOption) applyOption(opts *options) {
	opts.digitPolarity = o.polarity
}

// ConsumerOption sets the consumer label of the display lines.
type ConsumerOption string

// WithConsumer sets the consumer label of the display lines.
func WithConsumer(consumer string) ConsumerOption {
	return ConsumerOption(consumer)
}

func (o ConsumerOption) applyOption(opts *options) {
	opts.consumer = string(o)
}

// DwellOption sets the period each digit is enabled.
type DwellOption time.Duration

// WithDwell sets the period each digit of a multiplexed display is enabled
// during a sweep.
func WithDwell(d time.Duration) DwellOption {
	return DwellOption(d)
}

func (o DwellOption) applyOption(opts *options) {
	opts.dwell = time.Duration(o)
}

// SleeperOption sets the function used to hold each digit.
type SleeperOption func(time.Duration)

// WithSleeper sets the function used to hold each digit enabled for the
// dwell period.
//
// The default is time.Sleep.
func WithSleeper(sleep func(time.Duration)) SleeperOption {
	return SleeperOption(sleep)
}

func (o SleeperOption) applyOption(opts *options) {
	opts.sleep = o
}

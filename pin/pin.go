// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package pin maps logical GPIO pin numbers to the chip and line offset that
// provide them.
package pin

import (
	"errors"
	"fmt"
)

// Location identifies a line within a GPIO chip.
type Location struct {
	// The name of the chip, e.g. "gpiochip0".
	Chip string

	// The offset of the line within the chip.
	Offset int

	// The label of the chip, if known.
	ChipLabel string

	// The name of the line, if known.
	LineName string
}

func (l Location) String() string {
	if l.LineName != "" {
		return fmt.Sprintf("%s:%d (%s)", l.Chip, l.Offset, l.LineName)
	}
	return fmt.Sprintf("%s:%d", l.Chip, l.Offset)
}

// Resolver maps a logical pin to its location.
type Resolver interface {
	Resolve(p int) (Location, error)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(p int) (Location, error)

// Resolve calls f(p).
func (f ResolverFunc) Resolve(p int) (Location, error) {
	return f(p)
}

// Bands resolves pins using contiguous bands of equal size, one per chip.
//
// The first chip provides pins Base to Base+Size-1, the second the following
// Size pins, and so on.
type Bands struct {
	// The logical number of the first line of the first chip.
	Base int

	// The number of pins in each band.
	Size int

	// The names of the chips, in band order.
	Chips []string
}

// Resolve returns the location of the pin, or ErrUnsupportedPin if the pin
// does not fall within any band.
func (b Bands) Resolve(p int) (Location, error) {
	if b.Size <= 0 || p < b.Base {
		return Location{}, unsupported(p)
	}
	idx := (p - b.Base) / b.Size
	if idx >= len(b.Chips) {
		return Location{}, unsupported(p)
	}
	return Location{Chip: b.Chips[idx], Offset: (p - b.Base) % b.Size}, nil
}

// Contains returns true if the pin falls within one of the bands.
func (b Bands) Contains(p int) bool {
	_, err := b.Resolve(p)
	return err == nil
}

// ErrUnsupportedPin indicates the pin cannot be mapped to a chip line.
var ErrUnsupportedPin = errors.New("unsupported pin")

// UnsupportedPinError identifies the pin that could not be resolved.
type UnsupportedPinError struct {
	Pin int
}

func (e UnsupportedPinError) Error() string {
	return fmt.Sprintf("unsupported pin: %d", e.Pin)
}

// Is allows errors.Is(err, ErrUnsupportedPin).
func (e UnsupportedPinError) Is(target error) bool {
	return target == ErrUnsupportedPin
}

func unsupported(p int) error {
	return UnsupportedPinError{Pin: p}
}

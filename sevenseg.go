// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package sevenseg provides exclusive, leased access to GPIO lines on Linux
// platforms, as used to drive LEDs and seven segment displays.
//
// Lines are identified by a logical pin number which is resolved to a chip and
// line offset, either statically by a pin.Resolver or by a Registry that
// discovers the chips available on the system.
//
// The lines themselves are provided by a Backend, with implementations for the
// GPIO character device (backend/cdev and backend/handle), the deprecated
// sysfs interface (backend/sysfs), and an in-memory mockup for testing
// (mockup).
//
// Example of use:
//
//	r := sevenseg.NewRegistry(cdev.New())
//	defer r.Close()
//	l, err := r.Acquire(546, sevenseg.AsOutput(sevenseg.Inactive))
//	if err != nil {
//		panic(err)
//	}
//	defer l.Close()
//	for {
//		<-time.After(time.Second)
//		l.SetValue(sevenseg.Active)
//		<-time.After(time.Second)
//		l.SetValue(sevenseg.Inactive)
//	}
package sevenseg

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// DefaultConsumer is the consumer label applied to requested lines unless
// overridden using WithConsumer.
const DefaultConsumer = "sevenseg"

// Direction indicates the direction of a line.
type Direction int

const (
	// Input indicates the line is an input.
	Input Direction = iota

	// Output indicates the line is an output.
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Level is the logical state of a line.
//
// Note that for active low lines an Active level corresponds to a low
// electrical level.
type Level int

const (
	// Inactive indicates the line is inactive.
	Inactive Level = iota

	// Active indicates the line is active.
	Active
)

// Low and High are the levels of an active high line.
const (
	Low  = Inactive
	High = Active
)

func (l Level) String() string {
	if l == Active {
		return "active"
	}
	return "inactive"
}

// Edge indicates the edges detected on an input line.
type Edge int

const (
	// EdgeNone indicates edge detection is disabled.
	EdgeNone Edge = iota

	// EdgeRising indicates the line has rising edge detection enabled.
	EdgeRising

	// EdgeFalling indicates the line has falling edge detection enabled.
	EdgeFalling

	// EdgeBoth indicates the line has both rising and falling edge detection
	// enabled.
	EdgeBoth = EdgeRising | EdgeFalling
)

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	default:
		return "none"
	}
}

// Polarity indicates which electrical level corresponds to the Active state.
type Polarity int

const (
	// ActiveHigh indicates the line is active when it is electrically high.
	ActiveHigh Polarity = iota

	// ActiveLow indicates the line is active when it is electrically low.
	ActiveLow
)

// LineConfig contains the configuration applied to a requested line.
type LineConfig struct {
	// The consumer label for the line.
	Consumer string

	// The line direction.
	Direction Direction

	// The line polarity.
	Polarity Polarity

	// The edges detected on an input line.
	Edge Edge

	// The initial logical value of an output line.
	Value Level
}

// ChipOpener opens GPIO chips by name.
type ChipOpener interface {
	OpenChip(name string) (Chip, error)
}

// Backend provides access to the GPIO chips of a system.
type Backend interface {
	ChipOpener

	// Chips returns the names of the available chips.
	Chips() ([]string, error)
}

// Chip is an open GPIO chip.
//
// Chips must be safe for concurrent use, as a Registry shares each chip
// between all the leases on its lines.
type Chip interface {
	// Name returns the system name of the chip.
	Name() string

	// Label returns the label of the chip.
	Label() string

	// Lines returns the number of lines provided by the chip.
	Lines() int

	// LineName returns the name of the line, which may be empty.
	LineName(offset int) (string, error)

	// RequestLine requests exclusive control of the line.
	//
	// Output lines must be set to the configured value as part of the
	// request.
	RequestLine(offset int, cfg LineConfig) (Line, error)

	// Close releases the chip.
	//
	// Lines already requested from the chip remain requested.
	Close() error
}

// Line is a requested line.
type Line interface {
	// SetValue sets the logical value of an output line.
	SetValue(v int) error

	// Value returns the logical value of the line.
	Value() (int, error)

	// Close releases the line.
	Close() error
}

// Reconfigurer is implemented by lines that can change their configuration
// without being released.
//
// Reconfigure returns ErrNotReconfigurable if the particular change cannot be
// applied in place.
type Reconfigurer interface {
	Reconfigure(cfg LineConfig) error
}

var (
	// ErrBusy indicates the line is already requested, either by this or
	// another process.
	ErrBusy = errors.New("line busy")

	// ErrClosed indicates the lease or registry has already been closed.
	ErrClosed = errors.New("already closed")

	// ErrDiscoveryFailed indicates the registry was unable to enumerate the
	// GPIO chips.
	ErrDiscoveryFailed = errors.New("discovery failed")

	// ErrInvalidValue indicates a value read from a line is not a valid
	// level.
	ErrInvalidValue = errors.New("invalid value")

	// ErrNotExported indicates a sysfs line is not exported.
	ErrNotExported = errors.New("not exported")

	// ErrNotReconfigurable indicates the line cannot be reconfigured in
	// place, and must be released and requested again.
	ErrNotReconfigurable = errors.New("not reconfigurable")

	// ErrNotFound indicates the chip or line does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPermission indicates the caller does not have the rights to access
	// the device.
	ErrPermission = errors.New("permission denied")

	// ErrPinNotFound indicates the registry has no record of the pin.
	ErrPinNotFound = errors.New("pin not found")

	// ErrWrongDirection indicates the operation is not valid for the current
	// direction of the line.
	ErrWrongDirection = errors.New("wrong direction")
)

// kindError attaches one of the sentinel errors to an underlying cause, so
// both can be tested with errors.Is.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.cause)
}

func (e *kindError) Is(target error) bool {
	return target == e.kind
}

func (e *kindError) Unwrap() error {
	return e.cause
}

// WithKind returns an error that matches both kind and cause.
func WithKind(kind, cause error) error {
	if cause == nil || errors.Is(cause, kind) {
		return cause
	}
	return &kindError{kind: kind, cause: cause}
}

// MapError maps the errors returned by the kernel to the corresponding
// sentinel error, while retaining the original error.
//
// Errors that do not map are returned unaltered.
func MapError(err error) error {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return err
	}
	switch errno {
	case unix.EBUSY:
		return WithKind(ErrBusy, err)
	case unix.EACCES, unix.EPERM:
		return WithKind(ErrPermission, err)
	case unix.ENOENT, unix.ENODEV, unix.ENXIO:
		return WithKind(ErrNotFound, err)
	}
	return err
}

func levelFromInt(v int) (Level, error) {
	switch v {
	case 0:
		return Inactive, nil
	case 1:
		return Active, nil
	}
	return Inactive, errors.Wrapf(ErrInvalidValue, "read %d", v)
}

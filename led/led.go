// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package led controls LEDs via the Linux LED class sysfs interface.
package led

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DefaultRoot is the location of the LED class sysfs interface.
const DefaultRoot = "/sys/class/leds"

// Triggers lists the triggers that may be applied to an LED.
var Triggers = []string{"heartbeat", "timer", "none", "oneshot", "default-on"}

// ErrInvalidValue indicates a brightness or trigger is not supported.
var ErrInvalidValue = errors.New("invalid value")

// LED is a single LED.
type LED struct {
	name string
	dir  string
}

// Option modifies the construction of an LED.
type Option func(*options)

type options struct {
	root string
}

// WithRoot sets the location of the LED class sysfs interface.
func WithRoot(root string) Option {
	return func(o *options) {
		o.root = root
	}
}

// New returns the named LED, e.g. beaglebone:green:usr3.
func New(name string, opts ...Option) *LED {
	o := options{root: DefaultRoot}
	for _, opt := range opts {
		opt(&o)
	}
	return &LED{name: name, dir: filepath.Join(o.root, name)}
}

// Name returns the name of the LED.
func (l *LED) Name() string {
	return l.name
}

// ParseBrightness converts a brightness, "0" or "1", to its value.
func ParseBrightness(s string) (int, error) {
	switch s {
	case "0":
		return 0, nil
	case "1":
		return 1, nil
	}
	return 0, errors.Wrapf(ErrInvalidValue, "brightness %q", s)
}

// ValidTrigger returns an error if the trigger is not one of Triggers.
func ValidTrigger(t string) error {
	for _, v := range Triggers {
		if v == t {
			return nil
		}
	}
	return errors.Wrapf(ErrInvalidValue, "trigger %q", t)
}

// SetBrightness turns the LED on (1) or off (0).
func (l *LED) SetBrightness(v int) error {
	if v != 0 && v != 1 {
		return errors.Wrapf(ErrInvalidValue, "brightness %d", v)
	}
	return l.write("brightness", strconv.Itoa(v))
}

// Brightness returns the current brightness of the LED.
func (l *LED) Brightness() (int, error) {
	s, err := l.read("brightness")
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(err, "%s brightness", l.name)
	}
	return v, nil
}

// SetTrigger sets the event that controls the LED.
func (l *LED) SetTrigger(t string) error {
	if err := ValidTrigger(t); err != nil {
		return err
	}
	return l.write("trigger", t)
}

// Trigger returns the current trigger of the LED.
//
// The kernel lists all available triggers with the current one in
// brackets.
func (l *LED) Trigger() (string, error) {
	s, err := l.read("trigger")
	if err != nil {
		return "", err
	}
	for _, f := range strings.Fields(s) {
		if strings.HasPrefix(f, "[") && strings.HasSuffix(f, "]") {
			return f[1 : len(f)-1], nil
		}
	}
	return s, nil
}

func (l *LED) write(attr, value string) error {
	path := filepath.Join(l.dir, attr)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return errors.Wrapf(err, "%s %s", l.name, attr)
	}
	_, err = f.WriteString(value)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return errors.Wrapf(err, "%s %s", l.name, attr)
}

func (l *LED) read(attr string) (string, error) {
	buf, err := os.ReadFile(filepath.Join(l.dir, attr))
	if err != nil {
		return "", errors.Wrapf(err, "%s %s", l.name, attr)
	}
	return strings.TrimSpace(string(buf)), nil
}

// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package beaglebone provides the GPIO pin numbering of the BeagleBone Black
// headers, and the wiring of the seven segment display boards.
package beaglebone

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/warthog618/go-sevenseg/pin"
)

// Logical GPIO numbers of the header pins used by the display boards.
const (
	P8p7  = 546
	P8p8  = 547
	P8p9  = 549
	P8p10 = 548
	P8p11 = 525
	P8p12 = 524
	P8p14 = 634
	P8p16 = 526
	P9p12 = 540
	P9p15 = 528
	P9p23 = 529
	P9p27 = 595
)

// Bands maps the logical GPIO numbers onto the four SoC GPIO chips.
var Bands = pin.Bands{
	Base:  512,
	Size:  32,
	Chips: []string{"gpiochip0", "gpiochip1", "gpiochip2", "gpiochip3"},
}

// Segments are the pins driving the display segments, in A, B, C, D, E, F, G,
// DP order.
var Segments = [8]int{P8p7, P8p8, P8p9, P8p11, P8p12, P8p14, P8p16, P8p10}

// Digits are the pins enabling the digits of the 4 digit display, left to
// right.
var Digits = []int{P9p12, P9p15, P9p23, P9p27}

// DefaultUserLED is the user LED not claimed by the default triggers.
const DefaultUserLED = 3

// UserLED returns the LED class name of the numbered user LED, 0-3.
func UserLED(n int) string {
	return fmt.Sprintf("beaglebone:green:usr%d", n)
}

var headerNames = map[string]int{
	"p8_7":  P8p7,
	"p8_8":  P8p8,
	"p8_9":  P8p9,
	"p8_10": P8p10,
	"p8_11": P8p11,
	"p8_12": P8p12,
	"p8_14": P8p14,
	"p8_16": P8p16,
	"p9_12": P9p12,
	"p9_15": P9p15,
	"p9_23": P9p23,
	"p9_27": P9p27,
}

// ErrInvalid indicates the pin name does not match a known pin.
var ErrInvalid = errors.New("invalid pin name")

func rangeCheck(p int) (int, error) {
	if !Bands.Contains(p) {
		return 0, ErrInvalid
	}
	return p, nil
}

// Pin maps a pin string name to a pin number.
//
// Pin names are case insensitive and may be of the form P8_X, P9_X, GPIOX, or
// X.
func Pin(s string) (int, error) {
	s = strings.ToLower(s)
	switch {
	case strings.HasPrefix(s, "p8") || strings.HasPrefix(s, "p9"):
		v, ok := headerNames[strings.Replace(s, ".", "_", 1)]
		if !ok {
			return 0, ErrInvalid
		}
		return v, nil
	case strings.HasPrefix(s, "gpio"):
		v, err := strconv.ParseInt(s[4:], 10, 16)
		if err != nil {
			return 0, err
		}
		return rangeCheck(int(v))
	default:
		v, err := strconv.ParseInt(s, 10, 16)
		if err != nil {
			return 0, err
		}
		return rangeCheck(int(v))
	}
}

// MustPin converts the string to the corresponding pin number or panics if that
// is not possible.
func MustPin(s string) int {
	v, err := Pin(s)
	if err != nil {
		panic(err)
	}
	return v
}

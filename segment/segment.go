// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package segment provides the segment patterns for digits on a seven
// segment display.
//
//	 --A--
//	|     |
//	F     B
//	|     |
//	 --G--
//	|     |
//	E     C
//	|     |
//	 --D--  DP
package segment

import "strings"

// Segment identifies one of the segments of a display.
type Segment int

// Segments of a display.
const (
	A Segment = iota
	B
	C
	D
	E
	F
	G
	DP
)

// Segments lists all segments in order.
var Segments = [8]Segment{A, B, C, D, E, F, G, DP}

var names = [8]string{"A", "B", "C", "D", "E", "F", "G", "DP"}

func (s Segment) String() string {
	if s < A || s > DP {
		return "unknown"
	}
	return names[s]
}

// Set is a set of segments.
type Set uint8

// All is the set containing every segment.
const All Set = 0xff

// Of returns the set containing the given segments.
func Of(ss ...Segment) Set {
	var set Set
	for _, s := range ss {
		set |= 1 << uint(s)
	}
	return set
}

var digits = [11]Set{
	Of(A, B, C, D, E, F),
	Of(B, C),
	Of(A, B, D, E, G),
	Of(A, B, C, D, G),
	Of(B, C, F, G),
	Of(A, C, D, F, G),
	Of(A, C, D, E, F, G),
	Of(A, B, C),
	Of(A, B, C, D, E, F, G),
	Of(A, B, C, D, F, G),
	// 10 renders as a stylised "E"
	Of(A, C, D, E, G),
}

// For returns the segments lit to display the digit.
//
// Digits 0-9 have their conventional patterns, and 10 has its own glyph.
// Any other value is displayed blank.
func For(d int) Set {
	if d < 0 || d >= len(digits) {
		return 0
	}
	return digits[d]
}

// Has returns true if the segment is in the set.
func (set Set) Has(s Segment) bool {
	return set&(1<<uint(s)) != 0
}

// With returns the set with the segment added.
func (set Set) With(s Segment) Set {
	return set | 1<<uint(s)
}

// Without returns the set with the segment removed.
func (set Set) Without(s Segment) Set {
	return set &^ (1 << uint(s))
}

// Segments returns the segments in the set, in order.
func (set Set) Segments() []Segment {
	ss := []Segment(nil)
	for _, s := range Segments {
		if set.Has(s) {
			ss = append(ss, s)
		}
	}
	return ss
}

func (set Set) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, s := range set.Segments() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

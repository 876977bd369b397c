// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package sevenseg

import (
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/warthog618/go-sevenseg/pin"
)

// Registry discovers the GPIO chips provided by a backend and assigns a
// logical pin number to each of their lines.
//
// Pins are numbered sequentially from the base, in chip order, with chips
// ordered by the numeric suffix of their name.
//
// Chips are opened once, during discovery, and shared by all leases acquired
// from the registry.
type Registry struct {
	backend  Backend
	base     int
	consumer string
	log      *logrus.Entry

	// once guards discovery, and err holds its result.
	once sync.Once
	err  error

	// mu covers all that follow.
	mu     sync.Mutex
	chips  map[string]Chip
	locs   map[int]pin.Location
	names  map[string]int
	closed bool
}

// NewRegistry creates a Registry for the chips provided by the backend.
//
// Discovery is deferred until first use, or an explicit call to Discover.
func NewRegistry(b Backend, options ...RegistryOption) *Registry {
	r := Registry{
		backend:  b,
		consumer: DefaultConsumer,
	}
	for _, option := range options {
		option.applyRegistryOption(&r)
	}
	if r.log == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		r.log = logrus.NewEntry(logger)
	}
	return &r
}

// Discover enumerates the chips and their lines.
//
// Discovery is only performed once. Subsequent and concurrent calls block
// until the first completes and return the same result.
func (r *Registry) Discover() error {
	r.once.Do(func() {
		r.err = r.discover()
	})
	return r.err
}

func (r *Registry) discover() error {
	names, err := r.backend.Chips()
	if err != nil {
		return WithKind(ErrDiscoveryFailed, errors.Wrap(err, "enumerate chips"))
	}
	if len(names) == 0 {
		return errors.Wrap(ErrDiscoveryFailed, "no chips found")
	}
	names = append([]string(nil), names...)
	sort.Slice(names, func(i, j int) bool {
		return chipLess(names[i], names[j])
	})
	chips := map[string]Chip{}
	locs := map[int]pin.Location{}
	lineNames := map[string]int{}
	n := r.base
	for _, name := range names {
		c, err := r.backend.OpenChip(name)
		if err != nil {
			closeChips(chips)
			return WithKind(ErrDiscoveryFailed, errors.Wrapf(MapError(err), "open %s", name))
		}
		chips[name] = c
		for o := 0; o < c.Lines(); o++ {
			ln, err := c.LineName(o)
			if err != nil {
				closeChips(chips)
				return WithKind(ErrDiscoveryFailed, errors.Wrapf(err, "line info %s:%d", name, o))
			}
			locs[n] = pin.Location{
				Chip:      name,
				Offset:    o,
				ChipLabel: c.Label(),
				LineName:  ln,
			}
			if _, ok := lineNames[ln]; ln != "" && !ok {
				lineNames[ln] = n
			}
			n++
		}
		r.log.WithFields(logrus.Fields{
			"chip":  name,
			"label": c.Label(),
			"lines": c.Lines(),
		}).Debug("discovered chip")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		closeChips(chips)
		return ErrClosed
	}
	r.chips = chips
	r.locs = locs
	r.names = lineNames
	return nil
}

func closeChips(chips map[string]Chip) {
	for _, c := range chips {
		c.Close()
	}
}

// chipLess orders chip names by prefix then numeric suffix, so gpiochip2
// precedes gpiochip10.
func chipLess(a, b string) bool {
	pa, na := splitChipName(a)
	pb, nb := splitChipName(b)
	if pa != pb {
		return pa < pb
	}
	if na != nb {
		return na < nb
	}
	return a < b
}

func splitChipName(name string) (string, int) {
	name = strings.TrimPrefix(name, "/dev/")
	idx := len(name)
	for idx > 0 && name[idx-1] >= '0' && name[idx-1] <= '9' {
		idx--
	}
	n, err := strconv.Atoi(name[idx:])
	if err != nil {
		return name, -1
	}
	return name[:idx], n
}

// Close releases the chips opened by the registry.
//
// Leases acquired from the registry remain valid, but cannot be reconfigured.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	closeChips(r.chips)
	r.chips = nil
	return nil
}

// Lookup returns the location of the pin.
func (r *Registry) Lookup(p int) (pin.Location, error) {
	if err := r.Discover(); err != nil {
		return pin.Location{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return pin.Location{}, ErrClosed
	}
	loc, ok := r.locs[p]
	if !ok {
		return pin.Location{}, errors.Wrapf(ErrPinNotFound, "pin %d", p)
	}
	return loc, nil
}

// Resolve returns the location of the pin.
//
// This allows the Registry to be used as a pin.Resolver.
func (r *Registry) Resolve(p int) (pin.Location, error) {
	return r.Lookup(p)
}

// ControllerFor returns the open chip providing the pin.
//
// The chip is shared and must not be closed by the caller.
func (r *Registry) ControllerFor(p int) (Chip, error) {
	loc, err := r.Lookup(p)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	return r.chips[loc.Chip], nil
}

// FindLine returns the pin of the first line with the given name.
func (r *Registry) FindLine(name string) (int, error) {
	if err := r.Discover(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrClosed
	}
	p, ok := r.names[name]
	if !ok {
		return 0, errors.Wrapf(ErrPinNotFound, "line %q", name)
	}
	return p, nil
}

// Pins returns the discovered pins in ascending order.
func (r *Registry) Pins() ([]int, error) {
	if err := r.Discover(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	pp := make([]int, 0, len(r.locs))
	for p := range r.locs {
		pp = append(pp, p)
	}
	sort.Ints(pp)
	return pp, nil
}

// Acquire requests exclusive control of the line providing the pin, using the
// shared chip.
func (r *Registry) Acquire(p int, options ...LeaseOption) (*Lease, error) {
	loc, err := r.Lookup(p)
	if err != nil {
		return nil, err
	}
	getChip := func() (Chip, func(), error) {
		c, err := r.ControllerFor(p)
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	}
	return acquire(getChip, loc, r.consumer, options)
}

// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package sevenseg

import "github.com/sirupsen/logrus"

// LeaseOption defines the interface required to provide an option for a Lease.
type LeaseOption interface {
	applyLeaseOption(*LineConfig)
}

// RegistryOption defines the interface required to provide an option for a
// Registry.
type RegistryOption interface {
	applyRegistryOption(*Registry)
}

// ConsumerOption defines the consumer label for a line.
type ConsumerOption string

// WithConsumer provides the consumer label for the line.
//
// When applied to a Registry it provides the default consumer label for all
// lines leased from the registry.
func WithConsumer(consumer string) ConsumerOption {
	return ConsumerOption(consumer)
}

func (o ConsumerOption) applyLeaseOption(c *LineConfig) {
	c.Consumer = string(o)
}

func (o ConsumerOption) applyRegistryOption(r *Registry) {
	r.consumer = string(o)
}

// InputOption indicates the line direction should be set to an input.
type InputOption struct{}

// AsInput indicates that a line be requested as an input.
//
// This option overrides and clears any previous Output option.
var AsInput = InputOption{}

func (o InputOption) applyLeaseOption(c *LineConfig) {
	c.Direction = Input
	c.Value = Inactive
}

// OutputOption indicates the line direction should be set to an output.
type OutputOption struct {
	value Level
}

// AsOutput indicates that a line be requested as an output, and initially set
// to the provided value.
//
// This option overrides and clears any previous Input or Edge options.
func AsOutput(v Level) OutputOption {
	return OutputOption{v}
}

func (o OutputOption) applyLeaseOption(c *LineConfig) {
	c.Direction = Output
	c.Edge = EdgeNone
	c.Value = o.value
}

// PolarityOption indicates which electrical level the line considers active.
type PolarityOption struct {
	polarity Polarity
}

// AsActiveLow indicates that a line be considered active when the line level
// is low.
var AsActiveLow = PolarityOption{ActiveLow}

// AsActiveHigh indicates that a line be considered active when the line level
// is high.
//
// This is the default polarity.
var AsActiveHigh = PolarityOption{ActiveHigh}

func (o PolarityOption) applyLeaseOption(c *LineConfig) {
	c.Polarity = o.polarity
}

// EdgeOption indicates the edges to be detected by an input line.
type EdgeOption struct {
	edge Edge
}

// WithEdge indicates that the line detect the given edges.
//
// This option sets the Input option and overrides and clears any previous
// Output option.
func WithEdge(e Edge) EdgeOption {
	return EdgeOption{e}
}

var (
	// WithRisingEdge indicates that a line detect inactive to active
	// transitions.
	WithRisingEdge = EdgeOption{EdgeRising}

	// WithFallingEdge indicates that a line detect active to inactive
	// transitions.
	WithFallingEdge = EdgeOption{EdgeFalling}

	// WithBothEdges indicates that a line detect all transitions.
	WithBothEdges = EdgeOption{EdgeBoth}
)

func (o EdgeOption) applyLeaseOption(c *LineConfig) {
	c.Direction = Input
	c.Value = Inactive
	c.Edge = o.edge
}

// BaseOption sets the number assigned to the first line discovered by a
// Registry.
type BaseOption int

// WithBase sets the number assigned to the first line discovered by a
// Registry.
//
// Subsequent lines are numbered sequentially from the base.
func WithBase(base int) BaseOption {
	return BaseOption(base)
}

func (o BaseOption) applyRegistryOption(r *Registry) {
	r.base = int(o)
}

// LoggerOption provides the logger for a Registry.
type LoggerOption struct {
	log *logrus.Entry
}

// WithLogger provides the logger used to report discovery.
func WithLogger(log *logrus.Entry) LoggerOption {
	return LoggerOption{log}
}

func (o LoggerOption) applyRegistryOption(r *Registry) {
	r.log = o.log
}

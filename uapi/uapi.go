// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux

// Package uapi provides the subset of the Linux GPIO uAPI v1 required to
// request and drive individual lines.
//
// Only single line handle and event requests are supported. Event data is
// not read, as edge detection is only configured, never consumed.
package uapi

import (
	"bytes"
	"unsafe"

	"golang.org/x/sys/unix"
)

func doIoctl(fd uintptr, cmd ioctl, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(cmd), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// GetChipInfo returns the ChipInfo for the GPIO character device.
//
// The fd is an open GPIO character device.
func GetChipInfo(fd uintptr) (ChipInfo, error) {
	var ci ChipInfo
	err := doIoctl(fd, getChipInfoIoctl, unsafe.Pointer(&ci))
	return ci, err
}

// GetLineInfo returns the LineInfo for one line from the GPIO character device.
//
// The fd is an open GPIO character device.
// The offset is zero based.
func GetLineInfo(fd uintptr, offset int) (LineInfo, error) {
	li := LineInfo{Offset: uint32(offset)}
	if err := doIoctl(fd, getLineInfoIoctl, unsafe.Pointer(&li)); err != nil {
		return LineInfo{}, err
	}
	return li, nil
}

// GetLineHandle requests a line from the GPIO character device.
//
// The fd is an open GPIO character device.
// If successful, the fd for the line is returned in the request.Fd.
func GetLineHandle(fd uintptr, request *HandleRequest) error {
	return doIoctl(fd, getLineHandleIoctl, unsafe.Pointer(request))
}

// GetLineEvent requests an input line from the GPIO character device with
// edge detection enabled.
//
// The fd is an open GPIO character device.
// If successful, the fd for the line is returned in the request.Fd.
func GetLineEvent(fd uintptr, request *EventRequest) error {
	return doIoctl(fd, getLineEventIoctl, unsafe.Pointer(request))
}

// GetLineValues returns the values of a set of requested lines.
//
// The fd is a requested line, as returned by GetLineHandle or GetLineEvent.
func GetLineValues(fd uintptr, values *HandleData) error {
	return doIoctl(fd, getLineValuesIoctl, unsafe.Pointer(&values[0]))
}

// SetLineValues sets the values of a set of requested lines.
//
// The fd is a requested line, as returned by GetLineHandle.
func SetLineValues(fd uintptr, values HandleData) error {
	return doIoctl(fd, setLineValuesIoctl, unsafe.Pointer(&values[0]))
}

// SetLineConfig sets the config of an existing handle request.
func SetLineConfig(fd uintptr, config *HandleConfig) error {
	return doIoctl(fd, setLineConfigIoctl, unsafe.Pointer(config))
}

// NewHandleRequest returns a request for a single line.
func NewHandleRequest(offset int, flags HandleFlag, value int, consumer string) HandleRequest {
	hr := HandleRequest{Flags: flags, Lines: 1}
	hr.Offsets[0] = uint32(offset)
	hr.DefaultValues[0] = uint8(value)
	copy(hr.Consumer[:nameSize-1], consumer)
	return hr
}

// NewEventRequest returns an edge detection request for a single line.
func NewEventRequest(offset int, flags HandleFlag, edges EventFlag, consumer string) EventRequest {
	er := EventRequest{
		Offset:      uint32(offset),
		HandleFlags: flags,
		EventFlags:  edges,
	}
	copy(er.Consumer[:nameSize-1], consumer)
	return er
}

// BytesToString is a helper function that converts strings stored in byte
// arrays, as returned by GetChipInfo and GetLineInfo, into strings.
func BytesToString(a []byte) string {
	n := bytes.IndexByte(a, 0)
	if n == -1 {
		return string(a)
	}
	return string(a[:n])
}

// IOCTL command codes
type ioctl uintptr

var (
	getChipInfoIoctl   ioctl
	getLineInfoIoctl   ioctl
	getLineHandleIoctl ioctl
	getLineEventIoctl  ioctl
	getLineValuesIoctl ioctl
	setLineValuesIoctl ioctl
	setLineConfigIoctl ioctl
)

// Size of name and consumer strings.
const nameSize = 32

func init() {
	// ioctls require struct sizes which are only available at runtime.
	var ci ChipInfo
	getChipInfoIoctl = ior(0xB4, 0x01, unsafe.Sizeof(ci))
	var li LineInfo
	getLineInfoIoctl = iorw(0xB4, 0x02, unsafe.Sizeof(li))
	var hr HandleRequest
	getLineHandleIoctl = iorw(0xB4, 0x03, unsafe.Sizeof(hr))
	var le EventRequest
	getLineEventIoctl = iorw(0xB4, 0x04, unsafe.Sizeof(le))
	var hd HandleData
	getLineValuesIoctl = iorw(0xB4, 0x08, unsafe.Sizeof(hd))
	setLineValuesIoctl = iorw(0xB4, 0x09, unsafe.Sizeof(hd))
	var hc HandleConfig
	setLineConfigIoctl = iorw(0xB4, 0x0a, unsafe.Sizeof(hc))
}

// ChipInfo contains the details of a GPIO chip.
type ChipInfo struct {
	// The system name of the device.
	Name [nameSize]byte

	// An identifying label added by the device driver.
	Label [nameSize]byte

	// The number of lines supported by this chip.
	Lines uint32
}

// LineInfo contains the details of a single line of a GPIO chip.
type LineInfo struct {
	// The offset of the line within the chip.
	Offset uint32

	// The line flags applied to this line.
	Flags LineFlag

	// The system name for this line.
	Name [nameSize]byte

	// If requested, a string added by the requester to identify the
	// owner of the request.
	Consumer [nameSize]byte
}

// LineFlag are the flags for a line.
type LineFlag uint32

const (
	// LineFlagRequested indicates that the line has been requested.
	// It may have been requested by this process or another process.
	LineFlagRequested LineFlag = 1 << iota

	// LineFlagIsOut indicates that the line is an output.
	LineFlagIsOut

	// LineFlagActiveLow indicates that the line is active low.
	LineFlagActiveLow
)

// IsRequested returns true if the line is requested.
func (f LineFlag) IsRequested() bool {
	return f&LineFlagRequested != 0
}

// IsOut returns true if the line is an output.
func (f LineFlag) IsOut() bool {
	return f&LineFlagIsOut != 0
}

// IsActiveLow returns true if the line is active low.
func (f LineFlag) IsActiveLow() bool {
	return f&LineFlagActiveLow != 0
}

// HandleConfig is a request to change the config of an existing request.
//
// Event requests cannot be reconfigured.
type HandleConfig struct {
	// The flags to be applied to the lines.
	Flags HandleFlag

	// The default values to be applied to output lines.
	DefaultValues [HandlesMax]uint8

	// reserved for future use.
	_ [4]uint32
}

// HandleRequest is a request for control of a set of lines.
// The lines must all be on the same GPIO chip.
type HandleRequest struct {
	// The lines to be requested.
	Offsets [HandlesMax]uint32

	// The flags to be applied to the lines.
	Flags HandleFlag

	// The default values to be applied to output lines.
	DefaultValues [HandlesMax]uint8

	// The string identifying the requester to be applied to the lines.
	Consumer [nameSize]byte

	// The number of lines being requested.
	Lines uint32

	// The file handle for the requested lines.
	// Set if the request is successful.
	Fd int32
}

// HandleFlag contains the flags applied to requested lines.
type HandleFlag uint32

const (
	// HandleRequestInput requests the line as an input.
	HandleRequestInput HandleFlag = 1 << iota

	// HandleRequestOutput requests the line as an output.
	HandleRequestOutput

	// HandleRequestActiveLow requests the line be made active low.
	HandleRequestActiveLow

	// HandlesMax is the maximum number of lines that can be requested in a
	// single request.
	HandlesMax = 64
)

// IsInput returns true if the line is requested as an input.
func (f HandleFlag) IsInput() bool {
	return f&HandleRequestInput != 0
}

// IsOutput returns true if the line is requested as an output.
func (f HandleFlag) IsOutput() bool {
	return f&HandleRequestOutput != 0
}

// HandleData contains the logical value for each line.
// Zero is a logical low and any other value is a logical high.
type HandleData [HandlesMax]uint8

// EventRequest is a request for control of a line with event reporting enabled.
type EventRequest struct {
	// The line to be requested.
	Offset uint32

	// The line flags applied to this line.
	HandleFlags HandleFlag

	// The type of events to report.
	EventFlags EventFlag

	// The string identifying the requester to be applied to the line.
	Consumer [nameSize]byte

	// The file handle for the requested line.
	// Set if the request is successful.
	Fd int32
}

// EventFlag indicates the types of events that will be reported.
type EventFlag uint32

const (
	// EventRequestRisingEdge requests rising edge events.
	EventRequestRisingEdge EventFlag = 1 << iota

	// EventRequestFallingEdge requests falling edge events.
	EventRequestFallingEdge

	// EventRequestBothEdges requests both rising and falling edge events.
	EventRequestBothEdges = EventRequestRisingEdge | EventRequestFallingEdge
)

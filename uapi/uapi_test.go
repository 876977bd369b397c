// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux && (arm || arm64 || 386 || amd64)

package uapi

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestIoctls(t *testing.T) {
	patterns := []struct {
		name     string
		cmd      ioctl
		expected ioctl
	}{
		{"chipinfo", getChipInfoIoctl, 0x8044b401},
		{"lineinfo", getLineInfoIoctl, 0xc048b402},
		{"linehandle", getLineHandleIoctl, 0xc16cb403},
		{"lineevent", getLineEventIoctl, 0xc030b404},
		{"getvalues", getLineValuesIoctl, 0xc040b408},
		{"setvalues", setLineValuesIoctl, 0xc040b409},
		{"setconfig", setLineConfigIoctl, 0xc054b40a},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			assert.Equal(t, p.expected, p.cmd)
		}
		t.Run(p.name, tf)
	}
}

func TestSizes(t *testing.T) {
	assert.Equal(t, uintptr(68), unsafe.Sizeof(ChipInfo{}))
	assert.Equal(t, uintptr(72), unsafe.Sizeof(LineInfo{}))
	assert.Equal(t, uintptr(364), unsafe.Sizeof(HandleRequest{}))
	assert.Equal(t, uintptr(48), unsafe.Sizeof(EventRequest{}))
	assert.Equal(t, uintptr(84), unsafe.Sizeof(HandleConfig{}))
}

func TestBytesToString(t *testing.T) {
	name := "a test string"
	var a [nameSize]byte
	copy(a[:], name)
	assert.Equal(t, name, BytesToString(a[:]))
	// no null termination
	for i := range a {
		a[i] = 'x'
	}
	assert.Equal(t, string(a[:]), BytesToString(a[:]))
	assert.Equal(t, "", BytesToString(nil))
}

func TestNewHandleRequest(t *testing.T) {
	hr := NewHandleRequest(5, HandleRequestOutput|HandleRequestActiveLow, 1, "consumer")
	assert.Equal(t, uint32(1), hr.Lines)
	assert.Equal(t, uint32(5), hr.Offsets[0])
	assert.Equal(t, uint8(1), hr.DefaultValues[0])
	assert.True(t, hr.Flags.IsOutput())
	assert.NotZero(t, hr.Flags&HandleRequestActiveLow)
	assert.False(t, hr.Flags.IsInput())
	assert.Equal(t, "consumer", BytesToString(hr.Consumer[:]))

	// long consumers are truncated and remain null terminated
	long := "a consumer label that exceeds the kernel limit"
	hr = NewHandleRequest(0, HandleRequestInput, 0, long)
	assert.Equal(t, long[:nameSize-1], BytesToString(hr.Consumer[:]))
}

func TestNewEventRequest(t *testing.T) {
	er := NewEventRequest(3, HandleRequestInput, EventRequestBothEdges, "ev")
	assert.Equal(t, uint32(3), er.Offset)
	assert.True(t, er.HandleFlags.IsInput())
	assert.Equal(t, EventRequestRisingEdge|EventRequestFallingEdge, er.EventFlags)
	assert.Equal(t, "ev", BytesToString(er.Consumer[:]))
}

func TestLineFlags(t *testing.T) {
	f := LineFlagRequested | LineFlagActiveLow
	assert.True(t, f.IsRequested())
	assert.False(t, f.IsOut())
	assert.True(t, f.IsActiveLow())
}

// Package profiling records timing spans into debug buffers or a debug
// stream.
package profiling

import (
	"encoding/binary"
	"time"
)

// EventSize is the packed size of an Event in a stream record.
const EventSize = 14

// Event is one profiled span measured in cycles.
// ThreadID and NameID are assigned by the caller.
type Event struct {
	StartStamp uint32
	Duration   uint32
	ThreadID   uint32
	NameID     uint16
}

// PutBytes packs e little-endian into b.
func (e *Event) PutBytes(b []byte) {
	binary.LittleEndian.PutUint32(b, e.StartStamp)
	binary.LittleEndian.PutUint32(b[4:], e.Duration)
	binary.LittleEndian.PutUint32(b[8:], e.ThreadID)
	binary.LittleEndian.PutUint16(b[12:], e.NameID)
}

// CycleCounter is a free-running 32-bit cycle counter.
type CycleCounter interface {
	Cycles() uint32
}

// CyclesFunc is func form of CycleCounter.
type CyclesFunc func() uint32

// Cycles implements CycleCounter.
func (f CyclesFunc) Cycles() uint32 {
	return f()
}

// ClockCounter derives cycles from the monotonic clock at a nominal
// core frequency.
type ClockCounter struct {
	Frequency uint64

	start time.Time
}

// NewClockCounter creates a ClockCounter starting at 0 now.
func NewClockCounter(frequency uint64) *ClockCounter {
	return &ClockCounter{Frequency: frequency, start: time.Now()}
}

// Cycles implements CycleCounter. It wraps like the hardware counter.
func (c *ClockCounter) Cycles() uint32 {
	elapsed := time.Since(c.start)
	secs, nanos := uint64(elapsed/time.Second), uint64(elapsed%time.Second)
	return uint32(secs*c.Frequency + nanos*c.Frequency/uint64(time.Second))
}

func begin(counter CycleCounter, ev *Event) {
	ev.StartStamp = counter.Cycles()
}

func end(counter CycleCounter, ev *Event) {
	ev.Duration = counter.Cycles() - ev.StartStamp
}

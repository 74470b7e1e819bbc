// Package buffer provides fixed-capacity sample buffers and the registry
// the protocol reads them from.
package buffer

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/robotalks/dbglink/pkg/dbg/wire"
)

// Scalar is the set of element types a Buffer can hold.
type Scalar interface {
	float32 | int32 | uint32 | int16 | uint16 | uint8
}

// Buffer is a fixed-capacity append buffer. Appends stop at capacity
// until Reset; there is no wraparound.
type Buffer[T Scalar] struct {
	values []T
	next   int
	delay  int
	lock   sync.Mutex
}

// New creates a Buffer holding capacity values.
func New[T Scalar](capacity int) *Buffer[T] {
	return &Buffer[T]{values: make([]T, capacity)}
}

// Append records v. While a delay is pending the value is discarded and
// the delay decremented.
func (b *Buffer[T]) Append(v T) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.delay > 0 {
		b.delay--
		return
	}
	if b.next == len(b.values) {
		return
	}
	b.values[b.next] = v
	b.next++
}

// Reset rewinds the write index. Stored values and delay are kept.
func (b *Buffer[T]) Reset() {
	b.lock.Lock()
	b.next = 0
	b.lock.Unlock()
}

// SetDelay discards the next n appends.
func (b *Buffer[T]) SetDelay(n int) {
	b.lock.Lock()
	b.delay = n
	b.lock.Unlock()
}

// Delay returns the number of appends still to be discarded.
func (b *Buffer[T]) Delay() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.delay
}

// Len returns the next write index.
func (b *Buffer[T]) Len() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.next
}

// Cap returns the capacity.
func (b *Buffer[T]) Cap() int {
	if b == nil {
		return 0
	}
	return len(b.values)
}

// Values returns a copy of the recorded values.
func (b *Buffer[T]) Values() []T {
	b.lock.Lock()
	defer b.lock.Unlock()
	values := make([]T, b.next)
	copy(values, b.values)
	return values
}

// Type implements Source.
func (b *Buffer[T]) Type() wire.DataType {
	return TypeOf[T]()
}

// Bytes implements Source. The whole capacity is encoded, stale slots
// included.
func (b *Buffer[T]) Bytes() []byte {
	width := b.Type().Width()
	b.lock.Lock()
	defer b.lock.Unlock()
	out := make([]byte, len(b.values)*width)
	for n, v := range b.values {
		putScalar(out[n*width:], v)
	}
	return out
}

// TypeOf returns the wire type tag of T.
func TypeOf[T Scalar]() wire.DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return wire.F32
	case int32:
		return wire.I32
	case uint32:
		return wire.U32
	case int16:
		return wire.I16
	case uint16:
		return wire.U16
	case uint8:
		return wire.U8
	}
	return wire.NoType
}

func putScalar[T Scalar](b []byte, v T) {
	switch x := any(v).(type) {
	case float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(x))
	case int32:
		binary.LittleEndian.PutUint32(b, uint32(x))
	case uint32:
		binary.LittleEndian.PutUint32(b, x)
	case int16:
		binary.LittleEndian.PutUint16(b, uint16(x))
	case uint16:
		binary.LittleEndian.PutUint16(b, x)
	case uint8:
		b[0] = x
	}
}

package profiling

import (
	"github.com/robotalks/dbglink/pkg/dbg/buffer"
)

// BufferTracer stores events column-wise in four debug buffers.
type BufferTracer struct {
	Counter CycleCounter

	StartStamp *buffer.Buffer[uint32]
	Duration   *buffer.Buffer[uint32]
	ThreadID   *buffer.Buffer[uint32]
	NameID     *buffer.Buffer[uint16]
}

// NewBufferTracer creates a BufferTracer with buffers of capacity events.
func NewBufferTracer(counter CycleCounter, capacity int) *BufferTracer {
	return &BufferTracer{
		Counter:    counter,
		StartStamp: buffer.New[uint32](capacity),
		Duration:   buffer.New[uint32](capacity),
		ThreadID:   buffer.New[uint32](capacity),
		NameID:     buffer.New[uint16](capacity),
	}
}

// Register registers the buffers in column order.
func (t *BufferTracer) Register(r *buffer.Registry) {
	r.Register(t.StartStamp)
	r.Register(t.Duration)
	r.Register(t.ThreadID)
	r.Register(t.NameID)
}

// Begin stamps the start of ev.
func (t *BufferTracer) Begin(ev *Event) {
	begin(t.Counter, ev)
}

// End measures ev and saves it.
func (t *BufferTracer) End(ev *Event) {
	end(t.Counter, ev)
	t.Save(ev)
}

// Save appends ev to the buffers.
func (t *BufferTracer) Save(ev *Event) {
	t.StartStamp.Append(ev.StartStamp)
	t.Duration.Append(ev.Duration)
	t.ThreadID.Append(ev.ThreadID)
	t.NameID.Append(ev.NameID)
}

// Reset rewinds all buffers.
func (t *BufferTracer) Reset() {
	t.StartStamp.Reset()
	t.Duration.Reset()
	t.ThreadID.Reset()
	t.NameID.Reset()
}

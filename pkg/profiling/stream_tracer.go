package profiling

import (
	"sync"

	"github.com/robotalks/dbglink/pkg/dbg/stream"
	"github.com/robotalks/dbglink/pkg/dbg/wire"
)

// Stream defaults.
const (
	DefaultStreamEntries   = 8
	DefaultStreamID        = 255
	DefaultStreamTimeoutMs = 20000
)

// StreamTracer collects events into double-buffered stream records.
// When a record is full the buffers swap and the stream is notified, so
// the record being sent is not written until the next swap.
type StreamTracer struct {
	Counter CycleCounter
	Stream  *stream.Stream

	registry *stream.Registry
	records  [2][]byte
	current  int
	index    int
	lock     sync.Mutex
}

// NewStreamTracer creates a StreamTracer with entries events per record.
func NewStreamTracer(counter CycleCounter, entries int) *StreamTracer {
	size := entries * EventSize
	t := &StreamTracer{
		Counter: counter,
		Stream: &stream.Stream{
			ID:                DefaultStreamID,
			FieldTypes:        []wire.DataType{wire.U32, wire.U32, wire.U32, wire.U16},
			EntriesPerMessage: uint16(entries),
			TimeoutMs:         DefaultStreamTimeoutMs,
			MessageSize:       uint16(size),
		},
		records: [2][]byte{make([]byte, size), make([]byte, size)},
	}
	t.Stream.SetMessage(t.records[0])
	return t
}

// Register registers the stream.
func (t *StreamTracer) Register(r *stream.Registry) error {
	if err := r.Register(t.Stream); err != nil {
		return err
	}
	t.lock.Lock()
	t.registry = r
	t.lock.Unlock()
	return nil
}

// Begin stamps the start of ev.
func (t *StreamTracer) Begin(ev *Event) {
	begin(t.Counter, ev)
}

// End measures ev and saves it.
func (t *StreamTracer) End(ev *Event) {
	end(t.Counter, ev)
	t.Save(ev)
}

// Save writes ev into the current record.
func (t *StreamTracer) Save(ev *Event) {
	t.lock.Lock()
	record := t.records[t.current]
	ev.PutBytes(record[t.index*EventSize:])
	if t.index++; t.index < int(t.Stream.EntriesPerMessage) {
		t.lock.Unlock()
		return
	}
	t.index = 0
	t.Stream.SetMessage(record)
	t.current ^= 1
	registry := t.registry
	t.lock.Unlock()
	if registry != nil {
		registry.NotifyUpdate()
	}
}

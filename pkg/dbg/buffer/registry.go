package buffer

import (
	"sync"

	"github.com/robotalks/dbglink/pkg/dbg/wire"
)

// Source is a registered buffer: a type tag plus its encoded memory.
type Source interface {
	Type() wire.DataType
	Cap() int
	Bytes() []byte
}

// Registry maps registration index to buffers in insertion order.
type Registry struct {
	capacity int
	sources  []Source
	reads    uint8
	lock     sync.RWMutex
}

// NewRegistry creates a Registry of at most maxBuffers buffers, each
// holding capacity values.
func NewRegistry(maxBuffers, capacity int) *Registry {
	return &Registry{
		capacity: capacity,
		sources:  make([]Source, 0, maxBuffers),
	}
}

// Register appends src. It's a no-op when the registry is full, src is
// nil, the type is unknown or the capacity doesn't match.
func (r *Registry) Register(src Source) {
	if src == nil || !src.Type().IsValid() || src.Cap() != r.capacity {
		return
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if len(r.sources) == cap(r.sources) {
		return
	}
	r.sources = append(r.sources, src)
}

// UnregisterAll drops all registrations. Buffer contents are untouched.
func (r *Registry) UnregisterAll() {
	r.lock.Lock()
	for n := range r.sources {
		r.sources[n] = nil
	}
	r.sources = r.sources[:0]
	r.lock.Unlock()
}

// Count returns the number of registered buffers.
func (r *Registry) Count() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.sources)
}

// Max returns the maximum number of buffers.
func (r *Registry) Max() int {
	return cap(r.sources)
}

// Capacity returns the number of values per buffer.
func (r *Registry) Capacity() int {
	return r.capacity
}

// Get returns the buffer at index.
func (r *Registry) Get(index int) (Source, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if index < 0 || index >= len(r.sources) {
		return nil, false
	}
	return r.sources[index], true
}

// CountRead increments the read request counter.
func (r *Registry) CountRead() {
	r.lock.Lock()
	r.reads++
	r.lock.Unlock()
}

// ReadRequests returns the read request counter. It wraps at 256.
func (r *Registry) ReadRequests() uint8 {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.reads
}

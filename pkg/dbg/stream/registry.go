package stream

import (
	"sync"

	"github.com/robotalks/dbglink/pkg/dbg/errlog"
)

// Registry holds at most one registered Stream.
type Registry struct {
	// MaxFields limits the number of fields per entry, 0 for no limit.
	MaxFields int

	reporter errlog.Reporter
	active   *Stream
	onUpdate func()
	lock     sync.RWMutex
}

// NewRegistry creates an empty Registry. Registration failures are
// recorded to reporter, which may be nil.
func NewRegistry(maxFields int, reporter errlog.Reporter) *Registry {
	return &Registry{MaxFields: maxFields, reporter: reporter}
}

// Register makes s the active stream. Failures are recorded and
// returned.
func (r *Registry) Register(s *Stream) error {
	return errlog.RecordErr(r.reporter, r.register(s))
}

func (r *Registry) register(s *Stream) error {
	switch {
	case s == nil:
		return ErrNilStream
	case s.ID == 0:
		return ErrReservedID
	case r.MaxFields > 0 && len(s.FieldTypes) > r.MaxFields:
		return ErrTooManyFields
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.active != nil {
		return ErrAlreadyRegistered
	}
	s.setReporter(r.reporter)
	r.active = s
	return nil
}

// Unregister deactivates and detaches the registered stream, if any.
func (r *Registry) Unregister() {
	r.lock.Lock()
	s := r.active
	r.active = nil
	r.lock.Unlock()
	if s != nil {
		s.SetActive(false)
	}
}

// Active returns the registered stream or nil.
func (r *Registry) Active() *Stream {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.active
}

// OnUpdate installs the hook invoked by NotifyUpdate.
func (r *Registry) OnUpdate(fn func()) {
	r.lock.Lock()
	r.onUpdate = fn
	r.lock.Unlock()
}

// NotifyUpdate is called by the owning subsystem when a fresh record is
// ready. Without a hook it does nothing.
func (r *Registry) NotifyUpdate() {
	r.lock.RLock()
	fn := r.onUpdate
	r.lock.RUnlock()
	if fn != nil {
		fn()
	}
}

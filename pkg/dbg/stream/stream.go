// Package stream holds the single registered composite record stream.
package stream

import (
	"sync"

	"github.com/robotalks/dbglink/pkg/dbg/errlog"
	"github.com/robotalks/dbglink/pkg/dbg/wire"
)

// Error codes.
const (
	ErrNilStream         errlog.Code = 5686
	ErrAlreadyRegistered errlog.Code = 5687
	ErrTooManyFields     errlog.Code = 5689
	ErrReservedID        errlog.Code = 5690
	ErrShortRecord       errlog.Code = 5691
)

// Stream describes one periodic composite record. It is owned by the
// registering subsystem; the registry never copies it.
//
// A record holds EntriesPerMessage entries, each made of the fields in
// FieldTypes, packed into MessageSize bytes.
type Stream struct {
	ID                byte // 0 is reserved for "no stream"
	FieldTypes        []wire.DataType
	EntriesPerMessage uint16
	TimeoutMs         uint32 // advisory, for the host to detect a stale stream
	MessageSize       uint16

	lock     sync.RWMutex
	active   bool
	message  []byte
	reporter errlog.Reporter
}

// Properties returns the wire description of s.
func (s *Stream) Properties() wire.StreamProperties {
	return wire.StreamProperties{
		ID:                s.ID,
		FieldCount:        byte(len(s.FieldTypes)),
		EntriesPerMessage: s.EntriesPerMessage,
		TimeoutMs:         s.TimeoutMs,
		MessageSize:       s.MessageSize,
	}
}

// SetActive marks whether the host is subscribed.
func (s *Stream) SetActive(active bool) {
	s.lock.Lock()
	s.active = active
	s.lock.Unlock()
}

// IsActive indicates the host is subscribed.
func (s *Stream) IsActive() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.active
}

// SetMessage points the stream at the current record. The slice is
// referenced, not copied, until the next SetMessage. A record shorter
// than MessageSize is rejected with ErrShortRecord and the previous
// record is kept.
func (s *Stream) SetMessage(msg []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(msg) < int(s.MessageSize) {
		return errlog.RecordErr(s.reporter, ErrShortRecord)
	}
	s.message = msg
	return nil
}

// Message returns the first MessageSize bytes of the current record,
// or nil before any record is set.
func (s *Stream) Message() []byte {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.message == nil {
		return nil
	}
	return s.message[:s.MessageSize]
}

func (s *Stream) setReporter(r errlog.Reporter) {
	s.lock.Lock()
	s.reporter = r
	s.lock.Unlock()
}

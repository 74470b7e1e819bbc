// Package errlog keeps the bounded log of reported error codes.
package errlog

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// Code is a numeric error code. Zero means no error.
type Code uint16

// NoError is the sentinel that is never recorded.
const NoError Code = 0

// Error implements error.
func (c Code) Error() string {
	return fmt.Sprintf("debug error %d", uint16(c))
}

// Reporter records error codes.
type Reporter interface {
	Record(Code) Code
}

// Log is a fixed-depth, append-only log of error codes.
// Once full, codes are only counted.
type Log struct {
	version byte
	codes   []Code
	next    int
	total   uint32
	lock    sync.Mutex
}

// New creates a Log with the given depth and format version.
func New(depth int, version byte) *Log {
	return &Log{version: version, codes: make([]Code, depth)}
}

// Record stores the code if there is room and returns it unchanged,
// so it can wrap a fallible call.
func (l *Log) Record(code Code) Code {
	if code == NoError {
		return code
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	l.total++
	if l.next < len(l.codes) {
		l.codes[l.next] = code
		l.next++
	}
	return code
}

// RecordErr records err if it's a Code and returns err.
func (l *Log) RecordErr(err error) error {
	return RecordErr(l, err)
}

// RecordErr records err to r if it's a Code and returns err.
// A nil Reporter records nothing.
func RecordErr(r Reporter, err error) error {
	if code, ok := err.(Code); ok && r != nil {
		r.Record(code)
	}
	return err
}

// Depth returns the capacity of the log.
func (l *Log) Depth() int {
	return len(l.codes)
}

// Version returns the log format version.
func (l *Log) Version() byte {
	return l.version
}

// Len returns the number of stored codes.
func (l *Log) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.next
}

// Total returns the number of reported codes, including dropped ones.
func (l *Log) Total() uint32 {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.total
}

// Codes returns a copy of the stored codes.
func (l *Log) Codes() []Code {
	l.lock.Lock()
	defer l.lock.Unlock()
	codes := make([]Code, l.next)
	copy(codes, l.codes)
	return codes
}

// Snapshot encodes the whole fixed-size log, unwritten slots included,
// as little-endian u16 values. The size depends only on the depth.
func (l *Log) Snapshot() []byte {
	l.lock.Lock()
	defer l.lock.Unlock()
	b := make([]byte, len(l.codes)*2)
	for n, code := range l.codes {
		binary.LittleEndian.PutUint16(b[n*2:], uint16(code))
	}
	return b
}

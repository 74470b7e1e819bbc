// Package txq queues outbound messages for a transport that carries
// one transfer at a time.
package txq

import (
	"sync"

	"github.com/robotalks/dbglink/pkg/dbg/errlog"
)

// ErrOverflow is reported when a message is dropped on a full queue.
const ErrOverflow errlog.Code = 4214

// Transport starts an asynchronous transfer of msg. When the transfer
// completes, the transport must call Queue.Advance. Send is never
// called again before that.
type Transport interface {
	Send(msg []byte)
}

// SendFunc is func form of Transport.
type SendFunc func([]byte)

// Send implements Transport.
func (f SendFunc) Send(msg []byte) {
	f(msg)
}

// Queue is a bounded circular queue of pending messages. Messages are
// referenced, not copied: a message must stay unmodified until the
// transport consumed it.
type Queue struct {
	transport Transport
	reporter  errlog.Reporter

	entries [][]byte
	read    int
	write   int
	pending int
	busy    bool
	lock    sync.Mutex
}

// New creates a Queue holding up to length messages behind the one in
// flight.
func New(length int, transport Transport, reporter errlog.Reporter) *Queue {
	return &Queue{
		transport: transport,
		reporter:  reporter,
		entries:   make([][]byte, length),
	}
}

// Enqueue sends msg right away if nothing is in flight, otherwise
// queues it. On a full queue msg is dropped and ErrOverflow returned.
func (q *Queue) Enqueue(msg []byte) error {
	q.lock.Lock()
	if q.pending == 0 && !q.busy {
		q.busy = true
		q.lock.Unlock()
		q.transport.Send(msg)
		return nil
	}
	if q.pending == len(q.entries) {
		q.lock.Unlock()
		q.report(ErrOverflow)
		return ErrOverflow
	}
	q.entries[q.write] = msg
	if q.write++; q.write == len(q.entries) {
		q.write = 0
	}
	q.pending++
	q.lock.Unlock()
	return nil
}

// Advance is the completion signal of the transport. It sends the next
// queued message or marks the transport idle.
func (q *Queue) Advance() {
	q.lock.Lock()
	if q.pending == 0 {
		q.busy = false
		q.lock.Unlock()
		return
	}
	msg := q.entries[q.read]
	q.entries[q.read] = nil
	if q.read++; q.read == len(q.entries) {
		q.read = 0
	}
	q.pending--
	q.lock.Unlock()
	q.transport.Send(msg)
}

// Busy indicates a transfer is in flight.
func (q *Queue) Busy() bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.busy
}

// Pending returns the number of queued messages, excluding the one in
// flight.
func (q *Queue) Pending() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.pending
}

// Cap returns the queue length.
func (q *Queue) Cap() int {
	return len(q.entries)
}

func (q *Queue) report(code errlog.Code) {
	if r := q.reporter; r != nil {
		r.Record(code)
	}
}

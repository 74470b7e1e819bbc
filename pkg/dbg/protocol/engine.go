package protocol

import (
	"sync/atomic"

	"github.com/robotalks/dbglink/pkg/dbg/buffer"
	"github.com/robotalks/dbglink/pkg/dbg/errlog"
	"github.com/robotalks/dbglink/pkg/dbg/stream"
	"github.com/robotalks/dbglink/pkg/dbg/wire"
)

// Error codes.
const (
	ErrFrameLength errlog.Code = 3221
	ErrFramePrefix errlog.Code = 3222
	ErrBufferIndex errlog.Code = 3223
	ErrNoStream    errlog.Code = 5688
)

// Sender queues an outbound message.
type Sender interface {
	Enqueue(msg []byte) error
}

// Hooks are application callbacks. Nil entries are no-ops.
type Hooks struct {
	// Generic is invoked for generic request K after it is acknowledged.
	Generic [wire.GenericRequests]func()
	// Shutdown is invoked on critical errors classified by the application.
	Shutdown func()
}

// Engine dispatches request frames and pushes stream records.
type Engine struct {
	sender  Sender
	log     *errlog.Log
	buffers *buffer.Registry
	streams *stream.Registry
	hooks   Hooks

	connected atomic.Bool
}

// NewEngine creates an Engine.
func NewEngine(sender Sender, log *errlog.Log, buffers *buffer.Registry, streams *stream.Registry, hooks Hooks) *Engine {
	return &Engine{
		sender:  sender,
		log:     log,
		buffers: buffers,
		streams: streams,
		hooks:   hooks,
	}
}

// Connected indicates the host has established a connection.
func (e *Engine) Connected() bool {
	return e.connected.Load()
}

// HandleFrame processes one received frame.
func (e *Engine) HandleFrame(frame []byte) {
	if len(frame) <= 2 {
		e.log.Record(ErrFrameLength)
		e.send(wire.NACK())
		return
	}
	if !wire.HasPrefix(frame) {
		e.log.Record(ErrFramePrefix)
		e.send(wire.NACK())
		return
	}
	// only single opcode requests are defined
	if len(frame) != wire.RequestSize {
		return
	}

	op := wire.Opcode(frame[2])
	switch op {
	case wire.OpConnect:
		e.connected.Store(true)
		e.send(wire.ACK())
	case wire.OpDisconnect:
		e.connected.Store(false)
		e.send(wire.ACK())
	case wire.OpKeepAlive:
		if e.connected.Load() {
			e.send(wire.ACK())
		} else {
			e.send(wire.NACK())
		}
	case wire.OpReadErrorLog:
		e.send(wire.ErrorLogProperties(uint16(e.log.Depth()), e.log.Version()))
		e.send(e.log.Snapshot())
	case wire.OpReadBufferProperties:
		e.send(wire.BufferProperties(byte(e.buffers.Count()), uint16(e.buffers.Capacity())))
		e.buffers.CountRead()
	case wire.OpStartStreaming:
		e.startStreaming()
	case wire.OpStopStreaming:
		e.stopStreaming()
	default:
		if index, ok := op.BufferIndex(); ok && index < e.buffers.Max() {
			e.readBuffer(op, index)
		} else if k, ok := op.GenericIndex(); ok {
			e.send(wire.ACK())
			if fn := e.hooks.Generic[k]; fn != nil {
				fn()
			}
		}
	}
}

// PushStream sends the current record of the active stream, if the host
// subscribed to it.
func (e *Engine) PushStream() {
	s := e.streams.Active()
	if s == nil || !s.IsActive() {
		return
	}
	msg := s.Message()
	if msg == nil {
		return
	}
	e.send(wire.StreamMessageStart())
	e.send(msg)
}

// Shutdown invokes the shutdown hook.
func (e *Engine) Shutdown() {
	if fn := e.hooks.Shutdown; fn != nil {
		fn()
	}
}

func (e *Engine) readBuffer(op wire.Opcode, index int) {
	src, ok := e.buffers.Get(index)
	if !ok {
		e.log.Record(ErrBufferIndex)
		e.send(wire.NACK())
		return
	}
	e.send(wire.ACK())
	e.send(wire.BufferDescriptor(op, src.Type()))
	e.send(src.Bytes())
}

func (e *Engine) startStreaming() {
	e.send(wire.ACK())
	s := e.streams.Active()
	if s == nil {
		e.send(wire.StreamProperties{}.Encode())
		return
	}
	props := s.Properties()
	e.send(props.Encode())
	e.send(wire.FieldTypes(s.FieldTypes))
	s.SetActive(true)
}

func (e *Engine) stopStreaming() {
	s := e.streams.Active()
	if s == nil {
		e.log.Record(ErrNoStream)
		e.send(wire.NACK())
		return
	}
	s.SetActive(false)
	e.send(wire.ACK())
}

func (e *Engine) send(msg []byte) {
	// overflow is already recorded by the sender
	e.sender.Enqueue(msg)
}

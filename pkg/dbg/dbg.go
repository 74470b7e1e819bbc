// Package dbg composes the debug sideband: error log, sample buffers,
// record stream, transmit queue and protocol engine.
package dbg

import (
	"time"

	"github.com/robotalks/dbglink/pkg/dbg/buffer"
	"github.com/robotalks/dbglink/pkg/dbg/errlog"
	"github.com/robotalks/dbglink/pkg/dbg/protocol"
	"github.com/robotalks/dbglink/pkg/dbg/stream"
	"github.com/robotalks/dbglink/pkg/dbg/txq"
)

// Subsystem is one independent instance of the debug sideband.
type Subsystem struct {
	Config Config

	log     *errlog.Log
	buffers *buffer.Registry
	streams *stream.Registry
	queue   *txq.Queue
	engine  *protocol.Engine
}

// New composes a Subsystem sending through transport. The transport
// must call HandleTX when each transfer completes.
func New(conf Config, transport txq.Transport, hooks protocol.Hooks) (*Subsystem, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if hooks.Shutdown == nil {
		hooks.Shutdown = Halt
	}
	s := &Subsystem{
		Config:  conf,
		log:     errlog.New(conf.ErrorLogDepth, conf.ErrorLogVersion),
		buffers: buffer.NewRegistry(conf.MaxBuffers, conf.BufferCapacity),
	}
	s.streams = stream.NewRegistry(conf.MaxStreamFields, s.log)
	s.queue = txq.New(conf.TxQueueLength, transport, s.log)
	s.engine = protocol.NewEngine(s.queue, s.log, s.buffers, s.streams, hooks)
	s.streams.OnUpdate(s.engine.PushStream)
	return s, nil
}

// Halt blocks the calling goroutine forever. It's the default shutdown
// hook. Sleeping keeps the runtime from reporting a deadlock when no
// other goroutine is alive.
func Halt() {
	for {
		time.Sleep(time.Hour)
	}
}

// HandleRX processes a received frame.
func (s *Subsystem) HandleRX(frame []byte) {
	s.engine.HandleFrame(frame)
}

// HandleTX is the transfer complete signal.
func (s *Subsystem) HandleTX() {
	s.queue.Advance()
}

// Record implements errlog.Reporter.
func (s *Subsystem) Record(code errlog.Code) errlog.Code {
	return s.log.Record(code)
}

// Shutdown invokes the shutdown hook.
func (s *Subsystem) Shutdown() {
	s.engine.Shutdown()
}

// Errors returns the error log.
func (s *Subsystem) Errors() *errlog.Log {
	return s.log
}

// Buffers returns the buffer registry.
func (s *Subsystem) Buffers() *buffer.Registry {
	return s.buffers
}

// Streams returns the stream registry.
func (s *Subsystem) Streams() *stream.Registry {
	return s.streams
}

// Queue returns the transmit queue.
func (s *Subsystem) Queue() *txq.Queue {
	return s.queue
}

// Engine returns the protocol engine.
func (s *Subsystem) Engine() *protocol.Engine {
	return s.engine
}

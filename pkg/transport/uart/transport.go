// Package uart carries the debug protocol over a byte stream such as a
// serial port, emulating a UART with DMA transfers and idle-line frame
// detection.
package uart

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/dbglink/pkg/dbg/errlog"
)

// Error codes.
const (
	ErrOverrun  errlog.Code = 6101
	ErrReceive  errlog.Code = 6102
	ErrTransmit errlog.Code = 6103
)

// Defaults.
const (
	DefaultIdleTimeout = 5 * time.Millisecond
	DefaultBufferSize  = 64
)

// Device is the protocol side attached to the transport.
type Device interface {
	// HandleRX receives one complete frame.
	HandleRX(frame []byte)
	// HandleTX is the transfer complete signal.
	HandleTX()

	errlog.Reporter
}

// Transport implements txq.Transport over an io.ReadWriter.
type Transport struct {
	ReadWriter io.ReadWriter
	// IdleTimeout delimits frames: a frame ends when no byte arrives
	// for this long.
	IdleTimeout time.Duration
	// BufferSize is the largest frame; longer frames are dropped.
	BufferSize int

	device Device
	txCh   chan []byte
}

// New creates a Transport.
func New(rw io.ReadWriter) *Transport {
	return &Transport{
		ReadWriter:  rw,
		IdleTimeout: DefaultIdleTimeout,
		BufferSize:  DefaultBufferSize,
		txCh:        make(chan []byte, 1),
	}
}

// Attach sets the device. It must be called before Run.
func (t *Transport) Attach(dev Device) *Transport {
	t.device = dev
	return t
}

// Send implements txq.Transport. The transfer runs in Run and signals
// completion through Device.HandleTX.
func (t *Transport) Send(msg []byte) {
	select {
	case t.txCh <- msg:
	default:
		// only when a transfer is started before the previous completed
		t.device.Record(ErrTransmit)
	}
}

// Name implements framework.Named.
func (t *Transport) Name() string {
	return "uart"
}

// Run transfers data until ctx is done or the stream fails.
func (t *Transport) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	chunkCh := make(chan []byte)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go t.txLoop(subCtx)
	go t.readLoop(subCtx, chunkCh, errCh)

	idle := t.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	var frame []byte
	var overrun bool
	var idleTimer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case chunk := <-chunkCh:
			idleTimer = time.After(idle)
			if overrun {
				continue
			}
			if len(frame)+len(chunk) > t.BufferSize {
				t.device.Record(ErrOverrun)
				frame, overrun = nil, true
				continue
			}
			frame = append(frame, chunk...)
		case <-idleTimer:
			idleTimer = nil
			if !overrun && len(frame) > 0 {
				glog.V(4).Infof("RX % x", frame)
				t.device.HandleRX(frame)
			}
			frame, overrun = nil, false
		}
	}
}

func (t *Transport) readLoop(ctx context.Context, chunkCh chan []byte, errCh chan error) {
	buf := make([]byte, t.BufferSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := t.ReadWriter.Read(buf)
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				t.device.Record(ErrReceive)
			}
			errCh <- err
			return
		}
		if n == 0 {
			// read timeout
			continue
		}
		chunk := append([]byte(nil), buf[:n]...)
		select {
		case chunkCh <- chunk:
		case <-ctx.Done():
			return
		}
	}
}

func (t *Transport) txLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-t.txCh:
			if _, err := t.ReadWriter.Write(msg); err != nil {
				glog.Warningf("uart write error: %v", err)
				t.device.Record(ErrTransmit)
			} else {
				glog.V(4).Infof("TX % x", msg)
			}
			t.device.HandleTX()
		}
	}
}

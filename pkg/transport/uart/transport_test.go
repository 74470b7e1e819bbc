package uart

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dbglink/pkg/dbg/errlog"
)

type testDevice struct {
	frameCh chan []byte
	txCh    chan struct{}
	log     *errlog.Log
	lock    sync.Mutex
}

func newTestDevice() *testDevice {
	return &testDevice{
		frameCh: make(chan []byte, 4),
		txCh:    make(chan struct{}, 4),
		log:     errlog.New(8, 1),
	}
}

func (d *testDevice) HandleRX(frame []byte) { d.frameCh <- frame }
func (d *testDevice) HandleTX()             { d.txCh <- struct{}{} }

func (d *testDevice) Record(code errlog.Code) errlog.Code {
	return d.log.Record(code)
}

func (d *testDevice) expectFrame(t *testing.T) []byte {
	select {
	case frame := <-d.frameCh:
		return frame
	case <-time.After(time.Second):
		t.Fatal("expect frame timeout")
	}
	return nil
}

func (d *testDevice) expectNoFrame(t *testing.T) {
	select {
	case frame := <-d.frameCh:
		t.Fatalf("unexpected frame % x", frame)
	case <-time.After(50 * time.Millisecond):
	}
}

func startTransport(t *testing.T, bufSize int) (*Transport, *testDevice, net.Conn, func()) {
	devSide, hostSide := net.Pipe()
	dev := newTestDevice()
	tr := New(devSide).Attach(dev)
	tr.IdleTimeout = 10 * time.Millisecond
	tr.BufferSize = bufSize
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()
	return tr, dev, hostSide, func() {
		cancel()
		hostSide.Close()
		devSide.Close()
		<-done
	}
}

func TestReceiveFrames(t *testing.T) {
	_, dev, host, stop := startTransport(t, 16)
	defer stop()

	_, err := host.Write([]byte{0xAA, 0x55})
	require.NoError(t, err)
	_, err = host.Write([]byte{0x01})
	require.NoError(t, err)
	require.Equal(t, []byte{0xAA, 0x55, 0x01}, dev.expectFrame(t))

	_, err = host.Write([]byte{0xAA, 0x55, 0x03})
	require.NoError(t, err)
	require.Equal(t, []byte{0xAA, 0x55, 0x03}, dev.expectFrame(t))
}

func TestReceiveOverrun(t *testing.T) {
	_, dev, host, stop := startTransport(t, 4)
	defer stop()

	_, err := host.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	_, err = host.Write([]byte{4, 5, 6})
	require.NoError(t, err)
	dev.expectNoFrame(t)
	require.Equal(t, []errlog.Code{ErrOverrun}, dev.log.Codes())

	_, err = host.Write([]byte{0xAA, 0x55, 0x02})
	require.NoError(t, err)
	require.Equal(t, []byte{0xAA, 0x55, 0x02}, dev.expectFrame(t))
}

func TestTransmit(t *testing.T) {
	tr, dev, host, stop := startTransport(t, 16)
	defer stop()

	tr.Send([]byte{0xAA, 0x55, 0xAA})
	buf := make([]byte, 3)
	_, err := io.ReadFull(host, buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0xAA, 0x55, 0xAA}, buf)
	select {
	case <-dev.txCh:
	case <-time.After(time.Second):
		t.Fatal("expect transfer complete")
	}
}

package profiling

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dbglink/pkg/dbg/buffer"
	"github.com/robotalks/dbglink/pkg/dbg/stream"
	"github.com/robotalks/dbglink/pkg/dbg/wire"
)

type fakeCounter struct {
	stamps []uint32
}

func (c *fakeCounter) Cycles() uint32 {
	v := c.stamps[0]
	c.stamps = c.stamps[1:]
	return v
}

func TestEventBytes(t *testing.T) {
	ev := Event{StartStamp: 0x01020304, Duration: 5, ThreadID: 2, NameID: 0x0a0b}
	b := make([]byte, EventSize)
	ev.PutBytes(b)
	require.Equal(t, []byte{4, 3, 2, 1, 5, 0, 0, 0, 2, 0, 0, 0, 0x0b, 0x0a}, b)
}

func TestDurationWraps(t *testing.T) {
	counter := &fakeCounter{stamps: []uint32{0xfffffff0, 0x10}}
	var ev Event
	begin(counter, &ev)
	end(counter, &ev)
	require.Equal(t, uint32(0x20), ev.Duration)
}

func TestBufferTracer(t *testing.T) {
	counter := &fakeCounter{stamps: []uint32{100, 150, 200, 230}}
	tracer := NewBufferTracer(counter, 4)
	r := buffer.NewRegistry(8, 4)
	tracer.Register(r)
	require.Equal(t, 4, r.Count())
	src, _ := r.Get(3)
	require.Equal(t, wire.U16, src.Type())

	ev := Event{ThreadID: 1, NameID: 7}
	tracer.Begin(&ev)
	tracer.End(&ev)
	ev2 := Event{ThreadID: 2, NameID: 8}
	tracer.Begin(&ev2)
	tracer.End(&ev2)

	require.Equal(t, []uint32{100, 200}, tracer.StartStamp.Values())
	require.Equal(t, []uint32{50, 30}, tracer.Duration.Values())
	require.Equal(t, []uint32{1, 2}, tracer.ThreadID.Values())
	require.Equal(t, []uint16{7, 8}, tracer.NameID.Values())

	tracer.Reset()
	require.Equal(t, 0, tracer.NameID.Len())
}

func TestStreamTracer(t *testing.T) {
	tracer := NewStreamTracer(CyclesFunc(func() uint32 { return 0 }), 2)
	require.Equal(t, uint16(28), tracer.Stream.MessageSize)
	r := stream.NewRegistry(32, nil)
	var records [][]byte
	r.OnUpdate(func() {
		records = append(records, append([]byte(nil), r.Active().Message()...))
	})
	require.NoError(t, tracer.Register(r))
	require.Equal(t, stream.ErrAlreadyRegistered, NewStreamTracer(nil, 1).Register(r))

	for i := 0; i < 5; i++ {
		tracer.Save(&Event{StartStamp: uint32(i), NameID: uint16(i)})
	}
	require.Len(t, records, 2)
	for n, record := range records {
		require.Len(t, record, 28)
		require.Equal(t, byte(n*2), record[0])
		require.Equal(t, byte(n*2+1), record[EventSize])
	}
	first := tracer.records[0]
	require.Equal(t, byte(4), first[0], "third record is written into the first buffer")
}

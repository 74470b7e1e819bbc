package txq

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dbglink/pkg/dbg/errlog"
)

type recordingTransport struct {
	sent [][]byte
}

func (r *recordingTransport) Send(msg []byte) {
	r.sent = append(r.sent, msg)
}

func msgs(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte{byte(i), byte(i + 1)}
	}
	return out
}

func TestEnqueueIdleSendsDirectly(t *testing.T) {
	tr := &recordingTransport{}
	q := New(2, tr, nil)
	msg := []byte{1, 2, 3}
	require.NoError(t, q.Enqueue(msg))
	require.Len(t, tr.sent, 1)
	require.Equal(t, msg, tr.sent[0])
	require.True(t, &msg[0] == &tr.sent[0][0], "message must not be copied")
	require.True(t, q.Busy())
	require.Equal(t, 0, q.Pending())
}

func TestEnqueueWhileBusy(t *testing.T) {
	tr := &recordingTransport{}
	q := New(3, tr, nil)
	all := msgs(4)
	for _, msg := range all {
		require.NoError(t, q.Enqueue(msg))
	}
	require.Len(t, tr.sent, 1)
	require.Equal(t, 3, q.Pending())

	for i := 1; i < 4; i++ {
		q.Advance()
		require.Len(t, tr.sent, i+1)
		require.Equal(t, all[i], tr.sent[i])
		require.True(t, q.Busy())
	}
	require.Equal(t, 0, q.Pending())
	q.Advance()
	require.False(t, q.Busy())
	require.Len(t, tr.sent, 4)
}

func TestOverflow(t *testing.T) {
	tr := &recordingTransport{}
	log := errlog.New(8, 1)
	q := New(2, tr, log)
	all := msgs(3)
	for _, msg := range all {
		require.NoError(t, q.Enqueue(msg))
	}
	require.Equal(t, ErrOverflow, q.Enqueue([]byte{0xff}))
	require.Equal(t, []errlog.Code{ErrOverflow}, log.Codes())
	require.Equal(t, uint32(1), log.Total())
	require.Equal(t, 2, q.Pending())

	q.Advance()
	q.Advance()
	q.Advance()
	require.Equal(t, all, tr.sent)
	require.False(t, q.Busy())
}

func TestWrapAround(t *testing.T) {
	tr := &recordingTransport{}
	q := New(2, tr, nil)
	var expect [][]byte
	for round := 0; round < 5; round++ {
		for _, msg := range msgs(3) {
			msg = append(msg, byte(round))
			expect = append(expect, msg)
			require.NoError(t, q.Enqueue(msg))
		}
		for q.Busy() {
			q.Advance()
		}
	}
	require.Equal(t, expect, tr.sent)
}

func TestSynchronousCompletion(t *testing.T) {
	var q *Queue
	var sent [][]byte
	q = New(4, SendFunc(func(msg []byte) {
		sent = append(sent, msg)
		if msg[0] == 0 {
			// completes while the caller still enqueues
			return
		}
		q.Advance()
	}), nil)
	require.NoError(t, q.Enqueue([]byte{0}))
	require.NoError(t, q.Enqueue([]byte{1}))
	require.NoError(t, q.Enqueue([]byte{2}))
	q.Advance()
	require.Equal(t, [][]byte{{0}, {1}, {2}}, sent)
	require.False(t, q.Busy())
}

package stream

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dbglink/pkg/dbg/errlog"
	"github.com/robotalks/dbglink/pkg/dbg/wire"
)

func newTestStream(id byte) *Stream {
	return &Stream{
		ID:                id,
		FieldTypes:        []wire.DataType{wire.F32, wire.F32},
		EntriesPerMessage: 5,
		TimeoutMs:         1000,
		MessageSize:       40,
	}
}

func TestRegister(t *testing.T) {
	r := NewRegistry(4, nil)
	require.Nil(t, r.Active())
	require.Equal(t, ErrNilStream, r.Register(nil))

	first, second := newTestStream(1), newTestStream(2)
	require.NoError(t, r.Register(first))
	require.Equal(t, ErrAlreadyRegistered, r.Register(second))
	require.Equal(t, first, r.Active())

	first.SetActive(true)
	r.Unregister()
	require.Nil(t, r.Active())
	require.False(t, first.IsActive())

	require.NoError(t, r.Register(second))
	require.Equal(t, second, r.Active())
}

func TestRegisterFailuresAreRecorded(t *testing.T) {
	testCases := []struct {
		name   string
		stream *Stream
		err    errlog.Code
	}{
		{"nil stream", nil, ErrNilStream},
		{"reserved id", newTestStream(0), ErrReservedID},
		{"too many fields", &Stream{ID: 1, FieldTypes: make([]wire.DataType, 5)}, ErrTooManyFields},
		{"already registered", newTestStream(2), ErrAlreadyRegistered},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			log := errlog.New(8, 1)
			r := NewRegistry(4, log)
			require.NoError(t, r.Register(newTestStream(1)))
			require.Equal(t, tc.err, r.Register(tc.stream))
			require.Equal(t, []errlog.Code{tc.err}, log.Codes())
			require.Equal(t, byte(1), r.Active().ID)
		})
	}
}

func TestShortRecordRejected(t *testing.T) {
	log := errlog.New(8, 1)
	r := NewRegistry(0, log)
	s := newTestStream(1)
	record := make([]byte, 40)
	require.NoError(t, s.SetMessage(record))
	// not registered yet, so only returned
	require.Equal(t, ErrShortRecord, s.SetMessage(make([]byte, 39)))
	require.Empty(t, log.Codes())

	require.NoError(t, r.Register(s))
	require.Equal(t, ErrShortRecord, s.SetMessage(nil))
	require.Equal(t, []errlog.Code{ErrShortRecord}, log.Codes())
	require.Len(t, s.Message(), 40)
}

func TestRegisterTooManyFields(t *testing.T) {
	r := NewRegistry(1, nil)
	require.Equal(t, ErrTooManyFields, r.Register(newTestStream(1)))
	require.Nil(t, r.Active())
}

func TestUnregisterEmpty(t *testing.T) {
	r := NewRegistry(0, nil)
	r.Unregister()
	require.Nil(t, r.Active())
}

func TestNotifyUpdate(t *testing.T) {
	r := NewRegistry(0, nil)
	r.NotifyUpdate()
	var calls int
	r.OnUpdate(func() { calls++ })
	r.NotifyUpdate()
	r.NotifyUpdate()
	require.Equal(t, 2, calls)
}

func TestStreamMessage(t *testing.T) {
	s := newTestStream(3)
	require.Empty(t, s.Message())
	record := make([]byte, 48)
	record[0], record[39], record[40] = 1, 2, 3
	require.NoError(t, s.SetMessage(record))
	msg := s.Message()
	require.Len(t, msg, 40)
	require.Equal(t, byte(2), msg[39])
	require.Equal(t, wire.StreamProperties{
		ID:                3,
		FieldCount:        2,
		EntriesPerMessage: 5,
		TimeoutMs:         1000,
		MessageSize:       40,
	}, s.Properties())
}

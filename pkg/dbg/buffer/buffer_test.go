package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dbglink/pkg/dbg/wire"
)

func TestAppend(t *testing.T) {
	testCases := []struct {
		name   string
		delay  int
		values []int32
		expect []int32
	}{
		{"empty", 0, nil, []int32{}},
		{"partial", 0, []int32{1, 2}, []int32{1, 2}},
		{"full", 0, []int32{1, 2, 3, 4}, []int32{1, 2, 3, 4}},
		{"overflow", 0, []int32{1, 2, 3, 4, 5, 6}, []int32{1, 2, 3, 4}},
		{"delay", 2, []int32{1, 2, 3, 4}, []int32{3, 4}},
		{"delay overflow", 1, []int32{1, 2, 3, 4, 5, 6}, []int32{2, 3, 4, 5}},
		{"delay longer", 5, []int32{1, 2, 3}, []int32{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := New[int32](4)
			b.SetDelay(tc.delay)
			for _, v := range tc.values {
				b.Append(v)
			}
			require.Equal(t, tc.expect, b.Values())
			require.Equal(t, len(tc.expect), b.Len())
		})
	}
}

func TestDelayCountsDown(t *testing.T) {
	b := New[uint8](2)
	b.SetDelay(3)
	b.Append(1)
	require.Equal(t, 2, b.Delay())
	require.Equal(t, 0, b.Len())
	b.Append(2)
	b.Append(3)
	require.Equal(t, 0, b.Delay())
	b.Append(4)
	require.Equal(t, []uint8{4}, b.Values())
}

func TestReset(t *testing.T) {
	b := New[uint16](3)
	for _, v := range []uint16{10, 20, 30, 40} {
		b.Append(v)
	}
	require.Equal(t, 3, b.Len())
	b.SetDelay(1)
	b.Reset()
	require.Equal(t, 0, b.Len())
	require.Equal(t, 1, b.Delay())
	// stale values are still part of the encoded memory
	require.Equal(t, []byte{10, 0, 20, 0, 30, 0}, b.Bytes())
	b.Append(1)
	b.Append(2)
	require.Equal(t, []uint16{2}, b.Values())
	require.Equal(t, []byte{2, 0, 20, 0, 30, 0}, b.Bytes())
}

func TestTypeOf(t *testing.T) {
	require.Equal(t, wire.F32, New[float32](1).Type())
	require.Equal(t, wire.I32, New[int32](1).Type())
	require.Equal(t, wire.U32, New[uint32](1).Type())
	require.Equal(t, wire.I16, New[int16](1).Type())
	require.Equal(t, wire.U16, New[uint16](1).Type())
	require.Equal(t, wire.U8, New[uint8](1).Type())
}

func roundTrip[T Scalar](t *testing.T, values ...T) {
	b := New[T](len(values))
	for _, v := range values {
		b.Append(v)
	}
	data := b.Bytes()
	require.Len(t, data, len(values)*b.Type().Width())
	decoded, err := wire.DecodeValues(b.Type(), data)
	require.NoError(t, err)
	for n, v := range values {
		require.Equal(t, v, decoded[n])
	}
}

func TestBytesRoundTrip(t *testing.T) {
	t.Run("f32", func(t *testing.T) { roundTrip[float32](t, 1.5, -3.25, 0, 3.4e38) })
	t.Run("i32", func(t *testing.T) { roundTrip[int32](t, -2147483648, -1, 0, 2147483647) })
	t.Run("u32", func(t *testing.T) { roundTrip[uint32](t, 0, 1, 0xdeadbeef, 0xffffffff) })
	t.Run("i16", func(t *testing.T) { roundTrip[int16](t, -32768, -1, 0, 32767) })
	t.Run("u16", func(t *testing.T) { roundTrip[uint16](t, 0, 1, 0xbeef, 0xffff) })
	t.Run("u8", func(t *testing.T) { roundTrip[uint8](t, 0, 1, 0x7f, 0xff) })
}

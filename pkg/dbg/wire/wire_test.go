package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessages(t *testing.T) {
	props := StreamProperties{ID: 255, FieldCount: 4, EntriesPerMessage: 8, TimeoutMs: 20000, MessageSize: 112}
	testCases := []struct {
		name   string
		msg    []byte
		expect []byte
	}{
		{"request", Request(OpConnect), []byte{0xAA, 0x55, 0x01}},
		{"ack", ACK(), []byte{0xAA, 0x55, 0xAA}},
		{"nack", NACK(), []byte{0xAA, 0x55, 0x55}},
		{"stream message start", StreamMessageStart(), []byte{0xAA, 0x55, 0x32}},
		{"error log properties", ErrorLogProperties(64, 1), []byte{0xAA, 0x55, 0x08, 0x40, 0x00, 0x01}},
		{"buffer properties", BufferProperties(3, 0x0140), []byte{0xAA, 0x55, 0x10, 3, 0x40, 0x01}},
		{"buffer descriptor", BufferDescriptor(0x12, U16), []byte{0xAA, 0x55, 0x12, 5}},
		{"stream properties", props.Encode(), []byte{0xAA, 0x55, 0x31, 255, 4, 8, 0, 0x20, 0x4e, 0, 0, 112, 0}},
		{"field types padded", FieldTypes([]DataType{F32}), []byte{1, 0, 0}},
		{"field types", FieldTypes([]DataType{U32, U32, U32, U16}), []byte{3, 3, 3, 5}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.msg)
		})
	}
}

func TestOpcodeRanges(t *testing.T) {
	for i := 0; i < MaxBufferSlots; i++ {
		index, ok := ReadBufferOp(i).BufferIndex()
		require.True(t, ok)
		require.Equal(t, i, index)
	}
	require.Equal(t, Opcode(0x11), ReadBufferOp(0))
	require.Equal(t, Opcode(0x30), ReadBufferOp(MaxBufferSlots-1))
	_, ok := OpReadBufferProperties.BufferIndex()
	require.False(t, ok)
	_, ok = OpStartStreaming.BufferIndex()
	require.False(t, ok)

	for k := 0; k < GenericRequests; k++ {
		index, ok := GenericOp(k).GenericIndex()
		require.True(t, ok)
		require.Equal(t, k, index)
	}
	_, ok = Opcode(0x50).GenericIndex()
	require.False(t, ok)
	_, ok = Opcode(0x3f).GenericIndex()
	require.False(t, ok)
}

func TestDecode(t *testing.T) {
	depth, version, err := DecodeErrorLogProperties(ErrorLogProperties(64, 1))
	require.NoError(t, err)
	require.Equal(t, uint16(64), depth)
	require.Equal(t, byte(1), version)

	count, capacity, err := DecodeBufferProperties(BufferProperties(4, 64))
	require.NoError(t, err)
	require.Equal(t, byte(4), count)
	require.Equal(t, uint16(64), capacity)

	typ, err := DecodeBufferDescriptor(BufferDescriptor(0x11, F32), 0x11)
	require.NoError(t, err)
	require.Equal(t, F32, typ)
	_, err = DecodeBufferDescriptor(BufferDescriptor(0x11, F32), 0x12)
	require.Equal(t, &UnexpectedCodeError{Expected: 0x12, Actual: 0x11}, err)

	props := StreamProperties{ID: 9, FieldCount: 2, EntriesPerMessage: 5, TimeoutMs: 1000, MessageSize: 40}
	decoded, err := DecodeStreamProperties(props.Encode())
	require.NoError(t, err)
	require.Equal(t, props, decoded)

	_, _, err = DecodeBufferProperties([]byte{0xAA, 0x55})
	require.Equal(t, ErrShortMessage, err)
	_, _, err = DecodeBufferProperties([]byte{0xAB, 0x55, 0x10, 0, 0, 0})
	require.Equal(t, ErrBadPrefix, err)

	require.True(t, IsACK(ACK()))
	require.False(t, IsACK(NACK()))
	require.True(t, IsNACK(NACK()))
	require.True(t, IsStreamMessageStart(StreamMessageStart()))
}

func TestDataTypes(t *testing.T) {
	testCases := []struct {
		typ   DataType
		width int
		valid bool
		name  string
	}{
		{NoType, 0, false, "none"},
		{F32, 4, true, "f32"},
		{I32, 4, true, "i32"},
		{U32, 4, true, "u32"},
		{I16, 2, true, "i16"},
		{U16, 2, true, "u16"},
		{U8, 1, true, "u8"},
		{DataType(7), 0, false, "type(7)"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.width, tc.typ.Width())
			require.Equal(t, tc.valid, tc.typ.IsValid())
			require.Equal(t, tc.name, tc.typ.String())
		})
	}
}

func TestDecodeValues(t *testing.T) {
	values, err := DecodeValues(I16, []byte{0xff, 0xff, 0x02, 0x00})
	require.NoError(t, err)
	require.Equal(t, []interface{}{int16(-1), int16(2)}, values)
	_, err = DecodeValues(U32, []byte{1, 2, 3})
	require.Error(t, err)
	_, err = DecodeValues(NoType, nil)
	require.Error(t, err)
}

package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DataType tags the scalar type of buffer and stream values.
type DataType byte

// Data types.
const (
	NoType DataType = iota
	F32
	I32
	U32
	I16
	U16
	U8
)

var dataTypeNames = [...]string{"none", "f32", "i32", "u32", "i16", "u16", "u8"}

// IsValid indicates t is one of the scalar types.
func (t DataType) IsValid() bool {
	return t > NoType && t <= U8
}

// Width returns the element size in bytes, 0 for invalid types.
func (t DataType) Width() int {
	switch t {
	case F32, I32, U32:
		return 4
	case I16, U16:
		return 2
	case U8:
		return 1
	}
	return 0
}

// String implements fmt.Stringer.
func (t DataType) String() string {
	if int(t) < len(dataTypeNames) {
		return dataTypeNames[t]
	}
	return fmt.Sprintf("type(%d)", byte(t))
}

// DecodeValue decodes one little-endian value of type t.
// The result is one of float32, int32, uint32, int16, uint16, uint8.
func DecodeValue(t DataType, b []byte) interface{} {
	switch t {
	case F32:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case I32:
		return int32(binary.LittleEndian.Uint32(b))
	case U32:
		return binary.LittleEndian.Uint32(b)
	case I16:
		return int16(binary.LittleEndian.Uint16(b))
	case U16:
		return binary.LittleEndian.Uint16(b)
	case U8:
		return b[0]
	}
	return nil
}

// DecodeValues decodes consecutive values of type t.
func DecodeValues(t DataType, data []byte) ([]interface{}, error) {
	width := t.Width()
	if width == 0 {
		return nil, fmt.Errorf("invalid data type %v", t)
	}
	if len(data)%width != 0 {
		return nil, fmt.Errorf("%d bytes is not a multiple of %v", len(data), t)
	}
	values := make([]interface{}, 0, len(data)/width)
	for off := 0; off < len(data); off += width {
		values = append(values, DecodeValue(t, data[off:]))
	}
	return values, nil
}

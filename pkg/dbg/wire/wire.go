package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Marker bytes present at the beginning of all messages.
const (
	Marker0 byte = 0xAA
	Marker1 byte = 0x55
)

// Reply codes following the marker.
const (
	replyACK  byte = 0xAA
	replyNACK byte = 0x55
)

// Opcode is the request code following the marker.
type Opcode byte

// Opcodes.
const (
	OpConnect              Opcode = 0x01
	OpDisconnect           Opcode = 0x02
	OpKeepAlive            Opcode = 0x03
	OpReadErrorLog         Opcode = 0x08
	OpReadBufferProperties Opcode = 0x10
	OpStartStreaming       Opcode = 0x31
	OpStreamMessageStart   Opcode = 0x32 // device to host only
	OpStopStreaming        Opcode = 0x33
	OpGenericBase          Opcode = 0x40
)

// Address space limits.
const (
	// MaxBufferSlots is the number of read-buffer opcodes after OpReadBufferProperties.
	MaxBufferSlots = 32
	// GenericRequests is the number of generic request opcodes.
	GenericRequests = 16
)

// Message sizes.
const (
	RequestSize            = 3
	ReplySize              = 3
	ErrorLogPropertiesSize = 6
	BufferPropertiesSize   = 6
	BufferDescriptorSize   = 4
	StreamPropertiesSize   = 13
	StreamMessageStartSize = 3
	// MinFieldTypesSize is the minimum length of the field types message
	// so the transfer never goes below the transport minimum.
	MinFieldTypesSize = 3
)

var (
	// ErrShortMessage indicates a message is shorter than its layout.
	ErrShortMessage = errors.New("short message")
	// ErrBadPrefix indicates the marker bytes are missing.
	ErrBadPrefix = errors.New("bad message prefix")
)

// UnexpectedCodeError reports a reply carrying the wrong code.
type UnexpectedCodeError struct {
	Expected byte
	Actual   byte
}

// Error implements error.
func (e *UnexpectedCodeError) Error() string {
	return fmt.Sprintf("unexpected code 0x%02x, expect 0x%02x", e.Actual, e.Expected)
}

// ReadBufferOp returns the opcode reading buffer at index.
func ReadBufferOp(index int) Opcode {
	return OpReadBufferProperties + 1 + Opcode(index)
}

// BufferIndex returns the buffer index addressed by a read-buffer opcode.
func (op Opcode) BufferIndex() (int, bool) {
	if op > OpReadBufferProperties && op <= OpReadBufferProperties+MaxBufferSlots {
		return int(op-OpReadBufferProperties) - 1, true
	}
	return 0, false
}

// GenericOp returns the opcode of generic request k.
func GenericOp(k int) Opcode {
	return OpGenericBase + Opcode(k)
}

// GenericIndex returns k for a generic request opcode.
func (op Opcode) GenericIndex() (int, bool) {
	if op >= OpGenericBase && op < OpGenericBase+GenericRequests {
		return int(op - OpGenericBase), true
	}
	return 0, false
}

// HasPrefix checks the marker bytes.
func HasPrefix(b []byte) bool {
	return len(b) >= 2 && b[0] == Marker0 && b[1] == Marker1
}

func header(code byte, size int) []byte {
	b := make([]byte, size)
	b[0], b[1], b[2] = Marker0, Marker1, code
	return b
}

// Request encodes a single opcode request.
func Request(op Opcode) []byte {
	return header(byte(op), RequestSize)
}

// ACK encodes a positive acknowledgment.
func ACK() []byte {
	return header(replyACK, ReplySize)
}

// NACK encodes a negative acknowledgment.
func NACK() []byte {
	return header(replyNACK, ReplySize)
}

// IsACK checks b is an ACK.
func IsACK(b []byte) bool {
	return len(b) == ReplySize && HasPrefix(b) && b[2] == replyACK
}

// IsNACK checks b is a NACK.
func IsNACK(b []byte) bool {
	return len(b) == ReplySize && HasPrefix(b) && b[2] == replyNACK
}

// StreamMessageStart encodes the marker pushed before each stream record.
func StreamMessageStart() []byte {
	return header(byte(OpStreamMessageStart), StreamMessageStartSize)
}

// ErrorLogProperties encodes the reply header to OpReadErrorLog.
func ErrorLogProperties(depth uint16, version byte) []byte {
	b := header(byte(OpReadErrorLog), ErrorLogPropertiesSize)
	binary.LittleEndian.PutUint16(b[3:], depth)
	b[5] = version
	return b
}

// BufferProperties encodes the reply to OpReadBufferProperties.
func BufferProperties(count byte, capacity uint16) []byte {
	b := header(byte(OpReadBufferProperties), BufferPropertiesSize)
	b[3] = count
	binary.LittleEndian.PutUint16(b[4:], capacity)
	return b
}

// BufferDescriptor encodes the header sent before buffer memory.
func BufferDescriptor(op Opcode, typ DataType) []byte {
	b := header(byte(op), BufferDescriptorSize)
	b[3] = byte(typ)
	return b
}

// StreamProperties describes the registered stream.
// ID 0 means no stream is registered.
type StreamProperties struct {
	ID                byte
	FieldCount        byte
	EntriesPerMessage uint16
	TimeoutMs         uint32
	MessageSize       uint16
}

// Encode encodes the reply header to OpStartStreaming.
func (p StreamProperties) Encode() []byte {
	b := header(byte(OpStartStreaming), StreamPropertiesSize)
	b[3], b[4] = p.ID, p.FieldCount
	binary.LittleEndian.PutUint16(b[5:], p.EntriesPerMessage)
	binary.LittleEndian.PutUint32(b[7:], p.TimeoutMs)
	binary.LittleEndian.PutUint16(b[11:], p.MessageSize)
	return b
}

// FieldTypes encodes the stream field type tags, zero padded to
// MinFieldTypesSize.
func FieldTypes(types []DataType) []byte {
	size := len(types)
	if size < MinFieldTypesSize {
		size = MinFieldTypesSize
	}
	b := make([]byte, size)
	for n, typ := range types {
		b[n] = byte(typ)
	}
	return b
}

func checkHeader(b []byte, code byte, size int) error {
	if len(b) < size {
		return ErrShortMessage
	}
	if !HasPrefix(b) {
		return ErrBadPrefix
	}
	if b[2] != code {
		return &UnexpectedCodeError{Expected: code, Actual: b[2]}
	}
	return nil
}

// DecodeErrorLogProperties decodes the reply header to OpReadErrorLog.
func DecodeErrorLogProperties(b []byte) (depth uint16, version byte, err error) {
	if err = checkHeader(b, byte(OpReadErrorLog), ErrorLogPropertiesSize); err != nil {
		return
	}
	return binary.LittleEndian.Uint16(b[3:]), b[5], nil
}

// DecodeBufferProperties decodes the reply to OpReadBufferProperties.
func DecodeBufferProperties(b []byte) (count byte, capacity uint16, err error) {
	if err = checkHeader(b, byte(OpReadBufferProperties), BufferPropertiesSize); err != nil {
		return
	}
	return b[3], binary.LittleEndian.Uint16(b[4:]), nil
}

// DecodeBufferDescriptor decodes the header sent before buffer memory.
func DecodeBufferDescriptor(b []byte, op Opcode) (DataType, error) {
	if err := checkHeader(b, byte(op), BufferDescriptorSize); err != nil {
		return NoType, err
	}
	return DataType(b[3]), nil
}

// DecodeStreamProperties decodes the reply header to OpStartStreaming.
func DecodeStreamProperties(b []byte) (p StreamProperties, err error) {
	if err = checkHeader(b, byte(OpStartStreaming), StreamPropertiesSize); err != nil {
		return
	}
	p.ID, p.FieldCount = b[3], b[4]
	p.EntriesPerMessage = binary.LittleEndian.Uint16(b[5:])
	p.TimeoutMs = binary.LittleEndian.Uint32(b[7:])
	p.MessageSize = binary.LittleEndian.Uint16(b[11:])
	return
}

// IsStreamMessageStart checks b is a stream message start marker.
func IsStreamMessageStart(b []byte) bool {
	return checkHeader(b, byte(OpStreamMessageStart), StreamMessageStartSize) == nil
}

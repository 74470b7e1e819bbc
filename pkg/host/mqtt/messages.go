package mqtt

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/dbglink/pkg/host"
)

// ErrorLogMsg is published to <device>/errlog.
type ErrorLogMsg struct {
	Device  string   `protobuf:"bytes,1,opt,name=device,proto3" json:"device,omitempty"`
	Version uint32   `protobuf:"varint,2,opt,name=version,proto3" json:"version,omitempty"`
	Codes   []uint32 `protobuf:"varint,3,rep,packed,name=codes,proto3" json:"codes,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *ErrorLogMsg) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ErrorLogMsg) Reset() { *m = ErrorLogMsg{} }

// String implements proto.Message.
func (m *ErrorLogMsg) String() string { return proto.CompactTextString(m) }

// StreamEntryMsg is one entry of a stream record, values in field order.
type StreamEntryMsg struct {
	Values []float64 `protobuf:"fixed64,1,rep,packed,name=values,proto3" json:"values,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *StreamEntryMsg) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StreamEntryMsg) Reset() { *m = StreamEntryMsg{} }

// String implements proto.Message.
func (m *StreamEntryMsg) String() string { return proto.CompactTextString(m) }

// StreamRecordMsg is published to <device>/stream/<id>.
type StreamRecordMsg struct {
	Device     string            `protobuf:"bytes,1,opt,name=device,proto3" json:"device,omitempty"`
	StreamId   uint32            `protobuf:"varint,2,opt,name=stream_id,proto3" json:"stream_id,omitempty"`
	FieldTypes []string          `protobuf:"bytes,3,rep,name=field_types,proto3" json:"field_types,omitempty"`
	Entries    []*StreamEntryMsg `protobuf:"bytes,4,rep,name=entries,proto3" json:"entries,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *StreamRecordMsg) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StreamRecordMsg) Reset() { *m = StreamRecordMsg{} }

// String implements proto.Message.
func (m *StreamRecordMsg) String() string { return proto.CompactTextString(m) }

// NewErrorLogMsg converts an error log. Only recorded codes are kept.
func NewErrorLogMsg(device string, log *host.ErrorLog) *ErrorLogMsg {
	m := &ErrorLogMsg{Device: device, Version: uint32(log.Version)}
	for _, code := range log.Recorded() {
		m.Codes = append(m.Codes, uint32(code))
	}
	return m
}

// NewStreamRecordMsg converts a decoded stream record.
func NewStreamRecordMsg(device string, info *host.StreamInfo, rec *host.StreamRecord) *StreamRecordMsg {
	m := &StreamRecordMsg{Device: device, StreamId: uint32(rec.StreamID)}
	for _, t := range info.FieldTypes {
		m.FieldTypes = append(m.FieldTypes, t.String())
	}
	for _, entry := range rec.Entries {
		e := &StreamEntryMsg{Values: make([]float64, len(entry))}
		for n, v := range entry {
			e.Values[n] = toFloat64(v)
		}
		m.Entries = append(m.Entries, e)
	}
	return m
}

func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case float32:
		return float64(val)
	case int32:
		return float64(val)
	case uint32:
		return float64(val)
	case int16:
		return float64(val)
	case uint16:
		return float64(val)
	case uint8:
		return float64(val)
	}
	return 0
}

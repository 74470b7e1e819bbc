package host

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/dbglink/pkg/dbg/wire"
)

// DefaultTimeout is the default reply timeout.
const DefaultTimeout = time.Second

// ErrorLog is the content of the device error log.
type ErrorLog struct {
	Version byte
	Codes   []uint16
}

// Recorded returns the non-zero codes.
func (l *ErrorLog) Recorded() []uint16 {
	codes := make([]uint16, 0, len(l.Codes))
	for _, code := range l.Codes {
		if code != 0 {
			codes = append(codes, code)
		}
	}
	return codes
}

// BufferProperties is the reply to read-buffer-properties.
type BufferProperties struct {
	Count    int
	Capacity int
}

// BufferData is the content of a sample buffer.
type BufferData struct {
	Index  int
	Type   wire.DataType
	Values []interface{}
}

// StreamInfo describes the stream subscribed by StartStreaming.
type StreamInfo struct {
	wire.StreamProperties
	FieldTypes []wire.DataType
}

// EntrySize returns the packed size of one entry.
func (s *StreamInfo) EntrySize() int {
	size := 0
	for _, t := range s.FieldTypes {
		size += t.Width()
	}
	return size
}

// StreamRecord is one decoded stream message.
type StreamRecord struct {
	StreamID byte
	// Entries holds EntriesPerMessage entries of typed field values.
	Entries [][]interface{}
}

type deadliner interface {
	SetDeadline(time.Time) error
}

// Client talks to a device over a byte stream.
type Client struct {
	ReadWriter io.ReadWriter
	Timeout    time.Duration

	stream *StreamInfo
	lock   sync.Mutex
}

// NewClient creates a Client.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{ReadWriter: rw, Timeout: DefaultTimeout}
}

// Stream returns the subscribed stream, nil if not streaming.
func (c *Client) Stream() *StreamInfo {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.stream
}

// Connect establishes the connection.
func (c *Client) Connect() error {
	return c.simple(wire.OpConnect)
}

// Disconnect closes the connection.
func (c *Client) Disconnect() error {
	return c.simple(wire.OpDisconnect)
}

// KeepAlive checks the device considers the host connected.
func (c *Client) KeepAlive() error {
	return c.simple(wire.OpKeepAlive)
}

// Generic sends generic request k.
func (c *Client) Generic(k int) error {
	if k < 0 || k >= wire.GenericRequests {
		return fmt.Errorf("generic request %d out of range [0, %d)", k, wire.GenericRequests)
	}
	return c.simple(wire.GenericOp(k))
}

// ReadErrorLog reads the whole error log.
func (c *Client) ReadErrorLog() (*ErrorLog, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	op := wire.OpReadErrorLog
	reply, err := c.request(op, wire.ErrorLogPropertiesSize)
	if err != nil {
		return nil, err
	}
	depth, version, err := wire.DecodeErrorLogProperties(reply)
	if err != nil {
		return nil, &ReplyError{Op: op, Err: err}
	}
	data := make([]byte, int(depth)*2)
	if err = c.readFull(data); err != nil {
		return nil, err
	}
	values, _ := wire.DecodeValues(wire.U16, data)
	log := &ErrorLog{Version: version, Codes: make([]uint16, len(values))}
	for n, v := range values {
		log.Codes[n] = v.(uint16)
	}
	return log, nil
}

// ReadBufferProperties reads the number of buffers and their capacity.
func (c *Client) ReadBufferProperties() (props BufferProperties, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.readBufferProperties()
}

func (c *Client) readBufferProperties() (props BufferProperties, err error) {
	op := wire.OpReadBufferProperties
	reply, err := c.request(op, wire.BufferPropertiesSize)
	if err != nil {
		return
	}
	count, capacity, err := wire.DecodeBufferProperties(reply)
	if err != nil {
		return props, &ReplyError{Op: op, Err: err}
	}
	return BufferProperties{Count: int(count), Capacity: int(capacity)}, nil
}

// ReadBuffer reads buffer index holding capacity elements, as returned
// by ReadBufferProperties.
func (c *Client) ReadBuffer(index, capacity int) (*BufferData, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.readBuffer(index, capacity)
}

func (c *Client) readBuffer(index, capacity int) (*BufferData, error) {
	if index < 0 || index >= wire.MaxBufferSlots {
		return nil, fmt.Errorf("buffer index %d out of range [0, %d)", index, wire.MaxBufferSlots)
	}
	op := wire.ReadBufferOp(index)
	if _, err := c.request(op, wire.ReplySize); err != nil {
		return nil, err
	}
	desc := make([]byte, wire.BufferDescriptorSize)
	if err := c.readFull(desc); err != nil {
		return nil, err
	}
	typ, err := wire.DecodeBufferDescriptor(desc, op)
	if err != nil {
		return nil, &ReplyError{Op: op, Err: err}
	}
	if !typ.IsValid() {
		return nil, &ReplyError{Op: op, Err: fmt.Errorf("invalid data type %v", typ)}
	}
	data := make([]byte, capacity*typ.Width())
	if err = c.readFull(data); err != nil {
		return nil, err
	}
	values, err := wire.DecodeValues(typ, data)
	if err != nil {
		return nil, &ReplyError{Op: op, Err: err}
	}
	return &BufferData{Index: index, Type: typ, Values: values}, nil
}

// ReadAllBuffers reads the buffer properties and then every buffer.
func (c *Client) ReadAllBuffers() ([]*BufferData, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	props, err := c.readBufferProperties()
	if err != nil {
		return nil, err
	}
	buffers := make([]*BufferData, 0, props.Count)
	for n := 0; n < props.Count; n++ {
		data, err := c.readBuffer(n, props.Capacity)
		if err != nil {
			return buffers, fmt.Errorf("buffer %d: %w", n, err)
		}
		buffers = append(buffers, data)
	}
	return buffers, nil
}

// StartStreaming subscribes to the registered stream.
func (c *Client) StartStreaming() (*StreamInfo, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	op := wire.OpStartStreaming
	if _, err := c.request(op, wire.ReplySize); err != nil {
		return nil, err
	}
	b := make([]byte, wire.StreamPropertiesSize)
	if err := c.readFull(b); err != nil {
		return nil, err
	}
	props, err := wire.DecodeStreamProperties(b)
	if err != nil {
		return nil, &ReplyError{Op: op, Err: err}
	}
	if props.ID == 0 {
		return nil, ErrNoStream
	}
	size := int(props.FieldCount)
	if size < wire.MinFieldTypesSize {
		size = wire.MinFieldTypesSize
	}
	b = make([]byte, size)
	if err = c.readFull(b); err != nil {
		return nil, err
	}
	info := &StreamInfo{StreamProperties: props, FieldTypes: make([]wire.DataType, props.FieldCount)}
	for n := range info.FieldTypes {
		if info.FieldTypes[n] = wire.DataType(b[n]); !info.FieldTypes[n].IsValid() {
			return nil, &ReplyError{Op: op, Err: fmt.Errorf("field %d: invalid data type %v", n, info.FieldTypes[n])}
		}
	}
	c.stream = info
	glog.V(2).Infof("streaming %d: %d fields, %d entries, %d bytes",
		props.ID, props.FieldCount, props.EntriesPerMessage, props.MessageSize)
	return info, nil
}

// StopStreaming unsubscribes from the stream.
func (c *Client) StopStreaming() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, err := c.request(wire.OpStopStreaming, wire.ReplySize); err != nil {
		return err
	}
	c.stream = nil
	return nil
}

// ReadStreamRecord waits for the next stream record. It returns
// ErrTimeout if none arrives within the stream timeout.
func (c *Client) ReadStreamRecord() (*StreamRecord, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	info := c.stream
	if info == nil {
		return nil, ErrNotStreaming
	}
	timeout := time.Duration(info.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = c.Timeout
	}
	deadline := time.Now().Add(timeout)
	c.setDeadline(deadline)
	head := make([]byte, wire.StreamMessageStartSize)
	if err := c.readUntil(head, deadline); err != nil {
		return nil, err
	}
	for !wire.IsStreamMessageStart(head) {
		// resync one byte at a time
		copy(head, head[1:])
		if err := c.readUntil(head[len(head)-1:], deadline); err != nil {
			return nil, err
		}
	}
	msg := make([]byte, info.MessageSize)
	if err := c.readUntil(msg, deadline); err != nil {
		return nil, err
	}
	return info.Decode(msg), nil
}

// Decode decodes a stream message into entries.
func (s *StreamInfo) Decode(msg []byte) *StreamRecord {
	rec := &StreamRecord{StreamID: s.ID}
	size := s.EntrySize()
	if size == 0 {
		return rec
	}
	for n := 0; n < int(s.EntriesPerMessage) && (n+1)*size <= len(msg); n++ {
		entry := make([]interface{}, len(s.FieldTypes))
		off := n * size
		for i, t := range s.FieldTypes {
			entry[i] = wire.DecodeValue(t, msg[off:])
			off += t.Width()
		}
		rec.Entries = append(rec.Entries, entry)
	}
	return rec
}

func (c *Client) simple(op wire.Opcode) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	_, err := c.request(op, wire.ReplySize)
	return err
}

// request writes op and reads a reply of size bytes. A 3 byte reply must
// be an ACK, any reply may be a NACK.
func (c *Client) request(op wire.Opcode, size int) ([]byte, error) {
	deadline := time.Now().Add(c.Timeout)
	c.setDeadline(deadline)
	req := wire.Request(op)
	glog.V(4).Infof("TX % x", req)
	if _, err := c.ReadWriter.Write(req); err != nil {
		return nil, err
	}
	reply := make([]byte, size)
	for {
		if err := c.readUntil(reply[:wire.ReplySize], deadline); err != nil {
			return nil, err
		}
		if !wire.IsStreamMessageStart(reply) || c.stream == nil {
			break
		}
		// skip a stream record sent before the reply
		if err := c.readUntil(make([]byte, c.stream.MessageSize), deadline); err != nil {
			return nil, err
		}
	}
	if !wire.HasPrefix(reply) {
		return nil, &ReplyError{Op: op, Err: wire.ErrBadPrefix}
	}
	if wire.IsNACK(reply) {
		return nil, ErrNack
	}
	if size == wire.ReplySize {
		if !wire.IsACK(reply) {
			return nil, &ReplyError{Op: op, Err: &wire.UnexpectedCodeError{Expected: wire.ACK()[2], Actual: reply[2]}}
		}
		return reply, nil
	}
	if err := c.readUntil(reply[wire.ReplySize:], deadline); err != nil {
		return nil, err
	}
	glog.V(4).Infof("RX % x", reply)
	return reply, nil
}

func (c *Client) readFull(buf []byte) error {
	deadline := time.Now().Add(c.Timeout)
	c.setDeadline(deadline)
	return c.readUntil(buf, deadline)
}

// readUntil fills buf. Ports configured with a read timeout return no
// data instead of blocking, others time out through SetDeadline.
func (c *Client) readUntil(buf []byte, deadline time.Time) error {
	for n := 0; n < len(buf); {
		r, err := c.ReadWriter.Read(buf[n:])
		n += r
		if err != nil {
			if os.IsTimeout(err) {
				return ErrTimeout
			}
			return err
		}
		if r == 0 && time.Now().After(deadline) {
			return ErrTimeout
		}
	}
	return nil
}

func (c *Client) setDeadline(t time.Time) {
	if d, ok := c.ReadWriter.(deadliner); ok {
		d.SetDeadline(t)
	}
}

package ws

import (
	"time"

	"golang.org/x/net/websocket"
)

// DefaultOrigin is used by Dial.
const DefaultOrigin = "http://localhost/"

// Conn exchanges one frame per websocket message.
type Conn websocket.Conn

// NewConn wraps websocket.Conn.
func NewConn(conn *websocket.Conn) *Conn {
	return (*Conn)(conn)
}

// Dial connects to a device served by Server, e.g. ws://host:port/dbg.
func Dial(url string) (*Conn, error) {
	conn, err := websocket.Dial(url, "", DefaultOrigin)
	if err != nil {
		return nil, err
	}
	return NewConn(conn), nil
}

// ReadFrame receives one frame.
func (c *Conn) ReadFrame() (frame []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(c), &frame)
	return
}

// WriteFrame sends one frame.
func (c *Conn) WriteFrame(frame []byte) error {
	return websocket.Message.Send((*websocket.Conn)(c), frame)
}

// Read implements io.Reader, the frames are read as a byte stream.
func (c *Conn) Read(p []byte) (int, error) {
	return (*websocket.Conn)(c).Read(p)
}

// Write implements io.Writer, each call is sent as one frame.
func (c *Conn) Write(p []byte) (int, error) {
	if err := c.WriteFrame(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close implements io.Closer.
func (c *Conn) Close() error {
	return (*websocket.Conn)(c).Close()
}

// SetDeadline sets read and write deadlines.
func (c *Conn) SetDeadline(t time.Time) error {
	return (*websocket.Conn)(c).SetDeadline(t)
}

// Package host is the host side of the debug protocol.
package host

// The device never initiates a conversation except for stream records, so
// the client is strictly request/reply: one request is written and its
// reply is read before the next request. Replies are framed by their
// known sizes rather than by line idle, which makes the client usable
// over both a serial port and a websocket byte stream.
//
// Stream records may arrive before a reply. They are recognized by the
// stream-message-start marker and skipped while a reply is expected.

// Package wire defines the byte layout of the debug protocol.
//
// Every message in either direction starts with the two marker bytes
// 0xAA 0x55. A request is the marker followed by a single opcode byte.
// Replies are either a 3-byte ACK/NACK or a fixed-size header, which may
// be followed by a raw payload sent as a separate message (error log
// array, buffer memory, stream field types, stream records).
//
// Multi-byte integers are little-endian.
//
// Producer: device (protocol engine)
// Consumer: host tooling
package wire

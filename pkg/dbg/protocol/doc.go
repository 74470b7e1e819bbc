// Package protocol implements the device side of the debug protocol.
package protocol

// The engine receives one complete request per frame, validates the
// marker and dispatches on the opcode. Replies are pushed through the
// transmit queue in the order the host reads them; a request may
// produce up to three messages.
//
// Connection state is advisory: it only decides whether a keep-alive
// is acknowledged, so the host can detect an unexpected device reset.

package host

import (
	"errors"
	"fmt"

	"github.com/robotalks/dbglink/pkg/dbg/wire"
)

var (
	// ErrNack indicates the device replied NACK.
	ErrNack = errors.New("nack")
	// ErrTimeout indicates no reply received in time.
	ErrTimeout = errors.New("timeout")
	// ErrNoStream indicates the device has no stream registered.
	ErrNoStream = errors.New("no stream registered")
	// ErrNotStreaming indicates StartStreaming was not successful.
	ErrNotStreaming = errors.New("not streaming")
)

// ReplyError wraps a malformed reply.
type ReplyError struct {
	Op  wire.Opcode
	Err error
}

// Error implements error.
func (e *ReplyError) Error() string {
	return fmt.Sprintf("reply to 0x%02x: %v", byte(e.Op), e.Err)
}

// Unwrap returns the cause.
func (e *ReplyError) Unwrap() error {
	return e.Err
}

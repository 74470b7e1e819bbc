package dbg

import (
	"fmt"

	"github.com/robotalks/dbglink/pkg/dbg/wire"
)

// Config sizes the debug subsystem.
type Config struct {
	ErrorLogDepth   int
	ErrorLogVersion byte
	BufferCapacity  int
	MaxBuffers      int
	MaxStreamFields int
	TxQueueLength   int
}

// DefaultConfig returns the default sizing.
func DefaultConfig() Config {
	return Config{
		ErrorLogDepth:   64,
		ErrorLogVersion: 1,
		BufferCapacity:  64,
		MaxBuffers:      32,
		MaxStreamFields: 32,
		TxQueueLength:   6,
	}
}

// Validate checks every message fits a single transfer with a u16 length
// and the buffer opcodes fit their range.
func (c *Config) Validate() error {
	switch {
	case c.ErrorLogDepth < 1 || c.ErrorLogDepth > 0xffff/2:
		return fmt.Errorf("error log depth %d out of range [1, %d]", c.ErrorLogDepth, 0xffff/2)
	case c.BufferCapacity < 1 || c.BufferCapacity > 0xffff/4:
		return fmt.Errorf("buffer capacity %d out of range [1, %d]", c.BufferCapacity, 0xffff/4)
	case c.MaxBuffers < 1 || c.MaxBuffers > wire.MaxBufferSlots:
		return fmt.Errorf("max buffers %d out of range [1, %d]", c.MaxBuffers, wire.MaxBufferSlots)
	case c.MaxStreamFields < 1 || c.MaxStreamFields > 255:
		return fmt.Errorf("max stream fields %d out of range [1, 255]", c.MaxStreamFields)
	case c.TxQueueLength < 1:
		return fmt.Errorf("tx queue length must be positive")
	}
	return nil
}

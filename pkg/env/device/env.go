// Package device configures a simulated device.
package device

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.bug.st/serial"

	"github.com/robotalks/dbglink/pkg/dbg"
	"github.com/robotalks/dbglink/pkg/dbg/protocol"
	"github.com/robotalks/dbglink/pkg/dbg/txq"
	fx "github.com/robotalks/dbglink/pkg/framework"
	"github.com/robotalks/dbglink/pkg/transport/uart"
	"github.com/robotalks/dbglink/pkg/transport/ws"
)

// Config provides options of a simulated device.
type Config struct {
	dbg.Config

	// Port is the serial port to serve on.
	Port string
	Baud int
	// WSAddr serves over websocket instead of Port, e.g. :8660.
	WSAddr      string
	IdleTimeout time.Duration
}

// Link is the transport a device is attached to.
type Link interface {
	txq.Transport
	fx.Runnable
	fx.Named
}

var defaultConfig = Config{
	Config:      dbg.DefaultConfig(),
	Baud:        uart.DefaultBaudRate,
	IdleTimeout: uart.DefaultIdleTimeout,
}

func init() {
	if val := os.Getenv("DBGLINK_PORT"); val != "" {
		defaultConfig.Port = val
	}
	if val := os.Getenv("DBGLINK_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil {
			defaultConfig.Baud = baud
		}
	}
	if val := os.Getenv("DBGLINK_WS_ADDR"); val != "" {
		defaultConfig.WSAddr = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial port to serve on.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial port baud rate.")
	flag.StringVar(&defaultConfig.WSAddr, "ws", defaultConfig.WSAddr, "Serve over websocket on this address, overrides -port.")
	flag.DurationVar(&defaultConfig.IdleTimeout, "idle", defaultConfig.IdleTimeout, "Line idle time ending a received frame.")
	flag.IntVar(&defaultConfig.ErrorLogDepth, "errlog-depth", defaultConfig.ErrorLogDepth, "Error log depth.")
	flag.IntVar(&defaultConfig.BufferCapacity, "buffer-cap", defaultConfig.BufferCapacity, "Capacity of each sample buffer.")
	flag.IntVar(&defaultConfig.MaxBuffers, "max-buffers", defaultConfig.MaxBuffers, "Max number of sample buffers.")
	flag.IntVar(&defaultConfig.TxQueueLength, "txq-len", defaultConfig.TxQueueLength, "Transmit queue length.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

type portLink struct {
	*uart.Transport
	port serial.Port
}

func (l *portLink) Run(ctx context.Context) error {
	defer l.port.Close()
	return l.Transport.Run(ctx)
}

// NewSubsystem composes a Subsystem attached to the configured link.
func (c *Config) NewSubsystem(hooks protocol.Hooks) (*dbg.Subsystem, Link, error) {
	if c.WSAddr != "" {
		srv := ws.NewServer(c.WSAddr)
		sub, err := dbg.New(c.Config, srv, hooks)
		if err != nil {
			return nil, nil, err
		}
		srv.Attach(sub)
		return sub, srv, nil
	}
	if c.Port == "" {
		return nil, nil, fmt.Errorf("serial port or websocket address must be specified")
	}
	port, err := uart.Open(c.Port, c.Baud)
	if err != nil {
		return nil, nil, err
	}
	tr := uart.New(port)
	tr.IdleTimeout = c.IdleTimeout
	sub, err := dbg.New(c.Config, tr, hooks)
	if err != nil {
		port.Close()
		return nil, nil, err
	}
	tr.Attach(sub)
	return sub, &portLink{Transport: tr, port: port}, nil
}

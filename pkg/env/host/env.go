// Package host configures host side programs connecting a device.
package host

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/dbglink/pkg/env"
	"github.com/robotalks/dbglink/pkg/host"
	"github.com/robotalks/dbglink/pkg/transport/uart"
	"github.com/robotalks/dbglink/pkg/transport/ws"
)

// Config provides options to connect a device.
type Config struct {
	// Port is the serial port name, e.g. /dev/ttyUSB0.
	Port string
	Baud int
	// WSURL connects the device over websocket instead of Port,
	// e.g. ws://localhost:8660/dbg.
	WSURL   string
	Timeout time.Duration

	// MQTTURL is the broker to publish to,
	// e.g. mqtt://host:port/topic-prefix/
	MQTTURL string
	// Device names the device in MQTT topics.
	Device string
}

var defaultConfig = Config{
	Baud:    uart.DefaultBaudRate,
	Timeout: host.DefaultTimeout,
	MQTTURL: "mqtt://localhost:1883/dbglink/",
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
	if val := os.Getenv("DBGLINK_WS_URL"); val != "" {
		defaultConfig.WSURL = val
	}
	if val := os.Getenv("DBGLINK_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
	defaultConfig.Device = os.Getenv("DBGLINK_DEVICE")
}

// SetupFlags sets up flags to connect a device.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial port of the device.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial port baud rate.")
	flag.StringVar(&defaultConfig.WSURL, "ws", defaultConfig.WSURL, "Websocket URL of the device, overrides -port.")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Reply timeout.")
}

// SetupMQTTFlags sets up flags to publish to MQTT.
func SetupMQTTFlags() {
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL.")
	flag.StringVar(&defaultConfig.Device, "device", defaultConfig.Device, "Device name in topics, default to machine id.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// DeviceName returns Device or the machine id.
func (c *Config) DeviceName() string {
	if c.Device != "" {
		return c.Device
	}
	return env.MachineID()
}

// Open opens the byte stream to the device.
func (c *Config) Open() (io.ReadWriteCloser, error) {
	if c.WSURL != "" {
		glog.Infof("connecting %s", c.WSURL)
		return ws.Dial(c.WSURL)
	}
	if c.Port == "" {
		return nil, fmt.Errorf("serial port or websocket URL must be specified")
	}
	glog.Infof("opening %s at %d", c.Port, c.Baud)
	return uart.Open(c.Port, c.Baud)
}

// Connect opens the device and returns a client over it. The closer
// closes the underlying stream.
func (c *Config) Connect() (*host.Client, io.Closer, error) {
	rw, err := c.Open()
	if err != nil {
		return nil, nil, err
	}
	client := host.NewClient(rw)
	client.Timeout = c.Timeout
	return client, rw, nil
}

// MustConnect connects or fails.
func (c *Config) MustConnect() (*host.Client, io.Closer) {
	client, closer, err := c.Connect()
	if err != nil {
		log.Fatalln(err)
	}
	return client, closer
}

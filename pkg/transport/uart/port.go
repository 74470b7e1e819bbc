package uart

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the device UART baud rate.
const DefaultBaudRate = 500000

// PortReadTimeout bounds a single read on an opened port.
const PortReadTimeout = time.Millisecond

// Open opens a serial port with 8N1 framing.
func Open(name string, baudRate int) (serial.Port, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	if err = port.SetReadTimeout(PortReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}
	return port, nil
}

// Ports lists available serial ports.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

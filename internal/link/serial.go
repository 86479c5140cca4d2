package link

import (
	"fmt"
	"io"
	"time"

	"github.com/goburrow/serial"
)

// Port is the byte stream to the microcontroller. Reads return
// serial.ErrTimeout (or zero bytes) when nothing arrives within the read timeout.
type Port interface {
	io.ReadWriteCloser
}

// SerialOptions describes the UART settings.
type SerialOptions struct {
	Device      string
	BaudRate    int
	ReadTimeout time.Duration
}

// OpenSerial opens the UART in 8N1 mode.
func OpenSerial(opts SerialOptions) (Port, error) {
	port, err := serial.Open(&serial.Config{
		Address:  opts.Device,
		BaudRate: opts.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  opts.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", opts.Device, err)
	}
	return port, nil
}

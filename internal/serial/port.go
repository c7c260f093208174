package serial

import (
	"time"

	"github.com/tarm/serial"
)

// Port abstracts tarm/serial so tests can substitute fakes.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Open opens the adapter's UART with a bounded read timeout so the RX loop
// can observe shutdown.
func Open(name string, baud int, readTimeout time.Duration) (Port, error) {
	cfg := &serial.Config{Name: name, Baud: baud, ReadTimeout: readTimeout}
	return serial.OpenPort(cfg)
}

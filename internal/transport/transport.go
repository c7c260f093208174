package transport

import "github.com/canlink/slcan-gateway/internal/can"

// FrameSink is a generic CAN frame transmission target. Both bus backends
// expose their TX writers through it.
type FrameSink interface {
	SendFrame(can.Frame) error
}

// SendFunc adapts a bare function to a frame sender.
type SendFunc func(can.Frame) error

func (f SendFunc) SendFrame(fr can.Frame) error { return f(fr) }

// Package can holds the driver-facing CAN frame model used across the
// gateway. Frames are transient stack values; nothing here allocates.
package can

import (
	"errors"
	"fmt"
)

// MaxDataLen is the classic CAN payload capacity.
const MaxDataLen = 8

// ErrDLC is returned when a length code or payload exceeds MaxDataLen.
var ErrDLC = errors.New("can: invalid DLC")

// Frame is the peripheral-facing CAN frame. A remote frame reports the
// requested length via DLC but carries no payload bytes; a data frame with
// DLC 0 is legal and distinct from a remote frame.
type Frame struct {
	id     Identifier
	data   [MaxDataLen]byte
	dlc    uint8
	remote bool
}

// NewDataFrame builds a data frame from id and payload. The payload is
// copied into the frame's fixed buffer; construction fails if it does not
// fit. An empty payload yields a zero-length data frame.
func NewDataFrame(id Identifier, payload []byte) (Frame, error) {
	if len(payload) > MaxDataLen {
		return Frame{}, fmt.Errorf("%w: payload %d bytes", ErrDLC, len(payload))
	}
	f := Frame{id: id, dlc: uint8(len(payload))}
	copy(f.data[:], payload)
	return f, nil
}

// NewRemoteFrame builds a remote-request frame for the given length.
func NewRemoteFrame(id Identifier, length uint8) (Frame, error) {
	if length > MaxDataLen {
		return Frame{}, fmt.Errorf("%w: remote length %d", ErrDLC, length)
	}
	return Frame{id: id, dlc: length, remote: true}, nil
}

func (f Frame) ID() Identifier { return f.id }
func (f Frame) IsRemote() bool { return f.remote }
func (f Frame) DLC() uint8     { return f.dlc }

// Data returns the valid payload bytes. Nil for remote frames.
func (f Frame) Data() []byte {
	if f.remote {
		return nil
	}
	return f.data[:f.dlc]
}

// WireID packs the identifier and frame kind into a SocketCAN-style can_id
// word (EFF/RTR flags in the upper bits).
func (f Frame) WireID() uint32 {
	id := f.id.Raw()
	if f.id.Kind() == ExtendedID {
		id |= CAN_EFF_FLAG
	}
	if f.remote {
		id |= CAN_RTR_FLAG
	}
	return id
}

// FromWire rebuilds a Frame from a SocketCAN-style can_id word, a length
// code and payload bytes. Error frames are rejected; for remote frames the
// payload bytes are ignored and dlc is the requested length.
func FromWire(canID uint32, dlc uint8, data []byte) (Frame, error) {
	if canID&CAN_ERR_FLAG != 0 {
		return Frame{}, errors.New("can: error frame")
	}
	var id Identifier
	var err error
	if canID&CAN_EFF_FLAG != 0 {
		id, err = NewExtendedID(canID & CAN_EFF_MASK)
	} else {
		id, err = NewStandardID(canID & CAN_SFF_MASK)
	}
	if err != nil {
		return Frame{}, err
	}
	if canID&CAN_RTR_FLAG != 0 {
		return NewRemoteFrame(id, dlc)
	}
	if int(dlc) > len(data) {
		return Frame{}, fmt.Errorf("%w: dlc %d exceeds %d payload bytes", ErrDLC, dlc, len(data))
	}
	if dlc > MaxDataLen {
		return Frame{}, fmt.Errorf("%w: %d", ErrDLC, dlc)
	}
	return NewDataFrame(id, data[:dlc])
}

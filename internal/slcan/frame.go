// Package slcan implements the serial-line CAN (SLCAN) frame model and its
// ASCII line grammar: one marker letter (t/T for data, r/R for remote,
// uppercase for extended identifiers), a zero-padded hex identifier, one hex
// DLC digit, the hex payload for data frames and a carriage-return
// terminator.
package slcan

import (
	"errors"
	"fmt"
)

// Identifier bounds per kind.
const (
	MaxStandardID = 0x7FF
	MaxExtendedID = 0x1FFFFFFF
)

// MaxDataLen is the classic CAN payload capacity.
const MaxDataLen = 8

// IDKind selects between the two identifier widths.
type IDKind uint8

const (
	StandardID IDKind = iota // 11-bit, 3 hex digits on the wire
	ExtendedID               // 29-bit, 8 hex digits on the wire
)

// ErrIDRange is returned when a raw identifier exceeds its kind's bit width.
var ErrIDRange = errors.New("slcan: identifier out of range")

// ErrDLC is returned when a length code or payload exceeds MaxDataLen.
var ErrDLC = errors.New("slcan: invalid DLC")

// Identifier is a range-checked identifier in the protocol's own identifier
// space. It is validated independently of the driver-side identifier type.
type Identifier struct {
	raw  uint32
	kind IDKind
}

// NewStandardID builds an 11-bit identifier. Fails for raw > 0x7FF.
func NewStandardID(raw uint32) (Identifier, error) {
	if raw > MaxStandardID {
		return Identifier{}, fmt.Errorf("%w: standard 0x%X", ErrIDRange, raw)
	}
	return Identifier{raw: raw, kind: StandardID}, nil
}

// NewExtendedID builds a 29-bit identifier. Fails for raw > 0x1FFFFFFF.
func NewExtendedID(raw uint32) (Identifier, error) {
	if raw > MaxExtendedID {
		return Identifier{}, fmt.Errorf("%w: extended 0x%X", ErrIDRange, raw)
	}
	return Identifier{raw: raw, kind: ExtendedID}, nil
}

func (id Identifier) Kind() IDKind { return id.kind }
func (id Identifier) Raw() uint32  { return id.raw }

// Frame is the protocol-facing CAN frame, the authoritative shape for ASCII
// rendering. It is structurally isomorphic to the driver frame but enforces
// its own length/payload consistency.
type Frame struct {
	id     Identifier
	data   [MaxDataLen]byte
	dlc    uint8
	remote bool
}

// NewDataFrame builds a data frame. An empty payload is a legal zero-length
// data frame, not a remote frame.
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

package can

import (
	"errors"
	"fmt"
)

// SocketCAN flag bits for can_id (same values as <linux/can.h>)
const (
	CAN_EFF_FLAG = 0x80000000
	CAN_RTR_FLAG = 0x40000000
	CAN_ERR_FLAG = 0x20000000
	CAN_SFF_MASK = 0x7FF
	CAN_EFF_MASK = 0x1FFFFFFF
)

// IDKind selects between the two CAN identifier widths.
type IDKind uint8

const (
	StandardID IDKind = iota // 11-bit
	ExtendedID               // 29-bit
)

func (k IDKind) String() string {
	if k == ExtendedID {
		return "extended"
	}
	return "standard"
}

// ErrIDRange is returned when a raw identifier exceeds its kind's bit width.
var ErrIDRange = errors.New("can: identifier out of range")

// Identifier is a range-checked CAN identifier. The zero value is the
// standard identifier 0. The raw value never exceeds the width of its kind;
// constructors reject out-of-range values instead of truncating.
type Identifier struct {
	raw  uint32
	kind IDKind
}

// NewStandardID builds an 11-bit identifier. Fails for raw > 0x7FF.
func NewStandardID(raw uint32) (Identifier, error) {
	if raw > CAN_SFF_MASK {
		return Identifier{}, fmt.Errorf("%w: standard 0x%X", ErrIDRange, raw)
	}
	return Identifier{raw: raw, kind: StandardID}, nil
}

// NewExtendedID builds a 29-bit identifier. Fails for raw > 0x1FFFFFFF.
func NewExtendedID(raw uint32) (Identifier, error) {
	if raw > CAN_EFF_MASK {
		return Identifier{}, fmt.Errorf("%w: extended 0x%X", ErrIDRange, raw)
	}
	return Identifier{raw: raw, kind: ExtendedID}, nil
}

func (id Identifier) Kind() IDKind { return id.kind }
func (id Identifier) Raw() uint32  { return id.raw }

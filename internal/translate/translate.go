// Package translate is the only place that converts between the
// driver-side and protocol-side frame representations. Conversions are
// pure, allocation-free and best-effort partial: a frame that violates the
// destination representation's invariants yields an error and the caller
// drops it. Nothing here panics on well-typed input.
package translate

import (
	"fmt"

	"github.com/canlink/slcan-gateway/internal/can"
	"github.com/canlink/slcan-gateway/internal/slcan"
)

// ToProtocolID converts a driver identifier into the protocol identifier
// space. Both spaces share the same legal ranges, so failure here means the
// value was already invalid; the check is defensive.
func ToProtocolID(id can.Identifier) (slcan.Identifier, error) {
	if id.Kind() == can.ExtendedID {
		return slcan.NewExtendedID(id.Raw())
	}
	return slcan.NewStandardID(id.Raw())
}

// ToDriverID is the inverse of ToProtocolID.
func ToDriverID(id slcan.Identifier) (can.Identifier, error) {
	if id.Kind() == slcan.ExtendedID {
		return can.NewExtendedID(id.Raw())
	}
	return can.NewStandardID(id.Raw())
}

// ToProtocol converts a driver frame into a protocol frame, preserving
// identifier kind and value, frame kind, DLC and payload bytes exactly.
// A data frame whose driver side exposes no payload bytes converts to a
// zero-length protocol data frame; it is never reinterpreted as remote.
func ToProtocol(f can.Frame) (slcan.Frame, error) {
	id, err := ToProtocolID(f.ID())
	if err != nil {
		return slcan.Frame{}, fmt.Errorf("translate id: %w", err)
	}
	if f.IsRemote() {
		return slcan.NewRemoteFrame(id, f.DLC())
	}
	return slcan.NewDataFrame(id, f.Data())
}

// ToDriver converts a protocol frame into a driver frame. Construction
// fails if the payload cannot be packed into the driver frame's fixed
// buffer.
func ToDriver(f slcan.Frame) (can.Frame, error) {
	id, err := ToDriverID(f.ID())
	if err != nil {
		return can.Frame{}, fmt.Errorf("translate id: %w", err)
	}
	if f.IsRemote() {
		return can.NewRemoteFrame(id, f.DLC())
	}
	return can.NewDataFrame(id, f.Data())
}

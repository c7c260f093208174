// Package serial drives a UART-attached CAN adapter. The adapter speaks a
// small binary framing:
//
//	[0xAA, 0x55, hdr, id(4, BE), payload(0..8), checksum]
//
// hdr carries the extended-ID bit (0x80), the remote bit (0x40) and the DLC
// in the low nibble. Remote frames put the requested length in the DLC but
// carry no payload bytes. checksum is the additive sum of hdr, the id bytes
// and the payload, mod 256.
package serial

import (
	"bytes"
	"encoding/binary"

	"github.com/canlink/slcan-gateway/internal/can"
	"github.com/canlink/slcan-gateway/internal/metrics"
)

type Codec struct{}

const (
	pre0 = 0xAA
	pre1 = 0x55

	hdrExtended = 0x80
	hdrRemote   = 0x40
	hdrDLCMask  = 0x0F

	// preamble(2) + hdr(1) + id(4) + checksum(1)
	minWire = 8
)

// CompactBuffer reclaims consumed prefix capacity when the accumulation
// buffer grows large relative to unread bytes. Returns true if compaction
// occurred. Thresholds chosen to avoid excessive copying.
func CompactBuffer(b *bytes.Buffer) bool {
	data := b.Bytes()
	if len(data) < 1024 {
		return false
	}
	if cap(data) > 0 && len(data)*4 < cap(data) {
		clone := make([]byte, len(data))
		copy(clone, data)
		b.Reset()
		_, _ = b.Write(clone)
		return true
	}
	return false
}

// Encode renders one frame in the adapter's wire format.
func (Codec) Encode(f can.Frame) []byte {
	data := f.Data()
	wire := make([]byte, minWire+len(data))
	wire[0] = pre0
	wire[1] = pre1
	hdr := f.DLC() & hdrDLCMask
	if f.ID().Kind() == can.ExtendedID {
		hdr |= hdrExtended
	}
	if f.IsRemote() {
		hdr |= hdrRemote
	}
	wire[2] = hdr
	binary.BigEndian.PutUint32(wire[3:7], f.ID().Raw())
	copy(wire[7:], data)

	sum := hdr
	for _, b := range wire[3 : 7+len(data)] {
		sum += b
	}
	wire[7+len(data)] = sum
	return wire
}

// DecodeStream drains all complete frames from in and emits them via out.
// Partial frames stay buffered for the next call; garbage is skipped by
// resyncing on the preamble. Returns nil when no fatal error occurred.
func (Codec) DecodeStream(in *bytes.Buffer, out func(can.Frame)) error {
	header := []byte{pre0, pre1}

	for {
		data := in.Bytes()
		// Periodically compact to avoid unbounded growth from misaligned garbage
		_ = CompactBuffer(in)
		if len(data) < 3 { // need preamble + hdr
			return nil
		}

		// align to preamble
		i := bytes.Index(data, header)
		if i < 0 {
			// keep last byte in case next chunk starts with the preamble's second byte
			if in.Len() > 1 {
				last := data[len(data)-1]
				in.Reset()
				_ = in.WriteByte(last)
			}
			return nil
		}
		if i > 0 {
			in.Next(i)
			continue
		}

		hdr := data[2]
		dlc := hdr & hdrDLCMask
		if dlc > can.MaxDataLen {
			metrics.IncMalformed()
			in.Next(1)
			continue
		}
		plen := int(dlc)
		if hdr&hdrRemote != 0 {
			plen = 0
		}
		req := minWire + plen
		if len(data) < req {
			return nil
		}

		sum := hdr
		for _, b := range data[3 : req-1] {
			sum += b
		}
		if sum != data[req-1] {
			metrics.IncMalformed()
			in.Next(1)
			continue
		}

		raw := binary.BigEndian.Uint32(data[3:7])
		wireID := raw
		if hdr&hdrExtended != 0 {
			wireID = (raw & can.CAN_EFF_MASK) | can.CAN_EFF_FLAG
		} else {
			wireID &= can.CAN_SFF_MASK
		}
		if hdr&hdrRemote != 0 {
			wireID |= can.CAN_RTR_FLAG
		}
		fr, err := can.FromWire(wireID, dlc, data[7:7+plen])
		if err != nil {
			metrics.IncMalformed()
			in.Next(1)
			continue
		}

		out(fr)
		metrics.IncCANRx()
		in.Next(req)
	}
}

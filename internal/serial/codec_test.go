package serial

import (
	"bytes"
	"testing"

	"github.com/canlink/slcan-gateway/internal/can"
)

func mkDataFrame(t *testing.T, raw uint32, ext bool, payload []byte) can.Frame {
	t.Helper()
	var (
		id  can.Identifier
		err error
	)
	if ext {
		id, err = can.NewExtendedID(raw)
	} else {
		id, err = can.NewStandardID(raw)
	}
	if err != nil {
		t.Fatalf("id 0x%X: %v", raw, err)
	}
	f, err := can.NewDataFrame(id, payload)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	return f
}

func mkRemoteFrame(t *testing.T, raw uint32, ext bool, length uint8) can.Frame {
	t.Helper()
	var (
		id  can.Identifier
		err error
	)
	if ext {
		id, err = can.NewExtendedID(raw)
	} else {
		id, err = can.NewStandardID(raw)
	}
	if err != nil {
		t.Fatalf("id 0x%X: %v", raw, err)
	}
	f, err := can.NewRemoteFrame(id, length)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	return f
}

func TestCodecRoundTrip(t *testing.T) {
	c := Codec{}
	frames := []can.Frame{
		mkDataFrame(t, 0x123, false, []byte{0xDE, 0xAD, 0xBE, 0xEF}),
		mkDataFrame(t, 0x7FF, false, nil),
		mkDataFrame(t, 0x1ABCDE, true, []byte{1, 2, 3, 4, 5, 6, 7, 8}),
		mkRemoteFrame(t, 0x456, false, 3),
		mkRemoteFrame(t, 0x1FFFFFFF, true, 8),
	}
	var in bytes.Buffer
	for _, f := range frames {
		in.Write(c.Encode(f))
	}
	var got []can.Frame
	if err := c.DecodeStream(&in, func(f can.Frame) { got = append(got, f) }); err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}
	if len(got) != len(frames) {
		t.Fatalf("decoded %d frames, want %d", len(got), len(frames))
	}
	for i, f := range frames {
		if got[i] != f {
			t.Fatalf("frame %d mismatch: got %+v want %+v", i, got[i], f)
		}
	}
	if in.Len() != 0 {
		t.Fatalf("%d bytes left unread", in.Len())
	}
}

// Frames split across arbitrary chunk boundaries must still decode once the
// tail arrives.
func TestCodecRoundTripChunked(t *testing.T) {
	c := Codec{}
	frames := []can.Frame{
		mkDataFrame(t, 0x100, false, []byte{0xAA}),
		mkDataFrame(t, 0x1ABCDE, true, []byte{1, 2, 3}),
		mkRemoteFrame(t, 0x200, false, 2),
	}
	var wire []byte
	for _, f := range frames {
		wire = append(wire, c.Encode(f)...)
	}
	for _, chunk := range []int{1, 2, 3, 5, 7} {
		var (
			in  bytes.Buffer
			got []can.Frame
		)
		for off := 0; off < len(wire); off += chunk {
			end := off + chunk
			if end > len(wire) {
				end = len(wire)
			}
			in.Write(wire[off:end])
			if err := c.DecodeStream(&in, func(f can.Frame) { got = append(got, f) }); err != nil {
				t.Fatalf("chunk %d: DecodeStream: %v", chunk, err)
			}
		}
		if len(got) != len(frames) {
			t.Fatalf("chunk %d: decoded %d frames, want %d", chunk, len(got), len(frames))
		}
		for i, f := range frames {
			if got[i] != f {
				t.Fatalf("chunk %d: frame %d mismatch", chunk, i)
			}
		}
	}
}

func TestCodecResyncAfterGarbage(t *testing.T) {
	c := Codec{}
	f := mkDataFrame(t, 0x321, false, []byte{0x42})
	var in bytes.Buffer
	in.Write([]byte{0x00, 0xFF, 0xAA, 0x13}) // junk, including a lone preamble byte
	in.Write(c.Encode(f))

	var got []can.Frame
	if err := c.DecodeStream(&in, func(fr can.Frame) { got = append(got, fr) }); err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}
	if len(got) != 1 || got[0] != f {
		t.Fatalf("decoded %v, want one copy of %+v", got, f)
	}
}

func TestCodecBadChecksumSkipped(t *testing.T) {
	c := Codec{}
	good := mkDataFrame(t, 0x111, false, []byte{9, 8, 7})
	bad := c.Encode(mkDataFrame(t, 0x222, false, []byte{1}))
	bad[len(bad)-1] ^= 0xFF

	var in bytes.Buffer
	in.Write(bad)
	in.Write(c.Encode(good))

	var got []can.Frame
	if err := c.DecodeStream(&in, func(fr can.Frame) { got = append(got, fr) }); err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}
	if len(got) != 1 || got[0] != good {
		t.Fatalf("decoded %v, want only the good frame", got)
	}
}

func TestCodecBadDLCSkipped(t *testing.T) {
	c := Codec{}
	good := mkDataFrame(t, 0x0AB, false, nil)
	var in bytes.Buffer
	// hdr with DLC nibble 9 is never legal
	in.Write([]byte{0xAA, 0x55, 0x09, 0, 0, 0, 0, 0})
	in.Write(c.Encode(good))

	var got []can.Frame
	if err := c.DecodeStream(&in, func(fr can.Frame) { got = append(got, fr) }); err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}
	if len(got) != 1 || got[0] != good {
		t.Fatalf("decoded %v, want only the good frame", got)
	}
}

func TestCodecPartialFrameStaysBuffered(t *testing.T) {
	c := Codec{}
	f := mkDataFrame(t, 0x123, false, []byte{1, 2, 3, 4})
	wire := c.Encode(f)

	var in bytes.Buffer
	in.Write(wire[:5])
	var got []can.Frame
	if err := c.DecodeStream(&in, func(fr can.Frame) { got = append(got, fr) }); err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("decoded %d frames from a partial wire image", len(got))
	}
	in.Write(wire[5:])
	if err := c.DecodeStream(&in, func(fr can.Frame) { got = append(got, fr) }); err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}
	if len(got) != 1 || got[0] != f {
		t.Fatalf("decoded %v, want %+v", got, f)
	}
}

func TestCompactBuffer(t *testing.T) {
	var b bytes.Buffer
	b.Write(make([]byte, 64))
	if CompactBuffer(&b) {
		t.Fatal("small buffer compacted")
	}

	// Force the backing array to grow well beyond the unread window, then
	// consume almost everything. Compaction must preserve the unread bytes.
	b.Reset()
	b.Write(make([]byte, 16*1024))
	b.Write(make([]byte, 16*1024)) // second write doubles capacity
	b.Next(31 * 1024)
	tail := append([]byte(nil), b.Bytes()...)
	CompactBuffer(&b)
	if !bytes.Equal(b.Bytes(), tail) {
		t.Fatalf("compaction changed content: len %d want %d", b.Len(), len(tail))
	}
}

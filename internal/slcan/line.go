package slcan

import (
	"errors"
	"fmt"
)

const (
	// MaxContentLen is the longest line body: marker (1) + extended id (8) +
	// DLC digit (1) + 8 payload bytes as hex (16).
	MaxContentLen = 26

	// MaxLineLen is MaxContentLen plus the CR terminator. Size output
	// buffers to exactly this.
	MaxLineLen = MaxContentLen + 1

	// CR terminates every line.
	CR = 0x0D
)

// ErrParse is wrapped by all line-grammar violations.
var ErrParse = errors.New("slcan: parse error")

const hexDigits = "0123456789ABCDEF"

func appendHex(dst []byte, v uint32, digits int) []byte {
	for i := digits - 1; i >= 0; i-- {
		dst = append(dst, hexDigits[(v>>(uint(i)*4))&0xF])
	}
	return dst
}

// AppendLine renders f's canonical ASCII line, terminator included, and
// appends it to dst. Callers pass a buffer pre-sized to MaxLineLen; the
// append never exceeds that bound for a valid Frame, so no reallocation
// happens on the hot path.
//
//	var buf [slcan.MaxLineLen]byte
//	line := slcan.AppendLine(buf[:0], f)
func AppendLine(dst []byte, f Frame) []byte {
	ext := f.id.Kind() == ExtendedID
	switch {
	case f.remote && ext:
		dst = append(dst, 'R')
	case f.remote:
		dst = append(dst, 'r')
	case ext:
		dst = append(dst, 'T')
	default:
		dst = append(dst, 't')
	}
	if ext {
		dst = appendHex(dst, f.id.Raw(), 8)
	} else {
		dst = appendHex(dst, f.id.Raw(), 3)
	}
	dst = append(dst, hexDigits[f.dlc&0xF])
	if !f.remote {
		for _, b := range f.data[:f.dlc] {
			dst = append(dst, hexDigits[b>>4], hexDigits[b&0xF])
		}
	}
	return append(dst, CR)
}

func hexVal(c byte) (uint32, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint32(c - '0'), true
	case c >= 'A' && c <= 'F':
		return uint32(c-'A') + 10, true
	case c >= 'a' && c <= 'f':
		return uint32(c-'a') + 10, true
	}
	return 0, false
}

func parseHex(s []byte) (uint32, error) {
	var v uint32
	for _, c := range s {
		n, ok := hexVal(c)
		if !ok {
			return 0, fmt.Errorf("%w: bad hex digit %q", ErrParse, c)
		}
		v = v<<4 | n
	}
	return v, nil
}

// ParseLine decodes one SLCAN frame line back into a Frame. A trailing CR
// is tolerated; the rest of the line must match the grammar exactly.
func ParseLine(line []byte) (Frame, error) {
	if n := len(line); n > 0 && line[n-1] == CR {
		line = line[:n-1]
	}
	if len(line) == 0 {
		return Frame{}, fmt.Errorf("%w: empty line", ErrParse)
	}

	var (
		remote, ext bool
		idDigits    int
	)
	switch line[0] {
	case 't':
		idDigits = 3
	case 'T':
		idDigits, ext = 8, true
	case 'r':
		idDigits, remote = 3, true
	case 'R':
		idDigits, ext, remote = 8, true, true
	default:
		return Frame{}, fmt.Errorf("%w: bad marker %q", ErrParse, line[0])
	}

	if len(line) < 1+idDigits+1 {
		return Frame{}, fmt.Errorf("%w: truncated line", ErrParse)
	}
	raw, err := parseHex(line[1 : 1+idDigits])
	if err != nil {
		return Frame{}, err
	}
	var id Identifier
	if ext {
		id, err = NewExtendedID(raw)
	} else {
		id, err = NewStandardID(raw)
	}
	if err != nil {
		return Frame{}, err
	}

	dlc, ok := hexVal(line[1+idDigits])
	if !ok || dlc > MaxDataLen {
		return Frame{}, fmt.Errorf("%w: bad DLC %q", ErrParse, line[1+idDigits])
	}
	rest := line[1+idDigits+1:]

	if remote {
		if len(rest) != 0 {
			return Frame{}, fmt.Errorf("%w: %d trailing bytes after remote frame", ErrParse, len(rest))
		}
		return NewRemoteFrame(id, uint8(dlc))
	}

	if len(rest) != int(dlc)*2 {
		return Frame{}, fmt.Errorf("%w: payload digits %d, want %d", ErrParse, len(rest), dlc*2)
	}
	var data [MaxDataLen]byte
	for i := 0; i < int(dlc); i++ {
		hi, ok1 := hexVal(rest[i*2])
		lo, ok2 := hexVal(rest[i*2+1])
		if !ok1 || !ok2 {
			return Frame{}, fmt.Errorf("%w: bad payload hex at byte %d", ErrParse, i)
		}
		data[i] = byte(hi<<4 | lo)
	}
	return NewDataFrame(id, data[:dlc])
}

package slcan

import "testing"

func benchFrame(b *testing.B) Frame {
	id, err := NewExtendedID(0x1ABCDE)
	if err != nil {
		b.Fatal(err)
	}
	f, err := NewDataFrame(id, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	if err != nil {
		b.Fatal(err)
	}
	return f
}

func BenchmarkAppendLine(b *testing.B) {
	f := benchFrame(b)
	var buf [MaxLineLen]byte
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = AppendLine(buf[:0], f)
	}
}

func BenchmarkParseLine(b *testing.B) {
	f := benchFrame(b)
	var buf [MaxLineLen]byte
	line := AppendLine(buf[:0], f)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ParseLine(line); err != nil {
			b.Fatal(err)
		}
	}
}

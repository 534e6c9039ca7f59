package cursor

import (
	"bytes"
	"math"
	"testing"
)

func TestReadBitsLSBFirst(t *testing.T) {
	// 0xB5 = 1011_0101, 0x3C = 0011_1100
	r := NewReader([]byte{0xB5, 0x3C})

	tests := []struct {
		n    uint
		want uint32
	}{
		{1, 1},      // bit 0
		{2, 0b10},   // bits 1-2
		{3, 0b110},  // bits 3-5
		{4, 0b0010}, // bits 6-7 of 0xB5, bits 0-1 of 0x3C
		{6, 0b001111},
	}
	for i, tt := range tests {
		got, err := r.ReadBits(tt.n)
		if err != nil {
			t.Fatalf("step %d: ReadBits(%d) error = %v", i, tt.n, err)
		}
		if got != tt.want {
			t.Errorf("step %d: ReadBits(%d) = %b, want %b", i, tt.n, got, tt.want)
		}
	}
	if r.BitsLeft() != 0 {
		t.Errorf("BitsLeft = %d, want 0", r.BitsLeft())
	}
}

func TestPeekBitsDoesNotAdvance(t *testing.T) {
	r := NewReader([]byte{0xFF, 0x01})
	v1, err := r.PeekBits(9)
	if err != nil {
		t.Fatal(err)
	}
	v2, _ := r.PeekBits(9)
	if v1 != v2 || v1 != 0x1FF {
		t.Errorf("PeekBits = %#x, %#x, want 0x1ff twice", v1, v2)
	}
	if r.Pos() != 0 || r.BitPos() != 0 {
		t.Errorf("cursor moved to %d:%d", r.Pos(), r.BitPos())
	}
}

func TestReadBits32(t *testing.T) {
	r := NewReader([]byte{0x80, 0x78, 0x56, 0x34, 0x12})
	if _, err := r.ReadBits(4); err != nil {
		t.Fatal(err)
	}
	got, err := r.ReadBits(32)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x23456788 {
		t.Errorf("ReadBits(32) = %#x, want 0x23456788", got)
	}
}

func TestShortRead(t *testing.T) {
	r := NewReader([]byte{0x05})
	if _, err := r.ReadBits(3); err != nil {
		t.Fatal(err)
	}
	v, err := r.PeekBits(8)
	if err != ErrShortBuffer {
		t.Fatalf("PeekBits past end error = %v, want ErrShortBuffer", err)
	}
	if v != 0 {
		t.Errorf("available bits = %b, want 0", v)
	}
	if err := r.Consume(6); err != ErrShortBuffer {
		t.Errorf("Consume past end error = %v, want ErrShortBuffer", err)
	}
	if _, err := r.ReadBits(33); err != ErrBitCount {
		t.Errorf("ReadBits(33) error = %v, want ErrBitCount", err)
	}
}

func TestByteAlignAndFixedReads(t *testing.T) {
	w := NewWriter(32)
	w.WriteByte(0xAA)
	w.WriteUint16(0xBEEF)
	w.WriteInt32(-7)
	w.WriteUint64(1 << 40)
	w.WriteFloat32(1.5)
	w.WriteHalf(-2)
	w.WriteString("dataWindow")

	r := NewReader(w.Bytes())
	if _, err := r.ReadBits(3); err != nil {
		t.Fatal(err)
	}
	// Fixed reads realign to the next byte.
	u16, err := r.ReadUint16()
	if err != nil || u16 != 0xBEEF {
		t.Fatalf("ReadUint16 = %#x, %v", u16, err)
	}
	i32, _ := r.ReadInt32()
	if i32 != -7 {
		t.Errorf("ReadInt32 = %d, want -7", i32)
	}
	u64, _ := r.ReadUint64()
	if u64 != 1<<40 {
		t.Errorf("ReadUint64 = %d", u64)
	}
	f, _ := r.ReadFloat32()
	if f != 1.5 {
		t.Errorf("ReadFloat32 = %v", f)
	}
	h, _ := r.ReadHalf()
	if h != -2 {
		t.Errorf("ReadHalf = %v", h)
	}
	s, err := r.ReadString()
	if err != nil || s != "dataWindow" {
		t.Errorf("ReadString = %q, %v", s, err)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}

func TestReadHalfSpecialValues(t *testing.T) {
	tests := []struct {
		bits uint16
		want float32
	}{
		{0x3C00, 1},
		{0xC000, -2},
		{0x7BFF, 65504},
		{0x0001, 5.9604645e-08},
		{0x0400, 6.1035156e-05},
		{0x3555, 0.33325195},
	}
	for _, tt := range tests {
		r := NewReader([]byte{byte(tt.bits), byte(tt.bits >> 8)})
		got, err := r.ReadHalf()
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("ReadHalf(%#04x) = %v, want %v", tt.bits, got, tt.want)
		}
	}

	r := NewReader([]byte{0x00, 0x80, 0x00, 0x7C, 0x00, 0xFC, 0x01, 0x7E})
	negZero, _ := r.ReadHalf()
	if negZero != 0 || !math.Signbit(float64(negZero)) {
		t.Errorf("0x8000 = %v, want -0", negZero)
	}
	inf, _ := r.ReadHalf()
	if !math.IsInf(float64(inf), 1) {
		t.Errorf("0x7C00 = %v, want +Inf", inf)
	}
	ninf, _ := r.ReadHalf()
	if !math.IsInf(float64(ninf), -1) {
		t.Errorf("0xFC00 = %v, want -Inf", ninf)
	}
	nan, _ := r.ReadHalf()
	if !math.IsNaN(float64(nan)) {
		t.Errorf("0x7E01 = %v, want NaN", nan)
	}
}

func TestSkipAndSetPos(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4, 5})
	if err := r.SkipBits(1, 4); err != nil {
		t.Fatal(err)
	}
	if r.Pos() != 1 || r.BitPos() != 4 {
		t.Errorf("after SkipBits pos = %d:%d, want 1:4", r.Pos(), r.BitPos())
	}
	r.ByteAlign()
	b, _ := r.ReadByte()
	if b != 3 {
		t.Errorf("ReadByte after align = %d, want 3", b)
	}
	if err := r.Skip(10); err != ErrShortBuffer {
		t.Errorf("Skip past end = %v, want ErrShortBuffer", err)
	}
	if err := r.SetPos(6); err != ErrShortBuffer {
		t.Errorf("SetPos(6) = %v, want ErrShortBuffer", err)
	}
	if err := r.SetPos(4); err != nil {
		t.Fatal(err)
	}
	b, _ = r.ReadByte()
	if b != 5 {
		t.Errorf("ReadByte at 4 = %d, want 5", b)
	}
}

func TestReadStringUnterminated(t *testing.T) {
	r := NewReader([]byte("abc"))
	if _, err := r.ReadString(); err != ErrShortBuffer {
		t.Errorf("ReadString error = %v, want ErrShortBuffer", err)
	}
	if r.Pos() != 0 {
		t.Errorf("position moved to %d on failure", r.Pos())
	}
}

func TestWriterPutUint64At(t *testing.T) {
	w := NewWriter(16)
	w.WriteUint64(0)
	w.WriteUint64(0)
	if err := w.PutUint64At(8, 0x0102030405060708); err != nil {
		t.Fatal(err)
	}
	want := []byte{0, 0, 0, 0, 0, 0, 0, 0, 8, 7, 6, 5, 4, 3, 2, 1}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("Bytes = %v, want %v", w.Bytes(), want)
	}
	if err := w.PutUint64At(9, 1); err != ErrShortBuffer {
		t.Errorf("PutUint64At(9) = %v, want ErrShortBuffer", err)
	}
}

func BenchmarkReadBits(b *testing.B) {
	data := bytes.Repeat([]byte{0x5A, 0xC3, 0x7E}, 4096)
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		r := NewReader(data)
		for r.BitsLeft() >= 13 {
			r.ReadBits(13)
		}
	}
}

func TestSkipBitsHuge(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4})
	if err := r.Skip(2); err != nil {
		t.Fatal(err)
	}
	for _, c := range []struct{ bytes, bits int }{
		{math.MaxInt / 4, 0},
		{math.MaxInt / 8, 7},
		{0, math.MaxInt},
		{1, math.MaxInt - 7},
	} {
		if err := r.SkipBits(c.bytes, c.bits); err != ErrShortBuffer {
			t.Errorf("SkipBits(%d, %d) = %v, want ErrShortBuffer", c.bytes, c.bits, err)
		}
		if r.Pos() != 2 || r.BitPos() != 0 {
			t.Fatalf("SkipBits(%d, %d) moved cursor to %d:%d", c.bytes, c.bits, r.Pos(), r.BitPos())
		}
	}
}

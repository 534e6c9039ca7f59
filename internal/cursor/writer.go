package cursor

import (
	"math"

	"github.com/mrjoshuak/exrview/half"
)

// Writer is a growing little-endian byte buffer.
type Writer struct {
	buf []byte
}

// NewWriter creates a Writer with an initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the written data.
// The returned slice is valid until the next write.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// WriteByte writes a single byte. It never fails.
func (w *Writer) WriteByte(b byte) error {
	w.buf = append(w.buf, b)
	return nil
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteUint16 writes an unsigned 16-bit integer.
func (w *Writer) WriteUint16(v uint16) {
	w.buf = ByteOrder.AppendUint16(w.buf, v)
}

// WriteUint32 writes an unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) {
	w.buf = ByteOrder.AppendUint32(w.buf, v)
}

// WriteInt32 writes a signed 32-bit integer.
func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WriteUint64 writes an unsigned 64-bit integer.
func (w *Writer) WriteUint64(v uint64) {
	w.buf = ByteOrder.AppendUint64(w.buf, v)
}

// PutUint64At overwrites eight already-written bytes at pos.
// It is used to back-patch tables whose contents are known only later.
func (w *Writer) PutUint64At(pos int, v uint64) error {
	if pos < 0 || pos+8 > len(w.buf) {
		return ErrShortBuffer
	}
	ByteOrder.PutUint64(w.buf[pos:], v)
	return nil
}

// WriteFloat32 writes a 32-bit IEEE 754 floating-point number.
func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteHalf narrows v to half precision and writes its 16 bits.
func (w *Writer) WriteHalf(v float32) {
	w.WriteUint16(half.FromFloat32(v).Bits())
}

// WriteString writes a null-terminated string.
func (w *Writer) WriteString(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

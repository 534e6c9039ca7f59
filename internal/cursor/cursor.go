// Package cursor provides a bounds-checked positional reader over a byte
// slice with both bit and byte granularity, plus a growing little-endian
// writer.
//
// Bits are consumed least-significant-bit first within each byte, which is
// the DEFLATE convention. Multi-byte fixed-width values are little endian,
// which is the OpenEXR convention. Byte-granularity reads always start on a
// byte boundary: any partially consumed byte is discarded first.
package cursor

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/mrjoshuak/exrview/half"
)

var (
	// ErrShortBuffer is returned when a read cannot complete because there
	// isn't enough data left in the buffer.
	ErrShortBuffer = errors.New("cursor: buffer too short")

	// ErrNegativeSize is returned when a size parameter is negative.
	ErrNegativeSize = errors.New("cursor: negative size")

	// ErrBitCount is returned when more than 32 bits are requested at once.
	ErrBitCount = errors.New("cursor: bit count out of range")
)

// ByteOrder is the byte order of all multi-byte values.
var ByteOrder = binary.LittleEndian

// Reader is a positional reader over a byte slice.
//
// The invariant 0 <= bitPos < 8 always holds, and pos never moves past
// len(data). pos only decreases through SetPos or Reset.
type Reader struct {
	data   []byte
	pos    int
	bitPos uint
}

// NewReader creates a Reader from a byte slice.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the number of unread whole bytes, counting a partially
// consumed byte as read.
func (r *Reader) Len() int {
	n := len(r.data) - r.pos
	if r.bitPos != 0 {
		n--
	}
	if n < 0 {
		return 0
	}
	return n
}

// Size returns the length of the underlying buffer.
func (r *Reader) Size() int {
	return len(r.data)
}

// Pos returns the current byte position.
func (r *Reader) Pos() int {
	return r.pos
}

// BitPos returns the number of bits already consumed from the current byte.
func (r *Reader) BitPos() uint {
	return r.bitPos
}

// BitsLeft returns the number of unread bits.
func (r *Reader) BitsLeft() int {
	return (len(r.data)-r.pos)*8 - int(r.bitPos)
}

// Reset rewinds the reader to the beginning of the data.
func (r *Reader) Reset() {
	r.pos = 0
	r.bitPos = 0
}

// SetPos seeks to an absolute byte position.
func (r *Reader) SetPos(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return ErrShortBuffer
	}
	r.pos = pos
	r.bitPos = 0
	return nil
}

// Skip advances the read position by n bytes.
func (r *Reader) Skip(n int) error {
	return r.SkipBits(n, 0)
}

// SkipBits advances the cursor by the given number of bytes and bits.
func (r *Reader) SkipBits(bytes, bits int) error {
	if bytes < 0 || bits < 0 {
		return ErrNegativeSize
	}
	left := r.BitsLeft()
	if bytes > left/8 || bits > left {
		return ErrShortBuffer
	}
	total := bytes*8 + bits
	if total > left {
		return ErrShortBuffer
	}
	abs := r.pos*8 + int(r.bitPos) + total
	r.pos = abs / 8
	r.bitPos = uint(abs % 8)
	return nil
}

// ByteAlign discards the remaining bits of a partially consumed byte.
func (r *Reader) ByteAlign() {
	if r.bitPos != 0 {
		r.pos++
		r.bitPos = 0
	}
}

// PeekBits returns the next n bits without consuming them.
//
// When fewer than n bits remain, the available bits are returned
// zero-extended together with ErrShortBuffer, so a caller near the end of a
// stream may still decide to use them.
func (r *Reader) PeekBits(n uint) (uint32, error) {
	if n > 32 {
		return 0, ErrBitCount
	}
	if n == 0 {
		return 0, nil
	}
	var acc uint64
	need := n + r.bitPos
	p := r.pos
	for got := uint(0); got < need && p < len(r.data); got += 8 {
		acc |= uint64(r.data[p]) << got
		p++
	}
	v := uint32((acc >> r.bitPos) & (1<<n - 1))
	if int(n) > r.BitsLeft() {
		return v, ErrShortBuffer
	}
	return v, nil
}

// ReadBits returns the next n bits (n <= 32) and consumes them.
//
// If fewer than n bits remain, the available bits are returned and consumed
// along with ErrShortBuffer.
func (r *Reader) ReadBits(n uint) (uint32, error) {
	v, err := r.PeekBits(n)
	if err == ErrBitCount {
		return 0, err
	}
	if err != nil {
		r.pos = len(r.data)
		r.bitPos = 0
		return v, err
	}
	r.consume(n)
	return v, nil
}

// Consume discards n bits that were previously peeked.
func (r *Reader) Consume(n uint) error {
	if int(n) > r.BitsLeft() {
		return ErrShortBuffer
	}
	r.consume(n)
	return nil
}

func (r *Reader) consume(n uint) {
	abs := uint(r.pos)*8 + r.bitPos + n
	r.pos = int(abs / 8)
	r.bitPos = abs % 8
}

// fixed aligns the cursor and returns the next n bytes, advancing past them.
func (r *Reader) fixed(n int) ([]byte, error) {
	r.ByteAlign()
	if r.pos+n > len(r.data) {
		return nil, ErrShortBuffer
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.fixed(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBytes reads n bytes into a new slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	b, err := r.fixed(n)
	if err != nil {
		return nil, err
	}
	result := make([]byte, n)
	copy(result, b)
	return result, nil
}

// ReadBytesInto fills dst from the current position.
func (r *Reader) ReadBytesInto(dst []byte) error {
	b, err := r.fixed(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

// Slice returns a view of the next n bytes without copying and advances
// past them. The returned slice aliases the reader's buffer.
func (r *Reader) Slice(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	return r.fixed(n)
}

// ReadUint8 reads an unsigned 8-bit integer.
func (r *Reader) ReadUint8() (uint8, error) {
	return r.ReadByte()
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.fixed(2)
	if err != nil {
		return 0, err
	}
	return ByteOrder.Uint16(b), nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.fixed(4)
	if err != nil {
		return 0, err
	}
	return ByteOrder.Uint32(b), nil
}

// ReadInt32 reads a signed 32-bit integer.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads an unsigned 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.fixed(8)
	if err != nil {
		return 0, err
	}
	return ByteOrder.Uint64(b), nil
}

// ReadFloat32 reads a 32-bit IEEE 754 floating-point number.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadHalf reads a 16-bit IEEE 754 half-precision number and widens it to
// float32. Infinities, NaNs, signed zeros and subnormals are preserved.
func (r *Reader) ReadHalf() (float32, error) {
	v, err := r.ReadUint16()
	if err != nil {
		return 0, err
	}
	return half.FromBits(v).Float32(), nil
}

// ReadString reads a null-terminated string.
// The null terminator is consumed but not included in the result.
func (r *Reader) ReadString() (string, error) {
	r.ByteAlign()
	start := r.pos
	for i := start; i < len(r.data); i++ {
		if r.data[i] == 0 {
			r.pos = i + 1
			return string(r.data[start:i]), nil
		}
	}
	return "", ErrShortBuffer
}

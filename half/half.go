// Package half converts IEEE 754 binary16 values, the 16-bit float type used
// for HALF channels in OpenEXR files, to and from float32.
//
// Layout: 1 sign bit, 5 exponent bits (bias 15), 10 mantissa bits.
package half

import (
	"encoding/binary"
	"math"
)

// Half is a binary16 value stored in its raw bit pattern.
type Half uint16

const (
	signMask     = 0x8000
	exponentMask = 0x7C00
	mantissaMask = 0x03FF

	exponentBias = 15
	maxExponent  = 31
)

// Well-known values.
const (
	Zero    Half = 0x0000
	NegZero Half = 0x8000
	One     Half = 0x3C00
	Inf     Half = 0x7C00
	NegInf  Half = 0xFC00
	NaN     Half = 0x7E00

	// Max is the largest finite value, 65504.
	Max Half = 0x7BFF
	// SmallestNormal is 2^-14.
	SmallestNormal Half = 0x0400
	// SmallestSubnormal is 2^-24.
	SmallestSubnormal Half = 0x0001
)

// FromBits returns the Half with the given bit pattern.
func FromBits(bits uint16) Half { return Half(bits) }

// Bits returns the bit pattern of h.
func (h Half) Bits() uint16 { return uint16(h) }

// FromFloat32 rounds f to the nearest Half, ties to even. Values too large
// become infinity; values too small flush to a signed zero.
func FromFloat32(f float32) Half {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & signMask
	exp := int(bits>>23) & 0xFF
	mant := bits & 0x007FFFFF

	if exp == 0xFF {
		if mant == 0 {
			return Half(sign | exponentMask)
		}
		// Keep the top payload bits and force a quiet NaN.
		return Half(sign | exponentMask | 0x0200 | uint16(mant>>13))
	}
	if exp == 0 {
		// float32 subnormals are far below the half range.
		return Half(sign)
	}

	exp += exponentBias - 127
	switch {
	case exp >= maxExponent:
		return Half(sign | exponentMask)
	case exp < -10:
		return Half(sign)
	case exp <= 0:
		mant |= 0x00800000
		shift := uint(14 - exp)
		m := roundShift(mant, shift)
		// A carry out of the mantissa lands on the smallest normal, which
		// is exactly the right encoding.
		return Half(sign | uint16(m))
	}

	m := roundShift(mant, 13)
	if m > mantissaMask {
		m = 0
		exp++
		if exp >= maxExponent {
			return Half(sign | exponentMask)
		}
	}
	return Half(sign | uint16(exp)<<10 | uint16(m))
}

// roundShift shifts v right by n bits, rounding to nearest with ties to even.
func roundShift(v uint32, n uint) uint32 {
	q := v >> n
	rem := v & (1<<n - 1)
	halfway := uint32(1) << (n - 1)
	if rem > halfway || (rem == halfway && q&1 == 1) {
		q++
	}
	return q
}

// Float32 returns h widened to float32. The conversion is exact.
func (h Half) Float32() float32 {
	sign := uint32(h&signMask) << 16
	exp := int(h&exponentMask) >> 10
	mant := uint32(h & mantissaMask)

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// Normalize the subnormal.
		e := 1
		for mant&0x0400 == 0 {
			mant <<= 1
			e--
		}
		mant &= mantissaMask
		return math.Float32frombits(sign | uint32(e-exponentBias+127)<<23 | mant<<13)
	case maxExponent:
		if mant == 0 {
			return math.Float32frombits(sign | 0x7F800000)
		}
		return math.Float32frombits(sign | 0x7FC00000 | mant<<13)
	}
	return math.Float32frombits(sign | uint32(exp-exponentBias+127)<<23 | mant<<13)
}

// IsNaN reports whether h is a NaN.
func (h Half) IsNaN() bool {
	return h&exponentMask == exponentMask && h&mantissaMask != 0
}

// IsInf reports whether h is an infinity of either sign.
func (h Half) IsInf() bool { return h&^signMask == Inf }

// IsZero reports whether h is a zero of either sign.
func (h Half) IsZero() bool { return h&^signMask == 0 }

// IsFinite reports whether h is neither infinite nor NaN.
func (h Half) IsFinite() bool { return h&exponentMask != exponentMask }

// DecodeLE widens little-endian binary16 values from src into dst. It
// converts min(len(dst), len(src)/2) values and returns that count.
func DecodeLE(dst []float32, src []byte) int {
	n := len(src) / 2
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = Half(binary.LittleEndian.Uint16(src[2*i:])).Float32()
	}
	return n
}

// AppendLE appends the little-endian binary16 encodings of src to dst.
func AppendLE(dst []byte, src []float32) []byte {
	for _, f := range src {
		dst = binary.LittleEndian.AppendUint16(dst, FromFloat32(f).Bits())
	}
	return dst
}

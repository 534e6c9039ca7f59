// Package interleave implements the byte split used by OpenEXR's ZIP and RLE
// compressors.
//
// The compressed form stores every even-indexed byte first, followed by
// every odd-indexed byte. For multi-byte samples this groups high and low
// bytes, which compress better than the mixed stream:
//
//	Original: [A0, A1, B0, B1, C0]
//	Split:    [A0, B0, C0, A1, B1]
//
// The first half holds (n+1)/2 bytes.
package interleave

// Split returns the index where the odd-byte half begins for n bytes.
func Split(n int) int { return (n + 1) / 2 }

// Interleave writes src in split form to dst and returns dst[:len(src)].
// If dst is too small a new buffer is allocated.
func Interleave(dst, src []byte) []byte {
	dst = ensure(dst, len(src))
	half := Split(len(src))
	even, odd := dst[:half], dst[half:]
	for i := 0; i < len(odd); i++ {
		even[i] = src[2*i]
		odd[i] = src[2*i+1]
	}
	if len(even) > len(odd) {
		even[len(even)-1] = src[len(src)-1]
	}
	return dst
}

// Deinterleave restores the original byte order of src, which is in split
// form, into dst and returns dst[:len(src)]. If dst is too small a new buffer
// is allocated.
func Deinterleave(dst, src []byte) []byte {
	dst = ensure(dst, len(src))
	half := Split(len(src))
	even, odd := src[:half], src[half:]
	for i := 0; i < len(odd); i++ {
		dst[2*i] = even[i]
		dst[2*i+1] = odd[i]
	}
	if len(even) > len(odd) {
		dst[len(src)-1] = even[len(even)-1]
	}
	return dst
}

func ensure(buf []byte, n int) []byte {
	if cap(buf) < n {
		return make([]byte, n)
	}
	return buf[:n]
}

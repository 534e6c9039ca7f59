package compression

import (
	"errors"
	"fmt"
)

// RLE compression errors
var (
	ErrRLECorrupted = errors.New("compression: corrupted RLE data")
)

const (
	rleMinRunLength = 3
	rleMaxRunLength = 127
)

// RLECompress run-length encodes src. Each record starts with a signed
// count byte:
//   - n >= 0: the following byte is repeated n+1 times
//   - n < 0: the following -n bytes are copied literally
//
// For example:
//
//	[A, A, A, A, B, C, D] -> [3, A, -3, B, C, D]
func RLECompress(src []byte) []byte {
	dst := make([]byte, 0, len(src)+len(src)/rleMaxRunLength+1)

	runStart := 0
	runEnd := 1
	for runStart < len(src) {
		for runEnd < len(src) && src[runStart] == src[runEnd] && runEnd-runStart-1 < rleMaxRunLength {
			runEnd++
		}

		if runEnd-runStart >= rleMinRunLength {
			dst = append(dst, byte(runEnd-runStart-1), src[runStart])
			runStart = runEnd
		} else {
			for runEnd < len(src) &&
				(runEnd+1 >= len(src) || src[runEnd] != src[runEnd+1] ||
					runEnd+2 >= len(src) || src[runEnd+1] != src[runEnd+2]) &&
				runEnd-runStart < rleMaxRunLength {
				runEnd++
			}
			dst = append(dst, byte(int8(-(runEnd - runStart))))
			dst = append(dst, src[runStart:runEnd]...)
			runStart = runEnd
		}
		runEnd++
	}
	return dst
}

// RLEDecompressTo expands src into dst, which must be exactly the
// uncompressed size.
func RLEDecompressTo(dst, src []byte) error {
	out := 0
	for i := 0; i < len(src); {
		count := int(int8(src[i]))
		i++

		if count < 0 {
			n := -count
			if i+n > len(src) {
				return fmt.Errorf("%w: literal of %d bytes at input offset %d", ErrRLECorrupted, n, i)
			}
			if out+n > len(dst) {
				return fmt.Errorf("%w: literal of %d bytes overflows %d byte output", ErrRLECorrupted, n, len(dst))
			}
			copy(dst[out:], src[i:i+n])
			out += n
			i += n
			continue
		}

		n := count + 1
		if i >= len(src) {
			return fmt.Errorf("%w: run without value at input offset %d", ErrRLECorrupted, i)
		}
		if out+n > len(dst) {
			return fmt.Errorf("%w: run of %d bytes overflows %d byte output", ErrRLECorrupted, n, len(dst))
		}
		v := src[i]
		i++
		for end := out + n; out < end; out++ {
			dst[out] = v
		}
	}

	if out != len(dst) {
		return fmt.Errorf("%w: decoded %d bytes, want %d", ErrRLECorrupted, out, len(dst))
	}
	return nil
}

// RLEDecode expands an RLE chunk and reconstructs the raw pixel bytes into
// dst.
func RLEDecode(dst, src []byte) error {
	tmp := getScratch(len(dst))
	defer putScratch(tmp)
	if err := RLEDecompressTo(tmp, src); err != nil {
		return err
	}
	Reconstruct(dst, tmp)
	return nil
}

// RLEEncode applies the byte split and predictor to raw chunk data and
// run-length encodes the result.
func RLEEncode(src []byte) []byte {
	tmp := getScratch(len(src))
	defer putScratch(tmp)
	Deconstruct(tmp, src)
	return RLECompress(tmp)
}

package compression

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrPXR24Corrupted reports a PXR24 chunk whose planes do not match the
// channel layout.
var ErrPXR24Corrupted = errors.New("compression: corrupted PXR24 data")

// Pixel type codes, matching the values stored in OpenEXR channel lists.
const (
	PixelTypeUint  = 0
	PixelTypeHalf  = 1
	PixelTypeFloat = 2
)

// ChannelInfo describes the samples of one channel in one scanline of a
// chunk. A PXR24 chunk is described by one entry per (scanline, channel)
// pair, in file order; entries with Width 0 stand for scanlines the channel
// does not sample.
type ChannelInfo struct {
	Type  int
	Width int
}

func pxr24PlaneSize(layout []ChannelInfo) (raw, planes int) {
	for _, ch := range layout {
		switch ch.Type {
		case PixelTypeUint:
			raw += ch.Width * 4
			planes += ch.Width * 4
		case PixelTypeHalf:
			raw += ch.Width * 2
			planes += ch.Width * 2
		case PixelTypeFloat:
			raw += ch.Width * 4
			planes += ch.Width * 3
		}
	}
	return raw, planes
}

// floatToFloat24 rounds a float32 to 24 bits: sign, exponent and the top
// 15 mantissa bits.
func floatToFloat24(f float32) uint32 {
	bits := math.Float32bits(f)
	s := bits & 0x80000000
	e := bits & 0x7f800000
	m := bits & 0x007fffff

	if e == 0x7f800000 {
		if m != 0 {
			// Keep NaN a NaN after truncation.
			m >>= 8
			i := e>>8 | m
			if m == 0 {
				i |= 1
			}
			return s>>8 | i
		}
		return s>>8 | e>>8
	}

	i := ((e | m) + (m & 0x00000080)) >> 8
	if i >= 0x7f8000 {
		// Rounding would overflow to infinity; truncate instead.
		i = (e | m) >> 8
	}
	return s>>8 | i
}

// PXR24DecompressTo inflates a PXR24 chunk and rebuilds raw little-endian
// samples into dst. Each channel's scanline is stored as byte planes, most
// significant first, holding differences from the previous sample; FLOAT
// samples carry 24 bits and are widened with zero low bits.
func PXR24DecompressTo(dst, src []byte, layout []ChannelInfo) error {
	raw, planes := pxr24PlaneSize(layout)
	if raw != len(dst) {
		return fmt.Errorf("%w: layout needs %d bytes, buffer is %d", ErrPXR24Corrupted, raw, len(dst))
	}

	tmp := getScratch(planes)
	defer putScratch(tmp)
	if err := ZIPDecompressTo(tmp, src); err != nil {
		return err
	}

	in, out := 0, 0
	for _, ch := range layout {
		w := ch.Width
		switch ch.Type {
		case PixelTypeUint:
			p0, p1, p2, p3 := tmp[in:in+w], tmp[in+w:in+2*w], tmp[in+2*w:in+3*w], tmp[in+3*w:in+4*w]
			in += 4 * w
			var pixel uint32
			for x := 0; x < w; x++ {
				pixel += uint32(p0[x])<<24 | uint32(p1[x])<<16 | uint32(p2[x])<<8 | uint32(p3[x])
				binary.LittleEndian.PutUint32(dst[out:], pixel)
				out += 4
			}
		case PixelTypeHalf:
			p0, p1 := tmp[in:in+w], tmp[in+w:in+2*w]
			in += 2 * w
			var pixel uint16
			for x := 0; x < w; x++ {
				pixel += uint16(p0[x])<<8 | uint16(p1[x])
				binary.LittleEndian.PutUint16(dst[out:], pixel)
				out += 2
			}
		case PixelTypeFloat:
			p0, p1, p2 := tmp[in:in+w], tmp[in+w:in+2*w], tmp[in+2*w:in+3*w]
			in += 3 * w
			var pixel uint32
			for x := 0; x < w; x++ {
				pixel += uint32(p0[x])<<24 | uint32(p1[x])<<16 | uint32(p2[x])<<8
				binary.LittleEndian.PutUint32(dst[out:], pixel)
				out += 4
			}
		}
	}
	return nil
}

// PXR24Compress encodes raw chunk data laid out as described by layout.
// FLOAT samples lose their low 8 mantissa bits.
func PXR24Compress(src []byte, layout []ChannelInfo, level CompressionLevel) ([]byte, error) {
	raw, planes := pxr24PlaneSize(layout)
	if raw != len(src) {
		return nil, fmt.Errorf("%w: layout needs %d bytes, input is %d", ErrPXR24Corrupted, raw, len(src))
	}

	tmp := getScratch(planes)
	defer putScratch(tmp)

	in, out := 0, 0
	for _, ch := range layout {
		w := ch.Width
		switch ch.Type {
		case PixelTypeUint:
			var prev uint32
			for x := 0; x < w; x++ {
				pixel := binary.LittleEndian.Uint32(src[in:])
				in += 4
				diff := pixel - prev
				prev = pixel
				tmp[out+x] = byte(diff >> 24)
				tmp[out+w+x] = byte(diff >> 16)
				tmp[out+2*w+x] = byte(diff >> 8)
				tmp[out+3*w+x] = byte(diff)
			}
			out += 4 * w
		case PixelTypeHalf:
			var prev uint16
			for x := 0; x < w; x++ {
				pixel := binary.LittleEndian.Uint16(src[in:])
				in += 2
				diff := pixel - prev
				prev = pixel
				tmp[out+x] = byte(diff >> 8)
				tmp[out+w+x] = byte(diff)
			}
			out += 2 * w
		case PixelTypeFloat:
			var prev uint32
			for x := 0; x < w; x++ {
				pixel := floatToFloat24(math.Float32frombits(binary.LittleEndian.Uint32(src[in:])))
				in += 4
				diff := pixel - prev
				prev = pixel
				tmp[out+x] = byte(diff >> 16)
				tmp[out+w+x] = byte(diff >> 8)
				tmp[out+2*w+x] = byte(diff)
			}
			out += 3 * w
		}
	}
	return ZIPCompressLevel(tmp, level)
}

package compression

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestFloatToFloat24(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want uint32
	}{
		{"zero", 0, 0},
		{"one", 1, 0x3f8000},
		{"negative two", -2, 0xc00000},
		{"rounds up", math.Float32frombits(0x3f800080), 0x3f8001},
		{"truncates", math.Float32frombits(0x3f80007f), 0x3f8000},
		{"inf", float32(math.Inf(1)), 0x7f8000},
		{"no overflow to inf", math.Float32frombits(0x7f7fffff), 0x7f7fff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := floatToFloat24(tt.in); got != tt.want {
				t.Errorf("floatToFloat24(%v) = %#06x, want %#06x", tt.in, got, tt.want)
			}
		})
	}

	// A NaN whose payload sits in the dropped bits must stay NaN.
	if got := floatToFloat24(math.Float32frombits(0x7f800001)); got&0x7fff == 0 {
		t.Errorf("NaN truncated to infinity: %#06x", got)
	}
}

func TestPXR24RoundTrip(t *testing.T) {
	// Two scanlines: a HALF, a FLOAT and a UINT channel of width 3, where
	// the UINT channel is only sampled on the first line.
	layout := []ChannelInfo{
		{Type: PixelTypeHalf, Width: 3},
		{Type: PixelTypeFloat, Width: 3},
		{Type: PixelTypeUint, Width: 3},
		{Type: PixelTypeHalf, Width: 3},
		{Type: PixelTypeFloat, Width: 3},
		{Type: PixelTypeUint, Width: 0},
	}

	var raw []byte
	appendHalf := func(v ...uint16) {
		for _, x := range v {
			raw = binary.LittleEndian.AppendUint16(raw, x)
		}
	}
	appendFloat := func(v ...float32) {
		for _, x := range v {
			raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(x))
		}
	}
	appendUint := func(v ...uint32) {
		for _, x := range v {
			raw = binary.LittleEndian.AppendUint32(raw, x)
		}
	}
	appendHalf(0x3C00, 0x3800, 0xFBFF)
	appendFloat(1, 0.5, -1024)
	appendUint(7, 0xFFFFFFFF, 3)
	appendHalf(0x0001, 0x8000, 0x7C00)
	appendFloat(0.25, 2, 100)

	compressed, err := PXR24Compress(raw, layout, CompressionLevelBestSize)
	if err != nil {
		t.Fatal(err)
	}
	dst := make([]byte, len(raw))
	if err := PXR24DecompressTo(dst, compressed, layout); err != nil {
		t.Fatal(err)
	}
	// All float values above have zero low mantissa bytes, so the round
	// trip is exact.
	if !bytes.Equal(dst, raw) {
		t.Errorf("PXR24 round trip:\n got %x\nwant %x", dst, raw)
	}
}

func TestPXR24FloatPrecision(t *testing.T) {
	layout := []ChannelInfo{{Type: PixelTypeFloat, Width: 1}}
	raw := binary.LittleEndian.AppendUint32(nil, 0x3f8000ff)
	compressed, err := PXR24Compress(raw, layout, CompressionLevelDefault)
	if err != nil {
		t.Fatal(err)
	}
	dst := make([]byte, 4)
	if err := PXR24DecompressTo(dst, compressed, layout); err != nil {
		t.Fatal(err)
	}
	if got := binary.LittleEndian.Uint32(dst); got != 0x3f800100 {
		t.Errorf("decoded bits %#08x, want 0x3f800100", got)
	}
}

func TestPXR24LayoutMismatch(t *testing.T) {
	layout := []ChannelInfo{{Type: PixelTypeHalf, Width: 2}}
	if err := PXR24DecompressTo(make([]byte, 3), nil, layout); !errors.Is(err, ErrPXR24Corrupted) {
		t.Errorf("err = %v, want ErrPXR24Corrupted", err)
	}
	if _, err := PXR24Compress(make([]byte, 8), layout, CompressionLevelDefault); !errors.Is(err, ErrPXR24Corrupted) {
		t.Errorf("err = %v, want ErrPXR24Corrupted", err)
	}
}

// TestPXR24PlaneLayout builds a chunk the way OpenEXR writes it: per
// channel and scanline, differences of successive samples split into byte
// planes, most significant plane first, then zlib. Decoding it as a ZIP
// chunk (predictor and byte split) gives different pixels.
func TestPXR24PlaneLayout(t *testing.T) {
	layout := []ChannelInfo{{Type: PixelTypeHalf, Width: 4}}
	raw := []byte{0x00, 0x3C, 0x01, 0x3C, 0x02, 0x3C, 0x03, 0x3C}
	planes := []byte{
		0x3C, 0x00, 0x00, 0x00, // high bytes of 0x3C00, +1, +1, +1
		0x00, 0x01, 0x01, 0x01, // low bytes
	}
	chunk, err := ZIPCompressLevel(planes, CompressionLevelDefault)
	if err != nil {
		t.Fatal(err)
	}

	dst := make([]byte, len(raw))
	if err := PXR24DecompressTo(dst, chunk, layout); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dst, raw) {
		t.Errorf("PXR24DecompressTo = %x, want %x", dst, raw)
	}

	asZIP := make([]byte, len(raw))
	if err := ZIPDecode(asZIP, chunk); err != nil {
		t.Fatalf("ZIPDecode: %v", err)
	}
	if bytes.Equal(asZIP, raw) {
		t.Errorf("ZIP reconstruction of a PXR24 chunk unexpectedly matched %x", raw)
	}

	ours, err := PXR24Compress(raw, layout, CompressionLevelDefault)
	if err != nil {
		t.Fatal(err)
	}
	inflated := make([]byte, len(planes))
	if err := ZIPDecompressTo(inflated, ours); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(inflated, planes) {
		t.Errorf("PXR24Compress planes = %x, want %x", inflated, planes)
	}
}

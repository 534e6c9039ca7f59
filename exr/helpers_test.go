package exr

import (
	"math"
	"testing"

	"github.com/mrjoshuak/exrview/half"
	"github.com/mrjoshuak/exrview/internal/cursor"
)

// testHeader returns a width x height header with the given compression
// and channels.
func testHeader(width, height int, c Compression, channels ...Channel) *Header {
	h := NewScanlineHeader(width, height)
	h.SetCompression(c)
	cl := NewChannelList()
	for _, ch := range channels {
		cl.Add(ch)
	}
	h.SetChannels(cl)
	return h
}

// encodeFile writes pixels for h, failing the test on error.
func encodeFile(t testing.TB, h *Header, pixels []byte) []byte {
	t.Helper()
	w, err := NewWriter(h, DefaultEncodeOptions())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	data, err := w.Encode(pixels)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return data
}

// gradientPixels fills a file-layout buffer for h with a smooth pattern
// of valid values for every channel type.
func gradientPixels(h *Header) []byte {
	dw := h.DataWindow()
	cl := h.Channels()
	w := cursor.NewWriter(0)
	for y := int(dw.Min.Y); y <= int(dw.Max.Y); y++ {
		for i := 0; i < cl.Len(); i++ {
			c := cl.At(i)
			if mod(y, int(c.YSampling)) != 0 {
				continue
			}
			for x := int(dw.Min.X); x <= int(dw.Max.X); x++ {
				if mod(x, int(c.XSampling)) != 0 {
					continue
				}
				v := float32(x+2*y+i) / 16
				switch c.Type {
				case PixelTypeHalf:
					w.WriteHalf(v)
				case PixelTypeFloat:
					w.WriteFloat32(v)
				default:
					w.WriteUint32(uint32(x*7 + y*3 + i))
				}
			}
		}
	}
	return w.Bytes()
}

// rawScanlineFile builds an uncompressed single channel FLOAT file by
// hand, one chunk per scanline, without using Writer.
func rawScanlineFile(width int, rows [][]float32) []byte {
	h := testHeader(width, len(rows), CompressionNone, NewChannel("R", PixelTypeFloat))
	w := cursor.NewWriter(0)
	w.WriteUint32(Magic)
	w.WriteUint32(VersionNumber)
	writeHeader(w, h)
	table := w.Len()
	for range rows {
		w.WriteUint64(0)
	}
	for y, row := range rows {
		w.PutUint64At(table+8*y, uint64(w.Len()))
		w.WriteInt32(int32(y))
		w.WriteInt32(int32(4 * len(row)))
		for _, v := range row {
			w.WriteFloat32(v)
		}
	}
	return w.Bytes()
}

func sameFloat(a, b float32) bool {
	if math.IsNaN(float64(a)) {
		return math.IsNaN(float64(b))
	}
	return a == b
}

// halfRound returns v as it survives a HALF channel.
func halfRound(v float32) float32 {
	return half.FromFloat32(v).Float32()
}

func appendFloat(b []byte, v float32) []byte {
	return cursor.ByteOrder.AppendUint32(b, math.Float32bits(v))
}

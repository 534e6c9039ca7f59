// Package compression implements the per-chunk codecs of OpenEXR scanline
// files: ZIP and ZIPS (zlib over predicted, split bytes), RLE, and PXR24.
//
// Decoders write into a caller supplied buffer sized to the chunk's
// uncompressed length. Inflation uses the package's own DEFLATE decoder;
// the encoders, used to produce files, wrap klauspost/compress.
package compression

import (
	"bytes"
	"errors"
	"fmt"
	"hash/adler32"
	"sync"

	"github.com/klauspost/compress/zlib"

	"github.com/mrjoshuak/exrview/internal/cursor"
	"github.com/mrjoshuak/exrview/internal/inflate"
)

// ZIP compression errors
var (
	ErrZlibHeader   = errors.New("compression: invalid zlib header")
	ErrZIPCorrupted = errors.New("compression: corrupted ZIP data")
)

// CompressionLevel is a zlib compression level from -2 to 9:
//   - -2: Huffman-only compression (klauspost extension)
//   - -1: Default compression (level 6)
//   - 0: No compression (store)
//   - 1: Best speed
//   - 9: Best compression
type CompressionLevel int

// Standard compression levels
const (
	CompressionLevelHuffmanOnly CompressionLevel = -2
	CompressionLevelDefault     CompressionLevel = -1
	CompressionLevelNone        CompressionLevel = 0
	CompressionLevelBestSpeed   CompressionLevel = 1
	CompressionLevelBestSize    CompressionLevel = 9
)

// FLevel is the 2-bit compression level category recorded in a zlib header.
// It is informational only.
type FLevel int

const (
	FLevelFastest FLevel = 0
	FLevelFast    FLevel = 1
	FLevelDefault FLevel = 2
	FLevelBest    FLevel = 3
)

func (l FLevel) String() string {
	switch l {
	case FLevelFastest:
		return "fastest"
	case FLevelFast:
		return "fast"
	case FLevelDefault:
		return "default"
	case FLevelBest:
		return "best"
	default:
		return fmt.Sprintf("FLevel(%d)", int(l))
	}
}

// ZlibHeader is the decoded two byte zlib stream header plus the optional
// preset dictionary id.
type ZlibHeader struct {
	Level   FLevel
	HasDict bool
	DictID  uint32
	// Size is the number of bytes the header occupies.
	Size int
}

// ParseZlibHeader validates the zlib header at the start of src: the
// compression method must be 8 (deflate) and the check bits must make the
// first two bytes a multiple of 31. A preset dictionary id, if flagged, is
// consumed but not used.
func ParseZlibHeader(src []byte) (ZlibHeader, error) {
	r := cursor.NewReader(src)
	cmf, err := r.ReadByte()
	if err != nil {
		return ZlibHeader{}, fmt.Errorf("%w: missing header", ErrZlibHeader)
	}
	flg, err := r.ReadByte()
	if err != nil {
		return ZlibHeader{}, fmt.Errorf("%w: missing header", ErrZlibHeader)
	}
	if cmf&0x0f != 8 {
		return ZlibHeader{}, fmt.Errorf("%w: compression method %d", ErrZlibHeader, cmf&0x0f)
	}
	if cmf>>4 > 7 {
		return ZlibHeader{}, fmt.Errorf("%w: window size %d", ErrZlibHeader, cmf>>4)
	}
	if (uint16(cmf)<<8|uint16(flg))%31 != 0 {
		return ZlibHeader{}, fmt.Errorf("%w: header check %#02x%02x", ErrZlibHeader, cmf, flg)
	}

	h := ZlibHeader{Level: FLevel(flg >> 6)}
	if flg&0x20 != 0 {
		h.HasDict = true
		b, err := r.ReadBytes(4)
		if err != nil {
			return ZlibHeader{}, fmt.Errorf("%w: truncated dictionary id", ErrZlibHeader)
		}
		h.DictID = uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	}
	h.Size = r.Pos()
	return h, nil
}

// DetectZlibFLevel extracts the FLEVEL from zlib compressed data.
// It reports false if the header is invalid.
func DetectZlibFLevel(data []byte) (FLevel, bool) {
	h, err := ParseZlibHeader(data)
	if err != nil {
		return 0, false
	}
	return h.Level, true
}

// ZIPDecompressTo inflates the zlib stream in src into dst, which must be
// exactly the uncompressed size. The Adler-32 trailer is verified when
// present.
func ZIPDecompressTo(dst, src []byte) error {
	_, err := ZIPDecompressWithLevel(dst, src)
	return err
}

// ZIPDecompressWithLevel is ZIPDecompressTo that also returns the level
// category recorded in the stream header.
func ZIPDecompressWithLevel(dst, src []byte) (FLevel, error) {
	h, err := ParseZlibHeader(src)
	if err != nil {
		return 0, err
	}

	body := src[h.Size:]
	d := inflate.NewDecompressor(body)
	n, err := d.InflateTo(dst)
	if err != nil {
		return h.Level, err
	}
	if n != len(dst) {
		return h.Level, fmt.Errorf("%w: inflated %d bytes, want %d", ErrZIPCorrupted, n, len(dst))
	}

	if trailer := body[d.InputOffset():]; len(trailer) >= 4 {
		want := uint32(trailer[0])<<24 | uint32(trailer[1])<<16 | uint32(trailer[2])<<8 | uint32(trailer[3])
		if got := adler32.Checksum(dst); got != want {
			return h.Level, fmt.Errorf("%w: adler32 %#08x, want %#08x", ErrZIPCorrupted, got, want)
		}
	}
	return h.Level, nil
}

// Pool for zlib writers at the default level.
type zlibWriterPoolItem struct {
	writer *zlib.Writer
	buf    *bytes.Buffer
}

var zlibWriterPool = sync.Pool{
	New: func() any {
		buf := new(bytes.Buffer)
		w, _ := zlib.NewWriterLevel(buf, zlib.DefaultCompression)
		return &zlibWriterPoolItem{writer: w, buf: buf}
	},
}

// ZIPCompress zlib-compresses src at the default level. The predictor and
// byte split are applied by the caller; see ZIPEncode.
func ZIPCompress(src []byte) ([]byte, error) {
	return ZIPCompressLevel(src, CompressionLevelDefault)
}

// ZIPCompressLevel zlib-compresses src at the given level.
func ZIPCompressLevel(src []byte, level CompressionLevel) ([]byte, error) {
	if level == CompressionLevelDefault {
		item := zlibWriterPool.Get().(*zlibWriterPoolItem)
		defer zlibWriterPool.Put(item)
		item.buf.Reset()
		item.writer.Reset(item.buf)

		if _, err := item.writer.Write(src); err != nil {
			return nil, err
		}
		if err := item.writer.Close(); err != nil {
			return nil, err
		}
		return bytes.Clone(item.buf.Bytes()), nil
	}

	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, int(level))
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ZIPDecode reverses ZIPEncode: it inflates src, undoes the predictor and
// restores the byte order into dst.
func ZIPDecode(dst, src []byte) error {
	tmp := getScratch(len(dst))
	defer putScratch(tmp)
	if err := ZIPDecompressTo(tmp, src); err != nil {
		return err
	}
	Reconstruct(dst, tmp)
	return nil
}

// ZIPEncode applies the byte split and predictor to raw chunk data and
// zlib-compresses the result. src is not modified.
func ZIPEncode(src []byte, level CompressionLevel) ([]byte, error) {
	tmp := getScratch(len(src))
	defer putScratch(tmp)
	Deconstruct(tmp, src)
	return ZIPCompressLevel(tmp, level)
}

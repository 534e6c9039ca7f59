package exr

import (
	"context"
	"fmt"
	"os"

	"github.com/mrjoshuak/exrview/compression"
	"github.com/mrjoshuak/exrview/internal/cursor"
)

// EncodeOptions configures writing.
type EncodeOptions struct {
	// Compression is used by EncodeRGBA; Writer takes it from the header.
	Compression Compression
	// PixelType is the sample type EncodeRGBA stores.
	PixelType PixelType
	// Level is the zlib level for ZIP, ZIPS and PXR24 chunks.
	Level compression.CompressionLevel
	// Workers bounds concurrent chunk compression, as in DecodeOptions.
	Workers int
}

// DefaultEncodeOptions returns ZIP compressed FLOAT output at the default
// zlib level.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		Compression: CompressionZIP,
		PixelType:   PixelTypeFloat,
		Level:       compression.CompressionLevelDefault,
	}
}

// Writer produces single-part scanline files for one header.
type Writer struct {
	header *Header
	layout *Image
	opts   EncodeOptions
}

// NewWriter validates h and prepares a writer for it. The header's
// compression must be one the package can decode.
func NewWriter(h *Header, opts EncodeOptions) (*Writer, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if c := h.Compression(); !c.Supported() {
		return nil, fmt.Errorf("%w: writing %s compression", ErrUnsupported, c)
	}
	if _, err := versionFor(h); err != nil {
		return nil, err
	}

	layout := &Image{
		Header:            h,
		Compression:       h.Compression(),
		ScanlinesPerChunk: h.Compression().ScanlinesPerChunk(),
		DataWindow:        h.DataWindow(),
		Width:             h.Width(),
		Height:            h.Height(),
		channels:          make([]Channel, h.Channels().Len()),
	}
	for i := range layout.channels {
		layout.channels[i] = h.Channels().At(i)
	}
	if err := layout.computeLayout(); err != nil {
		return nil, err
	}
	return &Writer{header: h, layout: layout, opts: opts}, nil
}

// PixelBytes returns the size of the pixel buffer Encode expects.
func (w *Writer) PixelBytes() int {
	return w.layout.lineStart[w.layout.Height]
}

// Encode writes a complete file holding pixels, which use the same layout
// as Image.Pixels. Chunks that do not shrink are stored uncompressed.
func (w *Writer) Encode(pixels []byte) ([]byte, error) {
	if len(pixels) != w.PixelBytes() {
		return nil, fmt.Errorf("exr: pixel buffer is %d bytes, want %d", len(pixels), w.PixelBytes())
	}
	version, err := versionFor(w.header)
	if err != nil {
		return nil, err
	}

	l := w.layout
	n := l.chunkCount()
	chunks := make([][]byte, n)
	popts := DecodeOptions{Workers: w.opts.Workers, GrainSize: 1}
	err = parallelForWithError(context.Background(), n, popts, func(i int) error {
		first, lines := l.chunkLines(i)
		raw := pixels[l.lineStart[first]:l.lineStart[first+lines]]
		enc, err := w.encodeChunk(raw, first, lines)
		if err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		if len(enc) >= len(raw) {
			enc = raw
		}
		chunks[i] = enc
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := cursor.NewWriter(len(pixels)/2 + 1024)
	out.WriteUint32(Magic)
	out.WriteUint32(version)
	if err := writeHeader(out, w.header); err != nil {
		return nil, err
	}
	tableStart := out.Len()
	for range chunks {
		out.WriteUint64(0)
	}

	for k := range chunks {
		i := k
		if w.header.LineOrder() == LineOrderDecreasing {
			i = n - 1 - k
		}
		first, _ := l.chunkLines(i)
		if err := out.PutUint64At(tableStart+8*i, uint64(out.Len())); err != nil {
			return nil, err
		}
		out.WriteInt32(l.DataWindow.Min.Y + int32(first))
		out.WriteInt32(int32(len(chunks[i])))
		out.WriteBytes(chunks[i])
	}
	return out.Bytes(), nil
}

func (w *Writer) encodeChunk(raw []byte, first, lines int) ([]byte, error) {
	switch w.layout.Compression {
	case CompressionNone:
		return raw, nil
	case CompressionRLE:
		return compression.RLEEncode(raw), nil
	case CompressionZIPS, CompressionZIP:
		return compression.ZIPEncode(raw, w.opts.Level)
	case CompressionPXR24:
		return compression.PXR24Compress(raw, w.layout.pxr24Layout(first, lines), w.opts.Level)
	default:
		return nil, fmt.Errorf("%w: writing %s compression", ErrUnsupported, w.layout.Compression)
	}
}

// versionFor returns the version field for h, setting the long names flag
// when any name exceeds the short limit.
func versionFor(h *Header) (uint32, error) {
	longest := 0
	for _, a := range h.attrs {
		longest = max(longest, len(a.Name), len(a.Type))
	}
	for _, name := range h.Channels().Names() {
		longest = max(longest, len(name))
	}

	version := uint32(VersionNumber)
	switch {
	case longest > longNameMaxLen:
		return 0, fmt.Errorf("%w: name of %d bytes", ErrMalformedHeader, longest)
	case longest > shortNameMaxLen:
		version |= FlagLongNames
	}
	return version, nil
}

// EncodeRGBA writes img as a scanline file with A, B, G and R channels of
// opts.PixelType. The data window follows img.Rect; a zero DisplayWindow is
// replaced by the data window.
func EncodeRGBA(img *RGBAImage, opts EncodeOptions) ([]byte, error) {
	if img.Rect.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrMalformedHeader)
	}
	if opts.PixelType.Size() == 0 {
		return nil, fmt.Errorf("exr: unknown pixel type %d", opts.PixelType)
	}

	dw := Box2i{
		Min: V2i{X: int32(img.Rect.Min.X), Y: int32(img.Rect.Min.Y)},
		Max: V2i{X: int32(img.Rect.Max.X - 1), Y: int32(img.Rect.Max.Y - 1)},
	}
	h := NewScanlineHeader(img.Width(), img.Height())
	h.SetDataWindow(dw)
	if img.DisplayWindow != (Box2i{}) {
		h.SetDisplayWindow(img.DisplayWindow)
	} else {
		h.SetDisplayWindow(dw)
	}
	h.SetCompression(opts.Compression)
	cl := NewChannelList()
	for _, name := range []string{"A", "B", "G", "R"} {
		cl.Add(NewChannel(name, opts.PixelType))
	}
	h.SetChannels(cl)

	w, err := NewWriter(h, opts)
	if err != nil {
		return nil, err
	}

	// Component index within a pixel for A, B, G, R.
	order := [4]int{3, 2, 1, 0}
	pix := cursor.NewWriter(w.PixelBytes())
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		row := img.Pix[img.PixOffset(img.Rect.Min.X, y):]
		for _, k := range order {
			for x := 0; x < img.Width(); x++ {
				v := row[x*img.Stride+k]
				switch opts.PixelType {
				case PixelTypeHalf:
					pix.WriteHalf(v)
				case PixelTypeFloat:
					pix.WriteFloat32(v)
				default:
					pix.WriteUint32(uint32(max(v, 0)))
				}
			}
		}
	}
	return w.Encode(pix.Bytes())
}

// EncodeFile writes img to path with EncodeRGBA.
func EncodeFile(path string, img *RGBAImage, opts EncodeOptions) error {
	data, err := EncodeRGBA(img, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

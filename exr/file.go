package exr

import (
	"fmt"

	"github.com/mrjoshuak/exrview/internal/cursor"
)

// Magic is the first four bytes of every OpenEXR file, 0x01312f76 stored
// little endian.
const Magic = 0x01312f76

// Version field layout: the low byte is the format version, the
// remaining bits are feature flags.
const (
	VersionNumber = 2

	versionMask      = 0x000000ff
	FlagSingleTile   = 1 << 9
	FlagLongNames    = 1 << 10
	FlagNonImage     = 1 << 11
	FlagMultiPart    = 1 << 12
	knownFlags       = FlagSingleTile | FlagLongNames | FlagNonImage | FlagMultiPart
	shortNameMaxLen  = 31
	longNameMaxLen   = 255
	chunkHeaderBytes = 8

	// maxImageBytes bounds the decoded pixel buffer, maxImagePixels the
	// RGBA conversion.
	maxImageBytes  = 1 << 34
	maxImagePixels = 1 << 30
)

// OffsetEntry locates one chunk. Size spans from Offset to the next chunk in
// file order, or to the end of the file for the last one.
type OffsetEntry struct {
	Offset uint64
	Size   uint64
}

// Image is a parsed scanline file. Parse fills the header, version and
// chunk table; DecodePixels fills the pixel buffer.
type Image struct {
	Header   *Header
	Version  uint32
	Offsets  []OffsetEntry
	Warnings []error

	Compression       Compression
	ScanlinesPerChunk int
	DataWindow        Box2i
	Width, Height     int

	// PixelSize is the byte size of one full resolution pixel over all
	// channels; ChannelOffsets holds each channel's byte offset within it,
	// in channel list order. Both ignore subsampling.
	PixelSize      int
	ChannelOffsets []int

	data     []byte
	channels []Channel
	// lineStart[i] is the offset of scanline DataWindow.Min.Y+i in pixels;
	// the final entry is the total size.
	lineStart []int
	pixels    []byte
	decoded   bool
}

// Flags returns the feature bits of the version field.
func (img *Image) Flags() uint32 {
	return img.Version &^ versionMask
}

// Parse reads the magic number, version, header and chunk offset table of
// an OpenEXR file held entirely in data. It does not decompress pixels.
func Parse(data []byte, opts DecodeOptions) (*Image, error) {
	r := cursor.NewReader(data)

	magic, err := r.ReadUint32()
	if err != nil || magic != Magic {
		return nil, fmt.Errorf("%w: bad magic number", ErrMalformedHeader)
	}
	version, err := r.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("%w: missing version", ErrMalformedHeader)
	}
	if v := version & versionMask; v != VersionNumber {
		return nil, fmt.Errorf("%w: version %d", ErrMalformedHeader, v)
	}
	if version&^(versionMask|knownFlags) != 0 {
		return nil, fmt.Errorf("%w: unknown version flags %#x", ErrMalformedHeader, version&^(versionMask|knownFlags))
	}
	switch {
	case version&FlagMultiPart != 0:
		return nil, fmt.Errorf("%w: multi-part file", ErrUnsupported)
	case version&FlagNonImage != 0:
		return nil, fmt.Errorf("%w: deep data", ErrUnsupported)
	case version&FlagSingleTile != 0:
		return nil, fmt.Errorf("%w: tiled image", ErrUnsupported)
	}

	maxName := shortNameMaxLen
	if version&FlagLongNames != 0 {
		maxName = longNameMaxLen
	}
	h, warnings, err := readHeader(r, maxName, opts.Strict)
	if err != nil {
		return nil, err
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}

	img := &Image{
		Header:            h,
		Version:           version,
		Warnings:          warnings,
		Compression:       h.Compression(),
		ScanlinesPerChunk: h.Compression().ScanlinesPerChunk(),
		DataWindow:        h.DataWindow(),
		data:              data,
		channels:          make([]Channel, h.Channels().Len()),
	}
	img.Width = img.DataWindow.Width()
	img.Height = img.DataWindow.Height()
	for i := range img.channels {
		img.channels[i] = h.Channels().At(i)
	}
	if err := img.readOffsets(r); err != nil {
		return nil, err
	}
	if err := img.computeLayout(); err != nil {
		return nil, err
	}
	return img, nil
}

// computeLayout derives the per-pixel and per-scanline byte layout.
func (img *Image) computeLayout() error {
	img.ChannelOffsets = make([]int, len(img.channels))
	for i, c := range img.channels {
		img.ChannelOffsets[i] = img.PixelSize
		img.PixelSize += c.Type.Size()
	}

	if int64(img.Width)*int64(img.Height) > maxImagePixels {
		return fmt.Errorf("%w: %dx%d image exceeds %d pixels", ErrUnsupported, img.Width, img.Height, maxImagePixels)
	}

	img.lineStart = make([]int, img.Height+1)
	var total int64
	for i := 0; i < img.Height; i++ {
		img.lineStart[i] = int(total)
		total += int64(img.lineBytes(int(img.DataWindow.Min.Y) + i))
		if total > maxImageBytes {
			return fmt.Errorf("%w: %dx%d image exceeds %d bytes", ErrUnsupported, img.Width, img.Height, int64(maxImageBytes))
		}
	}
	img.lineStart[img.Height] = int(total)
	return nil
}

// lineBytes returns the size of scanline y over all channels sampled on it.
func (img *Image) lineBytes(y int) int {
	n := 0
	for _, c := range img.channels {
		n += img.channelSamples(c, y) * c.Type.Size()
	}
	return n
}

// channelSamples returns how many samples channel c stores on scanline y.
func (img *Image) channelSamples(c Channel, y int) int {
	if mod(y, int(c.YSampling)) != 0 {
		return 0
	}
	return numSamples(int(c.XSampling), int(img.DataWindow.Min.X), int(img.DataWindow.Max.X))
}

// numSamples counts the multiples of s in [a, b].
func numSamples(s, a, b int) int {
	return floorDiv(b, s) - floorDiv(a-1, s)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	return a - floorDiv(a, b)*b
}

// chunkCount returns ceil(height / scanlinesPerChunk).
func (img *Image) chunkCount() int {
	return (img.Height + img.ScanlinesPerChunk - 1) / img.ScanlinesPerChunk
}

// chunkLines returns the first data window row index and the row count of
// chunk i.
func (img *Image) chunkLines(i int) (first, n int) {
	first = i * img.ScanlinesPerChunk
	n = img.ScanlinesPerChunk
	if first+n > img.Height {
		n = img.Height - first
	}
	return first, n
}

// readOffsets reads the chunk offset table and derives each chunk's size
// from its neighbour in file order. Offsets must lie after the table and
// inside the file, and must be strictly monotonic in the direction of the
// file's line order.
func (img *Image) readOffsets(r *cursor.Reader) error {
	n := img.chunkCount()
	fileLen := uint64(len(img.data))
	tableEnd := uint64(r.Pos()) + uint64(n)*8
	if tableEnd > fileLen {
		return fmt.Errorf("%w: %d offsets need %d bytes, file has %d", ErrOffsetTableInconsistency, n, tableEnd, fileLen)
	}

	img.Offsets = make([]OffsetEntry, n)
	for i := range img.Offsets {
		off, err := r.ReadUint64()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOffsetTableInconsistency, err)
		}
		if off < tableEnd || off > fileLen || fileLen-off < chunkHeaderBytes {
			return fmt.Errorf("%w: chunk %d at offset %d outside [%d, %d)", ErrOffsetTableInconsistency, i, off, tableEnd, fileLen)
		}
		img.Offsets[i].Offset = off
	}

	// Visit chunks in the order they are stored.
	order := make([]int, n)
	for i := range order {
		order[i] = i
		if img.Header.LineOrder() == LineOrderDecreasing {
			order[i] = n - 1 - i
		}
	}
	for k, i := range order {
		if k+1 == n {
			img.Offsets[i].Size = fileLen - img.Offsets[i].Offset
			break
		}
		next := img.Offsets[order[k+1]].Offset
		if next <= img.Offsets[i].Offset {
			return fmt.Errorf("%w: chunk %d at offset %d follows chunk %d at offset %d",
				ErrOffsetTableInconsistency, order[k+1], next, i, img.Offsets[i].Offset)
		}
		img.Offsets[i].Size = next - img.Offsets[i].Offset
	}
	return nil
}

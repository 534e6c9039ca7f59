package exr

import (
	"context"
	"fmt"

	"github.com/mrjoshuak/exrview/compression"
	"github.com/mrjoshuak/exrview/internal/cursor"
)

// chunkRef is a chunk whose header words have been read and validated.
type chunkRef struct {
	index int    // position in the offset table
	first int    // first data window row
	lines int    // rows in the chunk
	data  []byte // compressed payload
}

// DecodePixels decompresses every chunk into the image's pixel buffer. It
// is a no-op once the image has been decoded. Chunks are decoded on up to
// opts.Workers goroutines; the first failure aborts decoding and leaves the
// image undecoded.
func (img *Image) DecodePixels(ctx context.Context, opts DecodeOptions) error {
	if img.decoded {
		return nil
	}
	if !img.Compression.Supported() {
		return fmt.Errorf("%w: %s compression", ErrUnsupported, img.Compression)
	}

	chunks, err := img.readChunkHeaders()
	if err != nil {
		return err
	}

	pixels := make([]byte, img.lineStart[img.Height])
	err = parallelForWithError(ctx, len(chunks), opts, func(i int) error {
		c := chunks[i]
		dst := pixels[img.lineStart[c.first]:img.lineStart[c.first+c.lines]]
		if err := img.decodeChunk(dst, c); err != nil {
			return fmt.Errorf("chunk %d (y=%d): %w", c.index, int(img.DataWindow.Min.Y)+c.first, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	img.pixels = pixels
	img.decoded = true
	return nil
}

// readChunkHeaders reads the scanline index and data size at the start of
// every chunk. Chunks are placed by their stored scanline index, which must
// start a chunk inside the data window and appear only once.
func (img *Image) readChunkHeaders() ([]chunkRef, error) {
	chunks := make([]chunkRef, len(img.Offsets))
	seen := make([]bool, len(img.Offsets))
	minY := int(img.DataWindow.Min.Y)

	for i, e := range img.Offsets {
		r := cursor.NewReader(img.data[e.Offset : e.Offset+e.Size])
		y, err := r.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d header: %w", ErrTruncatedChunk, i, err)
		}
		size, err := r.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d header: %w", ErrTruncatedChunk, i, err)
		}

		row := int(y) - minY
		if int(y) < minY || row >= img.Height || row%img.ScanlinesPerChunk != 0 {
			return nil, fmt.Errorf("%w: chunk %d stores scanline %d", ErrOffsetTableInconsistency, i, y)
		}
		slot := row / img.ScanlinesPerChunk
		if seen[slot] {
			return nil, fmt.Errorf("%w: scanline %d stored twice", ErrOffsetTableInconsistency, y)
		}
		seen[slot] = true

		if size < 0 || uint64(size) > e.Size-chunkHeaderBytes {
			return nil, fmt.Errorf("%w: chunk %d declares %d bytes, %d available", ErrTruncatedChunk, i, size, e.Size-chunkHeaderBytes)
		}
		data, _ := r.Slice(int(size))

		first, lines := img.chunkLines(slot)
		chunks[i] = chunkRef{index: i, first: first, lines: lines, data: data}
	}
	return chunks, nil
}

// decodeChunk fills dst, the chunk's scanlines in file layout, from the
// chunk payload. A payload exactly as large as the raw data is stored
// uncompressed regardless of the file's compression.
func (img *Image) decodeChunk(dst []byte, c chunkRef) error {
	if len(c.data) == len(dst) {
		copy(dst, c.data)
		return nil
	}

	switch img.Compression {
	case CompressionNone:
		return fmt.Errorf("%w: uncompressed chunk holds %d bytes, want %d", ErrTruncatedChunk, len(c.data), len(dst))
	case CompressionRLE:
		return compression.RLEDecode(dst, c.data)
	case CompressionZIPS, CompressionZIP:
		return compression.ZIPDecode(dst, c.data)
	case CompressionPXR24:
		return compression.PXR24DecompressTo(dst, c.data, img.pxr24Layout(c.first, c.lines))
	default:
		return fmt.Errorf("%w: %s compression", ErrUnsupported, img.Compression)
	}
}

// pxr24Layout describes rows [first, first+lines) of the data window as
// one entry per scanline and channel.
func (img *Image) pxr24Layout(first, lines int) []compression.ChannelInfo {
	layout := make([]compression.ChannelInfo, 0, lines*len(img.channels))
	for row := first; row < first+lines; row++ {
		y := int(img.DataWindow.Min.Y) + row
		for _, c := range img.channels {
			layout = append(layout, compression.ChannelInfo{
				Type:  int(c.Type),
				Width: img.channelSamples(c, y),
			})
		}
	}
	return layout
}

// Decoded reports whether DecodePixels has completed.
func (img *Image) Decoded() bool {
	return img.decoded
}

// Pixels returns the decoded pixel buffer in file layout: for each scanline
// of the data window, each sampled channel's samples in channel list
// order, little endian.
func (img *Image) Pixels() ([]byte, error) {
	if !img.decoded {
		return nil, ErrNotDecoded
	}
	return img.pixels, nil
}

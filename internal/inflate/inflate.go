// Package inflate decodes raw DEFLATE (RFC 1951) streams into a caller
// supplied buffer.
//
// The output size is always known in advance for OpenEXR chunks, so the
// decoder never grows its output: writing past the end of dst is an error.
package inflate

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mrjoshuak/exrview/internal/cursor"
)

var (
	ErrMalformedHuffmanTable  = errors.New("inflate: malformed huffman table")
	ErrRawBlockLengthMismatch = errors.New("inflate: stored block length does not match its complement")
	ErrReservedBlockType      = errors.New("inflate: reserved block type")
	ErrOutputBufferOverrun    = errors.New("inflate: output buffer overrun")
	ErrInvalidDistance        = errors.New("inflate: invalid back-reference distance")
	ErrInvalidSymbol          = errors.New("inflate: invalid symbol")
	ErrTruncated              = errors.New("inflate: truncated stream")
)

const (
	blockStored  = 0
	blockFixed   = 1
	blockDynamic = 2

	endOfBlock = 256
	numLengths = 29
	numDists   = 30
)

var lengthBase = [numLengths]uint16{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
	35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258,
}

var lengthExtra = [numLengths]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
	3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
}

var distBase = [numDists]uint16{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
	257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
}

var distExtra = [numDists]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
	7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// Order in which code length code lengths are transmitted.
var codeLengthOrder = [19]uint8{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

var (
	fixedOnce sync.Once
	fixedLit  *Table
	fixedDist *Table
)

func initFixed() {
	var lengths [maxSymbols]uint8
	for i := range lengths {
		switch {
		case i < 144:
			lengths[i] = 8
		case i < 256:
			lengths[i] = 9
		case i < 280:
			lengths[i] = 7
		default:
			lengths[i] = 8
		}
	}
	var err error
	if fixedLit, err = NewTable(lengths[:]); err != nil {
		panic(err)
	}

	// Distance codes 30 and 31 take part in the code but never occur.
	var dist [32]uint8
	for i := range dist {
		dist[i] = 5
	}
	if fixedDist, err = NewTable(dist[:]); err != nil {
		panic(err)
	}
}

// Decompressor inflates a single DEFLATE stream. Its Huffman tables are
// reused across the dynamic blocks of the stream.
type Decompressor struct {
	r *cursor.Reader

	lit     Table
	dist    Table
	codeLen Table

	lengths [maxSymbols + numDists]uint8
}

// NewDecompressor returns a Decompressor reading the raw DEFLATE data in src.
func NewDecompressor(src []byte) *Decompressor {
	return &Decompressor{r: cursor.NewReader(src)}
}

// Inflate decompresses src into dst and returns the number of bytes written.
func Inflate(dst, src []byte) (int, error) {
	return NewDecompressor(src).InflateTo(dst)
}

// InputOffset returns the number of input bytes consumed so far, counting a
// partially read byte as consumed.
func (d *Decompressor) InputOffset() int {
	if d.r.BitPos() > 0 {
		return d.r.Pos() + 1
	}
	return d.r.Pos()
}

// InflateTo decodes blocks until the final block and returns the number of
// bytes written to dst.
func (d *Decompressor) InflateTo(dst []byte) (int, error) {
	n := 0
	for {
		hdr, err := d.bits(3)
		if err != nil {
			return n, err
		}
		final := hdr&1 == 1

		switch hdr >> 1 {
		case blockStored:
			n, err = d.stored(dst, n)
		case blockFixed:
			fixedOnce.Do(initFixed)
			n, err = d.huffmanBlock(dst, n, fixedLit, fixedDist)
		case blockDynamic:
			if err = d.readDynamicTables(); err == nil {
				n, err = d.huffmanBlock(dst, n, &d.lit, &d.dist)
			}
		default:
			err = ErrReservedBlockType
		}
		if err != nil {
			return n, err
		}
		if final {
			return n, nil
		}
	}
}

func (d *Decompressor) bits(n uint) (uint32, error) {
	v, err := d.r.ReadBits(n)
	if err != nil {
		return 0, fmt.Errorf("%w: reading %d bits at byte %d", ErrTruncated, n, d.r.Pos())
	}
	return v, nil
}

func (d *Decompressor) stored(dst []byte, n int) (int, error) {
	d.r.ByteAlign()
	length, err := d.r.ReadUint16()
	if err != nil {
		return n, fmt.Errorf("%w: stored block header", ErrTruncated)
	}
	nlength, err := d.r.ReadUint16()
	if err != nil {
		return n, fmt.Errorf("%w: stored block header", ErrTruncated)
	}
	if length != ^nlength {
		return n, fmt.Errorf("%w: LEN %#04x NLEN %#04x", ErrRawBlockLengthMismatch, length, nlength)
	}
	end := n + int(length)
	if end > len(dst) {
		return n, fmt.Errorf("%w: stored block of %d bytes at offset %d, buffer is %d", ErrOutputBufferOverrun, length, n, len(dst))
	}
	if err := d.r.ReadBytesInto(dst[n:end]); err != nil {
		return n, fmt.Errorf("%w: stored block of %d bytes", ErrTruncated, length)
	}
	return end, nil
}

func (d *Decompressor) readDynamicTables() error {
	hlit, err := d.bits(5)
	if err != nil {
		return err
	}
	hdist, err := d.bits(5)
	if err != nil {
		return err
	}
	hclen, err := d.bits(4)
	if err != nil {
		return err
	}
	nlit, ndist, nclen := int(hlit)+257, int(hdist)+1, int(hclen)+4
	if nlit > 286 || ndist > numDists {
		return fmt.Errorf("%w: %d literal and %d distance codes", ErrMalformedHuffmanTable, nlit, ndist)
	}

	var clens [19]uint8
	for i := 0; i < nclen; i++ {
		v, err := d.bits(3)
		if err != nil {
			return err
		}
		clens[codeLengthOrder[i]] = uint8(v)
	}
	if err := d.codeLen.init(clens[:]); err != nil {
		return err
	}

	lengths := d.lengths[:nlit+ndist]
	for i := 0; i < len(lengths); {
		sym, _, err := decodeSymbol(d.r, &d.codeLen)
		if err != nil {
			return fmt.Errorf("%w: code lengths: %w", ErrMalformedHuffmanTable, err)
		}
		if sym < 16 {
			lengths[i] = uint8(sym)
			i++
			continue
		}

		var rep uint32
		var val uint8
		switch sym {
		case 16:
			if i == 0 {
				return fmt.Errorf("%w: repeat with no previous length", ErrMalformedHuffmanTable)
			}
			val = lengths[i-1]
			rep, err = d.bits(2)
			rep += 3
		case 17:
			rep, err = d.bits(3)
			rep += 3
		default:
			rep, err = d.bits(7)
			rep += 11
		}
		if err != nil {
			return err
		}
		if i+int(rep) > len(lengths) {
			return fmt.Errorf("%w: code length repeat overflows %d codes", ErrMalformedHuffmanTable, len(lengths))
		}
		for ; rep > 0; rep-- {
			lengths[i] = val
			i++
		}
	}

	if lengths[endOfBlock] == 0 {
		return fmt.Errorf("%w: no end-of-block code", ErrMalformedHuffmanTable)
	}
	if err := d.lit.init(lengths[:nlit]); err != nil {
		return err
	}
	return d.dist.init(lengths[nlit:])
}

func (d *Decompressor) huffmanBlock(dst []byte, n int, lit, dist *Table) (int, error) {
	for {
		sym, _, err := decodeSymbol(d.r, lit)
		if err != nil {
			return n, err
		}
		switch {
		case sym < endOfBlock:
			if n >= len(dst) {
				return n, fmt.Errorf("%w: literal at offset %d", ErrOutputBufferOverrun, n)
			}
			dst[n] = byte(sym)
			n++
			continue
		case sym == endOfBlock:
			return n, nil
		}

		sym -= endOfBlock + 1
		if sym >= numLengths {
			return n, fmt.Errorf("%w: length code %d", ErrInvalidSymbol, sym+endOfBlock+1)
		}
		extra, err := d.bits(uint(lengthExtra[sym]))
		if err != nil {
			return n, err
		}
		length := int(lengthBase[sym]) + int(extra)

		dsym, _, err := decodeSymbol(d.r, dist)
		if err != nil {
			return n, err
		}
		if dsym >= numDists {
			return n, fmt.Errorf("%w: distance code %d", ErrInvalidDistance, dsym)
		}
		extra, err = d.bits(uint(distExtra[dsym]))
		if err != nil {
			return n, err
		}
		distance := int(distBase[dsym]) + int(extra)

		if distance > n {
			return n, fmt.Errorf("%w: %d bytes back with %d written", ErrInvalidDistance, distance, n)
		}
		if n+length > len(dst) {
			return n, fmt.Errorf("%w: copy of %d bytes at offset %d, buffer is %d", ErrOutputBufferOverrun, length, n, len(dst))
		}
		// Source and destination may overlap; copy forward one byte at a time.
		for src := n - distance; length > 0; length-- {
			dst[n] = dst[src]
			n++
			src++
		}
	}
}

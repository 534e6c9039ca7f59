package inflate

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrjoshuak/exrview/internal/cursor"
)

// bitWriter packs bits LSB-first, the DEFLATE bit order.
type bitWriter struct {
	buf   []byte
	acc   uint64
	nbits uint
}

func (w *bitWriter) writeBits(v uint32, n uint) {
	w.acc |= uint64(v) << w.nbits
	w.nbits += n
	for w.nbits >= 8 {
		w.buf = append(w.buf, byte(w.acc))
		w.acc >>= 8
		w.nbits -= 8
	}
}

// writeCode writes a Huffman code, which DEFLATE packs starting from its
// most significant bit.
func (w *bitWriter) writeCode(code uint32, n uint) {
	w.writeBits(reverse(code, n), n)
}

func (w *bitWriter) bytes() []byte {
	if w.nbits > 0 {
		return append(w.buf, byte(w.acc))
	}
	return w.buf
}

// canonicalCodes assigns RFC 1951 canonical codes to lengths.
func canonicalCodes(lengths []uint8) []uint32 {
	var count [16]uint32
	for _, l := range lengths {
		if l > 0 {
			count[l]++
		}
	}
	var next [16]uint32
	code := uint32(0)
	for l := 1; l < 16; l++ {
		code = (code + count[l-1]) << 1
		next[l] = code
	}
	codes := make([]uint32, len(lengths))
	for sym, l := range lengths {
		if l > 0 {
			codes[sym] = next[l]
			next[l]++
		}
	}
	return codes
}

func deflate(t testing.TB, data []byte, level int) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, level)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestNewTableCanonical(t *testing.T) {
	// Lengths {2,1,3,3} give codes 10, 0, 110, 111.
	tab, err := NewTable([]uint8{2, 1, 3, 3})
	require.NoError(t, err)

	assert.Equal(t, int16(1<<lenShift|1), tab.fast[0])
	assert.Equal(t, int16(2<<lenShift|0), tab.fast[1])
	assert.Equal(t, int16(3<<lenShift|2), tab.fast[3])
	assert.Equal(t, int16(3<<lenShift|3), tab.fast[7])
	for i := 0; i < fastSize; i += 2 {
		require.Equal(t, int16(1<<lenShift|1), tab.fast[i], "slot %d", i)
	}
	assert.Len(t, tab.tree, treeRoot)
}

func TestNewTableMalformed(t *testing.T) {
	tests := []struct {
		name    string
		lengths []uint8
	}{
		{"oversubscribed", []uint8{1, 1, 1}},
		{"incomplete", []uint8{1, 2}},
		{"length too long", []uint8{16, 1}},
		{"too many symbols", make([]uint8, maxSymbols+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.lengths)
			assert.ErrorIs(t, err, ErrMalformedHuffmanTable)
		})
	}
}

func TestNewTableDegenerate(t *testing.T) {
	// A single used symbol may leave the code space incomplete.
	tab, err := NewTable([]uint8{0, 0, 3})
	require.NoError(t, err)

	sym, n, err := decodeSymbol(cursor.NewReader([]byte{0x00}), tab)
	require.NoError(t, err)
	assert.Equal(t, 2, sym)
	assert.Equal(t, uint(3), n)

	_, _, err = decodeSymbol(cursor.NewReader([]byte{0x01}), tab)
	assert.ErrorIs(t, err, ErrInvalidSymbol)

	empty, err := NewTable(nil)
	require.NoError(t, err)
	_, _, err = decodeSymbol(cursor.NewReader([]byte{0xff, 0xff}), empty)
	assert.ErrorIs(t, err, ErrInvalidSymbol)
}

func TestDecodeLongCodes(t *testing.T) {
	// Lengths 1..15 plus a second 15 form a complete code with codes
	// longer than the fast table.
	lengths := make([]uint8, 16)
	for i := 0; i < 15; i++ {
		lengths[i] = uint8(i + 1)
	}
	lengths[15] = 15
	tab, err := NewTable(lengths)
	require.NoError(t, err)
	assert.Greater(t, len(tab.tree), treeRoot)

	codes := canonicalCodes(lengths)
	var w bitWriter
	for sym := len(lengths) - 1; sym >= 0; sym-- {
		w.writeCode(codes[sym], uint(lengths[sym]))
	}
	r := cursor.NewReader(w.bytes())
	for sym := len(lengths) - 1; sym >= 0; sym-- {
		got, n, err := decodeSymbol(r, tab)
		require.NoError(t, err)
		assert.Equal(t, sym, got)
		assert.Equal(t, uint(lengths[sym]), n)
	}
}

func TestDecodeSymbolTruncated(t *testing.T) {
	lengths := make([]uint8, 256)
	for i := range lengths {
		lengths[i] = 8
	}
	tab, err := NewTable(lengths)
	require.NoError(t, err)

	r := cursor.NewReader([]byte{0x00})
	require.NoError(t, r.SkipBits(0, 4))
	_, _, err = decodeSymbol(r, tab)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestInflateRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	random := make([]byte, 70000)
	rng.Read(random)

	inputs := map[string][]byte{
		"empty":  {},
		"byte":   {0x42},
		"text":   []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 500)),
		"zeros":  make([]byte, 100000),
		"random": random,
		"ramp": func() []byte {
			b := make([]byte, 40000)
			for i := range b {
				b[i] = byte(i * i >> 7)
			}
			return b
		}(),
	}
	levels := map[string]int{
		"stored":      flate.NoCompression,
		"huffmanOnly": flate.HuffmanOnly,
		"fastest":     flate.BestSpeed,
		"default":     flate.DefaultCompression,
		"best":        flate.BestCompression,
	}

	for name, data := range inputs {
		for lname, level := range levels {
			t.Run(name+"/"+lname, func(t *testing.T) {
				compressed := deflate(t, data, level)
				dst := make([]byte, len(data))
				n, err := Inflate(dst, compressed)
				require.NoError(t, err)
				require.Equal(t, len(data), n)
				require.True(t, bytes.Equal(data, dst), "output differs")
			})
		}
	}
}

func TestInflateDecompressorReuse(t *testing.T) {
	// Several dynamic blocks in one stream exercise table reinitialization.
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	require.NoError(t, err)
	var want []byte
	for i := 0; i < 4; i++ {
		chunk := bytes.Repeat([]byte{byte('a' + i), byte(i), 0xFF}, 2000+i*100)
		want = append(want, chunk...)
		_, err = w.Write(chunk)
		require.NoError(t, err)
		require.NoError(t, w.Flush())
	}
	require.NoError(t, w.Close())

	d := NewDecompressor(buf.Bytes())
	dst := make([]byte, len(want))
	n, err := d.InflateTo(dst)
	require.NoError(t, err)
	assert.Equal(t, len(want), n)
	assert.Equal(t, want, dst)
	assert.Equal(t, buf.Len(), d.InputOffset())
}

func TestInflateFixedBlock(t *testing.T) {
	// Literal 'a', then a length 3 distance 1 copy: "aaaa".
	var w bitWriter
	w.writeBits(1, 1)          // BFINAL
	w.writeBits(blockFixed, 2) // BTYPE
	w.writeCode(0x30+'a', 8)   // literals 0..143 start at 00110000
	w.writeCode(257-256, 7)    // length codes 256..279 start at 0000000
	w.writeCode(0, 5)          // distance 1
	w.writeCode(endOfBlock-256, 7)

	dst := make([]byte, 4)
	n, err := Inflate(dst, w.bytes())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("aaaa"), dst)
}

func TestInflateFixedHighLiterals(t *testing.T) {
	var w bitWriter
	w.writeBits(1, 1)
	w.writeBits(blockFixed, 2)
	w.writeCode(0x190+200-144, 9) // literals 144..255 start at 110010000
	w.writeCode(0xC0+280-280, 8)  // length codes 280..287 start at 11000000
	w.writeBits(0, 4)             // length 115
	w.writeCode(0, 5)
	w.writeCode(0, 7)

	dst := make([]byte, 116)
	n, err := Inflate(dst, w.bytes())
	require.NoError(t, err)
	assert.Equal(t, 116, n)
	assert.Equal(t, bytes.Repeat([]byte{200}, 116), dst)
}

func TestInflateErrors(t *testing.T) {
	fixedStream := func(fn func(w *bitWriter)) []byte {
		var w bitWriter
		w.writeBits(1, 1)
		w.writeBits(blockFixed, 2)
		fn(&w)
		return w.bytes()
	}

	tests := []struct {
		name string
		src  []byte
		dst  int
		want error
	}{
		{"reserved block type", []byte{0x07}, 16, ErrReservedBlockType},
		{"stored length mismatch", []byte{0x01, 0x05, 0x00, 0x00, 0x00}, 16, ErrRawBlockLengthMismatch},
		{"empty input", nil, 16, ErrTruncated},
		{"stored overrun", []byte{0x01, 0x05, 0x00, 0xFA, 0xFF, 1, 2, 3, 4, 5}, 4, ErrOutputBufferOverrun},
		{"stored truncated", []byte{0x01, 0x05, 0x00, 0xFA, 0xFF, 1, 2}, 16, ErrTruncated},
		{"distance before start", fixedStream(func(w *bitWriter) {
			w.writeCode(1, 7)
			w.writeCode(0, 5)
		}), 16, ErrInvalidDistance},
		{"reserved distance code", fixedStream(func(w *bitWriter) {
			w.writeCode(0x30, 8)
			w.writeCode(1, 7)
			w.writeCode(30, 5)
		}), 16, ErrInvalidDistance},
		{"reserved length code", fixedStream(func(w *bitWriter) {
			w.writeCode(0xC0+286-280, 8)
		}), 16, ErrInvalidSymbol},
		{"literal overrun", fixedStream(func(w *bitWriter) {
			w.writeCode(0x30, 8)
			w.writeCode(0x30, 8)
		}), 1, ErrOutputBufferOverrun},
		{"copy overrun", fixedStream(func(w *bitWriter) {
			w.writeCode(0x30, 8)
			w.writeCode(1, 7)
			w.writeCode(0, 5)
		}), 3, ErrOutputBufferOverrun},
		{"dynamic too many literal codes", func() []byte {
			var w bitWriter
			w.writeBits(1, 1)
			w.writeBits(blockDynamic, 2)
			w.writeBits(30, 5)
			w.writeBits(0, 5)
			w.writeBits(0, 4)
			return w.bytes()
		}(), 16, ErrMalformedHuffmanTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Inflate(make([]byte, tt.dst), tt.src)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestInflateOverrunCompressed(t *testing.T) {
	data := []byte(strings.Repeat("overrun ", 100))
	for _, level := range []int{flate.NoCompression, flate.HuffmanOnly, flate.BestCompression} {
		_, err := Inflate(make([]byte, len(data)/2), deflate(t, data, level))
		assert.ErrorIs(t, err, ErrOutputBufferOverrun, "level %d", level)
	}
}

func TestInflateTruncatedStored(t *testing.T) {
	data := bytes.Repeat([]byte{1, 2, 3}, 400)
	compressed := deflate(t, data, flate.NoCompression)
	_, err := Inflate(make([]byte, len(data)), compressed[:len(compressed)/2])
	assert.ErrorIs(t, err, ErrTruncated)
}

func BenchmarkInflate(b *testing.B) {
	data := []byte(strings.Repeat("benchmark data with some repetition 0123456789 ", 2000))
	compressed := deflate(b, data, flate.DefaultCompression)
	dst := make([]byte, len(data))
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Inflate(dst, compressed); err != nil {
			b.Fatal(err)
		}
	}
}

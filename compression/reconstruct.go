package compression

import (
	"sync"

	"github.com/mrjoshuak/exrview/internal/interleave"
	"github.com/mrjoshuak/exrview/internal/predictor"
)

// Reconstruct turns the decompressed form of a ZIP or RLE chunk back into
// raw pixel bytes: it reverses the predictor on src in place, then restores
// the original order from the [even | odd] split into dst. len(dst) must be
// at least len(src).
func Reconstruct(dst, src []byte) {
	predictor.Decode(src)
	interleave.Deinterleave(dst[:len(src)], src)
}

// Deconstruct is the inverse of Reconstruct: it writes the split,
// predicted form of src to dst. src is not modified.
func Deconstruct(dst, src []byte) {
	interleave.Interleave(dst[:len(src)], src)
	predictor.Encode(dst[:len(src)])
}

var scratchPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 64<<10)
		return &b
	},
}

func getScratch(n int) []byte {
	bp := scratchPool.Get().(*[]byte)
	if cap(*bp) < n {
		*bp = make([]byte, n)
	}
	return (*bp)[:n]
}

func putScratch(b []byte) {
	b = b[:0]
	scratchPool.Put(&b)
}

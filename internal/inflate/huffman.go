package inflate

import (
	"fmt"

	"github.com/mrjoshuak/exrview/internal/cursor"
)

const (
	fastBits   = 10
	fastSize   = 1 << fastBits
	fastMask   = fastSize - 1
	maxCodeLen = 15

	// Largest alphabet: 286 literal/length codes plus two reserved.
	maxSymbols = 288

	// Entries hold (codeLength << lenShift) | symbol.
	lenShift   = 9
	symbolMask = 1<<lenShift - 1

	// tree[0] and tree[1] are never used so that a node index is always a
	// negative number distinct from the empty entry.
	treeRoot = 2
)

// Table is a canonical Huffman decoding table.
//
// Codes of up to 10 bits resolve with a single lookup in fast. Longer codes
// share a fast slot holding the negated index of a node in tree; each node is
// a pair of entries for the next bit being 0 or 1, and each entry is either
// a leaf in the same (len<<9)|symbol form, another negated node index, or
// zero for a code that does not exist.
type Table struct {
	fast [fastSize]int16
	tree []int16
}

// NewTable builds a decoding table from per-symbol code lengths, where a
// length of 0 means the symbol is unused.
func NewTable(lengths []uint8) (*Table, error) {
	t := &Table{}
	if err := t.init(lengths); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) init(lengths []uint8) error {
	if len(lengths) > maxSymbols {
		return fmt.Errorf("%w: %d symbols", ErrMalformedHuffmanTable, len(lengths))
	}

	var count [maxCodeLen + 1]int
	used := 0
	for sym, l := range lengths {
		if l > maxCodeLen {
			return fmt.Errorf("%w: symbol %d has length %d", ErrMalformedHuffmanTable, sym, l)
		}
		if l > 0 {
			count[l]++
			used++
		}
	}

	var next [maxCodeLen + 1]int
	code, total := 0, 0
	for l := 1; l <= maxCodeLen; l++ {
		code = (code + count[l-1]) << 1
		next[l] = code
		total += count[l] << (16 - l)
	}
	if total > 1<<16 || (used > 1 && total != 1<<16) {
		return fmt.Errorf("%w: code space %d of 65536", ErrMalformedHuffmanTable, total)
	}

	t.fast = [fastSize]int16{}
	if cap(t.tree) == 0 {
		t.tree = make([]int16, treeRoot, 64)
	}
	t.tree = t.tree[:treeRoot]
	t.tree[0], t.tree[1] = 0, 0

	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		n := uint(l)
		rev := reverse(uint32(next[l]), n)
		next[l]++
		entry := int16(int(l)<<lenShift | sym)

		if n <= fastBits {
			for i := rev; i < fastSize; i += 1 << n {
				t.fast[i] = entry
			}
			continue
		}

		slot := rev & fastMask
		if t.fast[slot] == 0 {
			t.fast[slot] = -t.newNode()
		} else if t.fast[slot] > 0 {
			return fmt.Errorf("%w: overlapping codes", ErrMalformedHuffmanTable)
		}
		node := int(-t.fast[slot])
		for b := uint(fastBits); ; b++ {
			i := node + int(rev>>b&1)
			if b == n-1 {
				if t.tree[i] != 0 {
					return fmt.Errorf("%w: overlapping codes", ErrMalformedHuffmanTable)
				}
				t.tree[i] = entry
				break
			}
			switch {
			case t.tree[i] == 0:
				child := t.newNode()
				t.tree[i] = -child
				node = int(child)
			case t.tree[i] > 0:
				return fmt.Errorf("%w: overlapping codes", ErrMalformedHuffmanTable)
			default:
				node = int(-t.tree[i])
			}
		}
	}
	return nil
}

func (t *Table) newNode() int16 {
	idx := len(t.tree)
	t.tree = append(t.tree, 0, 0)
	return int16(idx)
}

// reverse returns the low n bits of v in reverse order.
func reverse(v uint32, n uint) uint32 {
	var r uint32
	for i := uint(0); i < n; i++ {
		r = r<<1 | v&1
		v >>= 1
	}
	return r
}

// decodeSymbol reads one code from r using t and returns the symbol and the
// number of bits it occupied. Running off the end of the input while peeking
// is allowed since the final code of a stream may be shorter than the peek
// window; consuming past the end is ErrTruncated.
func decodeSymbol(r *cursor.Reader, t *Table) (int, uint, error) {
	bits, _ := r.PeekBits(maxCodeLen)

	e := t.fast[bits&fastMask]
	if e < 0 {
		node := int(-e)
		for b := uint(fastBits); b < maxCodeLen; b++ {
			e = t.tree[node+int(bits>>b&1)]
			if e >= 0 {
				break
			}
			node = int(-e)
		}
	}
	if e <= 0 {
		return 0, 0, ErrInvalidSymbol
	}

	n := uint(e) >> lenShift
	if err := r.Consume(n); err != nil {
		return 0, 0, fmt.Errorf("%w: %d-bit code with %d bits left", ErrTruncated, n, r.BitsLeft())
	}
	return int(e) & symbolMask, n, nil
}

package exr

import (
	"errors"
	"fmt"

	"github.com/mrjoshuak/exrview/compression"
	"github.com/mrjoshuak/exrview/internal/cursor"
	"github.com/mrjoshuak/exrview/internal/inflate"
)

// File structure errors
var (
	ErrMalformedHeader          = errors.New("exr: malformed header")
	ErrUnknownAttributeType     = errors.New("exr: unknown attribute type")
	ErrOffsetTableInconsistency = errors.New("exr: inconsistent offset table")
	ErrUnsupported              = errors.New("exr: unsupported feature")
	ErrTruncatedChunk           = errors.New("exr: truncated chunk")
	ErrNotDecoded               = errors.New("exr: pixels not decoded")
)

// ErrorKind classifies a decode failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindMalformedHeader
	KindUnknownAttributeType
	KindMalformedHuffmanTable
	KindRawBlockLengthMismatch
	KindReservedBlockType
	KindOutputBufferOverrun
	KindOffsetTableInconsistency
	KindTruncated
	KindCorrupt
	KindUnsupported
)

var kindNames = [...]string{
	KindUnknown:                  "unknown",
	KindMalformedHeader:          "malformed header",
	KindUnknownAttributeType:     "unknown attribute type",
	KindMalformedHuffmanTable:    "malformed huffman table",
	KindRawBlockLengthMismatch:   "raw block length mismatch",
	KindReservedBlockType:        "reserved block type",
	KindOutputBufferOverrun:      "output buffer overrun",
	KindOffsetTableInconsistency: "offset table inconsistency",
	KindTruncated:                "truncated",
	KindCorrupt:                  "corrupt",
	KindUnsupported:              "unsupported",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return kindNames[k]
}

// Fatal reports whether errors of this kind abort decoding. Unknown
// attribute types are only warnings unless strict decoding is requested.
func (k ErrorKind) Fatal() bool {
	return k != KindUnknownAttributeType
}

var kindSentinels = []struct {
	err  error
	kind ErrorKind
}{
	{ErrMalformedHeader, KindMalformedHeader},
	{ErrUnknownAttributeType, KindUnknownAttributeType},
	{inflate.ErrMalformedHuffmanTable, KindMalformedHuffmanTable},
	{inflate.ErrRawBlockLengthMismatch, KindRawBlockLengthMismatch},
	{inflate.ErrReservedBlockType, KindReservedBlockType},
	{inflate.ErrOutputBufferOverrun, KindOutputBufferOverrun},
	{ErrOffsetTableInconsistency, KindOffsetTableInconsistency},
	{ErrUnsupported, KindUnsupported},
	{cursor.ErrShortBuffer, KindTruncated},
	{inflate.ErrTruncated, KindTruncated},
	{ErrTruncatedChunk, KindTruncated},
	{inflate.ErrInvalidDistance, KindCorrupt},
	{inflate.ErrInvalidSymbol, KindCorrupt},
	{compression.ErrZlibHeader, KindCorrupt},
	{compression.ErrZIPCorrupted, KindCorrupt},
	{compression.ErrRLECorrupted, KindCorrupt},
	{compression.ErrPXR24Corrupted, KindCorrupt},
}

// Classify returns the kind of the first known sentinel found in err's
// chain, or KindUnknown.
func Classify(err error) ErrorKind {
	for _, s := range kindSentinels {
		if errors.Is(err, s.err) {
			return s.kind
		}
	}
	return KindUnknown
}

// DecodeError is returned by the Decode functions. It names the input and
// classifies the cause.
type DecodeError struct {
	File string
	Kind ErrorKind
	Err  error
}

func newDecodeError(file string, err error) *DecodeError {
	return &DecodeError{File: file, Kind: Classify(err), Err: err}
}

func (e *DecodeError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("exr: decode: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("exr: decode %s: %s: %v", e.File, e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

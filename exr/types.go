// Package exr decodes single-part scanline OpenEXR images.
//
// Parse reads the header and chunk offset table of a file held in memory;
// (*Image).DecodePixels decompresses every chunk; (*Image).RGBA converts the
// R, G, B and A channels to a float32 RGBA buffer. Decode and DecodeFile do
// all three and report failures as *DecodeError.
//
// Supported compression: none, RLE, ZIPS, ZIP and PXR24. Tiled, deep and
// multi-part files, and the PIZ, B44, DWA and HTJ2K codecs, fail with
// ErrUnsupported.
package exr

import (
	"github.com/mrjoshuak/exrview/internal/cursor"
)

// V2i represents a 2D integer vector.
type V2i struct {
	X, Y int32
}

// V2f represents a 2D float vector.
type V2f struct {
	X, Y float32
}

// Box2i is an axis-aligned integer box. Both corners are inclusive.
type Box2i struct {
	Min, Max V2i
}

// Box2f is an axis-aligned float box.
type Box2f struct {
	Min, Max V2f
}

// Width returns the width of the box.
func (b Box2i) Width() int {
	return int(int64(b.Max.X) - int64(b.Min.X) + 1)
}

// Height returns the height of the box.
func (b Box2i) Height() int {
	return int(int64(b.Max.Y) - int64(b.Min.Y) + 1)
}

// IsEmpty returns true if the box has no area.
func (b Box2i) IsEmpty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y
}

func readV2i(r *cursor.Reader) (V2i, error) {
	x, err := r.ReadInt32()
	if err != nil {
		return V2i{}, err
	}
	y, err := r.ReadInt32()
	if err != nil {
		return V2i{}, err
	}
	return V2i{x, y}, nil
}

func readV2f(r *cursor.Reader) (V2f, error) {
	x, err := r.ReadFloat32()
	if err != nil {
		return V2f{}, err
	}
	y, err := r.ReadFloat32()
	if err != nil {
		return V2f{}, err
	}
	return V2f{x, y}, nil
}

func readBox2i(r *cursor.Reader) (Box2i, error) {
	min, err := readV2i(r)
	if err != nil {
		return Box2i{}, err
	}
	max, err := readV2i(r)
	if err != nil {
		return Box2i{}, err
	}
	return Box2i{min, max}, nil
}

func readBox2f(r *cursor.Reader) (Box2f, error) {
	min, err := readV2f(r)
	if err != nil {
		return Box2f{}, err
	}
	max, err := readV2f(r)
	if err != nil {
		return Box2f{}, err
	}
	return Box2f{min, max}, nil
}

func writeV2i(w *cursor.Writer, v V2i) {
	w.WriteInt32(v.X)
	w.WriteInt32(v.Y)
}

func writeV2f(w *cursor.Writer, v V2f) {
	w.WriteFloat32(v.X)
	w.WriteFloat32(v.Y)
}

func writeBox2i(w *cursor.Writer, b Box2i) {
	writeV2i(w, b.Min)
	writeV2i(w, b.Max)
}

func writeBox2f(w *cursor.Writer, b Box2f) {
	writeV2f(w, b.Min)
	writeV2f(w, b.Max)
}

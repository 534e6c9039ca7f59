package exr

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/mrjoshuak/exrview/half"
	"github.com/mrjoshuak/exrview/internal/cursor"
)

// RGBAImage represents an RGBA image decoded from an EXR file.
type RGBAImage struct {
	// Pix holds the image's pixels in RGBA order, row by row. Values are
	// linear float32 and may exceed [0, 1].
	Pix []float32
	// Stride is the pixel stride (4 for RGBA).
	Stride int
	// Rect is the image's bounds, in data window coordinates.
	Rect image.Rectangle

	// DataWindow and DisplayWindow are copied from the file header.
	DataWindow    Box2i
	DisplayWindow Box2i
}

// NewRGBAImage creates a new RGBA image with the given bounds.
func NewRGBAImage(r image.Rectangle) *RGBAImage {
	w, h := r.Dx(), r.Dy()
	return &RGBAImage{
		Pix:    make([]float32, w*h*4),
		Stride: 4,
		Rect:   r,
	}
}

// Width returns the image width in pixels.
func (img *RGBAImage) Width() int { return img.Rect.Dx() }

// Height returns the image height in pixels.
func (img *RGBAImage) Height() int { return img.Rect.Dy() }

// Bounds returns the domain for which At can return non-zero color.
func (img *RGBAImage) Bounds() image.Rectangle {
	return img.Rect
}

// ColorModel returns the Image's color model.
func (img *RGBAImage) ColorModel() color.Model {
	return color.RGBAModel
}

// At returns the color of the pixel at (x, y), clamped to [0, 1].
func (img *RGBAImage) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(img.Rect)) {
		return color.RGBA{}
	}
	i := img.PixOffset(x, y)
	return color.RGBA{
		R: uint8(clamp01(img.Pix[i+0]) * 255),
		G: uint8(clamp01(img.Pix[i+1]) * 255),
		B: uint8(clamp01(img.Pix[i+2]) * 255),
		A: uint8(clamp01(img.Pix[i+3]) * 255),
	}
}

// PixOffset returns the index of the first element of Pix for pixel (x, y).
func (img *RGBAImage) PixOffset(x, y int) int {
	return (y-img.Rect.Min.Y)*img.Rect.Dx()*img.Stride + (x-img.Rect.Min.X)*img.Stride
}

// SetRGBA sets the pixel at (x, y) to the given values.
func (img *RGBAImage) SetRGBA(x, y int, r, g, b, a float32) {
	if !(image.Point{x, y}.In(img.Rect)) {
		return
	}
	i := img.PixOffset(x, y)
	img.Pix[i+0] = r
	img.Pix[i+1] = g
	img.Pix[i+2] = b
	img.Pix[i+3] = a
}

// RGBA returns the RGBA values at (x, y).
func (img *RGBAImage) RGBA(x, y int) (r, g, b, a float32) {
	if !(image.Point{x, y}.In(img.Rect)) {
		return 0, 0, 0, 0
	}
	i := img.PixOffset(x, y)
	return img.Pix[i+0], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Channel name variants accepted for each output component.
var rgbaNames = [4][]string{
	{"R", "r", "red", "Red"},
	{"G", "g", "green", "Green"},
	{"B", "b", "blue", "Blue"},
	{"A", "a", "alpha", "Alpha"},
}

// rgbaDefaults are used for components with no matching channel.
var rgbaDefaults = [4]float32{0, 0, 0, 1}

// findChannel returns the index of the first channel matching one of
// names, or -1.
func findChannel(cl *ChannelList, names ...string) int {
	for _, name := range names {
		if i := cl.Index(name); i >= 0 {
			return i
		}
	}
	return -1
}

// RGBA converts the decoded pixels to an RGBA float image covering the data
// window. Channels other than R, G, B and A are ignored. Missing color
// components are 0 and missing alpha is 1. Subsampled channels contribute
// the sample covering each pixel.
func (img *Image) RGBA() (*RGBAImage, error) {
	if !img.decoded {
		return nil, ErrNotDecoded
	}

	dw := img.DataWindow
	out := NewRGBAImage(image.Rect(int(dw.Min.X), int(dw.Min.Y), int(dw.Max.X)+1, int(dw.Max.Y)+1))
	out.DataWindow = dw
	out.DisplayWindow = img.Header.DisplayWindow()

	var src [4]int
	for k := range src {
		src[k] = findChannel(img.Header.Channels(), rgbaNames[k]...)
	}

	for y := int(dw.Min.Y); y <= int(dw.Max.Y); y++ {
		row := out.Pix[out.PixOffset(int(dw.Min.X), y):]
		for k, ci := range src {
			if ci < 0 {
				for x := 0; x < img.Width; x++ {
					row[x*4+k] = rgbaDefaults[k]
				}
				continue
			}
			for x := 0; x < img.Width; x++ {
				v, ok := img.sample(ci, int(dw.Min.X)+x, y)
				if !ok {
					v = rgbaDefaults[k]
				}
				row[x*4+k] = v
			}
		}
	}
	return out, nil
}

// Sample returns the value of channel ci at pixel (x, y), in data window
// coordinates. For subsampled channels the sample covering the pixel is
// returned.
func (img *Image) Sample(ci, x, y int) (float32, error) {
	if !img.decoded {
		return 0, ErrNotDecoded
	}
	if ci < 0 || ci >= len(img.channels) {
		return 0, fmt.Errorf("exr: channel index %d out of range", ci)
	}
	if x < int(img.DataWindow.Min.X) || x > int(img.DataWindow.Max.X) ||
		y < int(img.DataWindow.Min.Y) || y > int(img.DataWindow.Max.Y) {
		return 0, fmt.Errorf("exr: pixel (%d, %d) outside data window", x, y)
	}
	v, ok := img.sample(ci, x, y)
	if !ok {
		return 0, fmt.Errorf("exr: channel %q has no samples", img.channels[ci].Name)
	}
	return v, nil
}

// sample reads channel ci at pixel (x, y). It reports false when the
// channel has no sample inside the data window near the pixel.
func (img *Image) sample(ci, x, y int) (float32, bool) {
	c := img.channels[ci]
	xs, ys := int(c.XSampling), int(c.YSampling)
	minX, minY := int(img.DataWindow.Min.X), int(img.DataWindow.Min.Y)

	sy := floorDiv(y, ys) * ys
	if sy < minY {
		sy += ys
	}
	if sy > int(img.DataWindow.Max.Y) {
		return 0, false
	}
	sx := floorDiv(x, xs) * xs
	if sx < minX {
		sx += xs
	}
	n := img.channelSamples(c, sy)
	idx := (sx - firstMultiple(minX, xs)) / xs
	if idx < 0 || idx >= n {
		return 0, false
	}

	off := img.lineStart[sy-minY] + img.channelRowOffset(ci, sy) + idx*c.Type.Size()
	return readSample(img.pixels[off:], c.Type), true
}

// channelRowOffset returns the byte offset of channel ci within scanline y.
func (img *Image) channelRowOffset(ci, y int) int {
	off := 0
	for _, c := range img.channels[:ci] {
		off += img.channelSamples(c, y) * c.Type.Size()
	}
	return off
}

// firstMultiple returns the smallest multiple of s not below a.
func firstMultiple(a, s int) int {
	return (floorDiv(a-1, s) + 1) * s
}

func readSample(b []byte, t PixelType) float32 {
	switch t {
	case PixelTypeHalf:
		return half.FromBits(cursor.ByteOrder.Uint16(b)).Float32()
	case PixelTypeFloat:
		return math.Float32frombits(cursor.ByteOrder.Uint32(b))
	default:
		return float32(cursor.ByteOrder.Uint32(b))
	}
}

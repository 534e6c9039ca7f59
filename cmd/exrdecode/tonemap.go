package main

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/mrjoshuak/exrview/exr"
)

// toneMap converts linear RGBA to an 8-bit sRGB preview. Color is scaled by
// 2^exposure and clipped; alpha is clipped and kept linear.
func toneMap(img *exr.RGBAImage, exposure float64) *image.NRGBA {
	w, h := img.Width(), img.Height()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	gain := float32(math.Exp2(exposure))

	for y := 0; y < h; y++ {
		src := img.Pix[y*w*img.Stride : (y+1)*w*img.Stride]
		dst := out.Pix[y*out.Stride : y*out.Stride+w*4]
		for x := 0; x < w; x++ {
			s := src[x*img.Stride : x*img.Stride+4]
			d := dst[x*4 : x*4+4]
			d[0] = to8(encodeSRGB(clip(s[0] * gain)))
			d[1] = to8(encodeSRGB(clip(s[1] * gain)))
			d[2] = to8(encodeSRGB(clip(s[2] * gain)))
			d[3] = to8(clip(s[3]))
		}
	}
	return out
}

// clip maps v to [0, 1]; NaN becomes 0.
func clip(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func encodeSRGB(v float32) float32 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	return float32(1.055*math.Pow(float64(v), 1/2.4) - 0.055)
}

func to8(v float32) uint8 {
	return uint8(v*255 + 0.5)
}

// scaleImage resizes src by factor f with Catmull-Rom filtering. Each side
// is at least one pixel.
func scaleImage(src *image.NRGBA, f float64) *image.NRGBA {
	b := src.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*f)))
	h := max(1, int(math.Round(float64(b.Dy())*f)))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

package exr_test

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/mrjoshuak/exrview/exr"
)

// Example_roundTrip writes a small image with ZIP compression and decodes
// it again.
func Example_roundTrip() {
	img := exr.NewRGBAImage(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, 1, 0.5, 0.25, 1)
	img.SetRGBA(1, 1, 0, 0, 2, 0.5)

	data, err := exr.EncodeRGBA(img, exr.DefaultEncodeOptions())
	if err != nil {
		fmt.Println("encode:", err)
		return
	}

	out, err := exr.Decode("example.exr", data, exr.DefaultDecodeOptions())
	if err != nil {
		fmt.Println("decode:", err)
		return
	}
	r, g, b, a := out.RGBA(0, 0)
	fmt.Printf("%dx%d (0,0)=%.2f %.2f %.2f %.2f\n", out.Width(), out.Height(), r, g, b, a)
	r, g, b, a = out.RGBA(1, 1)
	fmt.Printf("(1,1)=%.2f %.2f %.2f %.2f\n", r, g, b, a)
	// Output:
	// 2x2 (0,0)=1.00 0.50 0.25 1.00
	// (1,1)=0.00 0.00 2.00 0.50
}

// ExampleParse inspects the header and chunk table without decoding
// pixels.
func ExampleParse() {
	img := exr.NewRGBAImage(image.Rect(0, 0, 64, 40))
	opts := exr.DefaultEncodeOptions()
	opts.Compression = exr.CompressionPXR24
	opts.PixelType = exr.PixelTypeHalf
	data, err := exr.EncodeRGBA(img, opts)
	if err != nil {
		fmt.Println("encode:", err)
		return
	}

	f, err := exr.Parse(data, exr.DefaultDecodeOptions())
	if err != nil {
		fmt.Println("parse:", err)
		return
	}
	fmt.Println("compression:", f.Compression)
	fmt.Println("chunks:", len(f.Offsets))
	fmt.Println("channels:", f.Header.Channels().Names())
	// Output:
	// compression: pxr24
	// chunks: 3
	// channels: [A B G R]
}

// ExampleImage_DecodePixels decodes pixels explicitly and reads single
// samples.
func ExampleImage_DecodePixels() {
	img := exr.NewRGBAImage(image.Rect(0, 0, 4, 4))
	img.SetRGBA(3, 2, 0.75, 0, 0, 1)
	data, _ := exr.EncodeRGBA(img, exr.DefaultEncodeOptions())

	f, err := exr.Parse(data, exr.DefaultDecodeOptions())
	if err != nil {
		fmt.Println("parse:", err)
		return
	}
	if err := f.DecodePixels(context.Background(), exr.DecodeOptions{Workers: 2, GrainSize: 1}); err != nil {
		fmt.Println("decode:", err)
		return
	}
	r, _ := f.Sample(f.Header.Channels().Index("R"), 3, 2)
	fmt.Println("R(3,2) =", r)
	// Output:
	// R(3,2) = 0.75
}

// ExampleClassify shows how decode failures are categorized.
func ExampleClassify() {
	_, err := exr.Decode("broken.exr", []byte("not an exr file"), exr.DefaultDecodeOptions())

	var de *exr.DecodeError
	if errors.As(err, &de) {
		fmt.Println(de.File, de.Kind)
	}
	fmt.Println(exr.Classify(err) == exr.KindMalformedHeader)
	// Output:
	// broken.exr malformed header
	// true
}

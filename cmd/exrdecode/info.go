package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrjoshuak/exrview/compression"
	"github.com/mrjoshuak/exrview/exr"
)

func newInfoCommand(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.exr> ...",
		Short: "Print the header and chunk table of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, file := range args {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				if err := printInfo(cmd.OutOrStdout(), file, cfg.decodeOptions()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func printInfo(w io.Writer, file string, opts exr.DecodeOptions) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	img, err := exr.Parse(data, opts)
	if err != nil {
		return &exitError{code: exitFailed, err: fmt.Errorf("%s: %w", file, err)}
	}
	h := img.Header

	fmt.Fprintf(w, "file %s:\n\n", file)
	fmt.Fprintf(w, "file format version: %d, flags 0x%x\n", img.Version&0xff, img.Flags())
	for _, attr := range h.Attributes() {
		fmt.Fprintf(w, "%s (type %s)%s\n", attr.Name, attr.Type, formatValue(attr.Value))
	}

	fmt.Fprintf(w, "\nchunks: %d of up to %d scanlines\n", len(img.Offsets), img.ScanlinesPerChunk)
	if n := len(img.Offsets); n > 0 {
		first, last := img.Offsets[0], img.Offsets[n-1]
		fmt.Fprintf(w, "    first at %d (%d bytes), last at %d (%d bytes)\n", first.Offset, first.Size, last.Offset, last.Size)
		if level, ok := zlibLevel(img, data); ok {
			fmt.Fprintf(w, "    zlib level: %s\n", level)
		}
	}
	if !img.Compression.Supported() {
		fmt.Fprintf(w, "pixels: %s compression is not supported\n", img.Compression)
	}
	for _, warn := range img.Warnings {
		fmt.Fprintf(w, "warning: %v\n", warn)
	}
	return nil
}

// zlibLevel reports the level recorded in the stream header of the first
// chunk of a ZIP or ZIPS file. Chunks stored raw have no header.
func zlibLevel(img *exr.Image, data []byte) (compression.FLevel, bool) {
	if img.Compression != exr.CompressionZIP && img.Compression != exr.CompressionZIPS {
		return 0, false
	}
	e := img.Offsets[0]
	start := e.Offset + 8
	if start >= uint64(len(data)) || e.Size <= 8 {
		return 0, false
	}
	if n := e.Size - 8; n == uint64(img.Width*img.PixelSize*min(img.ScanlinesPerChunk, img.Height)) {
		return 0, false
	}
	return compression.DetectZlibFLevel(data[start:])
}

// formatValue renders an attribute value after its name, in the style of
// exrheader.
func formatValue(v exr.AttributeValue) string {
	switch v := v.(type) {
	case *exr.ChannelList:
		var b strings.Builder
		b.WriteString(":")
		for i := 0; i < v.Len(); i++ {
			c := v.At(i)
			fmt.Fprintf(&b, "\n    %s, %s, sampling %d %d", c.Name, formatPixelType(c.Type), c.XSampling, c.YSampling)
			if c.PLinear {
				b.WriteString(", plinear")
			}
		}
		return b.String()
	case exr.Box2i:
		return fmt.Sprintf(": (%d %d) - (%d %d)", v.Min.X, v.Min.Y, v.Max.X, v.Max.Y)
	case exr.Box2f:
		return fmt.Sprintf(": (%g %g) - (%g %g)", v.Min.X, v.Min.Y, v.Max.X, v.Max.Y)
	case exr.V2i:
		return fmt.Sprintf(": (%d %d)", v.X, v.Y)
	case exr.V2f:
		return fmt.Sprintf(": (%g %g)", v.X, v.Y)
	case exr.Compression:
		return ": " + v.String()
	case exr.LineOrder:
		return ": " + v.String()
	case exr.Float:
		return fmt.Sprintf(": %g", float32(v))
	case exr.Int:
		return fmt.Sprintf(": %d", int32(v))
	case exr.Opaque:
		return fmt.Sprintf(": %d bytes", v.Size)
	default:
		return ""
	}
}

func formatPixelType(t exr.PixelType) string {
	switch t {
	case exr.PixelTypeHalf:
		return "16-bit floating-point"
	case exr.PixelTypeFloat:
		return "32-bit floating-point"
	case exr.PixelTypeUint:
		return "32-bit unsigned integer"
	default:
		return t.String()
	}
}

package exr

import (
	"context"
)

// Decode parses an in-memory EXR file and converts it to RGBA. name is
// used only for error reporting. Any failure is returned as a *DecodeError.
func Decode(name string, data []byte, opts DecodeOptions) (*RGBAImage, error) {
	return DecodeContext(context.Background(), name, data, opts)
}

// DecodeContext is Decode with cancellation. The context is checked between
// chunks.
func DecodeContext(ctx context.Context, name string, data []byte, opts DecodeOptions) (*RGBAImage, error) {
	img, err := Parse(data, opts)
	if err != nil {
		return nil, newDecodeError(name, err)
	}
	if err := img.DecodePixels(ctx, opts); err != nil {
		return nil, newDecodeError(name, err)
	}
	rgba, err := img.RGBA()
	if err != nil {
		return nil, newDecodeError(name, err)
	}
	return rgba, nil
}

// DecodeFile decodes an EXR file from the filesystem with the default
// options.
func DecodeFile(path string) (*RGBAImage, error) {
	return DecodeFileContext(context.Background(), path, DefaultDecodeOptions())
}

// DecodeFileContext decodes the file at path from a read-only memory
// mapping, which is released before returning.
func DecodeFileContext(ctx context.Context, path string, opts DecodeOptions) (*RGBAImage, error) {
	m, err := mapFile(path)
	if err != nil {
		return nil, newDecodeError(path, err)
	}
	defer m.Close()
	return DecodeContext(ctx, path, m.Bytes(), opts)
}

package exr

import (
	"fmt"

	"github.com/mrjoshuak/exrview/internal/cursor"
)

// Compression defines the compression method for pixel data.
type Compression uint8

const (
	// CompressionNone stores uncompressed data.
	CompressionNone Compression = 0
	// CompressionRLE uses run-length encoding.
	CompressionRLE Compression = 1
	// CompressionZIPS uses zlib compression on single scanlines.
	CompressionZIPS Compression = 2
	// CompressionZIP uses zlib compression on 16 scanlines.
	CompressionZIP Compression = 3
	// CompressionPIZ uses wavelet compression.
	CompressionPIZ Compression = 4
	// CompressionPXR24 uses 24-bit float conversion with zlib.
	CompressionPXR24 Compression = 5
	// CompressionB44 uses 4x4 block lossy compression.
	CompressionB44 Compression = 6
	// CompressionB44A uses B44 with flat area detection.
	CompressionB44A Compression = 7
	// CompressionDWAA uses DCT-based lossy compression (32 scanlines).
	CompressionDWAA Compression = 8
	// CompressionDWAB uses DCT-based lossy compression (256 scanlines).
	CompressionDWAB Compression = 9
	// CompressionHTJ2K256 uses High-Throughput JPEG 2000 over 256 scanlines.
	CompressionHTJ2K256 Compression = 10
	// CompressionHTJ2K32 uses High-Throughput JPEG 2000 over 32 scanlines.
	CompressionHTJ2K32 Compression = 11
)

// String returns a string representation of the compression type.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionRLE:
		return "rle"
	case CompressionZIPS:
		return "zips"
	case CompressionZIP:
		return "zip"
	case CompressionPIZ:
		return "piz"
	case CompressionPXR24:
		return "pxr24"
	case CompressionB44:
		return "b44"
	case CompressionB44A:
		return "b44a"
	case CompressionDWAA:
		return "dwaa"
	case CompressionDWAB:
		return "dwab"
	case CompressionHTJ2K256:
		return "htj2k256"
	case CompressionHTJ2K32:
		return "htj2k32"
	default:
		return "unknown"
	}
}

// ParseCompression returns the compression named s, as printed by String.
func ParseCompression(s string) (Compression, bool) {
	for c := CompressionNone; c <= CompressionHTJ2K32; c++ {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// ScanlinesPerChunk returns the number of scanlines grouped together
// for this compression type.
func (c Compression) ScanlinesPerChunk() int {
	switch c {
	case CompressionNone, CompressionRLE, CompressionZIPS:
		return 1
	case CompressionZIP, CompressionPXR24:
		return 16
	case CompressionPIZ, CompressionB44, CompressionB44A, CompressionDWAA, CompressionHTJ2K32:
		return 32
	case CompressionDWAB, CompressionHTJ2K256:
		return 256
	default:
		return 1
	}
}

// Supported reports whether chunks with this compression can be decoded.
func (c Compression) Supported() bool {
	switch c {
	case CompressionNone, CompressionRLE, CompressionZIPS, CompressionZIP, CompressionPXR24:
		return true
	}
	return false
}

// LineOrder defines the order of scanlines in the file.
type LineOrder uint8

const (
	// LineOrderIncreasing stores scanlines from top to bottom (y=0 first).
	LineOrderIncreasing LineOrder = 0
	// LineOrderDecreasing stores scanlines from bottom to top (y=max first).
	LineOrderDecreasing LineOrder = 1
	// LineOrderRandom allows scanlines in any order (for tiled images).
	LineOrderRandom LineOrder = 2
)

// String returns a string representation of the line order.
func (lo LineOrder) String() string {
	switch lo {
	case LineOrderIncreasing:
		return "increasing_y"
	case LineOrderDecreasing:
		return "decreasing_y"
	case LineOrderRandom:
		return "random_y"
	default:
		return "unknown"
	}
}

// AttributeType identifies the type of an attribute.
type AttributeType string

// Attribute types with a decoded representation. Values of any other type
// are kept as Opaque.
const (
	AttrTypeBox2i       AttributeType = "box2i"
	AttrTypeBox2f       AttributeType = "box2f"
	AttrTypeChlist      AttributeType = "chlist"
	AttrTypeCompression AttributeType = "compression"
	AttrTypeFloat       AttributeType = "float"
	AttrTypeInt         AttributeType = "int"
	AttrTypeLineOrder   AttributeType = "lineOrder"
	AttrTypeV2i         AttributeType = "v2i"
	AttrTypeV2f         AttributeType = "v2f"
)

// AttributeValue is the decoded payload of an attribute. The set of
// implementations is closed: Box2i, Box2f, *ChannelList, Compression,
// Float, Int, LineOrder, V2i, V2f and Opaque.
type AttributeValue interface {
	attributeValue()
}

// Float is a "float" attribute value.
type Float float32

// Int is an "int" attribute value.
type Int int32

// Opaque is the raw payload of an attribute whose type is not decoded.
type Opaque struct {
	Size int32
	Data []byte
}

func (Box2i) attributeValue()        {}
func (Box2f) attributeValue()        {}
func (*ChannelList) attributeValue() {}
func (Compression) attributeValue()  {}
func (Float) attributeValue()        {}
func (Int) attributeValue()          {}
func (LineOrder) attributeValue()    {}
func (V2i) attributeValue()          {}
func (V2f) attributeValue()          {}
func (Opaque) attributeValue()       {}

// Attribute represents a single header attribute.
type Attribute struct {
	Name  string
	Type  AttributeType
	Value AttributeValue
}

// readAttribute reads one attribute. It returns nil at the empty name that
// terminates the header. Attributes of unknown type are returned as Opaque
// together with an error wrapping ErrUnknownAttributeType; the caller
// decides whether that is fatal.
func readAttribute(r *cursor.Reader, maxNameLen int) (*Attribute, error) {
	name, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("%w: unterminated attribute name", ErrMalformedHeader)
	}
	if name == "" {
		return nil, nil
	}
	if len(name) > maxNameLen {
		return nil, fmt.Errorf("%w: attribute name %q longer than %d bytes", ErrMalformedHeader, name, maxNameLen)
	}

	typeName, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("%w: unterminated type of attribute %q", ErrMalformedHeader, name)
	}
	if len(typeName) > maxNameLen {
		return nil, fmt.Errorf("%w: type name of attribute %q longer than %d bytes", ErrMalformedHeader, name, maxNameLen)
	}

	size, err := r.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("%w: missing size of attribute %q", ErrMalformedHeader, name)
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: attribute %q has negative size %d", ErrMalformedHeader, name, size)
	}
	payload, err := r.Slice(int(size))
	if err != nil {
		return nil, fmt.Errorf("%w: attribute %q needs %d bytes, %d left", ErrMalformedHeader, name, size, r.Len())
	}

	attr := &Attribute{Name: name, Type: AttributeType(typeName)}
	pr := cursor.NewReader(payload)

	switch attr.Type {
	case AttrTypeBox2i:
		attr.Value, err = readBox2i(pr)
	case AttrTypeBox2f:
		attr.Value, err = readBox2f(pr)
	case AttrTypeChlist:
		attr.Value, err = readChannelList(pr, maxNameLen)
	case AttrTypeCompression:
		b, e := pr.ReadByte()
		attr.Value, err = Compression(b), e
	case AttrTypeFloat:
		f, e := pr.ReadFloat32()
		attr.Value, err = Float(f), e
	case AttrTypeInt:
		i, e := pr.ReadInt32()
		attr.Value, err = Int(i), e
	case AttrTypeLineOrder:
		b, e := pr.ReadByte()
		attr.Value, err = LineOrder(b), e
	case AttrTypeV2i:
		attr.Value, err = readV2i(pr)
	case AttrTypeV2f:
		attr.Value, err = readV2f(pr)
	default:
		attr.Value = Opaque{Size: size, Data: payload}
		return attr, fmt.Errorf("%w: %q (attribute %q)", ErrUnknownAttributeType, typeName, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: attribute %q of type %s: %w", ErrMalformedHeader, name, typeName, err)
	}
	return attr, nil
}

// writeAttribute appends an attribute record to w.
func writeAttribute(w *cursor.Writer, attr *Attribute) error {
	w.WriteString(attr.Name)
	w.WriteString(string(attr.Type))

	v := cursor.NewWriter(64)
	switch val := attr.Value.(type) {
	case Box2i:
		writeBox2i(v, val)
	case Box2f:
		writeBox2f(v, val)
	case *ChannelList:
		writeChannelList(v, val)
	case Compression:
		v.WriteByte(byte(val))
	case Float:
		v.WriteFloat32(float32(val))
	case Int:
		v.WriteInt32(int32(val))
	case LineOrder:
		v.WriteByte(byte(val))
	case V2i:
		writeV2i(v, val)
	case V2f:
		writeV2f(v, val)
	case Opaque:
		v.WriteBytes(val.Data)
	default:
		return fmt.Errorf("exr: cannot write attribute %q with value %T", attr.Name, attr.Value)
	}

	w.WriteInt32(int32(v.Len()))
	w.WriteBytes(v.Bytes())
	return nil
}

package exr

import (
	"errors"
	"fmt"

	"github.com/mrjoshuak/exrview/internal/cursor"
)

// Standard attribute names
const (
	AttrNameChannels           = "channels"
	AttrNameCompression        = "compression"
	AttrNameDataWindow         = "dataWindow"
	AttrNameDisplayWindow      = "displayWindow"
	AttrNameLineOrder          = "lineOrder"
	AttrNamePixelAspectRatio   = "pixelAspectRatio"
	AttrNameScreenWindowCenter = "screenWindowCenter"
	AttrNameScreenWindowWidth  = "screenWindowWidth"
)

// Header holds the attributes of an image in file order.
type Header struct {
	attrs  []*Attribute
	byName map[string]int
}

// NewHeader creates an empty header.
func NewHeader() *Header {
	return &Header{byName: make(map[string]int)}
}

// NewScanlineHeader creates a header for a width x height image with the
// required attributes set, no channels and no compression.
func NewScanlineHeader(width, height int) *Header {
	h := NewHeader()

	dataWindow := Box2i{Min: V2i{0, 0}, Max: V2i{int32(width - 1), int32(height - 1)}}
	h.SetChannels(NewChannelList())
	h.SetCompression(CompressionNone)
	h.SetDataWindow(dataWindow)
	h.SetDisplayWindow(dataWindow)
	h.SetLineOrder(LineOrderIncreasing)
	h.Set(&Attribute{Name: AttrNamePixelAspectRatio, Type: AttrTypeFloat, Value: Float(1)})
	h.Set(&Attribute{Name: AttrNameScreenWindowCenter, Type: AttrTypeV2f, Value: V2f{}})
	h.Set(&Attribute{Name: AttrNameScreenWindowWidth, Type: AttrTypeFloat, Value: Float(1)})
	return h
}

// Set adds an attribute, replacing any attribute of the same name.
func (h *Header) Set(attr *Attribute) {
	if i, ok := h.byName[attr.Name]; ok {
		h.attrs[i] = attr
		return
	}
	h.byName[attr.Name] = len(h.attrs)
	h.attrs = append(h.attrs, attr)
}

// Get returns an attribute by name, or nil if not found.
func (h *Header) Get(name string) *Attribute {
	if i, ok := h.byName[name]; ok {
		return h.attrs[i]
	}
	return nil
}

// Has returns true if the header has an attribute with the given name.
func (h *Header) Has(name string) bool {
	_, ok := h.byName[name]
	return ok
}

// Attributes returns the attributes in file order.
func (h *Header) Attributes() []*Attribute {
	return append([]*Attribute(nil), h.attrs...)
}

// Channels returns the channel list, or nil if absent.
func (h *Header) Channels() *ChannelList {
	if attr := h.Get(AttrNameChannels); attr != nil {
		if cl, ok := attr.Value.(*ChannelList); ok {
			return cl
		}
	}
	return nil
}

// SetChannels sets the channel list.
func (h *Header) SetChannels(cl *ChannelList) {
	h.Set(&Attribute{Name: AttrNameChannels, Type: AttrTypeChlist, Value: cl})
}

// Compression returns the compression method.
func (h *Header) Compression() Compression {
	if attr := h.Get(AttrNameCompression); attr != nil {
		if c, ok := attr.Value.(Compression); ok {
			return c
		}
	}
	return CompressionNone
}

// SetCompression sets the compression method.
func (h *Header) SetCompression(c Compression) {
	h.Set(&Attribute{Name: AttrNameCompression, Type: AttrTypeCompression, Value: c})
}

// DataWindow returns the bounds of the stored pixels.
func (h *Header) DataWindow() Box2i {
	if attr := h.Get(AttrNameDataWindow); attr != nil {
		if b, ok := attr.Value.(Box2i); ok {
			return b
		}
	}
	return Box2i{}
}

// SetDataWindow sets the data window.
func (h *Header) SetDataWindow(b Box2i) {
	h.Set(&Attribute{Name: AttrNameDataWindow, Type: AttrTypeBox2i, Value: b})
}

// DisplayWindow returns the display window, or the data window if the
// header has none.
func (h *Header) DisplayWindow() Box2i {
	if attr := h.Get(AttrNameDisplayWindow); attr != nil {
		if b, ok := attr.Value.(Box2i); ok {
			return b
		}
	}
	return h.DataWindow()
}

// SetDisplayWindow sets the display window.
func (h *Header) SetDisplayWindow(b Box2i) {
	h.Set(&Attribute{Name: AttrNameDisplayWindow, Type: AttrTypeBox2i, Value: b})
}

// LineOrder returns the scanline ordering.
func (h *Header) LineOrder() LineOrder {
	if attr := h.Get(AttrNameLineOrder); attr != nil {
		if lo, ok := attr.Value.(LineOrder); ok {
			return lo
		}
	}
	return LineOrderIncreasing
}

// SetLineOrder sets the scanline ordering.
func (h *Header) SetLineOrder(lo LineOrder) {
	h.Set(&Attribute{Name: AttrNameLineOrder, Type: AttrTypeLineOrder, Value: lo})
}

// PixelAspectRatio returns the pixel aspect ratio, 1 if unset.
func (h *Header) PixelAspectRatio() float32 {
	if attr := h.Get(AttrNamePixelAspectRatio); attr != nil {
		if f, ok := attr.Value.(Float); ok {
			return float32(f)
		}
	}
	return 1
}

// Width returns the width of the data window.
func (h *Header) Width() int {
	return h.DataWindow().Width()
}

// Height returns the height of the data window.
func (h *Header) Height() int {
	return h.DataWindow().Height()
}

// Validate checks the attributes needed to locate and decode pixels.
func (h *Header) Validate() error {
	for _, name := range []string{AttrNameChannels, AttrNameCompression, AttrNameDataWindow} {
		if !h.Has(name) {
			return fmt.Errorf("%w: missing %s attribute", ErrMalformedHeader, name)
		}
	}
	if _, ok := h.Get(AttrNameChannels).Value.(*ChannelList); !ok {
		return fmt.Errorf("%w: channels attribute has type %s", ErrMalformedHeader, h.Get(AttrNameChannels).Type)
	}
	if _, ok := h.Get(AttrNameCompression).Value.(Compression); !ok {
		return fmt.Errorf("%w: compression attribute has type %s", ErrMalformedHeader, h.Get(AttrNameCompression).Type)
	}
	if _, ok := h.Get(AttrNameDataWindow).Value.(Box2i); !ok {
		return fmt.Errorf("%w: dataWindow attribute has type %s", ErrMalformedHeader, h.Get(AttrNameDataWindow).Type)
	}

	dw := h.DataWindow()
	if dw.IsEmpty() {
		return fmt.Errorf("%w: empty data window %v", ErrMalformedHeader, dw)
	}
	if c := h.Compression(); c > CompressionHTJ2K32 {
		return fmt.Errorf("%w: unknown compression %d", ErrMalformedHeader, c)
	}
	if h.Channels().Len() == 0 {
		return fmt.Errorf("%w: no channels", ErrMalformedHeader)
	}
	return nil
}

// readHeader reads attributes up to the terminating NUL. Unknown attribute
// types are kept as Opaque and reported in warnings; with strict set they
// fail the header instead.
func readHeader(r *cursor.Reader, maxNameLen int, strict bool) (*Header, []error, error) {
	h := NewHeader()
	var warnings []error
	for {
		attr, err := readAttribute(r, maxNameLen)
		if err != nil {
			if attr == nil || strict || !errors.Is(err, ErrUnknownAttributeType) {
				return nil, warnings, err
			}
			warnings = append(warnings, err)
		}
		if attr == nil {
			return h, warnings, nil
		}
		h.Set(attr)
	}
}

// writeHeader writes the attributes in order followed by the terminator.
func writeHeader(w *cursor.Writer, h *Header) error {
	for _, attr := range h.attrs {
		if err := writeAttribute(w, attr); err != nil {
			return err
		}
	}
	w.WriteByte(0)
	return nil
}

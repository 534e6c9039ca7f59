package exr

import (
	"fmt"
	"sort"

	"github.com/mrjoshuak/exrview/internal/cursor"
)

// PixelType defines the data type for pixel channel values.
type PixelType uint32

const (
	// PixelTypeUint is a 32-bit unsigned integer.
	PixelTypeUint PixelType = 0
	// PixelTypeHalf is a 16-bit IEEE 754 half-precision float.
	PixelTypeHalf PixelType = 1
	// PixelTypeFloat is a 32-bit IEEE 754 single-precision float.
	PixelTypeFloat PixelType = 2
)

// String returns a string representation of the pixel type.
func (pt PixelType) String() string {
	switch pt {
	case PixelTypeUint:
		return "uint"
	case PixelTypeHalf:
		return "half"
	case PixelTypeFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Size returns the size in bytes of one pixel value.
func (pt PixelType) Size() int {
	switch pt {
	case PixelTypeUint, PixelTypeFloat:
		return 4
	case PixelTypeHalf:
		return 2
	default:
		return 0
	}
}

// Channel describes a single image channel.
type Channel struct {
	// Name is the channel name (e.g., "R", "G", "B", "A", "Z").
	Name string
	// Type is the pixel data type.
	Type PixelType
	// PLinear hints that the channel holds perceptually linear data.
	PLinear bool
	// XSampling and YSampling are the subsampling factors; 1 is full
	// resolution.
	XSampling int32
	YSampling int32
}

// NewChannel creates a full resolution channel.
func NewChannel(name string, pixelType PixelType) Channel {
	return Channel{Name: name, Type: pixelType, XSampling: 1, YSampling: 1}
}

// ChannelList is an ordered collection of channels. Files store channels
// sorted by name, and pixel data follows that order.
type ChannelList struct {
	channels []Channel
	byName   map[string]int
}

// NewChannelList creates an empty channel list.
func NewChannelList() *ChannelList {
	return &ChannelList{byName: make(map[string]int)}
}

// Add adds a channel to the list. Returns false if a channel
// with the same name already exists.
func (cl *ChannelList) Add(c Channel) bool {
	if _, exists := cl.byName[c.Name]; exists {
		return false
	}
	cl.byName[c.Name] = len(cl.channels)
	cl.channels = append(cl.channels, c)
	return true
}

// Get returns a channel by name, or nil if not found.
func (cl *ChannelList) Get(name string) *Channel {
	idx, exists := cl.byName[name]
	if !exists {
		return nil
	}
	return &cl.channels[idx]
}

// Index returns the position of the named channel, or -1.
func (cl *ChannelList) Index(name string) int {
	if idx, ok := cl.byName[name]; ok {
		return idx
	}
	return -1
}

// Len returns the number of channels.
func (cl *ChannelList) Len() int {
	return len(cl.channels)
}

// At returns the channel at the given index.
func (cl *ChannelList) At(i int) Channel {
	return cl.channels[i]
}

// Names returns the channel names in list order.
func (cl *ChannelList) Names() []string {
	names := make([]string, len(cl.channels))
	for i, c := range cl.channels {
		names[i] = c.Name
	}
	return names
}

// SortByName sorts channels alphabetically by name.
func (cl *ChannelList) SortByName() {
	sort.Slice(cl.channels, func(i, j int) bool {
		return cl.channels[i].Name < cl.channels[j].Name
	})
	for i, c := range cl.channels {
		cl.byName[c.Name] = i
	}
}

// readChannelList reads channel records until the terminating empty name.
// Each record is: name\0, type (4 bytes), pLinear (1 byte), reserved
// (3 bytes), xSampling (4 bytes), ySampling (4 bytes).
func readChannelList(r *cursor.Reader, maxNameLen int) (*ChannelList, error) {
	cl := NewChannelList()
	for {
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		if name == "" {
			return cl, nil
		}
		if len(name) > maxNameLen {
			return nil, fmt.Errorf("channel name %q longer than %d bytes", name, maxNameLen)
		}

		pt, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		if PixelType(pt).Size() == 0 {
			return nil, fmt.Errorf("channel %q has unknown pixel type %d", name, pt)
		}
		plinear, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if err := r.Skip(3); err != nil {
			return nil, err
		}
		xs, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		ys, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		if xs < 1 || ys < 1 {
			return nil, fmt.Errorf("channel %q has sampling %dx%d", name, xs, ys)
		}

		c := Channel{
			Name:      name,
			Type:      PixelType(pt),
			PLinear:   plinear != 0,
			XSampling: xs,
			YSampling: ys,
		}
		if !cl.Add(c) {
			return nil, fmt.Errorf("duplicate channel %q", name)
		}
	}
}

func writeChannelList(w *cursor.Writer, cl *ChannelList) {
	for _, c := range cl.channels {
		w.WriteString(c.Name)
		w.WriteUint32(uint32(c.Type))
		var plinear byte
		if c.PLinear {
			plinear = 1
		}
		w.WriteBytes([]byte{plinear, 0, 0, 0})
		w.WriteInt32(c.XSampling)
		w.WriteInt32(c.YSampling)
	}
	w.WriteByte(0)
}

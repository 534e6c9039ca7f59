package exr

import (
	"testing"

	"github.com/mrjoshuak/exrview/internal/cursor"
)

func TestPixelType(t *testing.T) {
	tests := []struct {
		pt   PixelType
		str  string
		size int
	}{
		{PixelTypeUint, "uint", 4},
		{PixelTypeHalf, "half", 2},
		{PixelTypeFloat, "float", 4},
		{PixelType(99), "unknown", 0},
	}

	for _, tt := range tests {
		if s := tt.pt.String(); s != tt.str {
			t.Errorf("%v.String() = %q, want %q", tt.pt, s, tt.str)
		}
		if sz := tt.pt.Size(); sz != tt.size {
			t.Errorf("%v.Size() = %d, want %d", tt.pt, sz, tt.size)
		}
	}
}

func TestNewChannel(t *testing.T) {
	c := NewChannel("R", PixelTypeHalf)
	if c.Name != "R" {
		t.Errorf("Name = %q, want %q", c.Name, "R")
	}
	if c.Type != PixelTypeHalf {
		t.Errorf("Type = %v, want %v", c.Type, PixelTypeHalf)
	}
	if c.XSampling != 1 || c.YSampling != 1 {
		t.Errorf("Sampling = %dx%d, want 1x1", c.XSampling, c.YSampling)
	}
	if c.PLinear {
		t.Error("PLinear should be false by default")
	}
}

func TestChannelList(t *testing.T) {
	cl := NewChannelList()
	for _, name := range []string{"R", "G", "B"} {
		if !cl.Add(NewChannel(name, PixelTypeHalf)) {
			t.Fatalf("Add(%q) failed", name)
		}
	}
	if cl.Add(NewChannel("G", PixelTypeFloat)) {
		t.Error("Add accepted a duplicate")
	}
	if cl.Len() != 3 {
		t.Errorf("Len() = %d, want 3", cl.Len())
	}
	if i := cl.Index("G"); i != 1 {
		t.Errorf("Index(G) = %d, want 1", i)
	}
	if i := cl.Index("Z"); i != -1 {
		t.Errorf("Index(Z) = %d, want -1", i)
	}
	if c := cl.Get("B"); c == nil || c.Type != PixelTypeHalf {
		t.Errorf("Get(B) = %v", c)
	}
	if cl.Get("Z") != nil {
		t.Error("Get(Z) should be nil")
	}

	cl.SortByName()
	want := []string{"B", "G", "R"}
	for i, name := range cl.Names() {
		if name != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, name, want[i])
		}
		if cl.Index(name) != i {
			t.Errorf("Index(%q) = %d after sort, want %d", name, cl.Index(name), i)
		}
	}
}

func TestChannelListSerialization(t *testing.T) {
	cl := NewChannelList()
	cl.Add(NewChannel("A", PixelTypeUint))
	cl.Add(Channel{Name: "BY", Type: PixelTypeHalf, PLinear: true, XSampling: 2, YSampling: 2})

	w := cursor.NewWriter(0)
	writeChannelList(w, cl)
	if w.Len() != 2*18+1 {
		t.Errorf("encoded %d bytes, want %d", w.Len(), 2*18+1)
	}
	got, err := readChannelList(cursor.NewReader(w.Bytes()), shortNameMaxLen)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < cl.Len(); i++ {
		if got.At(i) != cl.At(i) {
			t.Errorf("channel %d = %+v, want %+v", i, got.At(i), cl.At(i))
		}
	}
}

func TestChannelListReadTruncated(t *testing.T) {
	w := cursor.NewWriter(0)
	writeChannelList(w, func() *ChannelList {
		cl := NewChannelList()
		cl.Add(NewChannel("R", PixelTypeFloat))
		return cl
	}())
	data := w.Bytes()
	for n := 0; n < len(data); n++ {
		if _, err := readChannelList(cursor.NewReader(data[:n]), shortNameMaxLen); err == nil {
			t.Errorf("readChannelList accepted %d of %d bytes", n, len(data))
		}
	}
}

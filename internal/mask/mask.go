// Package mask provides the binary region masks produced by segmentation.
//
// A Mask is anchored to a rectangle in frame coordinates, in the same way as
// image.Alpha: pixels outside Rect are background. Full-frame masks use the
// frame bounds; contour masks use the contour's bounding box, which keeps
// per-contour memory proportional to the contour rather than the frame.
package mask

import (
	"image"
)

// Mask is a binary grid. Pix holds one byte per pixel, 1 for foreground.
type Mask struct {
	Rect image.Rectangle
	Pix  []uint8
}

// New returns an empty mask covering r.
func New(r image.Rectangle) *Mask {
	r = r.Canon()
	return &Mask{Rect: r, Pix: make([]uint8, r.Dx()*r.Dy())}
}

func (m *Mask) offset(x, y int) int {
	return (y-m.Rect.Min.Y)*m.Rect.Dx() + (x - m.Rect.Min.X)
}

// At reports whether (x, y) is foreground.
func (m *Mask) At(x, y int) bool {
	if m == nil || !(image.Point{x, y}).In(m.Rect) {
		return false
	}
	return m.Pix[m.offset(x, y)] != 0
}

// Set marks (x, y) as foreground or background. Points outside Rect are ignored.
func (m *Mask) Set(x, y int, on bool) {
	if !(image.Point{x, y}).In(m.Rect) {
		return
	}
	var v uint8
	if on {
		v = 1
	}
	m.Pix[m.offset(x, y)] = v
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Empty reports whether the mask has no foreground pixels.
func (m *Mask) Empty() bool {
	if m == nil {
		return true
	}
	for _, v := range m.Pix {
		if v != 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	c := &Mask{Rect: m.Rect, Pix: make([]uint8, len(m.Pix))}
	copy(c.Pix, m.Pix)
	return c
}

// Intersect returns the pixels set in both a and b. The result covers the
// intersection of the two rectangles and may be empty.
func Intersect(a, b *Mask) *Mask {
	r := a.Rect.Intersect(b.Rect)
	out := New(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if a.Pix[a.offset(x, y)] != 0 && b.Pix[b.offset(x, y)] != 0 {
				out.Pix[out.offset(x, y)] = 1
			}
		}
	}
	return out
}

// Union folds any number of masks into one covering the union of their
// rectangles. The inputs are not modified.
func Union(within image.Rectangle, masks ...*Mask) *Mask {
	r := within
	for _, m := range masks {
		if m != nil {
			r = r.Union(m.Rect)
		}
	}
	out := New(r)
	for _, m := range masks {
		if m == nil {
			continue
		}
		for y := m.Rect.Min.Y; y < m.Rect.Max.Y; y++ {
			row := m.offset(m.Rect.Min.X, y)
			dst := out.offset(m.Rect.Min.X, y)
			for i := 0; i < m.Rect.Dx(); i++ {
				if m.Pix[row+i] != 0 {
					out.Pix[dst+i] = 1
				}
			}
		}
	}
	return out
}

// Bounds returns the tight bounding box of the foreground pixels, or the zero
// rectangle for an empty mask.
func (m *Mask) Bounds() image.Rectangle {
	var b image.Rectangle
	first := true
	for y := m.Rect.Min.Y; y < m.Rect.Max.Y; y++ {
		for x := m.Rect.Min.X; x < m.Rect.Max.X; x++ {
			if m.Pix[m.offset(x, y)] == 0 {
				continue
			}
			p := image.Rect(x, y, x+1, y+1)
			if first {
				b = p
				first = false
			} else {
				b = b.Union(p)
			}
		}
	}
	return b
}

// ToGray renders the mask as an 8-bit image with foreground at 255, the
// convention used by OpenCV-style tooling.
func (m *Mask) ToGray() *image.Gray {
	g := image.NewGray(m.Rect)
	for i, v := range m.Pix {
		if v != 0 {
			g.Pix[(i/m.Rect.Dx())*g.Stride+i%m.Rect.Dx()] = 255
		}
	}
	return g
}

// Package contour extracts the connected regions of a binary mask.
//
// Each 8-connected foreground component yields one Contour: its traced outer
// boundary, its own pixel count, and a filled mask in which interior holes are
// part of the region. Islands lying inside another component's hole are
// components in their own right and are reported separately, so the pixel
// areas of all contours always add up to the mask's foreground count.
//
// # Algorithm
//
//  1. Labelling: stack-based flood fill with 8-connectivity
//  2. Boundary: Moore-neighbour tracing from the first pixel in raster order,
//     stopping when the trace re-enters the start pixel heading to the same
//     second pixel (Jacob's criterion)
//  3. Filling: 4-connected flood fill of the background from the border of the
//     component's padded bounding box; whatever is not reached is filled
//
// Contours are returned in raster order of their first pixel. Callers must not
// rely on that order.
package contour

import (
	"image"

	"github.com/ironsheep/packing-defects/internal/mask"
)

// Contour is one connected foreground region.
type Contour struct {
	// Boundary is the ordered outer boundary, one point per boundary pixel
	// visit. A single-pixel region has a one-point boundary.
	Boundary []image.Point

	// Bounds is the bounding box of the region.
	Bounds image.Rectangle

	// PixelArea is the number of foreground pixels of the component itself.
	PixelArea int

	// Filled is the component with its holes filled, anchored at Bounds.
	Filled *mask.Mask
}

// PolygonArea returns the area enclosed by the boundary polygon through pixel
// centres (shoelace formula). It is always smaller than the filled pixel count
// and is zero for regions one pixel thick.
func (c Contour) PolygonArea() float64 {
	n := len(c.Boundary)
	if n < 3 {
		return 0
	}
	var s int
	for i := 0; i < n; i++ {
		p, q := c.Boundary[i], c.Boundary[(i+1)%n]
		s += p.X*q.Y - q.X*p.Y
	}
	if s < 0 {
		s = -s
	}
	return float64(s) / 2
}

// FilledArea returns the pixel count of the filled region.
func (c Contour) FilledArea() int {
	return c.Filled.Count()
}

// moore lists the 8 neighbour offsets clockwise (y grows downward), starting West.
var moore = [8]image.Point{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

func direction(d image.Point) int {
	for i, m := range moore {
		if m == d {
			return i
		}
	}
	return 0
}

// Extract finds every 8-connected foreground region of m.
func Extract(m *mask.Mask) []Contour {
	r := m.Rect
	w, h := r.Dx(), r.Dy()
	labels := make([]int32, w*h)
	contours := make([]Contour, 0)

	var next int32
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if m.Pix[i] == 0 || labels[i] != 0 {
				continue
			}
			next++
			bounds, count := label(m, labels, x, y, next)
			in := func(p image.Point) bool {
				px, py := p.X-r.Min.X, p.Y-r.Min.Y
				return px >= 0 && px < w && py >= 0 && py < h && labels[py*w+px] == next
			}
			start := image.Point{x + r.Min.X, y + r.Min.Y}
			contours = append(contours, Contour{
				Boundary:  trace(in, start, 4*count+8),
				Bounds:    bounds,
				PixelArea: count,
				Filled:    fill(in, bounds),
			})
		}
	}
	return contours
}

// label flood-fills one component with id, returning its bounds (in mask
// coordinates) and pixel count.
func label(m *mask.Mask, labels []int32, startX, startY int, id int32) (image.Rectangle, int) {
	r := m.Rect
	w, h := r.Dx(), r.Dy()
	stack := []image.Point{{startX, startY}}
	labels[startY*w+startX] = id

	minX, minY, maxX, maxY := startX, startY, startX, startY
	count := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++

		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}

		for _, d := range moore {
			nx, ny := p.X+d.X, p.Y+d.Y
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			i := ny*w + nx
			if m.Pix[i] == 0 || labels[i] != 0 {
				continue
			}
			labels[i] = id
			stack = append(stack, image.Point{nx, ny})
		}
	}

	return image.Rect(minX, minY, maxX+1, maxY+1).Add(r.Min), count
}

// trace walks the outer boundary clockwise with Moore-neighbour tracing.
// start must be the component's first pixel in raster order, so its West
// neighbour is background. limit bounds the walk.
func trace(in func(image.Point) bool, start image.Point, limit int) []image.Point {
	pts := []image.Point{start}
	p, back := start, 0

	for len(pts) < limit {
		found := false
		var n image.Point
		var nb int
		for i := 1; i <= 8; i++ {
			d := (back + i) % 8
			cand := p.Add(moore[d])
			if in(cand) {
				prev := p.Add(moore[(back+i-1)%8])
				n, nb, found = cand, direction(prev.Sub(cand)), true
				break
			}
		}
		if !found {
			break // isolated pixel
		}
		if p == start && len(pts) > 1 && n == pts[1] {
			break
		}
		pts = append(pts, n)
		p, back = n, nb
	}

	if len(pts) > 1 && pts[len(pts)-1] == start {
		pts = pts[:len(pts)-1]
	}
	return pts
}

// fill returns the component inside bounds with enclosed background filled.
func fill(in func(image.Point) bool, bounds image.Rectangle) *mask.Mask {
	// padded local grid so the outside is one connected background region
	pw, ph := bounds.Dx()+2, bounds.Dy()+2
	outside := make([]bool, pw*ph)
	isFg := func(lx, ly int) bool {
		if lx <= 0 || ly <= 0 || lx >= pw-1 || ly >= ph-1 {
			return false
		}
		return in(image.Point{bounds.Min.X + lx - 1, bounds.Min.Y + ly - 1})
	}

	stack := []image.Point{{0, 0}}
	outside[0] = true
	four := [4]image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range four {
			nx, ny := p.X+d.X, p.Y+d.Y
			if nx < 0 || nx >= pw || ny < 0 || ny >= ph {
				continue
			}
			i := ny*pw + nx
			if outside[i] || isFg(nx, ny) {
				continue
			}
			outside[i] = true
			stack = append(stack, image.Point{nx, ny})
		}
	}

	filled := mask.New(bounds)
	for ly := 1; ly < ph-1; ly++ {
		for lx := 1; lx < pw-1; lx++ {
			if !outside[ly*pw+lx] {
				filled.Pix[(ly-1)*bounds.Dx()+(lx-1)] = 1
			}
		}
	}
	return filled
}

// Fill returns a copy of m in which every component's holes are filled,
// covering the same rectangle as m.
func Fill(m *mask.Mask) *mask.Mask {
	cs := Extract(m)
	filled := make([]*mask.Mask, len(cs))
	for i, c := range cs {
		filled[i] = c.Filled
	}
	return mask.Union(m.Rect, filled...)
}

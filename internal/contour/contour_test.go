package contour

import (
	"image"
	"sort"
	"testing"

	"github.com/ironsheep/packing-defects/internal/calibration"
	"github.com/ironsheep/packing-defects/internal/mask"
)

// fillRect marks every pixel of r in m
func fillRect(m *mask.Mask, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Set(x, y, true)
		}
	}
}

// unitFactor returns a calibration factor of exactly 1 unit^2 per pixel
func unitFactor(t *testing.T) calibration.Factor {
	t.Helper()
	box := mask.New(image.Rect(0, 0, 10, 10))
	fillRect(box, box.Rect)
	f, err := calibration.Establish(10, 10, box)
	if err != nil {
		t.Fatalf("Establish failed: %v", err)
	}
	return f
}

func TestExtract_Empty(t *testing.T) {
	cs := Extract(mask.New(image.Rect(0, 0, 50, 50)))
	if len(cs) != 0 {
		t.Errorf("expected no contours, got %d", len(cs))
	}
}

func TestExtract_SeparateRegions(t *testing.T) {
	m := mask.New(image.Rect(0, 0, 40, 40))
	fillRect(m, image.Rect(2, 2, 7, 12))
	fillRect(m, image.Rect(20, 20, 23, 23))
	m.Set(35, 35, true)

	cs := Extract(m)
	if len(cs) != 3 {
		t.Fatalf("contours: got %d, want 3", len(cs))
	}

	areas := make([]int, len(cs))
	total := 0
	for i, c := range cs {
		areas[i] = c.PixelArea
		total += c.PixelArea
	}
	sort.Ints(areas)
	if areas[0] != 1 || areas[1] != 9 || areas[2] != 50 {
		t.Errorf("areas: got %v, want [1 9 50]", areas)
	}
	if total != m.Count() {
		t.Errorf("pixel areas should add up to the mask count: %d vs %d", total, m.Count())
	}
}

func TestExtract_DiagonalConnectivity(t *testing.T) {
	m := mask.New(image.Rect(0, 0, 10, 10))
	m.Set(2, 2, true)
	m.Set(3, 3, true)
	m.Set(4, 4, true)

	cs := Extract(m)
	if len(cs) != 1 {
		t.Fatalf("diagonal pixels are 8-connected: got %d contours, want 1", len(cs))
	}
	if cs[0].Bounds != image.Rect(2, 2, 5, 5) {
		t.Errorf("Bounds: got %v", cs[0].Bounds)
	}
}

func TestExtract_FilledHole(t *testing.T) {
	// 7x7 ring of width 1 with a 5x5 hole, plus an island in the hole
	m := mask.New(image.Rect(0, 0, 20, 20))
	fillRect(m, image.Rect(5, 5, 12, 12))
	for y := 6; y < 11; y++ {
		for x := 6; x < 11; x++ {
			m.Set(x, y, false)
		}
	}
	m.Set(8, 8, true)

	cs := Extract(m)
	if len(cs) != 2 {
		t.Fatalf("contours: got %d, want 2 (ring and island)", len(cs))
	}

	var ring Contour
	for _, c := range cs {
		if c.PixelArea > 1 {
			ring = c
		}
	}
	if ring.PixelArea != 24 {
		t.Errorf("ring pixels: got %d, want 24", ring.PixelArea)
	}
	if ring.FilledArea() != 49 {
		t.Errorf("filled ring: got %d, want 49", ring.FilledArea())
	}
	if !ring.Filled.At(8, 8) || !ring.Filled.At(6, 6) {
		t.Error("hole should be part of the filled region")
	}
}

func TestExtract_OpenNotchNotFilled(t *testing.T) {
	// U shape: the notch touches the outside and must stay background
	m := mask.New(image.Rect(0, 0, 10, 10))
	fillRect(m, image.Rect(1, 1, 6, 6))
	for y := 1; y < 4; y++ {
		m.Set(3, y, false)
	}

	cs := Extract(m)
	if len(cs) != 1 {
		t.Fatalf("contours: got %d, want 1", len(cs))
	}
	if cs[0].FilledArea() != cs[0].PixelArea {
		t.Errorf("notch should not be filled: filled %d, pixels %d", cs[0].FilledArea(), cs[0].PixelArea)
	}
}

func TestTrace_Square(t *testing.T) {
	m := mask.New(image.Rect(0, 0, 10, 10))
	fillRect(m, image.Rect(2, 2, 5, 5))

	cs := Extract(m)
	if len(cs) != 1 {
		t.Fatalf("contours: got %d, want 1", len(cs))
	}
	b := cs[0].Boundary
	if len(b) != 8 {
		t.Fatalf("boundary points: got %d (%v), want 8", len(b), b)
	}
	if b[0] != (image.Point{2, 2}) {
		t.Errorf("boundary should start at the first raster pixel, got %v", b[0])
	}
	if got := cs[0].PolygonArea(); got != 4 {
		t.Errorf("PolygonArea: got %f, want 4", got)
	}
}

func TestTrace_SmallShapes(t *testing.T) {
	tests := []struct {
		name       string
		pixels     []image.Point
		wantPoints int
		wantPoly   float64
	}{
		{"single pixel", []image.Point{{3, 3}}, 1, 0},
		{"horizontal pair", []image.Point{{3, 3}, {4, 3}}, 2, 0},
		{"vertical line", []image.Point{{3, 3}, {3, 4}, {3, 5}}, 4, 0},
		{"2x2 block", []image.Point{{3, 3}, {4, 3}, {3, 4}, {4, 4}}, 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mask.New(image.Rect(0, 0, 10, 10))
			for _, p := range tt.pixels {
				m.Set(p.X, p.Y, true)
			}
			cs := Extract(m)
			if len(cs) != 1 {
				t.Fatalf("contours: got %d, want 1", len(cs))
			}
			if len(cs[0].Boundary) != tt.wantPoints {
				t.Errorf("boundary: got %v, want %d points", cs[0].Boundary, tt.wantPoints)
			}
			if got := cs[0].PolygonArea(); got != tt.wantPoly {
				t.Errorf("PolygonArea: got %f, want %f", got, tt.wantPoly)
			}
		})
	}
}

func TestExtract_OffsetMask(t *testing.T) {
	m := mask.New(image.Rect(100, 50, 120, 70))
	fillRect(m, image.Rect(105, 55, 108, 57))

	cs := Extract(m)
	if len(cs) != 1 {
		t.Fatalf("contours: got %d, want 1", len(cs))
	}
	if cs[0].Bounds != image.Rect(105, 55, 108, 57) {
		t.Errorf("Bounds: got %v", cs[0].Bounds)
	}
	if cs[0].Boundary[0] != (image.Point{105, 55}) {
		t.Errorf("Boundary[0]: got %v", cs[0].Boundary[0])
	}
}

func TestFill(t *testing.T) {
	m := mask.New(image.Rect(0, 0, 12, 12))
	fillRect(m, image.Rect(1, 1, 6, 6))
	m.Set(3, 3, false)
	fillRect(m, image.Rect(8, 8, 10, 10))

	f := Fill(m)
	if f.Rect != m.Rect {
		t.Errorf("Rect: got %v, want %v", f.Rect, m.Rect)
	}
	if f.Count() != 25+4 {
		t.Errorf("Count: got %d, want 29", f.Count())
	}
	if m.At(3, 3) {
		t.Error("Fill must not modify its input")
	}
}

func TestFilter_StrictThreshold(t *testing.T) {
	f := unitFactor(t)
	m := mask.New(image.Rect(0, 0, 20, 20))
	// area 1 equals the threshold and is excluded; area 2 is one unit above
	m.Set(1, 1, true)
	m.Set(5, 5, true)
	m.Set(6, 5, true)
	fillRect(m, image.Rect(10, 10, 15, 15))

	cs := Extract(m)
	kept := Filter(cs, f, 1, AreaPixels)
	if len(kept) != 2 {
		t.Fatalf("kept: got %d, want 2", len(kept))
	}
	for _, c := range kept {
		if c.PixelArea == 1 {
			t.Error("contour with area equal to the threshold must be excluded")
		}
	}
	if len(cs) != 3 {
		t.Error("Filter must not modify its input")
	}
}

func TestFilter_PolygonMetric(t *testing.T) {
	f := unitFactor(t)
	m := mask.New(image.Rect(0, 0, 20, 20))
	fillRect(m, image.Rect(2, 2, 4, 4))
	fillRect(m, image.Rect(10, 10, 13, 13))

	kept := Filter(Extract(m), f, 1, AreaPolygon)
	if len(kept) != 1 || kept[0].PixelArea != 9 {
		t.Errorf("polygon metric should keep only the 3x3 block, got %d contours", len(kept))
	}
}

func TestParseAreaMetric(t *testing.T) {
	tests := []struct {
		in      string
		want    AreaMetric
		wantErr bool
	}{
		{"", AreaPixels, false},
		{"pixels", AreaPixels, false},
		{"polygon", AreaPolygon, false},
		{"convex", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAreaMetric(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAreaMetric(%q) error: got %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseAreaMetric(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

package shape

import (
	"errors"
	"image"
	"math"
	"testing"

	apperrors "github.com/ironsheep/packing-defects/internal/errors"
	"github.com/ironsheep/packing-defects/internal/mask"
)

// rectMask returns a mask over bounds with r filled
func rectMask(bounds, r image.Rectangle) *mask.Mask {
	m := mask.New(bounds)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Set(x, y, true)
		}
	}
	return m
}

// lShape returns an asymmetric L-shaped region at offset (ox, oy)
func lShape(bounds image.Rectangle, ox, oy int) *mask.Mask {
	m := rectMask(bounds, image.Rect(ox, oy, ox+4, oy+15))
	for y := oy + 11; y < oy+15; y++ {
		for x := ox + 4; x < ox+12; x++ {
			m.Set(x, y, true)
		}
	}
	return m
}

// rotate90 rotates the foreground of m clockwise into a new mask of the same size
func rotate90(m *mask.Mask) *mask.Mask {
	w, h := m.Rect.Dx(), m.Rect.Dy()
	out := mask.New(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.At(m.Rect.Min.X+x, m.Rect.Min.Y+y) {
				out.Set(h-1-y, x, true)
			}
		}
	}
	return out
}

var frame = image.Rect(0, 0, 100, 100)

func TestComputeMoments_Rectangle(t *testing.T) {
	m := rectMask(frame, image.Rect(10, 20, 20, 40)) // 10 wide, 20 tall

	mo, err := ComputeMoments(m, 1)
	if err != nil {
		t.Fatalf("ComputeMoments failed: %v", err)
	}
	if mo.M00 != 200 {
		t.Errorf("M00: got %f, want 200", mo.M00)
	}
	cx, cy := mo.Centroid()
	if cx != 4.5 || cy != 9.5 {
		t.Errorf("Centroid: got (%f,%f), want (4.5,9.5)", cx, cy)
	}
	// discrete rectangle: mu20 = h * w(w^2-1)/12
	if math.Abs(mo.Mu20-1650) > 1e-6 || math.Abs(mo.Mu02-6650) > 1e-6 {
		t.Errorf("central moments: mu20=%f mu02=%f, want 1650, 6650", mo.Mu20, mo.Mu02)
	}
	if math.Abs(mo.Mu11) > 1e-6 || math.Abs(mo.Mu30) > 1e-6 || math.Abs(mo.Mu03) > 1e-6 {
		t.Errorf("symmetric shape should have zero odd central moments: mu11=%g mu30=%g mu03=%g",
			mo.Mu11, mo.Mu30, mo.Mu03)
	}
}

func TestComputeMoments_Empty(t *testing.T) {
	_, err := ComputeMoments(mask.New(frame), 1)
	if !errors.Is(err, apperrors.ErrEmptyShape) {
		t.Errorf("got %v, want empty shape error", err)
	}
}

func TestCompare_Reflexive(t *testing.T) {
	shapes := map[string]*mask.Mask{
		"rectangle": rectMask(frame, image.Rect(5, 5, 30, 12)),
		"L shape":   lShape(frame, 20, 30),
		"single":    rectMask(frame, image.Rect(50, 50, 51, 51)),
	}

	for name, m := range shapes {
		t.Run(name, func(t *testing.T) {
			for _, method := range []Method{MethodI1, MethodI2, MethodI3} {
				got, err := Compare(m, m, method, DefaultWeight)
				if err != nil {
					t.Fatalf("Compare failed: %v", err)
				}
				if got != 0 {
					t.Errorf("method %d: Compare(X, X) = %g, want 0", method, got)
				}
			}
		})
	}
}

func TestCompare_Symmetric(t *testing.T) {
	a := lShape(frame, 10, 10)
	b := rectMask(frame, image.Rect(40, 40, 70, 50))

	for _, method := range []Method{MethodI1, MethodI2} {
		ab, err := Compare(a, b, method, 1)
		if err != nil {
			t.Fatalf("Compare failed: %v", err)
		}
		ba, err := Compare(b, a, method, 1)
		if err != nil {
			t.Fatalf("Compare failed: %v", err)
		}
		if ab != ba {
			t.Errorf("method %d: Compare(a,b)=%g, Compare(b,a)=%g", method, ab, ba)
		}
		if ab <= 0 {
			t.Errorf("method %d: different shapes should score > 0, got %g", method, ab)
		}
	}
}

func TestCompare_TranslationInvariant(t *testing.T) {
	a := lShape(frame, 5, 5)
	b := lShape(image.Rect(0, 0, 400, 300), 300, 250)

	got, err := Compare(a, b, MethodI1, 1)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if got != 0 {
		t.Errorf("translated copy: got %g, want 0", got)
	}
}

func TestCompare_RotationInvariant(t *testing.T) {
	a := lShape(frame, 30, 30)
	b := rotate90(a)

	got, err := Compare(a, b, MethodI1, 1)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if got > 1e-6 {
		t.Errorf("rotated copy: got %g, want ~0", got)
	}
}

func TestCompare_ScaleInvariant(t *testing.T) {
	small := rectMask(frame, image.Rect(0, 0, 10, 20))
	large := rectMask(frame, image.Rect(0, 0, 20, 40))

	got, err := Compare(small, large, MethodI1, 1)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	// discrete sampling keeps this from being exactly zero
	if got > 0.01 {
		t.Errorf("scaled copy: got %g, want < 0.01", got)
	}
}

func TestCompare_DifferentShapes(t *testing.T) {
	square := rectMask(frame, image.Rect(0, 0, 10, 10))
	bar := rectMask(frame, image.Rect(20, 20, 24, 45))

	got, err := Compare(square, bar, MethodI1, 1)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if got < 1 {
		t.Errorf("square vs bar: got %g, want a clear difference", got)
	}
}

func TestCompare_EmptyShape(t *testing.T) {
	empty := mask.New(frame)
	full := rectMask(frame, image.Rect(0, 0, 5, 5))

	tests := []struct {
		name string
		a, b *mask.Mask
	}{
		{"empty first", empty, full},
		{"empty second", full, empty},
		{"both empty", empty, empty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compare(tt.a, tt.b, MethodI1, DefaultWeight)
			if !errors.Is(err, apperrors.ErrEmptyShape) {
				t.Errorf("got %v, want empty shape error", err)
			}
		})
	}
}

func TestComputeMoments_Weight(t *testing.T) {
	m := rectMask(frame, image.Rect(10, 20, 20, 40))

	unit, err := ComputeMoments(m, 1)
	if err != nil {
		t.Fatalf("ComputeMoments failed: %v", err)
	}
	eight, err := ComputeMoments(m, DefaultWeight)
	if err != nil {
		t.Fatalf("ComputeMoments failed: %v", err)
	}
	if eight.M00 != 200*255 {
		t.Errorf("M00: got %f, want %d", eight.M00, 200*255)
	}
	if cx, cy := eight.Centroid(); cx != 4.5 || cy != 9.5 {
		t.Errorf("weight moved the centroid to (%f,%f)", cx, cy)
	}
	// second order normalised moments scale by 1/weight
	if math.Abs(eight.Nu20*255-unit.Nu20) > 1e-9 {
		t.Errorf("Nu20: got %g, want %g", eight.Nu20, unit.Nu20/255)
	}

	for _, w := range []float64{0, -1} {
		if _, err := ComputeMoments(m, w); !errors.Is(err, apperrors.ErrConfiguration) {
			t.Errorf("weight %g: got %v, want configuration error", w, err)
		}
	}
}

// Reference scores for 8-bit masks (foreground 255) and unit masks, method I1.
func TestCompare_KnownScores(t *testing.T) {
	square := rectMask(frame, image.Rect(0, 0, 10, 10))

	tests := []struct {
		name   string
		other  *mask.Mask
		weight float64
		want   float64
	}{
		{"10x10 vs 20x10 8-bit", rectMask(frame, image.Rect(0, 0, 20, 10)), DefaultWeight, 0.010102},
		{"10x10 vs 30x5 8-bit", rectMask(frame, image.Rect(0, 0, 30, 5)), DefaultWeight, 0.057263},
		{"10x10 vs 20x10 unit", rectMask(frame, image.Rect(0, 0, 20, 10)), 1, 0.186239},
		{"10x10 vs 30x5 unit", rectMask(frame, image.Rect(0, 0, 30, 5)), 1, 2.169505},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(square, tt.other, MethodI1, tt.weight)
			if err != nil {
				t.Fatalf("Compare failed: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("got %.6f, want %.6f", got, tt.want)
			}
		})
	}
}

func TestHuMoments_KnownValues(t *testing.T) {
	mo := Moments{Nu20: 0.1, Nu02: 0.3, Nu11: 0.05}
	hu := mo.HuMoments()
	if math.Abs(hu[0]-0.4) > 1e-12 {
		t.Errorf("hu[0]: got %g, want 0.4", hu[0])
	}
	// (nu20-nu02)^2 + 4 nu11^2
	if math.Abs(hu[1]-0.05) > 1e-12 {
		t.Errorf("hu[1]: got %g, want 0.05", hu[1])
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      int
		want    Method
		wantErr bool
	}{
		{0, MethodI1, false},
		{1, MethodI1, false},
		{2, MethodI2, false},
		{3, MethodI3, false},
		{4, 0, true},
		{-1, 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMethod(%d) error: got %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMethod(%d): got %d, want %d", tt.in, got, tt.want)
		}
	}
}

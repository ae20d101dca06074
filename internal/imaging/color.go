package imaging

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/packing-defects/internal/segment"
)

// NamedRange is a segmentation range with the name it is reported under.
type NamedRange struct {
	Name  string
	Range segment.Range
}

// HSL is a colour in hue (degrees), saturation and lightness (percent).
type HSL struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	L float64 `json:"l"`
}

// ColorSample is one colour with the ranges that select it.
type ColorSample struct {
	Hex string   `json:"hex"`
	RGB [3]uint8 `json:"rgb"`
	HSL HSL      `json:"hsl"`

	// Matches names every range containing the colour, in range order.
	Matches []string `json:"matches"`
}

// NewColorSample describes an 8-bit colour against ranges.
func NewColorSample(r, g, b uint8, ranges []NamedRange) ColorSample {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, l := c.Hsl()
	if math.IsNaN(h) {
		h = 0
	}

	matches := make([]string, 0, len(ranges))
	for _, nr := range ranges {
		if nr.Range.Contains(r, g, b) {
			matches = append(matches, nr.Name)
		}
	}

	return ColorSample{
		Hex:     fmt.Sprintf("#%02X%02X%02X", r, g, b),
		RGB:     [3]uint8{r, g, b},
		HSL:     HSL{H: math.Round(h), S: math.Round(s * 100), L: math.Round(l * 100)},
		Matches: matches,
	}
}

// Point is a pixel coordinate with an optional label.
type Point struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label,omitempty"`
}

// PointSample is the colour found at one point.
type PointSample struct {
	Point
	Color ColorSample `json:"color"`
}

func rgb8(img image.Image, x, y int) (uint8, uint8, uint8) {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

// SampleColors reads the colour at each point. Any point outside the image
// fails the whole call.
func SampleColors(img image.Image, points []Point, ranges []NamedRange) ([]PointSample, error) {
	bounds := img.Bounds()
	out := make([]PointSample, 0, len(points))
	for _, p := range points {
		if !(image.Point{p.X, p.Y}).In(bounds) {
			return nil, fmt.Errorf("point (%d,%d) outside image bounds %v", p.X, p.Y, bounds)
		}
		r, g, b := rgb8(img, p.X, p.Y)
		out = append(out, PointSample{Point: p, Color: NewColorSample(r, g, b, ranges)})
	}
	return out, nil
}

// Region is a half-open rectangle in pixel coordinates.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// ColorShare is one palette entry.
type ColorShare struct {
	ColorSample
	Percentage float64 `json:"percentage"`
}

// DominantColors returns up to count palette entries of img, most frequent
// first. Channels are quantised to multiples of 16 before counting so that
// anti-aliased edges fold into their neighbours; the reported colour is the
// quantised one. A nil region covers the whole image.
func DominantColors(img image.Image, count int, region *Region, ranges []NamedRange) ([]ColorShare, error) {
	bounds := img.Bounds()
	if region != nil {
		r := region.Rect()
		if r.Empty() || !r.In(bounds) {
			return nil, fmt.Errorf("region %v outside image bounds %v", r, bounds)
		}
		bounds = r
	}

	counts := make(map[[3]uint8]int)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b := rgb8(img, x, y)
			counts[[3]uint8{r &^ 15, g &^ 15, b &^ 15}]++
		}
	}

	total := float64(bounds.Dx() * bounds.Dy())
	shares := make([]ColorShare, 0, len(counts))
	for c, n := range counts {
		shares = append(shares, ColorShare{
			ColorSample: NewColorSample(c[0], c[1], c[2], ranges),
			Percentage:  float64(n) / total * 100,
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Percentage != shares[j].Percentage {
			return shares[i].Percentage > shares[j].Percentage
		}
		return shares[i].Hex < shares[j].Hex
	})

	if count > 0 && len(shares) > count {
		shares = shares[:count]
	}
	return shares, nil
}

// SuggestRange returns the tightest range containing the colours at points,
// widened by margin on every channel and clamped to 0..255.
func SuggestRange(img image.Image, points []Point, margin int) (segment.Range, error) {
	if len(points) == 0 {
		return segment.Range{}, fmt.Errorf("at least one point is required")
	}
	samples, err := SampleColors(img, points, nil)
	if err != nil {
		return segment.Range{}, err
	}

	lo := [3]int{255, 255, 255}
	hi := [3]int{0, 0, 0}
	for _, s := range samples {
		for i, v := range s.Color.RGB {
			lo[i] = min(lo[i], int(v))
			hi[i] = max(hi[i], int(v))
		}
	}

	var rg segment.Range
	for i := range lo {
		rg.Lower[i] = uint8(max(lo[i]-margin, 0))
		rg.Upper[i] = uint8(min(hi[i]+margin, 255))
	}
	return rg, nil
}

package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultGridColor is semi-transparent red.
var DefaultGridColor = color.NRGBA{255, 0, 0, 128}

// Grid draws coordinate lines over a preview every Spacing frame pixels.
// Labels prints the frame coordinates of each intersection, so positions
// read off a scaled preview can be used directly with frame_sample_colors.
type Grid struct {
	Spacing int
	Labels  bool
	Color   color.NRGBA
}

// ParseGridColor parses "#rgb", "#rrggbb" or "#rrggbbaa". The leading '#' is
// optional. An empty string selects DefaultGridColor; a colour without an
// alpha component gets DefaultGridColor's alpha.
func ParseGridColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return DefaultGridColor, nil
	}
	alpha := DefaultGridColor.A
	if len(s) == 8 {
		a, err := strconv.ParseUint(s[6:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid grid colour %q: %w", s, err)
		}
		alpha = uint8(a)
		s = s[:6]
	}
	c, err := colorful.Hex("#" + s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid grid colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{r, g, b, alpha}, nil
}

// drawGrid paints g over dst, a preview of a frame of size frame rendered at
// scale. Lines land on the scaled position of each multiple of Spacing.
func drawGrid(dst *image.NRGBA, g Grid, frame image.Point, scale float64) {
	a := float64(g.Color.A) / 255
	bounds := dst.Rect

	for fx := g.Spacing; fx < frame.X; fx += g.Spacing {
		x := bounds.Min.X + int(float64(fx)*scale)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			tint(dst, x, y, g.Color, a)
		}
	}
	for fy := g.Spacing; fy < frame.Y; fy += g.Spacing {
		y := bounds.Min.Y + int(float64(fy)*scale)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			tint(dst, x, y, g.Color, a)
		}
	}

	if !g.Labels {
		return
	}
	fg := color.NRGBA{255, 255, 255, 255}
	bg := color.NRGBA{0, 0, 0, 180}
	for fy := g.Spacing; fy < frame.Y; fy += g.Spacing {
		for fx := g.Spacing; fx < frame.X; fx += g.Spacing {
			x := bounds.Min.X + int(float64(fx)*scale)
			y := bounds.Min.Y + int(float64(fy)*scale)
			drawLabel(dst, x+2, y+2, fmt.Sprintf("%d,%d", fx, fy), fg, bg)
		}
	}
}

// 3x5 glyphs for the digits and the comma.
var glyphs = map[rune][5]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
}

const (
	glyphAdvance = 4
	labelHeight  = 7
)

// drawLabel writes text with its top-left corner at (x, y) over a dark
// backing box one pixel wider on the top and left.
func drawLabel(dst *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	width := len(text) * glyphAdvance
	bgAlpha := float64(bg.A) / 255
	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < width; dx++ {
			tint(dst, x+dx, y+dy, bg, bgAlpha)
		}
	}

	cx := x
	for _, ch := range text {
		if glyph, ok := glyphs[ch]; ok {
			for row, line := range glyph {
				for col, bit := range line {
					if bit == '1' {
						tint(dst, cx+col, y+row, fg, 1)
					}
				}
			}
		}
		cx += glyphAdvance
	}
}

// tint blends c over the pixel at (x, y) with alpha a. Points outside dst
// are ignored.
func tint(dst *image.NRGBA, x, y int, c color.NRGBA, a float64) {
	if !(image.Point{x, y}).In(dst.Rect) {
		return
	}
	i := dst.PixOffset(x, y)
	px := dst.Pix[i : i+3 : i+3]
	px[0] = blend(px[0], c.R, a)
	px[1] = blend(px[1], c.G, a)
	px[2] = blend(px[2], c.B, a)
}

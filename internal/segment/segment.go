// Package segment isolates coloured regions of a frame into binary masks.
//
// Frames are false-coloured renderings, so each region type (simulation box,
// defect, protein) is selected by an inclusive per-channel range. All
// functions are stateless and safe for concurrent use.
//
// # Coordinate System
//
// Inputs are normalised to *image.NRGBA with the origin at (0,0) before
// thresholding, so masks returned here are always anchored at (0,0) with the
// frame's width and height regardless of the source image's bounds.
package segment

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	apperrors "github.com/ironsheep/packing-defects/internal/errors"
	"github.com/ironsheep/packing-defects/internal/mask"
)

// Triple is one colour in R, G, B channel order.
type Triple [3]uint8

// Range is an inclusive per-channel colour range.
type Range struct {
	Lower Triple `json:"lower"`
	Upper Triple `json:"upper"`
}

// Contains reports whether every channel of (r, g, b) lies within the range.
func (rg Range) Contains(r, g, b uint8) bool {
	return r >= rg.Lower[0] && r <= rg.Upper[0] &&
		g >= rg.Lower[1] && g <= rg.Upper[1] &&
		b >= rg.Lower[2] && b <= rg.Upper[2]
}

// Validate checks that the lower bound does not exceed the upper bound on any
// channel. A range that can never match is a configuration error.
func (rg Range) Validate(name string) error {
	for i, ch := range []string{"R", "G", "B"} {
		if rg.Lower[i] > rg.Upper[i] {
			return apperrors.NewConfigurationError(
				fmt.Sprintf("%s range: channel %s lower %d > upper %d", name, ch, rg.Lower[i], rg.Upper[i]), nil)
		}
	}
	return nil
}

// String formats the range as "[r g b]-[r g b]" for logs.
func (rg Range) String() string {
	return fmt.Sprintf("[%d %d %d]-[%d %d %d]",
		rg.Lower[0], rg.Lower[1], rg.Lower[2], rg.Upper[0], rg.Upper[1], rg.Upper[2])
}

// Swapped exchanges the first and third channels, converting between RGB and
// BGR notation.
func (t Triple) Swapped() Triple {
	return Triple{t[2], t[1], t[0]}
}

// Normalize returns img as an *image.NRGBA anchored at (0,0). Images that
// already satisfy this are returned as-is without copying.
func Normalize(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

// InRange returns a mask whose pixel is foreground iff every channel of the
// corresponding image pixel lies within rg.
func InRange(img image.Image, rg Range) *mask.Mask {
	src := Normalize(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	m := mask.New(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4]
			if rg.Contains(p[0], p[1], p[2]) {
				m.Pix[y*w+x] = 1
			}
		}
	}
	return m
}

package segment

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/parallel"

	apperrors "github.com/ironsheep/packing-defects/internal/errors"
)

// SmoothMethod names an edge-preserving smoothing filter.
type SmoothMethod string

const (
	// SmoothNone passes the image through unchanged.
	SmoothNone SmoothMethod = "none"
	// SmoothBilateral is the pure Go bilateral filter.
	SmoothBilateral SmoothMethod = "bilateral"
	// SmoothMedian is a median filter of radius Diameter/2.
	SmoothMedian SmoothMethod = "median"
	// SmoothOpenCV is only available in binaries built with the opencv tag.
	SmoothOpenCV SmoothMethod = "opencv-bilateral"
)

// SmoothParams configures Smooth. Diameter is the filter window in pixels;
// the sigmas only apply to the bilateral filters.
type SmoothParams struct {
	Method     SmoothMethod `json:"method" yaml:"method"`
	Diameter   int          `json:"diameter" yaml:"diameter"`
	SigmaColor float64      `json:"sigma_color" yaml:"sigma_color"`
	SigmaSpace float64      `json:"sigma_space" yaml:"sigma_space"`
}

// DefaultSmoothParams matches the box pass of the original image set
// tooling: a bilateral filter with a 10 px window and sigmas of 75.
func DefaultSmoothParams() SmoothParams {
	return SmoothParams{Method: SmoothBilateral, Diameter: 10, SigmaColor: 75, SigmaSpace: 75}
}

type smoother func(src *image.NRGBA, p SmoothParams) (*image.NRGBA, error)

var smoothers = map[SmoothMethod]smoother{
	SmoothNone:      func(src *image.NRGBA, _ SmoothParams) (*image.NRGBA, error) { return src, nil },
	SmoothBilateral: bilateral,
	SmoothMedian:    median,
}

// Supported reports whether m is available in this build.
func Supported(m SmoothMethod) bool {
	_, ok := smoothers[m]
	return ok
}

// Smooth applies the configured filter to img. The source image is never
// modified.
func Smooth(img image.Image, p SmoothParams) (*image.NRGBA, error) {
	if p.Method == "" {
		p.Method = SmoothNone
	}
	fn, ok := smoothers[p.Method]
	if !ok {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("unknown smoothing method %q", p.Method), nil)
	}
	return fn(Normalize(img), p)
}

// median delegates to bild's median filter, which is edge preserving for the
// flat-coloured regions found in rendered frames.
func median(src *image.NRGBA, p SmoothParams) (*image.NRGBA, error) {
	radius := float64(p.Diameter) / 2
	if radius < 1 {
		return src, nil
	}
	return Normalize(effect.Median(src, radius)), nil
}

// bilateral is an edge-preserving bilateral filter with OpenCV's conventions:
// a circular window of radius Diameter/2, Gaussian spatial weights, Gaussian
// colour weights on the L1 distance summed over channels, and reflect-101
// borders. Alpha is copied from the source.
func bilateral(src *image.NRGBA, p SmoothParams) (*image.NRGBA, error) {
	sigmaColor, sigmaSpace := p.SigmaColor, p.SigmaSpace
	if sigmaColor <= 0 {
		sigmaColor = 1
	}
	if sigmaSpace <= 0 {
		sigmaSpace = 1
	}
	radius := p.Diameter / 2
	if p.Diameter <= 0 {
		radius = int(math.Round(sigmaSpace * 1.5))
	}
	if radius < 1 {
		return src, nil
	}

	colorCoeff := -0.5 / (sigmaColor * sigmaColor)
	spaceCoeff := -0.5 / (sigmaSpace * sigmaSpace)

	// colour weights indexed by summed absolute channel difference
	var colorWeight [3*255 + 1]float64
	for i := range colorWeight {
		colorWeight[i] = math.Exp(float64(i*i) * colorCoeff)
	}

	type tap struct {
		dx, dy int
		w      float64
	}
	taps := make([]tap, 0, (2*radius+1)*(2*radius+1))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r := math.Sqrt(float64(dx*dx + dy*dy))
			if r > float64(radius) {
				continue
			}
			taps = append(taps, tap{dx: dx, dy: dy, w: math.Exp(r * r * spaceCoeff)})
		}
	}

	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				c := src.PixOffset(x, y)
				r0, g0, b0 := int(src.Pix[c]), int(src.Pix[c+1]), int(src.Pix[c+2])

				var sumR, sumG, sumB, wsum float64
				for _, t := range taps {
					o := src.PixOffset(reflect101(x+t.dx, w), reflect101(y+t.dy, h))
					r, g, b := int(src.Pix[o]), int(src.Pix[o+1]), int(src.Pix[o+2])
					wt := t.w * colorWeight[absInt(r-r0)+absInt(g-g0)+absInt(b-b0)]
					sumR += float64(r) * wt
					sumG += float64(g) * wt
					sumB += float64(b) * wt
					wsum += wt
				}

				d := dst.PixOffset(x, y)
				dst.Pix[d] = clampByte(sumR / wsum)
				dst.Pix[d+1] = clampByte(sumG / wsum)
				dst.Pix[d+2] = clampByte(sumB / wsum)
				dst.Pix[d+3] = src.Pix[c+3]
			}
		}
	})

	return dst, nil
}

// reflect101 maps an out-of-range index back into [0, n) mirroring about the
// edge pixel without repeating it (gfedcb|abcdefgh|gfedcba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

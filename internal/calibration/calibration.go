// Package calibration converts pixel counts to physical area.
//
// The conversion factor is derived once from the first frame's box mask and
// the simulation box dimensions measured outside this program (Angstroms in
// the usual VMD workflow). Factor is an immutable value: every per-frame
// computation receives it as a parameter and nothing recomputes it.
package calibration

import (
	"fmt"

	apperrors "github.com/ironsheep/packing-defects/internal/errors"
	"github.com/ironsheep/packing-defects/internal/mask"
)

// Factor is physical area per pixel (units² / px).
type Factor struct {
	perPixel  float64
	boxPixels int
}

// Establish derives the factor as (sideX × sideY) / (foreground pixels of box).
func Establish(sideX, sideY float64, box *mask.Mask) (Factor, error) {
	if sideX <= 0 || sideY <= 0 {
		return Factor{}, apperrors.NewCalibrationError(
			fmt.Sprintf("box sides must be > 0 (got %g x %g)", sideX, sideY), nil)
	}
	n := box.Count()
	if n == 0 {
		return Factor{}, apperrors.NewCalibrationError("box mask has no foreground pixels", nil)
	}
	return Factor{perPixel: sideX * sideY / float64(n), boxPixels: n}, nil
}

// PerPixel returns the physical area of one pixel.
func (f Factor) PerPixel() float64 {
	return f.perPixel
}

// BoxPixels returns the box pixel count the factor was derived from.
func (f Factor) BoxPixels() int {
	return f.boxPixels
}

// Valid reports whether the factor came from a successful Establish.
func (f Factor) Valid() bool {
	return f.perPixel > 0
}

// Area converts a pixel measurement to physical area.
func (f Factor) Area(pixels float64) float64 {
	return pixels * f.perPixel
}

// MaskArea converts a mask's foreground pixel count to physical area.
func (f Factor) MaskArea(m *mask.Mask) float64 {
	return f.Area(float64(m.Count()))
}

// String formats the factor for logs.
func (f Factor) String() string {
	return fmt.Sprintf("%f units^2/px", f.perPixel)
}

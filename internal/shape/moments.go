// Package shape compares region shapes with Hu moment invariants.
//
// Moments are computed on binary masks where every foreground pixel carries
// the same weight: raw moments up to third order, central moments about the centroid, then
// scale-normalised moments eta_pq = mu_pq / m00^(1+(p+q)/2). The seven Hu
// invariants built from eta are unchanged by translation, rotation and
// uniform scaling, so two masks of the same shape score 0 wherever they sit
// in the frame.
package shape

import (
	"fmt"
	"math"

	apperrors "github.com/ironsheep/packing-defects/internal/errors"
	"github.com/ironsheep/packing-defects/internal/mask"
)

// Moments holds the spatial, central and normalised central moments of a mask.
// Spatial moments are taken about the top-left corner of the foreground's
// bounding box, so they do not depend on where the region sits in the frame
// and the third-order sums stay small.
type Moments struct {
	M00, M10, M01, M20, M11, M02, M30, M21, M12, M03 float64

	Mu20, Mu11, Mu02, Mu30, Mu21, Mu12, Mu03 float64

	Nu20, Nu11, Nu02, Nu30, Nu21, Nu12, Nu03 float64
}

// Centroid returns the centre of mass relative to the foreground's bounding box.
func (m Moments) Centroid() (x, y float64) {
	return m.M10 / m.M00, m.M01 / m.M00
}

// DefaultWeight is the value of a foreground pixel in an 8-bit mask. Hu
// invariants are not invariant to intensity scaling: eta_pq scales by
// weight^-((p+q)/2), so scores are only comparable between runs that use the
// same weight.
const DefaultWeight = 255

// ComputeMoments returns the moments of m with each foreground pixel weighing
// weight. An empty mask is an error since every normalised moment would
// divide by zero.
func ComputeMoments(m *mask.Mask, weight float64) (Moments, error) {
	if weight <= 0 {
		return Moments{}, apperrors.NewConfigurationError(fmt.Sprintf("moment weight must be > 0 (got %g)", weight), nil)
	}

	var mo Moments
	r := m.Rect
	w := r.Dx()
	o := m.Bounds().Min

	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := (y - r.Min.Y) * w
		fy := float64(y - o.Y)
		for x := r.Min.X; x < r.Max.X; x++ {
			if m.Pix[row+x-r.Min.X] == 0 {
				continue
			}
			fx := float64(x - o.X)
			mo.M00++
			mo.M10 += fx
			mo.M01 += fy
			mo.M20 += fx * fx
			mo.M11 += fx * fy
			mo.M02 += fy * fy
			mo.M30 += fx * fx * fx
			mo.M21 += fx * fx * fy
			mo.M12 += fx * fy * fy
			mo.M03 += fy * fy * fy
		}
	}

	if mo.M00 == 0 {
		return Moments{}, apperrors.NewEmptyShapeError("cannot compute moments of an empty mask")
	}

	mo.M00 *= weight
	mo.M10 *= weight
	mo.M01 *= weight
	mo.M20 *= weight
	mo.M11 *= weight
	mo.M02 *= weight
	mo.M30 *= weight
	mo.M21 *= weight
	mo.M12 *= weight
	mo.M03 *= weight

	cx, cy := mo.Centroid()

	mo.Mu20 = mo.M20 - cx*mo.M10
	mo.Mu11 = mo.M11 - cx*mo.M01
	mo.Mu02 = mo.M02 - cy*mo.M01
	mo.Mu30 = mo.M30 - cx*(3*mo.Mu20+cx*mo.M10)
	mo.Mu21 = mo.M21 - cx*(2*mo.Mu11+cx*mo.M01) - cy*mo.Mu20
	mo.Mu12 = mo.M12 - cy*(2*mo.Mu11+cy*mo.M10) - cx*mo.Mu02
	mo.Mu03 = mo.M03 - cy*(3*mo.Mu02+cy*mo.M01)

	inv2 := 1 / (mo.M00 * mo.M00)
	inv3 := inv2 / math.Sqrt(mo.M00)

	mo.Nu20 = mo.Mu20 * inv2
	mo.Nu11 = mo.Mu11 * inv2
	mo.Nu02 = mo.Mu02 * inv2
	mo.Nu30 = mo.Mu30 * inv3
	mo.Nu21 = mo.Mu21 * inv3
	mo.Nu12 = mo.Mu12 * inv3
	mo.Nu03 = mo.Mu03 * inv3

	return mo, nil
}

// HuMoments returns the seven Hu invariants of the normalised moments.
func (m Moments) HuMoments() [7]float64 {
	t0 := m.Nu30 + m.Nu12
	t1 := m.Nu21 + m.Nu03
	q0 := t0 * t0
	q1 := t1 * t1
	n4 := 4 * m.Nu11
	s := m.Nu20 + m.Nu02
	d := m.Nu20 - m.Nu02

	var hu [7]float64
	hu[0] = s
	hu[1] = d*d + n4*m.Nu11
	hu[3] = q0 + q1
	hu[5] = d*(q0-q1) + n4*t0*t1

	t0 *= q0 - 3*q1
	t1 *= 3*q0 - q1

	q0 = m.Nu30 - 3*m.Nu12
	q1 = 3*m.Nu21 - m.Nu03

	hu[2] = q0*q0 + q1*q1
	hu[4] = q0*t0 + q1*t1
	hu[6] = q1*t0 - q0*t1
	return hu
}

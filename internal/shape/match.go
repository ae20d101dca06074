package shape

import (
	"fmt"
	"math"

	apperrors "github.com/ironsheep/packing-defects/internal/errors"
	"github.com/ironsheep/packing-defects/internal/mask"
)

// Method selects how two sets of Hu invariants are compared. The log-scaled
// invariants are m_i = sign(h_i) * log10|h_i|; invariants with |h_i| below
// 1e-5 on either side are skipped.
type Method int

const (
	// MethodI1 sums |1/mA_i - 1/mB_i|. Symmetric; the default.
	MethodI1 Method = 1
	// MethodI2 sums |mA_i - mB_i|. Symmetric.
	MethodI2 Method = 2
	// MethodI3 takes max |mA_i - mB_i| / |mA_i|. Not symmetric.
	MethodI3 Method = 3
)

const huEpsilon = 1e-5

// ParseMethod validates a method number. Zero selects MethodI1.
func ParseMethod(n int) (Method, error) {
	switch n {
	case 0:
		return MethodI1, nil
	case 1, 2, 3:
		return Method(n), nil
	}
	return 0, apperrors.NewConfigurationError(fmt.Sprintf("unknown shape match method %d", n), nil)
}

// Compare returns the shape distance between two masks whose foreground
// pixels weigh weight: 0 for identical shapes, growing as they differ. It
// fails with an empty-shape error when either mask has no foreground pixels.
func Compare(a, b *mask.Mask, method Method, weight float64) (float64, error) {
	ma, err := ComputeMoments(a, weight)
	if err != nil {
		return 0, err
	}
	mb, err := ComputeMoments(b, weight)
	if err != nil {
		return 0, err
	}
	return Distance(ma.HuMoments(), mb.HuMoments(), method), nil
}

// Distance compares two sets of Hu invariants.
func Distance(ha, hb [7]float64, method Method) float64 {
	var result float64
	for i := 0; i < 7; i++ {
		aa, ab := math.Abs(ha[i]), math.Abs(hb[i])
		if aa <= huEpsilon || ab <= huEpsilon {
			continue
		}
		la := sign(ha[i]) * math.Log10(aa)
		lb := sign(hb[i]) * math.Log10(ab)

		switch method {
		case MethodI2:
			result += math.Abs(la - lb)
		case MethodI3:
			if la == 0 {
				continue
			}
			if d := math.Abs((la - lb) / la); d > result {
				result = d
			}
		default:
			if la == 0 || lb == 0 {
				continue // |h| == 1 has no reciprocal
			}
			result += math.Abs(1/la - 1/lb)
		}
	}
	return result
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

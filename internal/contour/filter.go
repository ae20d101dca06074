package contour

import (
	"fmt"

	"github.com/ironsheep/packing-defects/internal/calibration"
	apperrors "github.com/ironsheep/packing-defects/internal/errors"
)

// AreaMetric selects how a contour's pixel area is measured.
type AreaMetric string

const (
	// AreaPixels counts the component's own foreground pixels.
	AreaPixels AreaMetric = "pixels"
	// AreaPolygon uses the boundary polygon through pixel centres, as
	// OpenCV's contourArea does.
	AreaPolygon AreaMetric = "polygon"
)

// ParseAreaMetric validates a metric name. The empty string selects AreaPixels.
func ParseAreaMetric(s string) (AreaMetric, error) {
	switch AreaMetric(s) {
	case "", AreaPixels:
		return AreaPixels, nil
	case AreaPolygon:
		return AreaPolygon, nil
	}
	return "", apperrors.NewConfigurationError(fmt.Sprintf("unknown area metric %q", s), nil)
}

// Pixels returns the contour's area in pixels under metric.
func (c Contour) Pixels(metric AreaMetric) float64 {
	if metric == AreaPolygon {
		return c.PolygonArea()
	}
	return float64(c.PixelArea)
}

// Area returns the contour's physical area under metric.
func (c Contour) Area(f calibration.Factor, metric AreaMetric) float64 {
	return f.Area(c.Pixels(metric))
}

// Filter keeps the contours whose physical area is strictly greater than
// minArea. The input slice is not modified.
func Filter(contours []Contour, f calibration.Factor, minArea float64, metric AreaMetric) []Contour {
	kept := make([]Contour, 0, len(contours))
	for _, c := range contours {
		if c.Area(f, metric) > minArea {
			kept = append(kept, c)
		}
	}
	return kept
}

package analysis

import (
	"encoding/json"
	"math"
	"strconv"
)

// Score is a shape distance that may be undefined, which happens whenever one
// side of the comparison is empty (no protein in the frame, or no defect
// overlapping it).
type Score struct {
	Value   float64
	Defined bool
}

// Undefined is the score reported when a comparison has no shape to work on.
var Undefined = Score{Value: math.NaN()}

// DefinedScore wraps a computed distance.
func DefinedScore(v float64) Score {
	return Score{Value: v, Defined: true}
}

// String formats the score for the text streams: six decimals, or "nan".
func (s Score) String() string {
	if !s.Defined {
		return "nan"
	}
	return strconv.FormatFloat(s.Value, 'f', 6, 64)
}

// MarshalJSON encodes an undefined score as null.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// GlobalRecord is the per-frame leaflet total.
type GlobalRecord struct {
	Frame int `json:"frame"`

	// BoxArea is the physical area of the filled simulation box region.
	BoxArea float64 `json:"box_area"`

	// DefectArea is the physical area of every defect pixel, before any
	// contour filtering.
	DefectArea float64 `json:"defect_area"`
}

// FrequencyRecord describes one retained defect.
type FrequencyRecord struct {
	Frame int     `json:"frame"`
	Area  float64 `json:"area"`
	Score Score   `json:"score"`
}

// LocalRecord describes the defects directly below the protein.
type LocalRecord struct {
	Frame int `json:"frame"`

	// OverlapArea is the physical area of the union of retained defects
	// intersected with the protein footprint.
	OverlapArea float64 `json:"overlap_area"`

	// ProteinArea is the physical area of the filled protein footprint.
	ProteinArea float64 `json:"protein_area"`

	// Score compares the protein footprint with the overlap region.
	Score Score `json:"score"`
}

// FrameStats carries counts that are not part of the output streams but feed
// the run summary.
type FrameStats struct {
	Contours int `json:"contours"`
	Retained int `json:"retained"`
}

// FrameResult is everything measured on one frame.
type FrameResult struct {
	Frame     int               `json:"frame"`
	Name      string            `json:"name"`
	Global    GlobalRecord      `json:"global"`
	Frequency []FrequencyRecord `json:"frequency"`

	// Local is nil when the run has no protein source.
	Local *LocalRecord `json:"local,omitempty"`

	Stats FrameStats `json:"stats"`
}

// ItemizedArea sums the areas of the frequency records.
func (r *FrameResult) ItemizedArea() float64 {
	var sum float64
	for _, f := range r.Frequency {
		sum += f.Area
	}
	return sum
}

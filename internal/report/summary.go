package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/packing-defects/internal/analysis"
	"github.com/ironsheep/packing-defects/internal/calibration"
)

// Stats describes one series of per-frame or per-defect values.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Describe computes Stats for values. The slice is sorted in place. An empty
// series gives the zero Stats; a single value has zero deviation.
func Describe(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	sort.Float64s(values)
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) == 1 || math.IsNaN(std) {
		std = 0
	}
	return Stats{
		Count:  len(values),
		Mean:   mean,
		StdDev: std,
		Median: stat.Quantile(0.5, stat.LinInterp, values, nil),
		Min:    values[0],
		Max:    values[len(values)-1],
	}
}

// FrameFailure records a frame that could not be processed.
type FrameFailure struct {
	Frame int    `json:"frame"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Summary is the end-of-run digest written to defect_summary.json.
type Summary struct {
	Frames    int            `json:"frames"`
	Processed int            `json:"processed"`
	Failures  []FrameFailure `json:"failures"`

	ConversionFactor float64 `json:"conversion_factor"`
	BoxPixels        int     `json:"box_pixels"`

	// Coverage is the defect area over the box area, per frame.
	Coverage   Stats `json:"coverage"`
	DefectArea Stats `json:"defect_area"`

	// DefectsPerFrame counts retained defects per frame.
	DefectsPerFrame Stats `json:"defects_per_frame"`

	// DefectSize covers every retained defect of every frame.
	DefectSize Stats `json:"defect_size"`

	// OverlapArea is only populated when a protein source is configured.
	OverlapArea *Stats `json:"overlap_area,omitempty"`

	Elapsed string `json:"elapsed"`
}

// Accumulator gathers per-frame results into a Summary. Add must be called
// from one goroutine.
type Accumulator struct {
	frames   int
	failures []FrameFailure

	coverage   []float64
	defectArea []float64
	perFrame   []float64
	sizes      []float64
	overlap    []float64
}

// NewAccumulator prepares an accumulator for a run of n frames.
func NewAccumulator(n int) *Accumulator {
	return &Accumulator{frames: n, failures: make([]FrameFailure, 0)}
}

// Add records one processed frame.
func (a *Accumulator) Add(r *analysis.FrameResult) {
	if r.Global.BoxArea > 0 {
		a.coverage = append(a.coverage, r.Global.DefectArea/r.Global.BoxArea)
	}
	a.defectArea = append(a.defectArea, r.Global.DefectArea)
	a.perFrame = append(a.perFrame, float64(len(r.Frequency)))
	for _, f := range r.Frequency {
		a.sizes = append(a.sizes, f.Area)
	}
	if r.Local != nil {
		a.overlap = append(a.overlap, r.Local.OverlapArea)
	}
}

// Fail records a frame that was skipped.
func (a *Accumulator) Fail(frame int, name string, err error) {
	a.failures = append(a.failures, FrameFailure{Frame: frame, Name: name, Error: err.Error()})
}

// Failures returns the number of skipped frames so far.
func (a *Accumulator) Failures() int {
	return len(a.failures)
}

// Summary computes the digest.
func (a *Accumulator) Summary(f calibration.Factor, elapsed time.Duration) Summary {
	s := Summary{
		Frames:           a.frames,
		Processed:        len(a.defectArea),
		Failures:         a.failures,
		ConversionFactor: f.PerPixel(),
		BoxPixels:        f.BoxPixels(),
		Coverage:         Describe(a.coverage),
		DefectArea:       Describe(a.defectArea),
		DefectsPerFrame:  Describe(a.perFrame),
		DefectSize:       Describe(a.sizes),
		Elapsed:          elapsed.Round(time.Millisecond).String(),
	}
	sort.Slice(s.Failures, func(i, j int) bool { return s.Failures[i].Frame < s.Failures[j].Frame })
	if len(a.overlap) > 0 {
		o := Describe(a.overlap)
		s.OverlapArea = &o
	}
	return s
}

// WriteSummary writes s as indented JSON to path.
func WriteSummary(path string, s Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

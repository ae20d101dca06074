package analysis

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/ironsheep/packing-defects/internal/calibration"
	"github.com/ironsheep/packing-defects/internal/contour"
	apperrors "github.com/ironsheep/packing-defects/internal/errors"
	"github.com/ironsheep/packing-defects/internal/mask"
	"github.com/ironsheep/packing-defects/internal/segment"
	"github.com/ironsheep/packing-defects/internal/shape"
)

// ProteinSource says where the protein footprint comes from.
type ProteinSource string

const (
	// ProteinNone disables protein analysis.
	ProteinNone ProteinSource = "none"
	// ProteinLipid thresholds the protein colour in the lipid frame itself.
	ProteinLipid ProteinSource = "lipid"
	// ProteinSeparate reads a companion frame with the same file name.
	ProteinSeparate ProteinSource = "dir"
)

// Options configures an Analyzer.
type Options struct {
	Box     segment.Range
	Defect  segment.Range
	Protein segment.Range

	// BoxSmoothing is applied before the box threshold only.
	BoxSmoothing segment.SmoothParams

	ProteinSource ProteinSource

	// MinContourArea is the physical area a defect must exceed to be itemised.
	MinContourArea float64

	AreaMetric  contour.AreaMetric
	ShapeMethod shape.Method

	// MomentWeight is the value of a foreground pixel in shape comparisons.
	// Zero selects shape.DefaultWeight, matching 8-bit 0/255 masks.
	MomentWeight float64

	// ClipToBox restricts defect pixels to the filled box region.
	ClipToBox bool
}

// Frame is one decoded frame ready for analysis.
type Frame struct {
	Index int
	Name  string
	Image image.Image

	// ProteinImage is the companion frame for ProteinSeparate, nil otherwise.
	ProteinImage image.Image
}

// Analyzer runs the per-frame pipeline.
type Analyzer struct {
	opts   Options
	logger *slog.Logger
}

// New creates an Analyzer. A nil logger discards output.
func New(opts Options, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.ProteinSource == "" {
		opts.ProteinSource = ProteinNone
	}
	if opts.AreaMetric == "" {
		opts.AreaMetric = contour.AreaPixels
	}
	if opts.ShapeMethod == 0 {
		opts.ShapeMethod = shape.MethodI1
	}
	if opts.MomentWeight == 0 {
		opts.MomentWeight = shape.DefaultWeight
	}
	return &Analyzer{opts: opts, logger: logger}
}

// Options returns the analyzer's effective options.
func (a *Analyzer) Options() Options {
	return a.opts
}

// BoxMask isolates the simulation box: smoothing, thresholding, then filling
// the region enclosed by the box outline.
func (a *Analyzer) BoxMask(img image.Image) (*mask.Mask, error) {
	smoothed, err := segment.Smooth(img, a.opts.BoxSmoothing)
	if err != nil {
		return nil, err
	}
	return contour.Fill(segment.InRange(smoothed, a.opts.Box)), nil
}

// ProteinMask returns the filled protein footprint of f, or nil when protein
// analysis is disabled.
func (a *Analyzer) ProteinMask(f Frame) (*mask.Mask, error) {
	switch a.opts.ProteinSource {
	case ProteinNone:
		return nil, nil
	case ProteinLipid:
		return contour.Fill(segment.InRange(f.Image, a.opts.Protein)), nil
	case ProteinSeparate:
		if f.ProteinImage == nil {
			return nil, apperrors.NewFrameReadError(f.Index, errors.New("missing protein frame"))
		}
		lb, pb := f.Image.Bounds(), f.ProteinImage.Bounds()
		if lb.Dx() != pb.Dx() || lb.Dy() != pb.Dy() {
			return nil, apperrors.NewFrameReadError(f.Index,
				fmt.Errorf("protein frame is %dx%d, lipid frame is %dx%d", pb.Dx(), pb.Dy(), lb.Dx(), lb.Dy()))
		}
		return contour.Fill(segment.InRange(f.ProteinImage, a.opts.Protein)), nil
	}
	return nil, apperrors.NewConfigurationError(fmt.Sprintf("unknown protein source %q", a.opts.ProteinSource), nil)
}

// Analyze measures one frame. The box mask may be passed in when the caller
// already computed it (frame 1 during calibration); pass nil otherwise.
func (a *Analyzer) Analyze(f Frame, factor calibration.Factor, box *mask.Mask) (*FrameResult, error) {
	if !factor.Valid() {
		return nil, apperrors.NewCalibrationError("analysis requires an established calibration factor", nil)
	}

	var err error
	if box == nil {
		if box, err = a.BoxMask(f.Image); err != nil {
			return nil, apperrors.WithFrame(err, f.Index)
		}
	}

	defects := segment.InRange(f.Image, a.opts.Defect)
	if a.opts.ClipToBox {
		defects = mask.Intersect(defects, box)
	}

	result := &FrameResult{
		Frame: f.Index,
		Name:  f.Name,
		Global: GlobalRecord{
			Frame:      f.Index,
			BoxArea:    factor.MaskArea(box),
			DefectArea: factor.MaskArea(defects),
		},
		Frequency: make([]FrequencyRecord, 0),
	}

	all := contour.Extract(defects)
	kept := contour.Filter(all, factor, a.opts.MinContourArea, a.opts.AreaMetric)
	result.Stats = FrameStats{Contours: len(all), Retained: len(kept)}

	protein, err := a.ProteinMask(f)
	if err != nil {
		return nil, err
	}

	for _, c := range kept {
		result.Frequency = append(result.Frequency, FrequencyRecord{
			Frame: f.Index,
			Area:  c.Area(factor, a.opts.AreaMetric),
			Score: a.score(c.Filled, protein),
		})
	}

	if protein != nil {
		overlap := Overlap(kept, protein)
		result.Local = &LocalRecord{
			Frame:       f.Index,
			OverlapArea: factor.MaskArea(overlap),
			ProteinArea: factor.MaskArea(protein),
			Score:       a.score(protein, overlap),
		}
	}

	a.logger.Debug("frame analyzed",
		"frame", f.Index,
		"file", f.Name,
		"box_area", result.Global.BoxArea,
		"defect_area", result.Global.DefectArea,
		"contours", len(all),
		"retained", len(kept),
	)

	return result, nil
}

// Overlap folds the retained contours into one mask: the union over contours
// of (filled contour ∩ protein). The result covers the protein's rectangle.
func Overlap(contours []contour.Contour, protein *mask.Mask) *mask.Mask {
	parts := make([]*mask.Mask, 0, len(contours))
	for _, c := range contours {
		parts = append(parts, mask.Intersect(c.Filled, protein))
	}
	return mask.Union(protein.Rect, parts...)
}

// score compares two masks, mapping an empty side to an undefined score.
func (a *Analyzer) score(x, y *mask.Mask) Score {
	if x == nil || y == nil {
		return Undefined
	}
	v, err := shape.Compare(x, y, a.opts.ShapeMethod, a.opts.MomentWeight)
	if err != nil {
		if !errors.Is(err, apperrors.ErrEmptyShape) {
			a.logger.Warn("shape comparison failed", "error", err)
		}
		return Undefined
	}
	return DefinedScore(v)
}

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/ironsheep/packing-defects/internal/analysis"
	"github.com/ironsheep/packing-defects/internal/calibration"
	"github.com/ironsheep/packing-defects/internal/contour"
	"github.com/ironsheep/packing-defects/internal/driver"
	"github.com/ironsheep/packing-defects/internal/frames"
	"github.com/ironsheep/packing-defects/internal/imaging"
	"github.com/ironsheep/packing-defects/internal/mask"
	"github.com/ironsheep/packing-defects/internal/report"
	"github.com/ironsheep/packing-defects/internal/segment"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "frame_load", "frame_analyze").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Frame inspection
	case "frame_load":
		return s.handleFrameLoad(args)
	case "frame_sample_colors":
		return s.handleFrameSampleColors(args)
	case "frame_dominant_colors":
		return s.handleFrameDominantColors(args)
	case "frame_suggest_range":
		return s.handleFrameSuggestRange(args)

	// Pipeline
	case "frame_segment":
		return s.handleFrameSegment(args)
	case "frame_preview":
		return s.handleFramePreview(args)
	case "frame_analyze":
		return s.handleFrameAnalyze(args)
	case "frames_run":
		return s.handleFramesRun(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// ranges lists the configured segmentation ranges under their report names.
func (s *Server) ranges() []imaging.NamedRange {
	opts := s.analyzer.Options()
	return []imaging.NamedRange{
		{Name: "box", Range: opts.Box},
		{Name: "defect", Range: opts.Defect},
		{Name: "protein", Range: opts.Protein},
	}
}

// === Frame Inspection Handlers ===

type frameLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleFrameLoad(args json.RawMessage) (interface{}, error) {
	var a frameLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.cache.Info(a.Path)
}

type frameSampleColorsArgs struct {
	Path   string          `json:"path"`
	Points []imaging.Point `json:"points"`
}

func (s *Server) handleFrameSampleColors(args json.RawMessage) (interface{}, error) {
	var a frameSampleColorsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	samples, err := imaging.SampleColors(img, a.Points, s.ranges())
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"samples": samples}, nil
}

type frameDominantColorsArgs struct {
	Path   string          `json:"path"`
	Count  int             `json:"count"`
	Region *imaging.Region `json:"region,omitempty"`
}

func (s *Server) handleFrameDominantColors(args json.RawMessage) (interface{}, error) {
	var a frameDominantColorsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Count == 0 {
		a.Count = 8
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	colors, err := imaging.DominantColors(img, a.Count, a.Region, s.ranges())
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"colors": colors}, nil
}

type frameSuggestRangeArgs struct {
	Path   string          `json:"path"`
	Points []imaging.Point `json:"points"`
	Margin *int            `json:"margin,omitempty"`
}

func (s *Server) handleFrameSuggestRange(args json.RawMessage) (interface{}, error) {
	var a frameSuggestRangeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	margin := 8
	if a.Margin != nil {
		margin = max(*a.Margin, 0)
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	rg, err := imaging.SuggestRange(img, a.Points, margin)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"range":  rg,
		"yaml":   fmt.Sprintf("{lower: [%d, %d, %d], upper: [%d, %d, %d]}", rg.Lower[0], rg.Lower[1], rg.Lower[2], rg.Upper[0], rg.Upper[1], rg.Upper[2]),
		"margin": margin,
	}, nil
}

// === Pipeline Handlers ===

type frameSegmentArgs struct {
	Path         string `json:"path"`
	IncludeMasks bool   `json:"include_masks"`
}

type segmentResult struct {
	Width         int                              `json:"width"`
	Height        int                              `json:"height"`
	BoxPixels     int                              `json:"box_pixels"`
	DefectPixels  int                              `json:"defect_pixels"`
	ProteinPixels int                              `json:"protein_pixels"`
	Contours      int                              `json:"contours"`
	Masks         map[string]*imaging.EncodedImage `json:"masks,omitempty"`
}

// segmentation holds the masks of one frame as the analyzer sees them.
type segmentation struct {
	box, defect, protein *mask.Mask
}

func (s *Server) handleFrameSegment(args json.RawMessage) (interface{}, error) {
	var a frameSegmentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	seg, err := s.segment(a.Path)
	if err != nil {
		return nil, err
	}

	res := segmentResult{
		Width:         seg.box.Rect.Dx(),
		Height:        seg.box.Rect.Dy(),
		BoxPixels:     seg.box.Count(),
		DefectPixels:  seg.defect.Count(),
		ProteinPixels: seg.protein.Count(),
		Contours:      len(contour.Extract(seg.defect)),
	}
	if a.IncludeMasks {
		res.Masks = make(map[string]*imaging.EncodedImage)
		for name, m := range map[string]*mask.Mask{"box": seg.box, "defect": seg.defect, "protein": seg.protein} {
			if m == nil {
				continue
			}
			enc, err := imaging.EncodeMask(m)
			if err != nil {
				return nil, err
			}
			res.Masks[name] = enc
		}
	}
	return res, nil
}

type framePreviewArgs struct {
	Path        string  `json:"path"`
	Scale       float64 `json:"scale"`
	GridSpacing int     `json:"grid_spacing,omitempty"`
	GridLabels  bool    `json:"grid_labels,omitempty"`
	GridColor   string  `json:"grid_color,omitempty"`
}

// Preview tints, chosen to stand apart from the false colours of a frame.
var (
	boxTint     = color.NRGBA{0, 0, 255, 64}
	defectTint  = color.NRGBA{255, 0, 255, 160}
	proteinTint = color.NRGBA{0, 255, 255, 160}
)

func (s *Server) handleFramePreview(args json.RawMessage) (interface{}, error) {
	var a framePreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	var grid *imaging.Grid
	if a.GridSpacing != 0 {
		c, err := imaging.ParseGridColor(a.GridColor)
		if err != nil {
			return nil, err
		}
		grid = &imaging.Grid{Spacing: a.GridSpacing, Labels: a.GridLabels, Color: c}
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	seg, err := s.segment(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Overlay(img, []imaging.Layer{
		{Mask: seg.box, Color: boxTint},
		{Mask: seg.defect, Color: defectTint},
		{Mask: seg.protein, Color: proteinTint},
	}, a.Scale, grid)
}

type frameAnalyzeArgs struct {
	Path        string  `json:"path"`
	ProteinPath string  `json:"protein_path,omitempty"`
	SideX       float64 `json:"side_x,omitempty"`
	SideY       float64 `json:"side_y,omitempty"`
}

type analyzeResult struct {
	ConversionFactor float64                `json:"conversion_factor"`
	BoxPixels        int                    `json:"box_pixels"`
	Result           *analysis.FrameResult  `json:"result"`
	Lines            map[string]interface{} `json:"lines"`
}

// handleFrameAnalyze runs the full pipeline on one frame, calibrating against
// the frame's own box.
func (s *Server) handleFrameAnalyze(args json.RawMessage) (interface{}, error) {
	var a frameAnalyzeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.SideX == 0 {
		a.SideX = s.cfg.Box.SideX
	}
	if a.SideY == 0 {
		a.SideY = s.cfg.Box.SideY
	}

	// an explicit companion frame switches this call to a separate protein source
	an := s.analyzer
	if a.ProteinPath != "" && an.Options().ProteinSource != analysis.ProteinSeparate {
		opts := an.Options()
		opts.ProteinSource = analysis.ProteinSeparate
		an = analysis.New(opts, s.logger)
	}

	f, err := s.frame(a.Path, a.ProteinPath)
	if err != nil {
		return nil, err
	}
	box, err := an.BoxMask(f.Image)
	if err != nil {
		return nil, err
	}
	factor, err := calibration.Establish(a.SideX, a.SideY, box)
	if err != nil {
		return nil, err
	}
	res, err := an.Analyze(f, factor, box)
	if err != nil {
		return nil, err
	}

	freq := make([]string, len(res.Frequency))
	for i, r := range res.Frequency {
		freq[i] = report.FormatFrequency(r)
	}
	lines := map[string]interface{}{
		"calibration": report.FormatCalibration(factor),
		"global":      report.FormatGlobal(res.Global),
		"frequency":   freq,
	}
	if res.Local != nil {
		lines["local"] = report.FormatLocal(*res.Local)
	}

	return analyzeResult{
		ConversionFactor: factor.PerPixel(),
		BoxPixels:        factor.BoxPixels(),
		Result:           res,
		Lines:            lines,
	}, nil
}

type framesRunArgs struct {
	FramesDir  string `json:"frames_dir,omitempty"`
	ProteinDir string `json:"protein_dir,omitempty"`
	OutputDir  string `json:"output_dir,omitempty"`
	Workers    int    `json:"workers,omitempty"`
}

type runResult struct {
	Summary report.Summary    `json:"summary"`
	Files   map[string]string `json:"files"`
}

// handleFramesRun processes a whole directory with the server configuration,
// overriding directories and workers from the arguments. A protein directory
// selects the separate protein source for this run.
func (s *Server) handleFramesRun(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a framesRunArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	cfg := *s.cfg
	if a.FramesDir != "" {
		cfg.Frames.Dir = a.FramesDir
	}
	if a.ProteinDir != "" {
		cfg.Protein.Source = string(analysis.ProteinSeparate)
		cfg.Protein.Dir = a.ProteinDir
	}
	if a.OutputDir != "" {
		cfg.Output.Dir = a.OutputDir
	}
	if a.Workers > 0 {
		cfg.Workers = a.Workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := driver.New(driver.Options{
		FramesDir:    cfg.Frames.Dir,
		Order:        cfg.FrameOrder(),
		Extensions:   cfg.Frames.Extensions,
		ProteinDir:   cfg.Protein.Dir,
		BoxSideX:     cfg.Box.SideX,
		BoxSideY:     cfg.Box.SideY,
		Workers:      cfg.WorkerCount(),
		OutputDir:    cfg.Output.Dir,
		OutputSuffix: cfg.Output.Suffix,
	}, analysis.New(cfg.AnalysisOptions(), s.logger), s.logger)

	summary, err := d.Run(ctx)
	if err != nil {
		return nil, err
	}

	names := report.FileNames(cfg.Output.Suffix)
	files := map[string]string{
		"calibration": filepath.Join(cfg.Output.Dir, names.Calibration),
		"local":       filepath.Join(cfg.Output.Dir, names.Local),
		"frequency":   filepath.Join(cfg.Output.Dir, names.Frequency),
		"global":      filepath.Join(cfg.Output.Dir, names.Global),
	}
	if summary.Frames > 0 {
		files["summary"] = filepath.Join(cfg.Output.Dir, names.Summary)
	}
	return runResult{Summary: summary, Files: files}, nil
}

// frame loads a frame through the cache, with its companion protein frame
// when one is given or the configuration reads protein from a directory.
func (s *Server) frame(path, proteinPath string) (analysis.Frame, error) {
	img, err := s.cache.Load(path)
	if err != nil {
		return analysis.Frame{}, err
	}
	f := analysis.Frame{Index: 1, Name: filepath.Base(path), Image: img}

	if proteinPath == "" && s.analyzer.Options().ProteinSource == analysis.ProteinSeparate {
		proteinPath = frames.Companion(frames.Ref{Name: f.Name}, s.cfg.Protein.Dir).Path
	}
	if proteinPath != "" {
		if f.ProteinImage, err = s.cache.Load(proteinPath); err != nil {
			return analysis.Frame{}, err
		}
	}
	return f, nil
}

// segment computes the masks the analyzer would use for path. The protein
// mask is nil when the configuration has no protein source.
func (s *Server) segment(path string) (*segmentation, error) {
	f, err := s.frame(path, "")
	if err != nil {
		return nil, err
	}
	box, err := s.analyzer.BoxMask(f.Image)
	if err != nil {
		return nil, err
	}
	defect := segment.InRange(f.Image, s.analyzer.Options().Defect)
	if s.analyzer.Options().ClipToBox {
		defect = mask.Intersect(defect, box)
	}
	protein, err := s.analyzer.ProteinMask(f)
	if err != nil {
		return nil, err
	}
	return &segmentation{box: box, defect: defect, protein: protein}, nil
}

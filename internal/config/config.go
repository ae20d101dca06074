// Package config loads run configuration from a YAML file, environment
// variables and defaults, in increasing order of precedence: defaults, file,
// environment. Command-line flags are applied by the binaries on top.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/packing-defects/internal/analysis"
	"github.com/ironsheep/packing-defects/internal/contour"
	apperrors "github.com/ironsheep/packing-defects/internal/errors"
	"github.com/ironsheep/packing-defects/internal/frames"
	"github.com/ironsheep/packing-defects/internal/segment"
	"github.com/ironsheep/packing-defects/internal/shape"
)

// Environment overrides.
const (
	EnvFramesDir  = "PACKDEF_FRAMES_DIR"
	EnvProteinDir = "PACKDEF_PROTEIN_DIR"
	EnvOutputDir  = "PACKDEF_OUTPUT_DIR"
	EnvWorkers    = "PACKDEF_WORKERS"
)

// DefaultBoxSide is the simulation box edge, in Angstroms, of the reference
// trajectory the default colour ranges were tuned on.
const DefaultBoxSide = 134.466293

// FramesConfig locates the rendered frames. Order is "lexical" or "natural";
// Extensions filters the directory listing.
type FramesConfig struct {
	Dir        string   `yaml:"dir"`
	Order      string   `yaml:"order"`
	Extensions []string `yaml:"extensions"`
}

// ProteinConfig selects where the protein footprint comes from: "none",
// "lipid" (the lipid frame itself) or "dir" (companion frames under Dir).
type ProteinConfig struct {
	Source string `yaml:"source"`
	Dir    string `yaml:"dir"`
}

// BoxConfig holds the simulation box sides in Angstroms.
type BoxConfig struct {
	SideX float64 `yaml:"side_x"`
	SideY float64 `yaml:"side_y"`
}

// ColorRange is an inclusive per-channel RGB range.
type ColorRange struct {
	Lower Color `yaml:"lower"`
	Upper Color `yaml:"upper"`
}

// RangesConfig holds the colour ranges used for segmentation.
type RangesConfig struct {
	Box     ColorRange `yaml:"box"`
	Defect  ColorRange `yaml:"defect"`
	Protein ColorRange `yaml:"protein"`
}

// OutputConfig names the output directory and the suffix inserted into every
// output file name.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Suffix string `yaml:"suffix"`
}

// Config is the complete run configuration.
type Config struct {
	Frames  FramesConfig  `yaml:"frames"`
	Protein ProteinConfig `yaml:"protein"`
	Box     BoxConfig     `yaml:"box"`

	// ChannelOrder is "rgb" or "bgr" and applies to integer triples in
	// Ranges. Hex colours are always #rrggbb.
	ChannelOrder string       `yaml:"channel_order"`
	Ranges       RangesConfig `yaml:"ranges"`

	Smoothing      segment.SmoothParams `yaml:"smoothing"`
	MinContourArea float64              `yaml:"min_contour_area"`
	AreaMetric     string               `yaml:"area_metric"`
	ShapeMethod    int                  `yaml:"shape_method"`

	// MomentWeight is the value a foreground pixel carries in shape moments.
	// 255 reproduces scores computed on 8-bit masks; 1 treats masks as 0/1.
	MomentWeight float64 `yaml:"moment_weight"`
	ClipToBox    bool    `yaml:"clip_to_box"`

	// Workers bounds parallel frame processing; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`

	Output OutputConfig `yaml:"output"`
}

// Default returns the configuration of the reference trajectory.
func Default() *Config {
	return &Config{
		Frames:       FramesConfig{Order: string(frames.OrderLexical)},
		Protein:      ProteinConfig{Source: string(analysis.ProteinNone)},
		Box:          BoxConfig{SideX: DefaultBoxSide, SideY: DefaultBoxSide},
		ChannelOrder: "rgb",
		Ranges: RangesConfig{
			Box:     ColorRange{Lower: RGB(0, 150, 0), Upper: RGB(60, 255, 60)},
			Defect:  ColorRange{Lower: RGB(200, 200, 0), Upper: RGB(255, 255, 25)},
			Protein: ColorRange{Lower: RGB(200, 0, 0), Upper: RGB(255, 25, 25)},
		},
		Smoothing:      segment.DefaultSmoothParams(),
		MinContourArea: 1.0,
		AreaMetric:     string(contour.AreaPixels),
		ShapeMethod:    int(shape.MethodI1),
		MomentWeight:   shape.DefaultWeight,
		ClipToBox:      true,
		Output:         OutputConfig{Dir: "data_files"},
	}
}

// Load reads path over the defaults, then applies environment overrides. An
// empty path skips the file. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("failed to open config %q", path), err)
		}
		defer f.Close()
		if err := cfg.Decode(f); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode reads YAML from r into cfg. Unknown keys are rejected.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.NewConfigurationError("failed to parse config", err)
	}
	return nil
}

// Encode writes cfg as YAML to w.
func (c *Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// ApplyEnv overrides directories and the worker count from the environment.
func (c *Config) ApplyEnv() error {
	c.Frames.Dir = getEnvOrDefault(EnvFramesDir, c.Frames.Dir)
	c.Protein.Dir = getEnvOrDefault(EnvProteinDir, c.Protein.Dir)
	c.Output.Dir = getEnvOrDefault(EnvOutputDir, c.Output.Dir)
	if v := strings.TrimSpace(os.Getenv(EnvWorkers)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return apperrors.NewConfigurationError(fmt.Sprintf("invalid %s: %q", EnvWorkers, v), err)
		}
		c.Workers = n
	}
	return nil
}

// Validate checks every field that can be checked without touching the disk.
func (c *Config) Validate() error {
	if c.Frames.Dir == "" {
		return apperrors.NewConfigurationError("frames directory is required", nil)
	}
	if _, err := frames.ParseOrder(c.Frames.Order); err != nil {
		return err
	}
	switch analysis.ProteinSource(c.Protein.Source) {
	case "", analysis.ProteinNone, analysis.ProteinLipid:
	case analysis.ProteinSeparate:
		if c.Protein.Dir == "" {
			return apperrors.NewConfigurationError("protein.dir is required when protein.source is dir", nil)
		}
	default:
		return apperrors.NewConfigurationError(fmt.Sprintf("unknown protein source %q", c.Protein.Source), nil)
	}
	if c.Box.SideX <= 0 || c.Box.SideY <= 0 {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("box sides must be > 0 (got %g x %g)", c.Box.SideX, c.Box.SideY), nil)
	}
	if c.ChannelOrder != "rgb" && c.ChannelOrder != "bgr" {
		return apperrors.NewConfigurationError(fmt.Sprintf("channel_order must be rgb or bgr (got %q)", c.ChannelOrder), nil)
	}
	box, defect, protein := c.ranges()
	if err := box.Validate("box"); err != nil {
		return err
	}
	if err := defect.Validate("defect"); err != nil {
		return err
	}
	if err := protein.Validate("protein"); err != nil {
		return err
	}
	if !segment.Supported(c.Smoothing.Method) {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("smoothing method %q is not available in this build", c.Smoothing.Method), nil)
	}
	if c.Smoothing.Method != segment.SmoothNone && c.Smoothing.Diameter <= 0 {
		return apperrors.NewConfigurationError("smoothing diameter must be > 0", nil)
	}
	if c.MinContourArea < 0 {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("min_contour_area must be >= 0 (got %g)", c.MinContourArea), nil)
	}
	if _, err := contour.ParseAreaMetric(c.AreaMetric); err != nil {
		return err
	}
	if _, err := shape.ParseMethod(c.ShapeMethod); err != nil {
		return err
	}
	if c.MomentWeight <= 0 {
		return apperrors.NewConfigurationError(fmt.Sprintf("moment_weight must be > 0 (got %g)", c.MomentWeight), nil)
	}
	if c.Workers < 0 {
		return apperrors.NewConfigurationError(fmt.Sprintf("workers must be >= 0 (got %d)", c.Workers), nil)
	}
	if c.Output.Dir == "" {
		return apperrors.NewConfigurationError("output directory is required", nil)
	}
	return nil
}

// AnalysisOptions converts the configuration for the analyzer. Call Validate
// first.
func (c *Config) AnalysisOptions() analysis.Options {
	box, defect, protein := c.ranges()
	metric, _ := contour.ParseAreaMetric(c.AreaMetric)
	method, _ := shape.ParseMethod(c.ShapeMethod)
	src := analysis.ProteinSource(c.Protein.Source)
	if src == "" {
		src = analysis.ProteinNone
	}
	return analysis.Options{
		Box:            box,
		Defect:         defect,
		Protein:        protein,
		BoxSmoothing:   c.Smoothing,
		ProteinSource:  src,
		MinContourArea: c.MinContourArea,
		AreaMetric:     metric,
		ShapeMethod:    method,
		MomentWeight:   c.MomentWeight,
		ClipToBox:      c.ClipToBox,
	}
}

// FrameOrder returns the parsed frame order. Call Validate first.
func (c *Config) FrameOrder() frames.Order {
	o, _ := frames.ParseOrder(c.Frames.Order)
	return o
}

// WorkerCount resolves Workers, mapping 0 to GOMAXPROCS.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (c *Config) ranges() (box, defect, protein segment.Range) {
	bgr := c.ChannelOrder == "bgr"
	return c.Ranges.Box.resolve(bgr), c.Ranges.Defect.resolve(bgr), c.Ranges.Protein.resolve(bgr)
}

func (r ColorRange) resolve(bgr bool) segment.Range {
	return segment.Range{Lower: r.Lower.rgb(bgr), Upper: r.Upper.rgb(bgr)}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

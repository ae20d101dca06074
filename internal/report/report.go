package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ironsheep/packing-defects/internal/analysis"
	"github.com/ironsheep/packing-defects/internal/calibration"
)

// Stream headers, trailing space included.
const (
	LocalHeader     = "frame_# area_prot_defect area_protein comparison_value "
	FrequencyHeader = "frame_# area_defect comparison_value "
	GlobalHeader    = "frame_# area_box area_total_defect "
)

// Names holds the output file names for one run.
type Names struct {
	Calibration string `json:"calibration"`
	Local       string `json:"local"`
	Frequency   string `json:"frequency"`
	Global      string `json:"global"`
	Summary     string `json:"summary"`
}

// FileNames returns the output file names with suffix inserted before each
// extension.
func FileNames(suffix string) Names {
	return Names{
		Calibration: "pbc_scale_dimensions" + suffix + ".dat",
		Local:       "local_defect" + suffix + ".dat",
		Frequency:   "defect_freq_area" + suffix + ".dat",
		Global:      "global_defect" + suffix + ".dat",
		Summary:     "defect_summary" + suffix + ".json",
	}
}

// FormatCalibration returns the calibration report line.
func FormatCalibration(f calibration.Factor) string {
	return fmt.Sprintf("conversion factor is %f A^2/pixel. All values are reported in A^2 \n", f.PerPixel())
}

// FormatGlobal returns the global stream line for one frame.
func FormatGlobal(r analysis.GlobalRecord) string {
	return fmt.Sprintf("%d %f %f \n", r.Frame, r.BoxArea, r.DefectArea)
}

// FormatFrequency returns the frequency stream line for one defect.
func FormatFrequency(r analysis.FrequencyRecord) string {
	return fmt.Sprintf("%d %f %s \n", r.Frame, r.Area, r.Score)
}

// FormatLocal returns the local stream line for one frame.
func FormatLocal(r analysis.LocalRecord) string {
	return fmt.Sprintf("%d %f %f %s \n", r.Frame, r.OverlapArea, r.ProteinArea, r.Score)
}

type stream struct {
	f *os.File
	w *bufio.Writer
}

// Writer appends frame results to the output streams.
type Writer struct {
	dir   string
	names Names

	calibration stream
	local       stream
	frequency   stream
	global      stream
}

// Create makes dir if needed, truncates the stream files and writes their
// headers. The calibration file is truncated and filled by WriteCalibration.
func Create(dir, suffix string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	w := &Writer{dir: dir, names: FileNames(suffix)}
	files := []struct {
		s      *stream
		name   string
		header string
	}{
		{&w.calibration, w.names.Calibration, ""},
		{&w.local, w.names.Local, LocalHeader},
		{&w.frequency, w.names.Frequency, FrequencyHeader},
		{&w.global, w.names.Global, GlobalHeader},
	}
	for _, f := range files {
		fh, err := os.Create(filepath.Join(dir, f.name))
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to create %s: %w", f.name, err)
		}
		f.s.f = fh
		f.s.w = bufio.NewWriter(fh)
		if f.header != "" {
			if _, err := io.WriteString(f.s.w, f.header+"\n"); err != nil {
				w.Close()
				return nil, fmt.Errorf("failed to write %s header: %w", f.name, err)
			}
		}
	}
	return w, nil
}

// Names returns the file names in use.
func (w *Writer) Names() Names {
	return w.names
}

// Path returns the full path of an output file name.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// WriteCalibration writes the calibration report line.
func (w *Writer) WriteCalibration(f calibration.Factor) error {
	if _, err := io.WriteString(w.calibration.w, FormatCalibration(f)); err != nil {
		return fmt.Errorf("failed to write calibration report: %w", err)
	}
	return w.calibration.w.Flush()
}

// WriteFrame appends one frame's records: its global line, one frequency line
// per retained defect, and its local line when the frame has one. Streams are
// flushed after every frame so partial runs leave complete records behind.
func (w *Writer) WriteFrame(r *analysis.FrameResult) error {
	if _, err := io.WriteString(w.global.w, FormatGlobal(r.Global)); err != nil {
		return fmt.Errorf("failed to write global record: %w", err)
	}
	for _, rec := range r.Frequency {
		if _, err := io.WriteString(w.frequency.w, FormatFrequency(rec)); err != nil {
			return fmt.Errorf("failed to write frequency record: %w", err)
		}
	}
	if r.Local != nil {
		if _, err := io.WriteString(w.local.w, FormatLocal(*r.Local)); err != nil {
			return fmt.Errorf("failed to write local record: %w", err)
		}
	}
	for _, s := range []*stream{&w.global, &w.frequency, &w.local} {
		if err := s.w.Flush(); err != nil {
			return fmt.Errorf("failed to flush output: %w", err)
		}
	}
	return nil
}

// Close flushes and closes every stream, returning the first error.
func (w *Writer) Close() error {
	var first error
	for _, s := range []*stream{&w.calibration, &w.local, &w.frequency, &w.global} {
		if s.f == nil {
			continue
		}
		if err := s.w.Flush(); err != nil && first == nil {
			first = err
		}
		if err := s.f.Close(); err != nil && first == nil {
			first = err
		}
		s.f = nil
	}
	return first
}

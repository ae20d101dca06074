package report

import (
	"encoding/json"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ironsheep/packing-defects/internal/analysis"
	"github.com/ironsheep/packing-defects/internal/calibration"
	"github.com/ironsheep/packing-defects/internal/mask"
)

// factorOf returns a factor of perPixel units²/px from a one-pixel box
func factorOf(t *testing.T, perPixel float64) calibration.Factor {
	t.Helper()
	m := mask.New(image.Rect(0, 0, 1, 1))
	m.Set(0, 0, true)
	f, err := calibration.Establish(perPixel, 1, m)
	if err != nil {
		t.Fatalf("Establish failed: %v", err)
	}
	return f
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestFileNames(t *testing.T) {
	n := FileNames("_bot")
	want := Names{
		Calibration: "pbc_scale_dimensions_bot.dat",
		Local:       "local_defect_bot.dat",
		Frequency:   "defect_freq_area_bot.dat",
		Global:      "global_defect_bot.dat",
		Summary:     "defect_summary_bot.json",
	}
	if n != want {
		t.Errorf("got %+v, want %+v", n, want)
	}
	if FileNames("").Global != "global_defect.dat" {
		t.Errorf("no suffix: got %s", FileNames("").Global)
	}
}

func TestFormatting(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			"calibration",
			FormatCalibration(factorOf(t, 0.5)),
			"conversion factor is 0.500000 A^2/pixel. All values are reported in A^2 \n",
		},
		{
			"global",
			FormatGlobal(analysis.GlobalRecord{Frame: 1, BoxArea: 10000, DefectArea: 50}),
			"1 10000.000000 50.000000 \n",
		},
		{
			"frequency undefined",
			FormatFrequency(analysis.FrequencyRecord{Frame: 1, Area: 50, Score: analysis.Undefined}),
			"1 50.000000 nan \n",
		},
		{
			"frequency defined",
			FormatFrequency(analysis.FrequencyRecord{Frame: 7, Area: 2.5, Score: analysis.DefinedScore(0.125)}),
			"7 2.500000 0.125000 \n",
		},
		{
			"local",
			FormatLocal(analysis.LocalRecord{Frame: 3, OverlapArea: 12, ProteinArea: 400, Score: analysis.DefinedScore(1)}),
			"3 12.000000 400.000000 1.000000 \n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestWriter_Streams(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data_files")

	// stale content from an earlier run must not survive
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "global_defect.dat"), []byte("stale\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := Create(dir, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := w.WriteCalibration(factorOf(t, 1)); err != nil {
		t.Fatalf("WriteCalibration failed: %v", err)
	}

	results := []*analysis.FrameResult{
		{
			Frame:  1,
			Global: analysis.GlobalRecord{Frame: 1, BoxArea: 10000, DefectArea: 50},
			Frequency: []analysis.FrequencyRecord{
				{Frame: 1, Area: 50, Score: analysis.Undefined},
			},
		},
		{
			Frame:     2,
			Global:    analysis.GlobalRecord{Frame: 2, BoxArea: 9990, DefectArea: 0},
			Frequency: []analysis.FrequencyRecord{},
			Local:     &analysis.LocalRecord{Frame: 2, ProteinArea: 100, Score: analysis.Undefined},
		},
	}
	for _, r := range results {
		if err := w.WriteFrame(r); err != nil {
			t.Fatalf("WriteFrame failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	n := w.Names()
	checks := map[string]string{
		n.Calibration: "conversion factor is 1.000000 A^2/pixel. All values are reported in A^2 \n",
		n.Global:      GlobalHeader + "\n1 10000.000000 50.000000 \n2 9990.000000 0.000000 \n",
		n.Frequency:   FrequencyHeader + "\n1 50.000000 nan \n",
		n.Local:       LocalHeader + "\n2 0.000000 100.000000 nan \n",
	}
	for name, want := range checks {
		if got := readFile(t, w.Path(name)); got != want {
			t.Errorf("%s:\ngot  %q\nwant %q", name, got, want)
		}
	}
}

func TestWriter_HeadersOnly(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(dir, "_top")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// a second Close is harmless
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	got := readFile(t, filepath.Join(dir, "local_defect_top.dat"))
	if got != LocalHeader+"\n" {
		t.Errorf("local stream: got %q", got)
	}
	for _, h := range []string{LocalHeader, FrequencyHeader, GlobalHeader} {
		if !strings.HasPrefix(h, "frame_# ") || !strings.HasSuffix(h, " ") {
			t.Errorf("header %q lost its frame column or trailing space", h)
		}
	}
}

func TestDescribe(t *testing.T) {
	s := Describe([]float64{4, 1, 3, 2})
	if s.Count != 4 || s.Mean != 2.5 || s.Min != 1 || s.Max != 4 {
		t.Errorf("got %+v", s)
	}
	if s.Median < 2 || s.Median > 3 {
		t.Errorf("median: got %f, want within [2,3]", s.Median)
	}
	if math.Abs(s.StdDev-math.Sqrt(5.0/3.0)) > 1e-9 {
		t.Errorf("std dev: got %f", s.StdDev)
	}

	if got := Describe(nil); got != (Stats{}) {
		t.Errorf("empty: got %+v", got)
	}
	one := Describe([]float64{7})
	if one.Mean != 7 || one.StdDev != 0 || one.Median != 7 {
		t.Errorf("single: got %+v", one)
	}
}

func TestAccumulator(t *testing.T) {
	acc := NewAccumulator(3)
	acc.Add(&analysis.FrameResult{
		Frame:  1,
		Global: analysis.GlobalRecord{Frame: 1, BoxArea: 100, DefectArea: 10},
		Frequency: []analysis.FrequencyRecord{
			{Frame: 1, Area: 6}, {Frame: 1, Area: 4},
		},
	})
	acc.Add(&analysis.FrameResult{
		Frame:     3,
		Global:    analysis.GlobalRecord{Frame: 3, BoxArea: 100, DefectArea: 30},
		Frequency: []analysis.FrequencyRecord{{Frame: 3, Area: 30}},
	})
	acc.Fail(2, "frame_002.bmp", os.ErrNotExist)

	s := acc.Summary(factorOf(t, 2), 1500*time.Millisecond)
	if s.Frames != 3 || s.Processed != 2 || len(s.Failures) != 1 {
		t.Errorf("counts: got frames=%d processed=%d failures=%d", s.Frames, s.Processed, len(s.Failures))
	}
	if s.ConversionFactor != 2 {
		t.Errorf("factor: got %f", s.ConversionFactor)
	}
	if math.Abs(s.Coverage.Mean-0.2) > 1e-12 {
		t.Errorf("coverage mean: got %f, want 0.2", s.Coverage.Mean)
	}
	if math.Abs(s.DefectsPerFrame.Mean-1.5) > 1e-12 {
		t.Errorf("defects per frame: got %f, want 1.5", s.DefectsPerFrame.Mean)
	}
	if s.DefectSize.Count != 3 || s.DefectSize.Max != 30 {
		t.Errorf("defect size: got %+v", s.DefectSize)
	}
	if s.OverlapArea != nil {
		t.Errorf("overlap without protein: got %+v", s.OverlapArea)
	}

	path := filepath.Join(t.TempDir(), "defect_summary.json")
	if err := WriteSummary(path, s); err != nil {
		t.Fatalf("WriteSummary failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(readFile(t, path)), &decoded); err != nil {
		t.Fatalf("summary is not valid JSON: %v", err)
	}
	if decoded["elapsed"] != "1.5s" {
		t.Errorf("elapsed: got %v", decoded["elapsed"])
	}
}

package driver

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/packing-defects/internal/analysis"
	"github.com/ironsheep/packing-defects/internal/calibration"
	apperrors "github.com/ironsheep/packing-defects/internal/errors"
	"github.com/ironsheep/packing-defects/internal/frames"
	"github.com/ironsheep/packing-defects/internal/mask"
	"github.com/ironsheep/packing-defects/internal/report"
)

// Options configures a run.
type Options struct {
	FramesDir  string
	Order      frames.Order
	Extensions []string

	// ProteinDir holds the companion frames when the analyzer's protein
	// source is analysis.ProteinSeparate.
	ProteinDir string

	BoxSideX float64
	BoxSideY float64

	// Workers bounds concurrent frame analysis; values below 1 mean 1.
	Workers int

	OutputDir    string
	OutputSuffix string
}

// Sink receives the calibration factor once and then every frame result in
// frame order. It is only ever called from one goroutine.
type Sink interface {
	WriteCalibration(f calibration.Factor) error
	WriteFrame(r *analysis.FrameResult) error
}

// Driver runs the pipeline.
type Driver struct {
	opts     Options
	analyzer *analysis.Analyzer
	logger   *slog.Logger
}

// New creates a Driver. A nil logger discards output.
func New(opts Options, analyzer *analysis.Analyzer, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Driver{opts: opts, analyzer: analyzer, logger: logger}
}

// reference is frame 1 after calibration: the decoded frame, its filled box
// mask and the factor every frame is measured with.
type reference struct {
	frame  analysis.Frame
	box    *mask.Mask
	factor calibration.Factor
}

// Run processes every frame, writes the output streams and the summary file
// under OutputDir, and returns the summary. The error is non-nil only for
// failures that stop the run: configuration, calibration, output I/O or
// context cancellation. Skipped frames are listed in Summary.Failures.
// Output files are only truncated once calibration has succeeded, so a run
// that cannot calibrate leaves earlier results in place.
func (d *Driver) Run(ctx context.Context) (report.Summary, error) {
	refs, err := frames.List(d.opts.FramesDir, d.opts.Order, d.opts.Extensions)
	if err != nil {
		return report.Summary{}, err
	}
	if len(refs) == 0 {
		return report.Summary{}, apperrors.NewConfigurationError(
			fmt.Sprintf("no frames found in %q", d.opts.FramesDir), nil)
	}

	start := time.Now()
	base, err := d.calibrate(refs[0])
	if err != nil {
		return report.Summary{}, err
	}

	w, err := report.Create(d.opts.OutputDir, d.opts.OutputSuffix)
	if err != nil {
		return report.Summary{}, err
	}

	summary, runErr := d.run(ctx, start, refs, base, w)
	if err := w.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to close output: %w", err)
	}
	if runErr != nil && summary.Frames == 0 {
		return summary, runErr
	}

	path := w.Path(w.Names().Summary)
	if err := report.WriteSummary(path, summary); err != nil && runErr == nil {
		runErr = err
	}
	return summary, runErr
}

// Process calibrates on refs[0] and analyses every ref, feeding sink in
// order. It does not touch the output directory.
func (d *Driver) Process(ctx context.Context, refs []frames.Ref, sink Sink) (report.Summary, error) {
	if len(refs) == 0 {
		return report.Summary{}, apperrors.NewConfigurationError("no frames to process", nil)
	}
	start := time.Now()
	base, err := d.calibrate(refs[0])
	if err != nil {
		return report.Summary{}, err
	}
	return d.run(ctx, start, refs, base, sink)
}

// run analyses every ref against a calibrated reference.
func (d *Driver) run(ctx context.Context, start time.Time, refs []frames.Ref, base reference, sink Sink) (report.Summary, error) {
	acc := report.NewAccumulator(len(refs))
	factor := base.factor
	if err := sink.WriteCalibration(factor); err != nil {
		return report.Summary{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan outcome, d.opts.Workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)

	go func() {
		defer close(results)
		for i, ref := range refs {
			i, ref := i, ref
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				var o outcome
				if i == 0 {
					o = d.analyze(base.frame, factor, base.box)
				} else {
					o = d.process(ref, factor)
				}
				select {
				case results <- o:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		_ = g.Wait()
	}()

	em := newEmitter(refs[0].Index, func(o outcome) error {
		if o.err != nil {
			d.logger.Error("frame skipped", "frame", o.ref.Index, "file", o.ref.Name, "error", o.err)
			acc.Fail(o.ref.Index, o.ref.Name, o.err)
			return nil
		}
		acc.Add(o.result)
		return sink.WriteFrame(o.result)
	})

	var emitErr error
	for o := range results {
		if err := em.push(o); err != nil {
			emitErr = fmt.Errorf("failed to write frame %d: %w", o.ref.Index, err)
			cancel()
			break
		}
	}
	// unblock any worker still sending
	go func() {
		for range results {
		}
	}()

	summary := acc.Summary(factor, time.Since(start))
	if emitErr != nil {
		return summary, emitErr
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	if n := em.pending(); n > 0 {
		return summary, fmt.Errorf("%d frame results were never emitted", n)
	}

	d.logger.Info("run complete",
		"frames", summary.Frames,
		"processed", summary.Processed,
		"failed", len(summary.Failures),
		"mean_coverage", summary.Coverage.Mean,
		"elapsed", summary.Elapsed,
	)
	return summary, nil
}

// calibrate loads frame 1 and derives the factor from its filled box mask.
func (d *Driver) calibrate(r frames.Ref) (reference, error) {
	f, err := d.load(r)
	if err != nil {
		return reference{}, apperrors.NewCalibrationError(
			fmt.Sprintf("reference frame %s could not be read", r.Name), err)
	}
	box, err := d.analyzer.BoxMask(f.Image)
	if err != nil {
		return reference{}, err
	}
	factor, err := calibration.Establish(d.opts.BoxSideX, d.opts.BoxSideY, box)
	if err != nil {
		return reference{}, apperrors.WithFrame(err, r.Index)
	}
	d.logger.Info("calibrated",
		"frame", r.Index,
		"file", r.Name,
		"box_pixels", factor.BoxPixels(),
		"factor", factor.PerPixel(),
	)
	return reference{frame: f, box: box, factor: factor}, nil
}

// process loads and analyses one frame.
func (d *Driver) process(ref frames.Ref, factor calibration.Factor) outcome {
	f, err := d.load(ref)
	if err != nil {
		return outcome{ref: ref, err: err}
	}
	return d.analyze(f, factor, nil)
}

func (d *Driver) analyze(f analysis.Frame, factor calibration.Factor, box *mask.Mask) outcome {
	ref := frames.Ref{Index: f.Index, Name: f.Name}
	res, err := d.analyzer.Analyze(f, factor, box)
	if err != nil {
		return outcome{ref: ref, err: apperrors.WithFrame(err, f.Index)}
	}
	return outcome{ref: ref, result: res}
}

// load decodes a frame and, for a separate protein source, its companion.
func (d *Driver) load(ref frames.Ref) (analysis.Frame, error) {
	img, err := frames.Load(ref)
	if err != nil {
		return analysis.Frame{}, err
	}
	f := analysis.Frame{Index: ref.Index, Name: ref.Name, Image: img}
	if d.analyzer.Options().ProteinSource == analysis.ProteinSeparate {
		var p image.Image
		if p, err = frames.Load(frames.Companion(ref, d.opts.ProteinDir)); err != nil {
			return analysis.Frame{}, err
		}
		f.ProteinImage = p
	}
	return f, nil
}

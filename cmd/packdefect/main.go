package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/packing-defects/internal/analysis"
	"github.com/ironsheep/packing-defects/internal/config"
	"github.com/ironsheep/packing-defects/internal/driver"
	"github.com/ironsheep/packing-defects/internal/logging"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("packdefect %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		}
	}

	configPath := flag.String("config", "", "YAML configuration file")
	framesDir := flag.String("frames", "", "directory of lipid frames (overrides config)")
	proteinDir := flag.String("protein", "", "directory of protein frames; implies protein source dir")
	outputDir := flag.String("out", "", "output directory (overrides config)")
	suffix := flag.String("suffix", "", "suffix inserted into every output file name")
	workers := flag.Int("workers", -1, "frames processed in parallel, 0 for GOMAXPROCS (overrides config)")
	printConfig := flag.Bool("print-config", false, "print the effective configuration and exit")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "packdefect - lipid packing defect analysis of rendered trajectory frames")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Usage: packdefect [options]")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Options:")
		flag.PrintDefaults()
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Environment variables:")
		fmt.Fprintf(os.Stderr, "  %s=debug    Enable debug logging\n", logging.EnvLevel)
		fmt.Fprintf(os.Stderr, "  %s, %s, %s, %s\n",
			config.EnvFramesDir, config.EnvProteinDir, config.EnvOutputDir, config.EnvWorkers)
	}
	flag.Parse()

	logger := logging.FromEnv()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *framesDir != "" {
		cfg.Frames.Dir = *framesDir
	}
	if *proteinDir != "" {
		cfg.Protein.Source = string(analysis.ProteinSeparate)
		cfg.Protein.Dir = *proteinDir
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *suffix != "" {
		cfg.Output.Suffix = *suffix
	}
	if *workers >= 0 {
		cfg.Workers = *workers
	}

	if *printConfig {
		if err := cfg.Encode(os.Stdout); err != nil {
			logger.Error("failed to print configuration", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
	}, analysis.New(cfg.AnalysisOptions(), logger), logger)

	summary, err := d.Run(ctx)
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("summary",
		"frames", summary.Frames,
		"processed", summary.Processed,
		"failed", len(summary.Failures),
		"mean_coverage", summary.Coverage.Mean,
		"median_defect_size", summary.DefectSize.Median,
		"elapsed", summary.Elapsed,
	)
	if len(summary.Failures) > 0 {
		os.Exit(2)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/packing-defects/internal/config"
	"github.com/ironsheep/packing-defects/internal/logging"
	"github.com/ironsheep/packing-defects/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// EnvConfig names the YAML configuration file the tools run with.
const EnvConfig = "PACKDEF_CONFIG"

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("packdefect-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("packdefect-mcp - MCP server for lipid packing defect analysis")
			fmt.Println()
			fmt.Println("Usage: packdefect-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Printf("  %s=debug    Enable debug logging\n", logging.EnvLevel)
			fmt.Printf("  %s=path     Configuration file (colour ranges, box size, ...)\n", EnvConfig)
			fmt.Printf("  %s, %s, %s, %s\n",
				config.EnvFramesDir, config.EnvProteinDir, config.EnvOutputDir, config.EnvWorkers)
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Logs go to stderr; stdout is for MCP protocol
	logger := logging.FromEnv()
	logger.Debug("starting", "version", Version, "built", BuildTime, "commit", GitCommit)

	cfg, err := config.Load(os.Getenv(EnvConfig))
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	// The frames directory is optional here; frames_run may supply one.
	probe := *cfg
	if probe.Frames.Dir == "" {
		probe.Frames.Dir = "."
	}
	if err := probe.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server.Version = Version
	srv := server.New(cfg, logger)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

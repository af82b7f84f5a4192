package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"bilatcli/internal/config"
	"bilatcli/internal/errors"
	"bilatcli/internal/infrastructure"
	"bilatcli/internal/operations"
	"bilatcli/internal/scenario"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the pipeline configuration file")
	parallel := flag.Bool("parallel", false, "expand technologies concurrently (linking stays sequential)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	slog.SetDefault(logger)
	defer infrastructure.CloseLogFile()

	paths := config.NewPaths(cfg.Paths)
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("failed to create directory layout", "error", err)
		os.Exit(1)
	}

	store := scenario.NewMemStore()

	var opts []operations.Option
	if metrics, err := operations.NewMetrics(); err != nil {
		slog.Warn("metrics unavailable", "error", err)
	} else {
		opts = append(opts, operations.WithMetrics(metrics))
	}
	if *parallel {
		opts = append(opts, operations.WithParallelBroadcast())
	}

	manager, err := operations.NewManager(cfg, paths, store, opts...)
	if err != nil {
		slog.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	summary, err := manager.Run(context.Background())
	if err != nil {
		slog.Error("pipeline run aborted", "error", err)
		os.Exit(1)
	}

	slog.Info("pipeline run finished",
		slog.String("run_id", summary.RunID),
		slog.Int("completed", len(summary.Completed)),
		slog.Int("failed", len(summary.Failed.Errors)))

	if summary.Failed.HasErrors() {
		for _, pErr := range summary.Failed.Errors {
			attrs := []any{
				slog.String("technology", pErr.Technology),
				slog.String("type", string(pErr.Type)),
			}
			if pErr.Type == errors.ErrorTypeMissingCurated {
				// first invocation of the curated two-phase contract:
				// the template was written, annotate it and rerun
				slog.Warn(pErr.Message, attrs...)
				continue
			}
			slog.Error(pErr.Message, attrs...)
		}
		os.Exit(1)
	}
}

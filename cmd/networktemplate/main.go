package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"bilatcli/internal/config"
	"bilatcli/internal/errors"
	"bilatcli/internal/files"
	"bilatcli/internal/infrastructure"
	"bilatcli/internal/network"
	"bilatcli/internal/template"
)

// networktemplate pre-generates the authoring surface without touching any
// scenario: curated network inclusion files and bare parameter templates,
// ready for hand-editing before a bilateralize run.
func main() {
	configPath := flag.String("config", "config.yaml", "path to the pipeline configuration file")
	force := flag.Bool("force", false, "overwrite templates that already exist")
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

	builder := network.NewBuilder(paths)
	generator := template.NewGenerator(paths)

	var failed bool
	for _, tech := range cfg.Technologies {
		edges, err := builder.BuildEdges(cfg.Nodes, tech)
		if err != nil {
			if errors.GetErrorType(err) == errors.ErrorTypeMissingCurated {
				// file just written, nothing to broadcast over yet
				slog.Info("curated network template written, annotate before running the pipeline",
					slog.String("technology", tech.Name),
					slog.String("path", paths.NetworkPath(tech.Name)))
				continue
			}
			slog.Error("failed to build network",
				slog.String("technology", tech.Name), "error", err)
			failed = true
			continue
		}

		for _, parameter := range template.ParametersFor(tech.Kind) {
			path := paths.TemplatePath(tech.Name, parameter)
			if files.Exists(path) && !*force {
				slog.Debug("template exists, keeping authored content",
					slog.String("technology", tech.Name),
					slog.String("parameter", parameter))
				continue
			}
			table, err := generator.Generate(edges, parameter, tech)
			if err == nil {
				err = generator.WriteTemplate(tech.Name, table)
			}
			if err != nil {
				slog.Error("failed to write template",
					slog.String("technology", tech.Name),
					slog.String("parameter", parameter), "error", err)
				failed = true
				continue
			}
			slog.Info("template written",
				slog.String("technology", tech.Name),
				slog.String("parameter", parameter),
				slog.String("path", path))
		}
	}

	if failed {
		os.Exit(1)
	}
}

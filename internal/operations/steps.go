package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"bilatcli/internal/broadcast"
	"bilatcli/internal/calibration"
	"bilatcli/internal/config"
	"bilatcli/internal/errors"
	"bilatcli/internal/exporter"
	"bilatcli/internal/files"
	"bilatcli/internal/linker"
	"bilatcli/internal/network"
	"bilatcli/internal/scenario"
	"bilatcli/internal/template"
	"bilatcli/pkg/contracts/domain"
)

// TemplateStep enumerates the technology's network edges and produces its
// bare parameter tables. Authored templates on disk win over freshly
// generated ones: the authoring surface is where users fill in values.
type TemplateStep struct {
	nodes     []domain.Node
	builder   *network.Builder
	generator *template.Generator
	reader    *template.Reader
	paths     *config.Paths
}

// NewTemplateStep creates the template step.
func NewTemplateStep(nodes []domain.Node, paths *config.Paths) *TemplateStep {
	return &TemplateStep{
		nodes:     nodes,
		builder:   network.NewBuilder(paths),
		generator: template.NewGenerator(paths),
		reader:    template.NewReader(paths),
		paths:     paths,
	}
}

func (s *TemplateStep) ID() string             { return StepIDTemplate }
func (s *TemplateStep) Name() string           { return StepNameTemplate }
func (s *TemplateStep) Dependencies() []string { return nil }

func (s *TemplateStep) Validate(state *TechnologyState) error {
	if len(s.nodes) < 2 {
		return errors.NewConfigurationError("need at least two nodes", nil)
	}
	return nil
}

func (s *TemplateStep) Execute(ctx context.Context, state *TechnologyState) error {
	edges, err := s.builder.BuildEdges(s.nodes, state.Tech)
	if err != nil {
		return err
	}
	state.Edges = edges

	for _, parameter := range template.ParametersFor(state.Tech.Kind) {
		var table *domain.ParameterTable
		if files.Exists(s.paths.TemplatePath(state.Tech.Name, parameter)) {
			table, err = s.reader.Read(state.Tech, parameter)
		} else {
			table, err = s.generator.Generate(edges, parameter, state.Tech)
			if err == nil {
				err = s.generator.WriteTemplate(state.Tech.Name, table)
			}
		}
		if err != nil {
			return errors.WrapError(err, state.Tech.Name, fmt.Sprintf("template stage failed for %s", parameter))
		}
		state.SetTable(parameter, table)
	}

	slog.InfoContext(ctx, "templates ready",
		slog.String("technology", state.Tech.Name),
		slog.Int("edges", len(edges)),
		slog.Int("parameters", len(state.Tables)))
	return nil
}

// CalibrateStep overlays externally observed history onto the bare tables.
// A missing source is recoverable: the technology continues on structural
// values alone.
type CalibrateStep struct {
	cfg       config.CalibrationConfig
	paths     *config.Paths
	discovery *files.Discovery
}

// NewCalibrateStep creates the calibration step.
func NewCalibrateStep(cfg config.CalibrationConfig, paths *config.Paths) *CalibrateStep {
	return &CalibrateStep{
		cfg:       cfg,
		paths:     paths,
		discovery: files.NewDiscovery(paths.CalibrationDir),
	}
}

func (s *CalibrateStep) ID() string             { return StepIDCalibrate }
func (s *CalibrateStep) Name() string           { return StepNameCalibrate }
func (s *CalibrateStep) Dependencies() []string { return []string{StepIDTemplate} }

func (s *CalibrateStep) Validate(state *TechnologyState) error {
	if len(state.Tables) == 0 {
		return fmt.Errorf("no tables to calibrate")
	}
	return nil
}

func (s *CalibrateStep) Execute(ctx context.Context, state *TechnologyState) error {
	if s.cfg.CutoffYear == 0 {
		slog.DebugContext(ctx, "no calibration cutoff configured, skipping",
			slog.String("technology", state.Tech.Name))
		state.CalibrationSkipped = true
		return nil
	}

	conv, err := s.converter()
	if err != nil {
		return errors.NewCalibrationUnavailable(state.Tech.Name, s.cfg.ConversionFile, err)
	}
	merger := calibration.NewMerger(s.cfg.CutoffYear, conv)

	if table, ok := state.Table(template.ParamHistoricalActivity); ok {
		records, err := s.observations(state.Tech.Name)
		if err != nil {
			return err
		}
		if err := merger.MergeActivity(table, state.Tech, state.Edges, records); err != nil {
			return err
		}
	}

	if s.cfg.PricesFile != "" {
		prices, err := calibration.ReadPrices(s.paths.CalibrationPath(s.cfg.PricesFile))
		if err != nil {
			return errors.NewCalibrationUnavailable(state.Tech.Name, s.cfg.PricesFile, err)
		}
		for _, parameter := range []string{template.ParamInvCost, template.ParamVarCost} {
			if table, ok := state.Table(parameter); ok {
				for tech, years := range merger.MergeCosts(table, state.Tech, prices) {
					for year := range years {
						state.Exclusions.Add(tech, year)
					}
				}
			}
		}
	}
	return nil
}

func (s *CalibrateStep) converter() (*calibration.Converter, error) {
	if s.cfg.ConversionFile == "" {
		return calibration.NewConverter(), nil
	}
	return calibration.LoadConverter(s.paths.CalibrationPath(s.cfg.ConversionFile))
}

// observations collects the activity observations from every configured
// source. All configured sources must be readable; a missing file is
// surfaced as a recoverable calibration error. When a source is not
// configured explicitly, the calibration directory is scanned instead:
// trade*.csv files are trade statistics, Excel workbooks are shipping
// manifests.
func (s *CalibrateStep) observations(technology string) ([]domain.CalibrationRecord, error) {
	var records []domain.CalibrationRecord
	for _, path := range s.tradeStatsPaths() {
		stats, err := calibration.ReadTradeStats(path)
		if err != nil {
			return nil, errors.NewCalibrationUnavailable(technology, path, err)
		}
		records = append(records, stats...)
	}
	for _, path := range s.shippingPaths() {
		shipped, err := calibration.ReadShipping(path)
		if err != nil {
			return nil, errors.NewCalibrationUnavailable(technology, path, err)
		}
		records = append(records, shipped...)
	}
	return records, nil
}

func (s *CalibrateStep) tradeStatsPaths() []string {
	if s.cfg.TradeStatsFile != "" {
		return []string{s.paths.CalibrationPath(s.cfg.TradeStatsFile)}
	}
	found, err := s.discovery.FindMatching(s.paths.CalibrationDir, "trade*.csv")
	if err != nil {
		return nil
	}
	paths := make([]string, 0, len(found))
	for _, f := range found {
		paths = append(paths, f.Path)
	}
	return paths
}

func (s *CalibrateStep) shippingPaths() []string {
	if s.cfg.ShippingFile != "" {
		return []string{s.paths.CalibrationPath(s.cfg.ShippingFile)}
	}
	found, err := s.discovery.FindExcelFiles(s.paths.CalibrationDir)
	if err != nil {
		return nil
	}
	paths := make([]string, 0, len(found))
	for _, f := range found {
		paths = append(paths, f.Path)
	}
	return paths
}

// BroadcastStep expands every remaining sentinel into concrete years and
// applies the post-expansion filters.
type BroadcastStep struct {
	engine *broadcast.Engine
}

// NewBroadcastStep creates the broadcast step over the configured axes.
func NewBroadcastStep(axis domain.YearAxis) *BroadcastStep {
	return &BroadcastStep{engine: broadcast.NewEngine(axis)}
}

func (s *BroadcastStep) ID() string             { return StepIDBroadcast }
func (s *BroadcastStep) Name() string           { return StepNameBroadcast }
func (s *BroadcastStep) Dependencies() []string { return []string{StepIDCalibrate} }

func (s *BroadcastStep) Validate(state *TechnologyState) error {
	if len(state.Tables) == 0 {
		return fmt.Errorf("no tables to expand")
	}
	return nil
}

func (s *BroadcastStep) Execute(ctx context.Context, state *TechnologyState) error {
	for name, table := range state.Tables {
		lifetime := state.Tech.Lifetime(table.Kind)
		if err := s.engine.Expand(table, lifetime, state.Exclusions.Excluded); err != nil {
			return errors.WrapError(err, state.Tech.Name, fmt.Sprintf("broadcast failed for %s", name))
		}
		if state.Tech.Kind == domain.TechnologyImport {
			broadcast.CollapseImports(table)
		}
		if state.Tech.Kind == domain.TechnologyFlow && name == template.ParamVarCost {
			broadcast.RetainUnvintagedVarCost(table)
		}
	}

	slog.InfoContext(ctx, "tables expanded",
		slog.String("technology", state.Tech.Name),
		slog.Int("rows", state.RowCount()))
	return nil
}

// LinkStep deduplicates shared flow rows against the run's claim
// accumulator and derives the technology's relations.
type LinkStep struct {
	linker *linker.Linker
}

// NewLinkStep creates the linker step.
func NewLinkStep(axis domain.YearAxis) *LinkStep {
	return &LinkStep{linker: linker.NewLinker(axis)}
}

func (s *LinkStep) ID() string             { return StepIDLink }
func (s *LinkStep) Name() string           { return StepNameLink }
func (s *LinkStep) Dependencies() []string { return []string{StepIDBroadcast} }

func (s *LinkStep) Validate(state *TechnologyState) error {
	if state.Claims == nil {
		return fmt.Errorf("claim accumulator not initialized")
	}
	return nil
}

func (s *LinkStep) Execute(ctx context.Context, state *TechnologyState) error {
	state.Claims = s.linker.Dedupe(state.Tech, state.Tables, state.Claims)

	relations, err := s.linker.Relations(state.Tech, state.Edges, state.Claims)
	if err != nil {
		return err
	}
	state.Relations = relations
	return nil
}

// LoadStep applies the technology's contribution to the scenario store and
// persists the expanded tables for audit.
type LoadStep struct {
	loader *scenario.Loader
	writer *exporter.CSVWriter
	paths  *config.Paths
}

// NewLoadStep creates the load step.
func NewLoadStep(store scenario.Store, paths *config.Paths) *LoadStep {
	return &LoadStep{loader: scenario.NewLoader(store), writer: exporter.NewCSVWriter(), paths: paths}
}

func (s *LoadStep) ID() string             { return StepIDLoad }
func (s *LoadStep) Name() string           { return StepNameLoad }
func (s *LoadStep) Dependencies() []string { return []string{StepIDLink} }

func (s *LoadStep) Validate(state *TechnologyState) error {
	if state.Relations == nil {
		return fmt.Errorf("relations not derived")
	}
	return nil
}

func (s *LoadStep) Execute(ctx context.Context, state *TechnologyState) error {
	if err := s.loader.Load(ctx, state.Target, state.Tech, state.Edges, state.Tables, state.Relations); err != nil {
		return err
	}

	for name, table := range state.Tables {
		path := s.paths.AuditPath(state.Tech.Name, name)
		if err := s.writer.StreamTable(path, table); err != nil {
			// audit output is best-effort, the rows are already applied
			slog.WarnContext(ctx, "audit write failed",
				slog.String("technology", state.Tech.Name),
				slog.String("parameter", name),
				slog.String("error", err.Error()))
		}
	}

	logPath := filepath.Join(s.paths.AuditDir, "run_log.csv")
	record := []string{state.RunID, state.Tech.Name, strconv.Itoa(state.RowCount())}
	if err := s.writer.AppendToCSV(logPath, [][]string{record}); err != nil {
		slog.WarnContext(ctx, "run log append failed",
			slog.String("technology", state.Tech.Name),
			slog.String("error", err.Error()))
	}
	return nil
}

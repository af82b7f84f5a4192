package operations

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bilatcli/internal/config"
	"bilatcli/internal/errors"
	"bilatcli/internal/infrastructure"
	"bilatcli/internal/linker"
	"bilatcli/internal/scenario"
)

// Manager runs the full pipeline: every configured technology, in
// declaration order, through template, calibration, broadcast, linking, and
// loading. Recovery policy: calibration-source errors skip the step and the
// technology continues on structural values; other per-technology errors
// fail that technology and the run continues; configuration errors abort
// the whole run.
type Manager struct {
	cfg      *config.Config
	paths    *config.Paths
	registry *Registry
	store    scenario.Store
	metrics  *Metrics
	parallel bool
}

// Option configures the manager.
type Option func(*Manager)

// WithParallelBroadcast expands technologies' tables concurrently. Linking
// and loading still run sequentially in declaration order, because the
// claim accumulator folds through technologies in a fixed order.
func WithParallelBroadcast() Option {
	return func(m *Manager) { m.parallel = true }
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager creates a manager with the standard five-step registry.
func NewManager(cfg *config.Config, paths *config.Paths, store scenario.Store, opts ...Option) (*Manager, error) {
	m := &Manager{
		cfg:      cfg,
		paths:    paths,
		registry: NewRegistry(),
		store:    store,
	}
	for _, opt := range opts {
		opt(m)
	}

	steps := []Step{
		NewTemplateStep(cfg.Nodes, paths),
		NewCalibrateStep(cfg.Calibration, paths),
		NewBroadcastStep(cfg.Years),
		NewLinkStep(cfg.Years),
		NewLoadStep(store, paths),
	}
	for _, step := range steps {
		if err := m.registry.Register(step); err != nil {
			return nil, errors.NewConfigurationError("failed to build step registry", err)
		}
	}
	return m, nil
}

// Registry exposes the step registry, mainly for tests.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// RunSummary reports one pipeline run's outcome per technology.
type RunSummary struct {
	RunID     string
	Completed []string
	Failed    *errors.ErrorList
}

// Run executes the pipeline for every configured technology and commits the
// scenario when at least one technology loaded.
func (m *Manager) Run(ctx context.Context) (*RunSummary, error) {
	runID := uuid.New().String()
	ctx = infrastructure.WithRunID(ctx, runID)

	summary := &RunSummary{RunID: runID, Failed: &errors.ErrorList{}}

	ordered, err := m.registry.DependencyOrder()
	if err != nil {
		return summary, errors.NewConfigurationError("invalid step registry", err)
	}
	var expansion, folding []Step
	for _, step := range ordered {
		switch step.ID() {
		case StepIDLink, StepIDLoad:
			folding = append(folding, step)
		default:
			expansion = append(expansion, step)
		}
	}

	target := scenario.Target{Model: m.cfg.Scenario.Model, Scenario: m.cfg.Scenario.Scenario}
	states := make([]*TechnologyState, len(m.cfg.Technologies))
	for i, tech := range m.cfg.Technologies {
		states[i] = NewTechnologyState(runID, target, tech, nil)
	}

	slog.InfoContext(ctx, "pipeline run starting",
		slog.String("model", target.Model),
		slog.String("scenario", target.Scenario),
		slog.Int("technologies", len(states)),
		slog.Bool("parallel_broadcast", m.parallel))

	techErrs := make([]error, len(states))
	if err := m.runExpansion(ctx, states, expansion, techErrs); err != nil {
		return summary, err
	}

	// fold phase: claims thread through technologies in declaration order
	claims := linker.NewClaimSet()
	for i, state := range states {
		if techErrs[i] != nil {
			m.failTechnology(ctx, summary, state, techErrs[i])
			continue
		}
		state.Claims = claims
		if err := m.runSteps(ctx, state, folding); err != nil {
			if errors.GetErrorType(err) == errors.ErrorTypeConfiguration {
				return summary, err
			}
			m.failTechnology(ctx, summary, state, err)
			continue
		}
		claims = state.Claims
		summary.Completed = append(summary.Completed, state.Tech.Name)
		m.metrics.RecordTechnology(ctx, state.Tech.Name, "completed")
		m.metrics.RecordRows(ctx, state.Tech.Name, state.RowCount())
	}

	if len(summary.Completed) > 0 {
		if err := m.store.Commit(ctx, target, m.cfg.Scenario.Comment); err != nil {
			return summary, errors.WrapError(err, "", "failed to commit scenario")
		}
		if err := m.store.Solve(ctx, target); err != nil {
			return summary, errors.WrapError(err, "", "failed to trigger solve")
		}
	}

	slog.InfoContext(ctx, "pipeline run finished",
		slog.Int("completed", len(summary.Completed)),
		slog.Int("failed", len(summary.Failed.Errors)))
	return summary, nil
}

// runExpansion runs the per-technology independent steps, concurrently when
// parallel mode is on. Configuration errors abort the run immediately;
// other errors are recorded per technology for the fold phase to report.
func (m *Manager) runExpansion(ctx context.Context, states []*TechnologyState, steps []Step, techErrs []error) error {
	if !m.parallel {
		for i, state := range states {
			techErrs[i] = m.runSteps(ctx, state, steps)
			if errors.GetErrorType(techErrs[i]) == errors.ErrorTypeConfiguration {
				return techErrs[i]
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, state := range states {
		g.Go(func() error {
			err := m.runSteps(gctx, state, steps)
			techErrs[i] = err
			if errors.GetErrorType(err) == errors.ErrorTypeConfiguration {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func (m *Manager) runSteps(ctx context.Context, state *TechnologyState, steps []Step) error {
	for _, step := range steps {
		if err := m.executeStep(ctx, state, step); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) executeStep(ctx context.Context, state *TechnologyState, step Step) error {
	st := state.StepState(step.ID(), step.Name())
	st.Start()
	start := time.Now()

	err := step.Validate(state)
	if err == nil {
		err = step.Execute(ctx, state)
	}
	elapsed := time.Since(start)

	switch {
	case err == nil:
		st.Complete()
		m.metrics.RecordStep(ctx, state.Tech.Name, step.ID(), StepStatusCompleted, elapsed)
		return nil

	case errors.IsRecoverable(err):
		// calibration source missing: structural values stand in
		st.Skip(err.Error())
		state.CalibrationSkipped = true
		m.metrics.RecordStep(ctx, state.Tech.Name, step.ID(), StepStatusSkipped, elapsed)
		slog.WarnContext(ctx, "step skipped, continuing on structural values",
			slog.String("technology", state.Tech.Name),
			slog.String("step", step.ID()),
			slog.String("reason", err.Error()))
		return nil

	default:
		st.Fail(err)
		m.metrics.RecordStep(ctx, state.Tech.Name, step.ID(), StepStatusFailed, elapsed)
		return err
	}
}

func (m *Manager) failTechnology(ctx context.Context, summary *RunSummary, state *TechnologyState, err error) {
	perr := errors.WrapError(err, state.Tech.Name, "technology pipeline failed")
	summary.Failed.Add(perr)
	m.metrics.RecordTechnology(ctx, state.Tech.Name, "failed")
	slog.ErrorContext(ctx, "technology failed, scenario untouched for it",
		slog.String("technology", state.Tech.Name),
		slog.String("type", string(errors.GetErrorType(err))),
		slog.String("error", err.Error()))
}

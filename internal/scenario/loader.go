package scenario

import (
	"context"
	"log/slog"
	"sort"

	"bilatcli/internal/errors"
	"bilatcli/internal/linker"
	"bilatcli/internal/network"
	"bilatcli/pkg/contracts/domain"
)

// Loader assembles one technology's expanded tables into a Batch and
// applies it to the scenario store.
type Loader struct {
	store Store
}

// NewLoader creates a loader over the given store.
func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

// Load applies one technology's contribution atomically. Set members are
// derived from the edges and the relation set; the relation set's names are
// always part of the batch, so no relation_activity row can reference an
// undeclared relation.
func (l *Loader) Load(ctx context.Context, target Target, tech domain.Technology, edges []domain.NetworkEdge, tables map[string]*domain.ParameterTable, relations *linker.RelationSet) error {
	batch := Batch{
		Technology: tech.Name,
		Sets: map[string][]string{
			"technology": variantsFor(tech, edges, tables),
			"node":       nodesFor(edges),
		},
		Parameters: make(map[string]*domain.ParameterTable, len(tables)+1),
	}
	for name, table := range tables {
		batch.Parameters[name] = table
	}
	if relations != nil {
		batch.Sets["relation"] = relations.Names
		if relations.Activity.Len() > 0 {
			batch.Parameters[relations.Activity.Name] = relations.Activity
		}
	}

	if err := l.store.Apply(ctx, target, batch); err != nil {
		return errors.WrapError(err, tech.Name, "failed to apply scenario batch")
	}

	slog.Info("technology loaded",
		slog.String("technology", tech.Name),
		slog.String("model", target.Model),
		slog.String("scenario", target.Scenario),
		slog.Int("parameters", len(batch.Parameters)))
	return nil
}

// Commit finalizes the scenario after every technology has loaded.
func (l *Loader) Commit(ctx context.Context, target Target, comment string) error {
	return l.store.Commit(ctx, target, comment)
}

// variantsFor lists the technology set members a technology contributes:
// import legs exist once per scenario, export legs once per edge. Flow legs
// take their variants from the deduplicated tables, so a technology never
// replaces rows of infrastructure another technology owns.
func variantsFor(tech domain.Technology, edges []domain.NetworkEdge, tables map[string]*domain.ParameterTable) []string {
	switch tech.Kind {
	case domain.TechnologyImport:
		return []string{tech.Name}
	case domain.TechnologyFlow:
		seen := make(map[string]bool)
		for _, table := range tables {
			for _, row := range table.Rows {
				seen[row.Technology] = true
			}
		}
		out := make([]string, 0, len(seen))
		for v := range seen {
			out = append(out, v)
		}
		sort.Strings(out)
		return out
	default:
		var out []string
		for _, e := range edges {
			out = append(out, e.TechnologyVariant(tech.Name))
		}
		return out
	}
}

func nodesFor(edges []domain.NetworkEdge) []string {
	var out []string
	seen := make(map[domain.Node]bool)
	for _, n := range append(network.ExporterNodes(edges), network.ImporterNodes(edges)...) {
		if !seen[n] {
			seen[n] = true
			out = append(out, string(n))
		}
	}
	return out
}

package network

import (
	"log/slog"

	"bilatcli/internal/config"
	"bilatcli/internal/errors"
	"bilatcli/internal/files"
	"bilatcli/pkg/contracts/domain"
)

// Builder enumerates the directed node pairs eligible for a technology.
// Edge order is deterministic: exporter then importer in configured node
// order, then tranche.
type Builder struct {
	paths *config.Paths
}

// NewBuilder creates a network builder over the configured path layout.
func NewBuilder(paths *config.Paths) *Builder {
	return &Builder{paths: paths}
}

// BuildEdges enumerates the network edges for one technology. In curated mode
// this is a two-phase contract: when the curated file does not exist yet, a
// full-edge template is written and a MissingCuratedInput error returned; the
// caller annotates the file and re-invokes.
func (b *Builder) BuildEdges(nodes []domain.Node, tech domain.Technology) ([]domain.NetworkEdge, error) {
	if len(nodes) < 2 {
		return nil, errors.NewConfigurationError("at least two nodes are required to form a network", nil)
	}

	switch tech.NetworkMode {
	case domain.NetworkCurated:
		return b.buildCurated(nodes, tech)
	default:
		return fullProduct(nodes, tech.Multiplicity), nil
	}
}

// fullProduct returns every directed pair with exporter ≠ importer,
// replicated by multiplicity.
func fullProduct(nodes []domain.Node, multiplicity int) []domain.NetworkEdge {
	if multiplicity < 1 {
		multiplicity = 1
	}
	edges := make([]domain.NetworkEdge, 0, len(nodes)*(len(nodes)-1)*multiplicity)
	for _, exp := range nodes {
		for _, imp := range nodes {
			if exp == imp {
				continue
			}
			for tranche := 1; tranche <= multiplicity; tranche++ {
				edges = append(edges, domain.NetworkEdge{Exporter: exp, Importer: imp, Tranche: tranche})
			}
		}
	}
	return edges
}

// buildCurated reads the user-curated inclusion file, generating it first when
// absent.
func (b *Builder) buildCurated(nodes []domain.Node, tech domain.Technology) ([]domain.NetworkEdge, error) {
	path := b.paths.NetworkPath(tech.Name)

	if !files.Exists(path) {
		template := fullProduct(nodes, 1)
		if err := writeCuratedTemplate(path, template); err != nil {
			return nil, errors.WrapError(err, tech.Name, "failed to write curated network template")
		}
		slog.Info("curated network template generated, annotate and rerun",
			slog.String("technology", tech.Name),
			slog.String("path", path))
		return nil, errors.NewMissingCuratedInput(tech.Name, path)
	}

	rows, err := readCuratedFile(path)
	if err != nil {
		return nil, errors.WrapError(err, tech.Name, "failed to read curated network file")
	}

	var edges []domain.NetworkEdge
	for _, row := range rows {
		if !row.Included {
			continue
		}
		edge := domain.NetworkEdge{Exporter: row.Exporter, Importer: row.Importer, Tranche: 1}
		if !edge.Valid() {
			slog.Warn("skipping invalid curated edge",
				slog.String("technology", tech.Name),
				slog.String("exporter", string(row.Exporter)),
				slog.String("importer", string(row.Importer)))
			continue
		}
		edges = append(edges, edge)
	}

	if len(edges) == 0 {
		// every edge excluded would silently zero out the technology's network
		return nil, errors.NewInvalidCuration(tech.Name, path)
	}

	if tech.Multiplicity > 1 {
		edges = replicate(edges, tech.Multiplicity)
	}

	slog.Debug("curated network resolved",
		slog.String("technology", tech.Name),
		slog.Int("edges", len(edges)))
	return edges, nil
}

// replicate expands each edge into multiplicity tranches.
func replicate(edges []domain.NetworkEdge, multiplicity int) []domain.NetworkEdge {
	out := make([]domain.NetworkEdge, 0, len(edges)*multiplicity)
	for _, e := range edges {
		for tranche := 1; tranche <= multiplicity; tranche++ {
			e.Tranche = tranche
			out = append(out, e)
		}
	}
	return out
}

// ExporterNodes returns the distinct exporter nodes across the edges, in
// first-seen order.
func ExporterNodes(edges []domain.NetworkEdge) []domain.Node {
	seen := make(map[domain.Node]bool)
	var out []domain.Node
	for _, e := range edges {
		if !seen[e.Exporter] {
			seen[e.Exporter] = true
			out = append(out, e.Exporter)
		}
	}
	return out
}

// ImporterNodes returns the distinct importer nodes across the edges, in
// first-seen order.
func ImporterNodes(edges []domain.NetworkEdge) []domain.Node {
	seen := make(map[domain.Node]bool)
	var out []domain.Node
	for _, e := range edges {
		if !seen[e.Importer] {
			seen[e.Importer] = true
			out = append(out, e.Importer)
		}
	}
	return out
}

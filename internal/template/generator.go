package template

import (
	"fmt"
	"log/slog"

	"bilatcli/internal/config"
	"bilatcli/internal/errors"
	"bilatcli/internal/exporter"
	"bilatcli/internal/network"
	"bilatcli/pkg/contracts/domain"
)

// Generator produces bare parameter tables: one row per network edge (or per
// node for single-ended parameters), dimension columns filled, year columns
// set to broadcast sentinels pending expansion.
type Generator struct {
	paths  *config.Paths
	writer *exporter.CSVWriter
}

// NewGenerator creates a template generator over the configured path layout.
func NewGenerator(paths *config.Paths) *Generator {
	return &Generator{paths: paths, writer: exporter.NewCSVWriter()}
}

// Generate builds the bare table for one parameter of one technology.
func (g *Generator) Generate(edges []domain.NetworkEdge, parameter string, tech domain.Technology) (*domain.ParameterTable, error) {
	columns, ok := Schema(parameter)
	if !ok {
		return nil, errors.NewSchemaMismatch(tech.Name, parameter, nil, nil)
	}

	table := &domain.ParameterTable{
		Name:    parameter,
		Kind:    tableKind(tech),
		Columns: columns,
	}

	switch parameter {
	case ParamTechnicalLifetime, ParamInvCost:
		// single-ended: one row per anchor node, keyed by vintage only
		for _, a := range anchors(edges, tech) {
			table.Append(g.vintageRow(parameter, a, tech))
		}
	case ParamHistoricalActivity:
		for _, a := range anchors(edges, tech) {
			table.Append(g.activityRow(a, tech))
		}
	default:
		for _, a := range anchors(edges, tech) {
			row, err := g.dualYearRow(parameter, a, tech)
			if err != nil {
				return nil, err
			}
			table.Append(row)
		}
	}

	slog.Debug("bare template generated",
		slog.String("technology", tech.Name),
		slog.String("parameter", parameter),
		slog.Int("rows", table.Len()))
	return table, nil
}

// anchor locates one parameter row: the owning node, the (possibly
// route-specific) technology variant, and the destination node if any.
type anchor struct {
	nodeLoc  domain.Node
	nodeDest domain.Node
	techName string
}

// anchors computes the row anchors for a technology over its edges. Export
// and flow legs are destination-specific (one anchor per edge); import legs
// exist once per importer node, because imports aggregate over all exporters.
func anchors(edges []domain.NetworkEdge, tech domain.Technology) []anchor {
	switch tech.Kind {
	case domain.TechnologyImport:
		importers := network.ImporterNodes(edges)
		out := make([]anchor, 0, len(importers))
		for _, n := range importers {
			out = append(out, anchor{nodeLoc: n, techName: tech.Name})
		}
		return out
	case domain.TechnologyFlow:
		out := make([]anchor, 0, len(edges))
		for _, e := range edges {
			out = append(out, anchor{
				nodeLoc:  e.Exporter,
				nodeDest: e.Importer,
				techName: e.TechnologyVariant(tech.FlowIdentity()),
			})
		}
		return out
	default:
		out := make([]anchor, 0, len(edges))
		for _, e := range edges {
			out = append(out, anchor{
				nodeLoc:  e.Exporter,
				nodeDest: e.Importer,
				techName: e.TechnologyVariant(tech.Name),
			})
		}
		return out
	}
}

// dualYearRow builds a row carrying both vintage and activity sentinels.
func (g *Generator) dualYearRow(parameter string, a anchor, tech domain.Technology) (domain.ParameterRow, error) {
	row := domain.ParameterRow{
		NodeLoc:    a.nodeLoc,
		Technology: a.techName,
		YearVtg:    domain.BroadcastAll(),
		YearAct:    domain.BroadcastAll(),
		Unit:       unitFor(parameter, tech),
	}

	switch parameter {
	case ParamInput:
		row.Mode = config.DefaultMode
		row.Time = config.DefaultTime
		row.Commodity = tech.Commodity
		row.Level = inputLevel(tech)
		// pass-through coefficient: one unit in per unit of activity
		row.Value = domain.Float64(1)
	case ParamOutput:
		row.NodeDest = destinationNode(a, tech)
		row.Mode = config.DefaultMode
		row.Time = config.DefaultTime
		row.Commodity = tech.Commodity
		row.Level = outputLevel(tech)
		row.Value = domain.Float64(1)
	case ParamFixCost:
		// costs require manual or calibrated input
	case ParamVarCost:
		row.Mode = config.DefaultMode
		row.Time = config.DefaultTime
	case ParamCapacityFactor:
		// non-vintaging structural constant, filled directly
		row.Time = config.DefaultTime
		row.Value = domain.Float64(1)
	case ParamEmissionFactor:
		row.Mode = config.DefaultMode
		row.Commodity = tech.Commodity
	default:
		return domain.ParameterRow{}, fmt.Errorf("parameter %s has no dual-year row shape", parameter)
	}
	return row, nil
}

// vintageRow builds a vintage-only row (technical_lifetime, inv_cost).
func (g *Generator) vintageRow(parameter string, a anchor, tech domain.Technology) domain.ParameterRow {
	row := domain.ParameterRow{
		NodeLoc:    a.nodeLoc,
		Technology: a.techName,
		YearVtg:    domain.BroadcastFrom(domain.AxisVintage),
		Unit:       unitFor(parameter, tech),
	}
	if parameter == ParamTechnicalLifetime {
		// lifetime is known from technology metadata
		row.Value = domain.Float64(float64(tech.Lifetime(tableKind(tech))))
	}
	return row
}

// activityRow builds the historical-activity sentinel row: activity-year
// broadcast, value pending calibration.
func (g *Generator) activityRow(a anchor, tech domain.Technology) domain.ParameterRow {
	return domain.ParameterRow{
		NodeLoc:    a.nodeLoc,
		Technology: a.techName,
		YearAct:    domain.BroadcastFrom(domain.AxisActivity),
		Mode:       config.DefaultMode,
		Time:       config.DefaultTime,
		Unit:       unitFor(ParamHistoricalActivity, tech),
	}
}

// WriteTemplate writes a table to the authoring surface so users can fill in
// values before the broadcast run.
func (g *Generator) WriteTemplate(tech string, table *domain.ParameterTable) error {
	path := g.paths.TemplatePath(tech, table.Name)
	if err := g.writer.WriteTable(path, table); err != nil {
		return errors.WrapError(err, tech, fmt.Sprintf("failed to write %s template", table.Name))
	}
	return nil
}

func tableKind(tech domain.Technology) domain.TableKind {
	if tech.Kind == domain.TechnologyFlow {
		return domain.TableKindFlow
	}
	return domain.TableKindTrade
}

// destinationNode picks the output destination: export legs deliver into the
// trade network toward the importer, flow legs into their far end.
func destinationNode(a anchor, tech domain.Technology) domain.Node {
	if a.nodeDest != "" {
		return a.nodeDest
	}
	return a.nodeLoc
}

func inputLevel(tech domain.Technology) string {
	switch tech.Kind {
	case domain.TechnologyExport:
		return tech.Levels.Export
	case domain.TechnologyImport:
		return tech.Levels.Trade
	default:
		return tech.Levels.Trade
	}
}

func outputLevel(tech domain.Technology) string {
	switch tech.Kind {
	case domain.TechnologyExport:
		return tech.Levels.Trade
	case domain.TechnologyImport:
		return tech.Levels.Import
	default:
		return tech.Levels.Trade
	}
}

func unitFor(parameter string, tech domain.Technology) string {
	switch parameter {
	case ParamInvCost, ParamFixCost, ParamVarCost:
		return config.CostUnit
	case ParamTechnicalLifetime:
		return "y"
	case ParamCapacityFactor:
		return "%"
	case ParamEmissionFactor:
		return "t/GWa"
	default:
		if tech.Unit != "" {
			return tech.Unit
		}
		return config.EnergyUnit
	}
}

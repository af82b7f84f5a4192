package linker

import (
	"fmt"
	"log/slog"

	"bilatcli/internal/broadcast"
	"bilatcli/internal/config"
	"bilatcli/internal/network"
	"bilatcli/internal/template"
	"bilatcli/pkg/contracts/domain"
)

// Linker deduplicates shared flow-infrastructure rows and derives the
// relations coupling trade, flow, and accounting totals.
type Linker struct {
	engine *broadcast.Engine
}

// NewLinker creates a linker broadcasting relation rows over the given axes.
func NewLinker(axis domain.YearAxis) *Linker {
	return &Linker{engine: broadcast.NewEngine(axis)}
}

// Dedupe removes rows that redefine a flow-infrastructure variant already
// claimed by an earlier technology, and returns the updated accumulator.
// First claim wins; callers fold technologies in configuration declaration
// order. Running Dedupe again over already-deduplicated tables is a no-op,
// because a variant's owner keeps its claim.
func (l *Linker) Dedupe(tech domain.Technology, tables map[string]*domain.ParameterTable, claims ClaimSet) ClaimSet {
	if tech.Kind != domain.TechnologyFlow {
		return claims
	}

	for name, table := range tables {
		if table.Kind != domain.TableKindFlow {
			continue
		}
		before := table.Len()
		kept := table.Rows[:0:0]
		for _, row := range table.Rows {
			if claims.Claim(row.Technology, tech.Name) {
				kept = append(kept, row)
				continue
			}
			owner, _ := claims.Owner(row.Technology)
			slog.Debug("flow row dropped, variant already claimed",
				slog.String("technology", tech.Name),
				slog.String("parameter", name),
				slog.String("variant", row.Technology),
				slog.String("owner", owner))
		}
		table.Rows = kept
		if dropped := before - table.Len(); dropped > 0 {
			slog.Info("shared flow rows deduplicated",
				slog.String("technology", tech.Name),
				slog.String("parameter", name),
				slog.Int("dropped", dropped))
		}
	}
	return claims
}

// RelationSet carries the derived relations for one technology. Names are in
// declaration order and must be added to the scenario's relation set before
// any Activity row referencing them is loaded.
type RelationSet struct {
	Names    []string
	Activity *domain.ParameterTable
}

// Relations derives the coupling relations for one technology over its
// edges: accounting totals for trade legs, trade-to-flow coupling where the
// technology routes over shared infrastructure, and capacity bounds for
// flow legs. A flow technology contributes rows only for the variants it
// owns in the claim accumulator, so shared infrastructure appears exactly
// once. Rows are emitted with relation-year sentinels and expanded before
// returning.
func (l *Linker) Relations(tech domain.Technology, edges []domain.NetworkEdge, claims ClaimSet) (*RelationSet, error) {
	set := &RelationSet{
		Activity: &domain.ParameterTable{
			Name: template.ParamRelationActivity,
			Kind: tableKind(tech),
		},
	}
	if cols, ok := template.Schema(template.ParamRelationActivity); ok {
		set.Activity.Columns = cols
	}

	switch tech.Kind {
	case domain.TechnologyExport:
		l.accountingRows(set, tech, edges)
		if tech.FlowGroup != "" {
			l.couplingRows(set, tech, edges)
		}
	case domain.TechnologyImport:
		l.importTotalRows(set, tech, edges)
	case domain.TechnologyFlow:
		l.flowRows(set, tech, edges, claims)
	}

	if err := l.engine.Expand(set.Activity, tech.Lifetime(tableKind(tech)), nil); err != nil {
		return nil, err
	}
	return set, nil
}

// accountingRows couples every export route's activity into one global
// accounting total per technology, coefficient +1.
func (l *Linker) accountingRows(set *RelationSet, tech domain.Technology, edges []domain.NetworkEdge) {
	relation := tech.Name + "_total"
	set.declare(relation)
	for _, e := range edges {
		set.Activity.Append(relationRow(relation, config.GlobalNode, e.Exporter, e.TechnologyVariant(tech.Name), 1))
	}
}

// importTotalRows aggregates import activity per importing node into the
// technology's global total.
func (l *Linker) importTotalRows(set *RelationSet, tech domain.Technology, edges []domain.NetworkEdge) {
	relation := tech.Name + "_total"
	set.declare(relation)
	for _, importer := range network.ImporterNodes(edges) {
		set.Activity.Append(relationRow(relation, config.GlobalNode, importer, tech.Name, 1))
	}
}

// couplingRows tie a trade route's activity (+1) into the coupling relation
// named after the flow variant it rides on. Commodities sharing a flow edge
// reference the same relation; the infrastructure's -1 side is contributed
// once, by the owning flow technology.
func (l *Linker) couplingRows(set *RelationSet, tech domain.Technology, edges []domain.NetworkEdge) {
	if tech.FlowScope == domain.FlowScopeGlobal {
		relation := tech.FlowIdentity()
		set.declare(relation)
		for _, e := range edges {
			set.Activity.Append(relationRow(relation, config.GlobalNode, e.Exporter, e.TechnologyVariant(tech.Name), 1))
		}
		return
	}

	for _, e := range edges {
		relation := e.TechnologyVariant(tech.FlowIdentity())
		set.declare(relation)
		set.Activity.Append(relationRow(relation, e.Exporter, e.Exporter, e.TechnologyVariant(tech.Name), 1))
	}
}

// flowRows contribute the infrastructure side of each owned variant: the
// -1 leg of its coupling relation, and its own capacity-bound relation.
// Variants claimed by another technology are skipped.
func (l *Linker) flowRows(set *RelationSet, tech domain.Technology, edges []domain.NetworkEdge, claims ClaimSet) {
	if tech.FlowScope == domain.FlowScopeGlobal {
		variant := tech.FlowIdentity()
		if !l.owns(claims, variant, tech.Name) {
			return
		}
		set.declare(variant)
		set.Activity.Append(relationRow(variant, config.GlobalNode, config.GlobalNode, variant, -1))
		capacity := fmt.Sprintf("%s_cap", variant)
		set.declare(capacity)
		set.Activity.Append(relationRow(capacity, config.GlobalNode, config.GlobalNode, variant, 1))
		return
	}

	for _, e := range edges {
		variant := e.TechnologyVariant(tech.FlowIdentity())
		if !l.owns(claims, variant, tech.Name) {
			continue
		}
		set.declare(variant)
		set.Activity.Append(relationRow(variant, e.Exporter, e.Exporter, variant, -1))
		capacity := fmt.Sprintf("%s_cap", variant)
		set.declare(capacity)
		set.Activity.Append(relationRow(capacity, e.Exporter, e.Exporter, variant, 1))
	}
}

// owns reports whether a technology holds (or can hold) a variant's claim.
// An unclaimed variant counts as owned: Relations may run before any table
// row claimed it, e.g. for technologies with no parameter rows yet.
func (l *Linker) owns(claims ClaimSet, variant, technology string) bool {
	owner, ok := claims.Owner(variant)
	return !ok || owner == technology
}

// declare adds a relation name once, preserving first-declaration order.
func (s *RelationSet) declare(name string) {
	for _, existing := range s.Names {
		if existing == name {
			return
		}
	}
	s.Names = append(s.Names, name)
}

func relationRow(relation string, nodeRel, nodeLoc domain.Node, technology string, coefficient float64) domain.ParameterRow {
	return domain.ParameterRow{
		Relation:   relation,
		NodeRel:    nodeRel,
		NodeLoc:    nodeLoc,
		Technology: technology,
		YearRel:    domain.BroadcastAll(),
		Mode:       config.DefaultMode,
		Value:      domain.Float64(coefficient),
		Unit:       "-",
	}
}

func tableKind(tech domain.Technology) domain.TableKind {
	if tech.Kind == domain.TechnologyFlow {
		return domain.TableKindFlow
	}
	return domain.TableKindTrade
}

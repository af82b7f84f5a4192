package broadcast

import (
	"fmt"
	"log/slog"

	"bilatcli/internal/errors"
	"bilatcli/pkg/contracts/domain"
)

// ExcludeFunc reports whether a (technology, year) cell is already settled
// and must not be re-emitted by structural expansion.
type ExcludeFunc func(technology string, year int) bool

// Engine expands sentinel year columns into concrete years over the
// configured axes, subject to the technical-lifetime cutoff.
type Engine struct {
	axis domain.YearAxis
}

// NewEngine creates a broadcast engine over the configured year axes.
func NewEngine(axis domain.YearAxis) *Engine {
	return &Engine{axis: axis}
}

// Expand resolves every sentinel row of a table in place. Rows with no
// sentinel pass through unchanged. The lifetime bounds the vintage/activity
// cross product: vintage ≤ activity ≤ vintage + lifetime.
func (e *Engine) Expand(table *domain.ParameterTable, lifetime int, exclude ExcludeFunc) error {
	if exclude == nil {
		exclude = func(string, int) bool { return false }
	}

	expanded := table.Rows[:0:0]
	for _, row := range table.Rows {
		rows, err := e.expandRow(table.Name, row, lifetime, exclude)
		if err != nil {
			return err
		}
		expanded = append(expanded, rows...)
	}
	table.Rows = expanded

	if err := e.checkInvariants(table, lifetime); err != nil {
		return err
	}

	slog.Debug("table expanded",
		slog.String("parameter", table.Name),
		slog.Int("rows", table.Len()))
	return nil
}

// expandRow dispatches on which year columns still carry sentinels.
func (e *Engine) expandRow(parameter string, row domain.ParameterRow, lifetime int, exclude ExcludeFunc) ([]domain.ParameterRow, error) {
	switch {
	case row.YearRel.IsBroadcast():
		// relation rows key on the activity year: year_act mirrors year_rel
		out := make([]domain.ParameterRow, 0, len(e.axis.Activity))
		for _, year := range e.axis.Resolve(row.YearRel, domain.AxisActivity) {
			if exclude(row.Technology, year) {
				continue
			}
			r := row.Clone()
			r.YearRel = domain.FixedYear(year)
			r.YearAct = domain.FixedYear(year)
			out = append(out, r)
		}
		return out, nil

	case row.YearVtg.IsBroadcast() && !row.YearAct.IsAbsent():
		vintages := e.axis.Resolve(row.YearVtg, domain.AxisVintage)
		activities := e.axis.Resolve(row.YearAct, domain.AxisActivity)
		out := make([]domain.ParameterRow, 0, len(vintages)*len(activities))
		for _, vtg := range vintages {
			for _, act := range activities {
				if act < vtg || act-vtg > lifetime {
					continue
				}
				if vtg == act && exclude(row.Technology, vtg) {
					continue
				}
				r := row.Clone()
				r.YearVtg = domain.FixedYear(vtg)
				r.YearAct = domain.FixedYear(act)
				out = append(out, r)
			}
		}
		return out, nil

	case row.YearVtg.IsBroadcast():
		// vintage-only parameters (lifetime, investment cost); the lifetime
		// cutoff applies in the companion activity-bearing tables
		out := make([]domain.ParameterRow, 0, len(e.axis.Vintage))
		for _, vtg := range e.axis.Resolve(row.YearVtg, domain.AxisVintage) {
			if exclude(row.Technology, vtg) {
				continue
			}
			r := row.Clone()
			r.YearVtg = domain.FixedYear(vtg)
			out = append(out, r)
		}
		return out, nil

	case row.YearAct.IsBroadcast():
		activities := e.axis.Resolve(row.YearAct, domain.AxisActivity)
		out := make([]domain.ParameterRow, 0, len(activities))
		for _, act := range activities {
			if vtg, ok := row.YearVtg.Year(); ok && (act < vtg || act-vtg > lifetime) {
				continue
			}
			if exclude(row.Technology, act) {
				continue
			}
			r := row.Clone()
			r.YearAct = domain.FixedYear(act)
			out = append(out, r)
		}
		return out, nil

	default:
		return []domain.ParameterRow{row}, nil
	}
}

// checkInvariants verifies the expanded table: no sentinel survives, and
// every row with both year columns respects the lifetime bound.
func (e *Engine) checkInvariants(table *domain.ParameterTable, lifetime int) error {
	for i, row := range table.Rows {
		if row.YearVtg.IsBroadcast() || row.YearAct.IsBroadcast() || row.YearRel.IsBroadcast() {
			return errors.NewInvariantViolation(row.Technology, table.Name,
				fmt.Sprintf("row %d still carries a broadcast sentinel after expansion", i))
		}
		vtg, hasVtg := row.YearVtg.Year()
		act, hasAct := row.YearAct.Year()
		if hasVtg && hasAct && (act < vtg || act-vtg > lifetime) {
			return errors.NewInvariantViolation(row.Technology, table.Name,
				fmt.Sprintf("row %d violates lifetime bound: vintage %d, activity %d, lifetime %d", i, vtg, act, lifetime))
		}
	}
	return nil
}

// CollapseImports drops rows whose vintage and activity years differ.
// Imports do not vintage; the shared expansion routine emits the full cross
// product, so the collapse runs as a filter pass afterwards.
func CollapseImports(table *domain.ParameterTable) {
	before := table.Len()
	table.Rows = keepRows(table.Rows, func(row domain.ParameterRow) bool {
		vtg, hasVtg := row.YearVtg.Year()
		act, hasAct := row.YearAct.Year()
		return !hasVtg || !hasAct || vtg == act
	})
	if dropped := before - table.Len(); dropped > 0 {
		slog.Debug("import rows collapsed",
			slog.String("parameter", table.Name),
			slog.Int("dropped", dropped))
	}
}

// RetainUnvintagedVarCost keeps only rows with year_act == year_vtg. Flow
// variable costs are not vintage-differentiated.
func RetainUnvintagedVarCost(table *domain.ParameterTable) {
	table.Rows = keepRows(table.Rows, func(row domain.ParameterRow) bool {
		vtg, hasVtg := row.YearVtg.Year()
		act, hasAct := row.YearAct.Year()
		return !hasVtg || !hasAct || vtg == act
	})
}

func keepRows(rows []domain.ParameterRow, keep func(domain.ParameterRow) bool) []domain.ParameterRow {
	out := rows[:0:0]
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

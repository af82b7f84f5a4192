package calibration

import (
	"log/slog"
	"sort"

	"bilatcli/internal/errors"
	"bilatcli/pkg/contracts/domain"
)

// Merger overlays externally observed history onto bare parameter tables.
// Observations apply only to years at or before the cutoff; later years are
// left for structural expansion. Non-positive observations drop the row
// rather than zero-filling it: an absent historical-activity row means "no
// activity", a present zero would assert an observed hard zero.
type Merger struct {
	cutoff int
	conv   *Converter
}

// NewMerger creates a merger with the given calibration cutoff year.
func NewMerger(cutoff int, conv *Converter) *Merger {
	if conv == nil {
		conv = NewConverter()
	}
	return &Merger{cutoff: cutoff, conv: conv}
}

// Exclusions records which (technology, year) cells were settled by
// calibration, so structural expansion does not re-emit them.
type Exclusions map[string]map[int]bool

// Add marks a technology/year cell as calibrated.
func (e Exclusions) Add(technology string, year int) {
	years, ok := e[technology]
	if !ok {
		years = make(map[int]bool)
		e[technology] = years
	}
	years[year] = true
}

// Excluded reports whether a technology/year cell was settled by calibration.
func (e Exclusions) Excluded(technology string, year int) bool {
	return e[technology][year]
}

// activityKey aggregates observations to the table's anchor granularity:
// export legs per route, import legs per importing node.
type activityKey struct {
	nodeLoc    domain.Node
	technology string
	year       int
}

// MergeActivity resolves historical-activity sentinel rows into fixed-year
// observed rows. Each sentinel row is replaced by one row per calibrated
// year at or before the cutoff; anchors with no usable observations are
// dropped entirely.
func (m *Merger) MergeActivity(table *domain.ParameterTable, tech domain.Technology, edges []domain.NetworkEdge, records []domain.CalibrationRecord) error {
	totals, err := m.aggregate(tech, edges, records)
	if err != nil {
		return err
	}

	merged := table.Rows[:0:0]
	dropped := 0
	for _, row := range table.Rows {
		if !row.YearAct.IsBroadcast() {
			// user-fixed year: calibration still wins at or before the cutoff
			if year, ok := row.YearAct.Year(); ok && year <= m.cutoff {
				if total, found := totals[activityKey{row.NodeLoc, row.Technology, year}]; found {
					if total <= 0 {
						dropped++
						continue
					}
					row.Value = domain.Float64(total)
				}
			}
			merged = append(merged, row)
			continue
		}

		for _, year := range m.anchorYears(totals, row.NodeLoc, row.Technology) {
			total := totals[activityKey{row.NodeLoc, row.Technology, year}]
			if total <= 0 {
				dropped++
				continue
			}
			resolved := row.Clone()
			resolved.YearAct = domain.FixedYear(year)
			resolved.Value = domain.Float64(total)
			merged = append(merged, resolved)
		}
	}
	table.Rows = merged

	slog.Debug("historical activity calibrated",
		slog.String("technology", tech.Name),
		slog.Int("rows", table.Len()),
		slog.Int("dropped", dropped))
	return nil
}

// aggregate sums observations to anchor granularity, converting units per
// record. Export routes key on the destination-specific variant; import
// legs sum over all exporters into the importing node.
func (m *Merger) aggregate(tech domain.Technology, edges []domain.NetworkEdge, records []domain.CalibrationRecord) (map[activityKey]float64, error) {
	routes := make(map[[2]domain.Node]string, len(edges))
	for _, e := range edges {
		routes[[2]domain.Node{e.Exporter, e.Importer}] = e.TechnologyVariant(tech.Name)
	}

	totals := make(map[activityKey]float64)
	for _, r := range records {
		if r.Commodity != tech.Commodity || r.Year > m.cutoff {
			continue
		}

		switch tech.Kind {
		case domain.TechnologyImport:
			converted, err := m.conv.ToEnergy(r.Magnitude, r.Unit, r.Importer, r.Commodity)
			if err != nil {
				return nil, errors.NewCalibrationUnavailable(tech.Name, "conversion-factors", err)
			}
			totals[activityKey{r.Importer, tech.Name, r.Year}] += converted
		default:
			variant, ok := routes[[2]domain.Node{r.Exporter, r.Importer}]
			if !ok {
				// observation on a route outside the configured network
				continue
			}
			converted, err := m.conv.ToEnergy(r.Magnitude, r.Unit, r.Exporter, r.Commodity)
			if err != nil {
				return nil, errors.NewCalibrationUnavailable(tech.Name, "conversion-factors", err)
			}
			totals[activityKey{r.Exporter, variant, r.Year}] += converted
		}
	}
	return totals, nil
}

// anchorYears lists the calibrated years for one anchor, ascending.
func (m *Merger) anchorYears(totals map[activityKey]float64, nodeLoc domain.Node, technology string) []int {
	var years []int
	for key := range totals {
		if key.nodeLoc == nodeLoc && key.technology == technology {
			years = append(years, key.year)
		}
	}
	sort.Ints(years)
	return years
}

// MergeCosts overlays observed prices onto a cost table. For each sentinel
// row, one fixed-year row is emitted per priced year at or before the
// cutoff; the sentinel row itself stays for structural expansion of the
// remaining years, and the settled years are returned as exclusions.
// Investment costs key on the vintage year, variable costs on the activity
// year. Non-positive prices yield no override.
func (m *Merger) MergeCosts(table *domain.ParameterTable, tech domain.Technology, prices []PriceRecord) Exclusions {
	exclusions := make(Exclusions)

	priced := make(map[priceKey]float64, len(prices))
	for _, p := range prices {
		if p.Commodity != tech.Commodity || p.Year > m.cutoff || p.Price <= 0 {
			continue
		}
		priced[priceKey{p.Node, p.Year}] = p.Price
	}
	if len(priced) == 0 {
		return exclusions
	}

	vintageKeyed := tableKeysOnVintage(table)

	merged := table.Rows[:0:0]
	for _, row := range table.Rows {
		merged = append(merged, row)
		spec := row.YearAct
		if vintageKeyed {
			spec = row.YearVtg
		}
		if !spec.IsBroadcast() {
			continue
		}
		for _, year := range sortedPriceYears(priced, row.NodeLoc) {
			resolved := row.Clone()
			if vintageKeyed {
				resolved.YearVtg = domain.FixedYear(year)
			} else {
				resolved.YearVtg = domain.FixedYear(year)
				resolved.YearAct = domain.FixedYear(year)
			}
			resolved.Value = domain.Float64(priced[priceKey{row.NodeLoc, year}])
			merged = append(merged, resolved)
			exclusions.Add(row.Technology, year)
		}
	}
	table.Rows = merged
	return exclusions
}

type priceKey struct {
	node domain.Node
	year int
}

// tableKeysOnVintage reports whether a cost table's calibrated year applies
// to the vintage axis (investment costs) rather than the activity axis.
func tableKeysOnVintage(table *domain.ParameterTable) bool {
	for _, row := range table.Rows {
		if !row.YearAct.IsAbsent() {
			return false
		}
	}
	return true
}

func sortedPriceYears(priced map[priceKey]float64, node domain.Node) []int {
	var years []int
	for key := range priced {
		if key.node == node {
			years = append(years, key.year)
		}
	}
	sort.Ints(years)
	return years
}

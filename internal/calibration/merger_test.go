package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilatcli/internal/errors"
	"bilatcli/pkg/contracts/domain"
)

func exportTech() domain.Technology {
	return domain.Technology{
		Name:      "gas_exp_pipe",
		Kind:      domain.TechnologyExport,
		Commodity: "gas",
	}
}

func twoEdges() []domain.NetworkEdge {
	return []domain.NetworkEdge{
		{Exporter: "NOR", Importer: "DEU", Tranche: 1},
		{Exporter: "NOR", Importer: "FRA", Tranche: 1},
	}
}

func sentinelActivityRow(nodeLoc domain.Node, technology string) domain.ParameterRow {
	return domain.ParameterRow{
		NodeLoc:    nodeLoc,
		Technology: technology,
		YearAct:    domain.BroadcastFrom(domain.AxisActivity),
		Mode:       "M1",
		Time:       "year",
		Unit:       "GWa",
	}
}

func activityTable(rows ...domain.ParameterRow) *domain.ParameterTable {
	return &domain.ParameterTable{Name: "historical_activity", Kind: domain.TableKindTrade, Rows: rows}
}

func TestMergeActivity_ExportRoutes(t *testing.T) {
	m := NewMerger(2020, nil)
	table := activityTable(
		sentinelActivityRow("NOR", "gas_exp_pipe_NOR_DEU"),
		sentinelActivityRow("NOR", "gas_exp_pipe_NOR_FRA"),
	)
	records := []domain.CalibrationRecord{
		{Year: 2015, Exporter: "NOR", Importer: "DEU", Commodity: "gas", Magnitude: 3.5, Unit: "GWa"},
		{Year: 2020, Exporter: "NOR", Importer: "DEU", Commodity: "gas", Magnitude: 4.0, Unit: "GWa"},
		{Year: 2025, Exporter: "NOR", Importer: "DEU", Commodity: "gas", Magnitude: 9.9, Unit: "GWa"}, // after cutoff
		{Year: 2020, Exporter: "NOR", Importer: "FRA", Commodity: "oil", Magnitude: 1.0, Unit: "GWa"}, // wrong commodity
	}

	require.NoError(t, m.MergeActivity(table, exportTech(), twoEdges(), records))

	// NOR->DEU resolves to two observed years, NOR->FRA had no usable
	// observations and disappears
	require.Equal(t, 2, table.Len())
	y0, _ := table.Rows[0].YearAct.Year()
	y1, _ := table.Rows[1].YearAct.Year()
	assert.Equal(t, 2015, y0)
	assert.Equal(t, 2020, y1)
	assert.Equal(t, 3.5, *table.Rows[0].Value)
	assert.Equal(t, 4.0, *table.Rows[1].Value)
	for _, row := range table.Rows {
		assert.Equal(t, "gas_exp_pipe_NOR_DEU", row.Technology)
		assert.False(t, row.YearAct.IsBroadcast())
	}
}

func TestMergeActivity_CalibratedAnchorKeepsNoStructuralYears(t *testing.T) {
	m := NewMerger(2020, nil)
	table := activityTable(sentinelActivityRow("NOR", "gas_exp_pipe_NOR_DEU"))
	records := []domain.CalibrationRecord{
		{Year: 2015, Exporter: "NOR", Importer: "DEU", Commodity: "gas", Magnitude: 3.5, Unit: "GWa"},
	}

	require.NoError(t, m.MergeActivity(table, exportTech(), twoEdges(), records))

	// calibration consumes the sentinel: the anchor resolves to observed
	// years only and never regains post-cutoff structural rows
	require.Equal(t, 1, table.Len())
	year, fixed := table.Rows[0].YearAct.Year()
	assert.True(t, fixed)
	assert.Equal(t, 2015, year)
	for _, row := range table.Rows {
		assert.False(t, row.YearAct.IsBroadcast())
		y, _ := row.YearAct.Year()
		assert.LessOrEqual(t, y, 2020)
	}
}

func TestMergeActivity_ImportAggregatesOverExporters(t *testing.T) {
	m := NewMerger(2020, nil)
	tech := exportTech()
	tech.Name = "gas_imp_pipe"
	tech.Kind = domain.TechnologyImport

	edges := []domain.NetworkEdge{
		{Exporter: "NOR", Importer: "DEU", Tranche: 1},
		{Exporter: "DZA", Importer: "DEU", Tranche: 1},
	}
	table := activityTable(sentinelActivityRow("DEU", "gas_imp_pipe"))
	records := []domain.CalibrationRecord{
		{Year: 2020, Exporter: "NOR", Importer: "DEU", Commodity: "gas", Magnitude: 4.0, Unit: "GWa"},
		{Year: 2020, Exporter: "DZA", Importer: "DEU", Commodity: "gas", Magnitude: 1.5, Unit: "GWa"},
	}

	require.NoError(t, m.MergeActivity(table, tech, edges, records))
	require.Equal(t, 1, table.Len())
	assert.Equal(t, domain.Node("DEU"), table.Rows[0].NodeLoc)
	assert.Equal(t, 5.5, *table.Rows[0].Value)
}

func TestMergeActivity_OverridesUserFixedRow(t *testing.T) {
	m := NewMerger(2020, nil)
	fixed := sentinelActivityRow("NOR", "gas_exp_pipe_NOR_DEU")
	fixed.YearAct = domain.FixedYear(2015)
	fixed.Value = domain.Float64(99) // hand-entered guess
	table := activityTable(fixed)

	records := []domain.CalibrationRecord{
		{Year: 2015, Exporter: "NOR", Importer: "DEU", Commodity: "gas", Magnitude: 2.0, Unit: "GWa"},
	}
	require.NoError(t, m.MergeActivity(table, exportTech(), twoEdges(), records))
	require.Equal(t, 1, table.Len())
	assert.Equal(t, 2.0, *table.Rows[0].Value, "observed history beats the hand-entered value")
}

func TestMergeActivity_NonPositiveDropsRow(t *testing.T) {
	m := NewMerger(2020, nil)
	table := activityTable(sentinelActivityRow("NOR", "gas_exp_pipe_NOR_DEU"))
	records := []domain.CalibrationRecord{
		{Year: 2015, Exporter: "NOR", Importer: "DEU", Commodity: "gas", Magnitude: 0, Unit: "GWa"},
		{Year: 2020, Exporter: "NOR", Importer: "DEU", Commodity: "gas", Magnitude: -1, Unit: "GWa"},
	}
	require.NoError(t, m.MergeActivity(table, exportTech(), twoEdges(), records))
	assert.Equal(t, 0, table.Len(), "non-positive observations drop the row, never zero-fill")
}

func TestMergeActivity_ConversionFallback(t *testing.T) {
	conv := NewConverter()
	conv.nodeFactors[factorKey{"gas", "NOR"}] = 2.0
	conv.nodeRegions["DZA"] = "AFR"
	conv.regionFactors[factorKey{"gas", "AFR"}] = 3.0
	conv.commodityFactors["gas"] = 5.0

	m := NewMerger(2020, conv)
	edges := []domain.NetworkEdge{
		{Exporter: "NOR", Importer: "DEU", Tranche: 1},
		{Exporter: "DZA", Importer: "DEU", Tranche: 1},
		{Exporter: "QAT", Importer: "DEU", Tranche: 1},
	}
	table := activityTable(
		sentinelActivityRow("NOR", "gas_exp_pipe_NOR_DEU"),
		sentinelActivityRow("DZA", "gas_exp_pipe_DZA_DEU"),
		sentinelActivityRow("QAT", "gas_exp_pipe_QAT_DEU"),
	)
	records := []domain.CalibrationRecord{
		{Year: 2020, Exporter: "NOR", Importer: "DEU", Commodity: "gas", Magnitude: 1, Unit: "TJ"},
		{Year: 2020, Exporter: "DZA", Importer: "DEU", Commodity: "gas", Magnitude: 1, Unit: "TJ"},
		{Year: 2020, Exporter: "QAT", Importer: "DEU", Commodity: "gas", Magnitude: 1, Unit: "TJ"},
	}

	require.NoError(t, m.MergeActivity(table, exportTech(), edges, records))
	require.Equal(t, 3, table.Len())
	byTech := make(map[string]float64)
	for _, row := range table.Rows {
		byTech[row.Technology] = *row.Value
	}
	assert.Equal(t, 2.0, byTech["gas_exp_pipe_NOR_DEU"], "node-specific factor")
	assert.Equal(t, 3.0, byTech["gas_exp_pipe_DZA_DEU"], "region fallback")
	assert.Equal(t, 5.0, byTech["gas_exp_pipe_QAT_DEU"], "commodity fallback")
}

func TestMergeActivity_MissingFactorIsRecoverable(t *testing.T) {
	m := NewMerger(2020, NewConverter())
	table := activityTable(sentinelActivityRow("NOR", "gas_exp_pipe_NOR_DEU"))
	records := []domain.CalibrationRecord{
		{Year: 2020, Exporter: "NOR", Importer: "DEU", Commodity: "gas", Magnitude: 1, Unit: "TJ"},
	}
	err := m.MergeActivity(table, exportTech(), twoEdges(), records)
	require.Error(t, err)
	assert.True(t, errors.IsRecoverable(err))
	assert.Equal(t, errors.ErrorTypeCalibration, errors.GetErrorType(err))
}

func TestMergeCosts_InvestmentKeysOnVintage(t *testing.T) {
	m := NewMerger(2020, nil)
	table := &domain.ParameterTable{
		Name: "inv_cost",
		Rows: []domain.ParameterRow{{
			NodeLoc:    "NOR",
			Technology: "gas_exp_pipe_NOR_DEU",
			YearVtg:    domain.BroadcastFrom(domain.AxisVintage),
			Unit:       "USD/kWa",
		}},
	}
	prices := []PriceRecord{
		{Year: 2015, Node: "NOR", Commodity: "gas", Price: 120, Unit: "USD/kWa"},
		{Year: 2025, Node: "NOR", Commodity: "gas", Price: 140, Unit: "USD/kWa"}, // after cutoff
		{Year: 2010, Node: "NOR", Commodity: "gas", Price: -5, Unit: "USD/kWa"},  // no override
	}

	excl := m.MergeCosts(table, exportTech(), prices)

	// sentinel row survives plus one settled year
	require.Equal(t, 2, table.Len())
	assert.True(t, table.Rows[0].YearVtg.IsBroadcast())
	year, ok := table.Rows[1].YearVtg.Year()
	require.True(t, ok)
	assert.Equal(t, 2015, year)
	assert.True(t, table.Rows[1].YearAct.IsAbsent())
	assert.Equal(t, 120.0, *table.Rows[1].Value)

	assert.True(t, excl.Excluded("gas_exp_pipe_NOR_DEU", 2015))
	assert.False(t, excl.Excluded("gas_exp_pipe_NOR_DEU", 2025))
}

func TestMergeCosts_VariableKeysOnActivity(t *testing.T) {
	m := NewMerger(2020, nil)
	table := &domain.ParameterTable{
		Name: "var_cost",
		Rows: []domain.ParameterRow{{
			NodeLoc:    "NOR",
			Technology: "gas_exp_pipe_NOR_DEU",
			YearVtg:    domain.BroadcastAll(),
			YearAct:    domain.BroadcastAll(),
			Mode:       "M1",
			Time:       "year",
			Unit:       "USD/kWa",
		}},
	}
	prices := []PriceRecord{{Year: 2020, Node: "NOR", Commodity: "gas", Price: 33, Unit: "USD/kWa"}}

	excl := m.MergeCosts(table, exportTech(), prices)
	require.Equal(t, 2, table.Len())
	vtg, _ := table.Rows[1].YearVtg.Year()
	act, _ := table.Rows[1].YearAct.Year()
	assert.Equal(t, 2020, vtg)
	assert.Equal(t, 2020, act)
	assert.True(t, excl.Excluded("gas_exp_pipe_NOR_DEU", 2020))
}

func TestMergeCosts_NoPrices(t *testing.T) {
	m := NewMerger(2020, nil)
	table := &domain.ParameterTable{Name: "inv_cost", Rows: []domain.ParameterRow{{
		NodeLoc: "NOR", Technology: "t", YearVtg: domain.BroadcastFrom(domain.AxisVintage),
	}}}
	excl := m.MergeCosts(table, exportTech(), nil)
	assert.Equal(t, 1, table.Len())
	assert.Empty(t, excl)
}

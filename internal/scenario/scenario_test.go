package scenario

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilatcli/internal/linker"
	"bilatcli/pkg/contracts/domain"
)

func target() Target {
	return Target{Model: "global_energy", Scenario: "baseline"}
}

func fixedRow(technology string, year int, value float64) domain.ParameterRow {
	return domain.ParameterRow{
		NodeLoc:    "A",
		Technology: technology,
		YearVtg:    domain.FixedYear(year),
		YearAct:    domain.FixedYear(year),
		Value:      domain.Float64(value),
	}
}

func TestMemStore_ApplyAndRead(t *testing.T) {
	s := NewMemStore()
	batch := Batch{
		Technology: "gas_exp",
		Sets:       map[string][]string{"technology": {"gas_exp_A_B"}},
		Parameters: map[string]*domain.ParameterTable{
			"output": {Name: "output", Rows: []domain.ParameterRow{fixedRow("gas_exp_A_B", 2020, 1)}},
		},
	}
	require.NoError(t, s.Apply(context.Background(), target(), batch))

	assert.Equal(t, []string{"gas_exp_A_B"}, s.Set(target(), "technology"))
	table := s.Parameter(target(), "output")
	require.NotNil(t, table)
	assert.Equal(t, 1, table.Len())
}

func TestMemStore_ReplaceSemantics(t *testing.T) {
	s := NewMemStore()
	first := Batch{
		Technology: "gas_exp",
		Sets:       map[string][]string{"technology": {"gas_exp_A_B"}},
		Parameters: map[string]*domain.ParameterTable{
			"output": {Name: "output", Rows: []domain.ParameterRow{fixedRow("gas_exp_A_B", 2020, 1)}},
		},
	}
	require.NoError(t, s.Apply(context.Background(), target(), first))

	// re-running the same technology replaces its rows instead of stacking
	second := first
	second.Parameters = map[string]*domain.ParameterTable{
		"output": {Name: "output", Rows: []domain.ParameterRow{fixedRow("gas_exp_A_B", 2025, 2)}},
	}
	require.NoError(t, s.Apply(context.Background(), target(), second))

	table := s.Parameter(target(), "output")
	require.Equal(t, 1, table.Len())
	year, _ := table.Rows[0].YearVtg.Year()
	assert.Equal(t, 2025, year)
}

func TestMemStore_OtherTechnologyRowsSurviveReplace(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	require.NoError(t, s.Apply(ctx, target(), Batch{
		Technology: "gas_exp",
		Sets:       map[string][]string{"technology": {"gas_exp_A_B"}},
		Parameters: map[string]*domain.ParameterTable{
			"output": {Name: "output", Rows: []domain.ParameterRow{fixedRow("gas_exp_A_B", 2020, 1)}},
		},
	}))
	require.NoError(t, s.Apply(ctx, target(), Batch{
		Technology: "oil_exp",
		Sets:       map[string][]string{"technology": {"oil_exp_A_B"}},
		Parameters: map[string]*domain.ParameterTable{
			"output": {Name: "output", Rows: []domain.ParameterRow{fixedRow("oil_exp_A_B", 2020, 3)}},
		},
	}))
	// gas replaced, oil untouched
	require.NoError(t, s.Apply(ctx, target(), Batch{
		Technology: "gas_exp",
		Sets:       map[string][]string{"technology": {"gas_exp_A_B"}},
		Parameters: map[string]*domain.ParameterTable{
			"output": {Name: "output", Rows: []domain.ParameterRow{fixedRow("gas_exp_A_B", 2030, 4)}},
		},
	}))

	table := s.Parameter(target(), "output")
	require.Equal(t, 2, table.Len())
	byTech := make(map[string]float64)
	for _, row := range table.Rows {
		byTech[row.Technology] = *row.Value
	}
	assert.Equal(t, 3.0, byTech["oil_exp_A_B"])
	assert.Equal(t, 4.0, byTech["gas_exp_A_B"])
}

func TestMemStore_RejectsUnexpandedSentinels(t *testing.T) {
	s := NewMemStore()
	batch := Batch{
		Technology: "gas_exp",
		Parameters: map[string]*domain.ParameterTable{
			"output": {Name: "output", Rows: []domain.ParameterRow{{
				Technology: "gas_exp_A_B",
				YearVtg:    domain.BroadcastAll(),
			}}},
		},
	}
	err := s.Apply(context.Background(), target(), batch)
	require.Error(t, err)
	assert.Nil(t, s.Parameter(target(), "output"), "failed apply leaves the scenario untouched")
}

func TestMemStore_Commit(t *testing.T) {
	s := NewMemStore()
	require.Error(t, s.Commit(context.Background(), target(), "v1"), "nothing applied yet")

	require.NoError(t, s.Apply(context.Background(), target(), Batch{Technology: "gas_exp"}))
	require.NoError(t, s.Commit(context.Background(), target(), "baseline v1"))
	committed, comment := s.Committed(target())
	assert.True(t, committed)
	assert.Equal(t, "baseline v1", comment)
}

func TestMemStore_Solve(t *testing.T) {
	s := NewMemStore()
	require.Error(t, s.Solve(context.Background(), target()), "nothing applied yet")

	require.NoError(t, s.Apply(context.Background(), target(), Batch{Technology: "gas_exp"}))
	require.Error(t, s.Solve(context.Background(), target()), "solve requires a committed scenario")
	assert.False(t, s.Solved(target()))

	require.NoError(t, s.Commit(context.Background(), target(), "baseline v1"))
	require.NoError(t, s.Solve(context.Background(), target()))
	assert.True(t, s.Solved(target()))
}

func TestLoader_Load(t *testing.T) {
	s := NewMemStore()
	l := NewLoader(s)
	tech := domain.Technology{Name: "gas_exp", Kind: domain.TechnologyExport, Commodity: "gas", TradeLifetime: 10}
	edges := []domain.NetworkEdge{
		{Exporter: "A", Importer: "B", Tranche: 1},
		{Exporter: "B", Importer: "A", Tranche: 1},
	}
	tables := map[string]*domain.ParameterTable{
		"output": {Name: "output", Rows: []domain.ParameterRow{fixedRow("gas_exp_A_B", 2020, 1)}},
	}
	relations := &linker.RelationSet{
		Names: []string{"gas_exp_total"},
		Activity: &domain.ParameterTable{
			Name: "relation_activity",
			Rows: []domain.ParameterRow{{
				Relation:   "gas_exp_total",
				NodeRel:    "World",
				NodeLoc:    "A",
				Technology: "gas_exp_A_B",
				YearRel:    domain.FixedYear(2020),
				YearAct:    domain.FixedYear(2020),
				Value:      domain.Float64(1),
			}},
		},
	}

	require.NoError(t, l.Load(context.Background(), target(), tech, edges, tables, relations))

	assert.Equal(t, []string{"gas_exp_A_B", "gas_exp_B_A"}, s.Set(target(), "technology"))
	assert.Equal(t, []string{"A", "B"}, s.Set(target(), "node"))
	assert.Equal(t, []string{"gas_exp_total"}, s.Set(target(), "relation"))
	require.NotNil(t, s.Parameter(target(), "relation_activity"))
}

func TestLoader_ImportContributesBaseNameOnly(t *testing.T) {
	s := NewMemStore()
	l := NewLoader(s)
	tech := domain.Technology{Name: "gas_imp", Kind: domain.TechnologyImport, Commodity: "gas", TradeLifetime: 10}
	edges := []domain.NetworkEdge{{Exporter: "A", Importer: "B", Tranche: 1}}

	require.NoError(t, l.Load(context.Background(), target(), tech, edges, nil, nil))
	assert.Equal(t, []string{"gas_imp"}, s.Set(target(), "technology"))
}

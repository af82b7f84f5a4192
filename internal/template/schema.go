package template

import (
	"sort"

	"bilatcli/internal/errors"
	"bilatcli/internal/exporter"
	"bilatcli/pkg/contracts/domain"
)

// Parameter names handled by the template generator.
const (
	ParamInput              = "input"
	ParamOutput             = "output"
	ParamTechnicalLifetime  = "technical_lifetime"
	ParamInvCost            = "inv_cost"
	ParamFixCost            = "fix_cost"
	ParamVarCost            = "var_cost"
	ParamCapacityFactor     = "capacity_factor"
	ParamHistoricalActivity = "historical_activity"
	ParamEmissionFactor     = "emission_factor"
	ParamRelationActivity   = "relation_activity"
)

// schemas declares the exact column set for each parameter, matching the
// target scenario store's schema (order-independent).
var schemas = map[string][]string{
	ParamInput: {
		exporter.ColNodeLoc, exporter.ColTechnology, exporter.ColYearVtg, exporter.ColYearAct,
		exporter.ColMode, exporter.ColCommodity, exporter.ColLevel, exporter.ColTime,
		exporter.ColValue, exporter.ColUnit,
	},
	ParamOutput: {
		exporter.ColNodeLoc, exporter.ColNodeDest, exporter.ColTechnology, exporter.ColYearVtg,
		exporter.ColYearAct, exporter.ColMode, exporter.ColCommodity, exporter.ColLevel,
		exporter.ColTime, exporter.ColValue, exporter.ColUnit,
	},
	ParamTechnicalLifetime: {
		exporter.ColNodeLoc, exporter.ColTechnology, exporter.ColYearVtg,
		exporter.ColValue, exporter.ColUnit,
	},
	ParamInvCost: {
		exporter.ColNodeLoc, exporter.ColTechnology, exporter.ColYearVtg,
		exporter.ColValue, exporter.ColUnit,
	},
	ParamFixCost: {
		exporter.ColNodeLoc, exporter.ColTechnology, exporter.ColYearVtg, exporter.ColYearAct,
		exporter.ColValue, exporter.ColUnit,
	},
	ParamVarCost: {
		exporter.ColNodeLoc, exporter.ColTechnology, exporter.ColYearVtg, exporter.ColYearAct,
		exporter.ColMode, exporter.ColTime, exporter.ColValue, exporter.ColUnit,
	},
	ParamCapacityFactor: {
		exporter.ColNodeLoc, exporter.ColTechnology, exporter.ColYearVtg, exporter.ColYearAct,
		exporter.ColTime, exporter.ColValue, exporter.ColUnit,
	},
	ParamHistoricalActivity: {
		exporter.ColNodeLoc, exporter.ColTechnology, exporter.ColYearAct, exporter.ColMode,
		exporter.ColTime, exporter.ColValue, exporter.ColUnit,
	},
	ParamEmissionFactor: {
		exporter.ColNodeLoc, exporter.ColTechnology, exporter.ColYearVtg, exporter.ColYearAct,
		exporter.ColMode, exporter.ColCommodity, exporter.ColValue, exporter.ColUnit,
	},
	ParamRelationActivity: {
		exporter.ColRelation, exporter.ColNodeRel, exporter.ColYearRel, exporter.ColNodeLoc,
		exporter.ColTechnology, exporter.ColYearAct, exporter.ColMode,
		exporter.ColValue, exporter.ColUnit,
	},
}

// Schema returns the declared column set for a parameter.
func Schema(parameter string) ([]string, bool) {
	cols, ok := schemas[parameter]
	if !ok {
		return nil, false
	}
	return append([]string(nil), cols...), true
}

// tradeParameters lists the parameter kinds generated for trade legs, in
// template emission order.
var tradeParameters = map[domain.TechnologyKind][]string{
	domain.TechnologyExport: {
		ParamInput, ParamOutput, ParamTechnicalLifetime, ParamInvCost, ParamFixCost,
		ParamVarCost, ParamCapacityFactor, ParamHistoricalActivity, ParamEmissionFactor,
	},
	domain.TechnologyImport: {
		ParamInput, ParamOutput, ParamTechnicalLifetime, ParamVarCost,
		ParamCapacityFactor, ParamHistoricalActivity,
	},
	domain.TechnologyFlow: {
		ParamInput, ParamOutput, ParamTechnicalLifetime, ParamInvCost, ParamFixCost,
		ParamVarCost, ParamCapacityFactor,
	},
	domain.TechnologySupply: {
		ParamOutput, ParamTechnicalLifetime, ParamInvCost, ParamFixCost, ParamVarCost,
		ParamCapacityFactor,
	},
}

// ParametersFor returns the parameter kinds a technology of the given kind
// needs templates for.
func ParametersFor(kind domain.TechnologyKind) []string {
	return append([]string(nil), tradeParameters[kind]...)
}

// ValidateColumns checks a table's columns against the declared schema for
// its parameter, order-independent. Mismatches are fatal for that
// parameter/technology only.
func ValidateColumns(technology string, table *domain.ParameterTable) error {
	want, ok := Schema(table.Name)
	if !ok {
		return errors.NewSchemaMismatch(technology, table.Name, nil, table.Columns)
	}

	wantSet := make(map[string]bool, len(want))
	for _, c := range want {
		wantSet[c] = true
	}
	haveSet := make(map[string]bool, len(table.Columns))
	for _, c := range table.Columns {
		haveSet[c] = true
	}

	var missing, extra []string
	for c := range wantSet {
		if !haveSet[c] {
			missing = append(missing, c)
		}
	}
	for c := range haveSet {
		if !wantSet[c] {
			extra = append(extra, c)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return errors.NewSchemaMismatch(technology, table.Name, missing, extra)
}

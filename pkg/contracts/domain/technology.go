package domain

import "fmt"

// TechnologyKind classifies a technology's role in the trade network
type TechnologyKind string

const (
	TechnologyExport TechnologyKind = "export"
	TechnologyImport TechnologyKind = "import"
	TechnologyFlow   TechnologyKind = "flow"
	TechnologySupply TechnologyKind = "supply"
)

// NetworkMode selects how a technology's network edges are enumerated
type NetworkMode string

const (
	// NetworkFullProduct enumerates every directed node pair
	NetworkFullProduct NetworkMode = "full_product"
	// NetworkCurated reads a user-annotated inclusion file
	NetworkCurated NetworkMode = "curated"
)

// FlowScope defines the scope of a flow technology's capacity constraint
type FlowScope string

const (
	FlowScopeBilateral FlowScope = "bilateral"
	FlowScopeGlobal    FlowScope = "global"
)

// TableKind distinguishes trade-leg parameter tables from flow-infrastructure tables
type TableKind string

const (
	TableKindTrade TableKind = "trade"
	TableKindFlow  TableKind = "flow"
)

// TradeLevels holds the commodity levels a trade technology connects
type TradeLevels struct {
	Export string `yaml:"export" json:"export"`
	Import string `yaml:"import" json:"import"`
	Trade  string `yaml:"trade" json:"trade"`
}

// Technology describes one process in the energy-system model, together with
// the trade metadata that drives network enumeration and broadcasting.
// Technologies sharing a FlowGroup route over the same physical infrastructure.
type Technology struct {
	Name           string         `yaml:"name" json:"name" validate:"required"`
	Kind           TechnologyKind `yaml:"kind" json:"kind" validate:"required,oneof=export import flow supply"`
	Commodity      string         `yaml:"commodity" json:"commodity" validate:"required"`
	BaseTechnology string         `yaml:"base_technology" json:"base_technology"`
	FlowGroup      string         `yaml:"flow_group" json:"flow_group,omitempty"`
	Levels         TradeLevels    `yaml:"levels" json:"levels"`
	TradeLifetime  int            `yaml:"trade_lifetime" json:"trade_lifetime" validate:"min=0"`
	FlowLifetime   int            `yaml:"flow_lifetime" json:"flow_lifetime" validate:"min=0"`
	Multiplicity   int            `yaml:"multiplicity" json:"multiplicity" validate:"min=1"`
	NetworkMode    NetworkMode    `yaml:"network_mode" json:"network_mode" validate:"omitempty,oneof=full_product curated"`
	FlowScope      FlowScope      `yaml:"flow_scope" json:"flow_scope" validate:"omitempty,oneof=bilateral global"`
	Unit           string         `yaml:"unit" json:"unit"`
}

// Lifetime returns the technical lifetime that bounds the vintage/activity
// cross product for the given table kind.
func (t Technology) Lifetime(kind TableKind) int {
	if kind == TableKindFlow {
		return t.FlowLifetime
	}
	return t.TradeLifetime
}

// IsTrade reports whether the technology is an export or import leg.
func (t Technology) IsTrade() bool {
	return t.Kind == TechnologyExport || t.Kind == TechnologyImport
}

// FlowIdentity returns the shared infrastructure identifier. Falls back to the
// technology name when no flow group is declared.
func (t Technology) FlowIdentity() string {
	if t.FlowGroup != "" {
		return t.FlowGroup
	}
	return t.Name
}

func (t Technology) String() string {
	return fmt.Sprintf("%s[%s/%s]", t.Name, t.Kind, t.Commodity)
}

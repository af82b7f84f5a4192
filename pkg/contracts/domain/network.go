package domain

import "fmt"

// Node is a spatial/regional unit of the model. Immutable once loaded.
type Node string

// NetworkEdge is an ordered exporter→importer pair for one technology.
// Tranche numbers parallel capacity tranches when a route is replicated;
// it is 1 for the common single-tranche case.
type NetworkEdge struct {
	Exporter Node `json:"exporter"`
	Importer Node `json:"importer"`
	Tranche  int  `json:"tranche"`
}

// Valid reports whether the edge satisfies the no-self-edge invariant.
func (e NetworkEdge) Valid() bool {
	return e.Exporter != "" && e.Importer != "" && e.Exporter != e.Importer
}

// Suffix returns the route suffix used to derive destination-specific
// technology variant names.
func (e NetworkEdge) Suffix() string {
	if e.Tranche > 1 {
		return fmt.Sprintf("%s_%s_%d", e.Exporter, e.Importer, e.Tranche)
	}
	return fmt.Sprintf("%s_%s", e.Exporter, e.Importer)
}

// TechnologyVariant derives the per-route technology name for a base
// technology, e.g. gas_exp_pipe + (NOR, DEU) → gas_exp_pipe_NOR_DEU.
func (e NetworkEdge) TechnologyVariant(base string) string {
	return base + "_" + e.Suffix()
}

func (e NetworkEdge) String() string {
	return fmt.Sprintf("%s→%s", e.Exporter, e.Importer)
}

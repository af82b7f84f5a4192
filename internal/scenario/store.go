package scenario

import (
	"context"

	"bilatcli/pkg/contracts/domain"
)

// Target identifies one scenario in the external store.
type Target struct {
	Model    string
	Scenario string
}

// Batch is one technology's complete contribution to a scenario: set
// members plus parameter tables. A batch commits atomically — either every
// set member and row lands, or the scenario is untouched for that
// technology and the caller retries from the template stage.
type Batch struct {
	Technology string
	Sets       map[string][]string
	Parameters map[string]*domain.ParameterTable
}

// Store is the scenario-store boundary the pipeline loads into. Apply must
// be atomic per call and must replace: previous rows belonging to the
// batch's technology variants are removed before insertion, so re-running a
// technology's pipeline is idempotent. Sets are applied before parameters,
// so every relation referenced by a relation_activity row is declared first.
// Solve triggers the store's optimization run and requires a committed
// scenario.
type Store interface {
	Apply(ctx context.Context, target Target, batch Batch) error
	Commit(ctx context.Context, target Target, comment string) error
	Solve(ctx context.Context, target Target) error
}

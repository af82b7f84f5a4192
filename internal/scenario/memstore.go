package scenario

import (
	"context"
	"fmt"
	"sync"

	"bilatcli/pkg/contracts/domain"
)

// Compile-time contract assertion.
var _ Store = (*MemStore)(nil)

// MemStore is an in-memory scenario store used for tests and dry runs. It
// honors the Apply contract: sets before parameters, remove-then-insert
// replace semantics, and all-or-nothing per batch.
type MemStore struct {
	mu        sync.RWMutex
	scenarios map[Target]*scenarioState
}

type scenarioState struct {
	sets       map[string][]string
	parameters map[string]*domain.ParameterTable
	committed  bool
	comment    string
	solved     bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{scenarios: make(map[Target]*scenarioState)}
}

// Apply stages a batch into the target scenario. The batch is validated in
// full before any mutation, so a failed Apply leaves the scenario untouched.
func (s *MemStore) Apply(ctx context.Context, target Target, batch Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if batch.Technology == "" {
		return fmt.Errorf("batch has no technology")
	}
	variants := batch.Sets["technology"]
	for name, table := range batch.Parameters {
		if table == nil {
			return fmt.Errorf("parameter %s: nil table", name)
		}
		for i, row := range table.Rows {
			if row.YearVtg.IsBroadcast() || row.YearAct.IsBroadcast() || row.YearRel.IsBroadcast() {
				return fmt.Errorf("parameter %s row %d: unexpanded sentinel", name, i)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.scenarios[target]
	if !ok {
		state = &scenarioState{
			sets:       make(map[string][]string),
			parameters: make(map[string]*domain.ParameterTable),
		}
		s.scenarios[target] = state
	}

	for name, members := range batch.Sets {
		state.sets[name] = union(state.sets[name], members)
	}

	replaced := make(map[string]bool, len(variants))
	for _, v := range variants {
		replaced[v] = true
	}
	for name, table := range batch.Parameters {
		existing, ok := state.parameters[name]
		if !ok {
			state.parameters[name] = table.Clone()
			continue
		}
		// previous contributions of this technology's variants are removed
		// before insertion, so re-applying a technology replaces cleanly
		existing.Rows = keepRows(existing.Rows, func(row domain.ParameterRow) bool {
			return !replaced[row.Technology]
		})
		existing.Append(table.Clone().Rows...)
	}
	return nil
}

// Commit marks the scenario as committed with a version comment.
func (s *MemStore) Commit(ctx context.Context, target Target, comment string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.scenarios[target]
	if !ok {
		return fmt.Errorf("scenario %s/%s does not exist", target.Model, target.Scenario)
	}
	state.committed = true
	state.comment = comment
	return nil
}

// Solve records the optimization trigger. Only committed scenarios solve.
func (s *MemStore) Solve(ctx context.Context, target Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.scenarios[target]
	if !ok {
		return fmt.Errorf("scenario %s/%s does not exist", target.Model, target.Scenario)
	}
	if !state.committed {
		return fmt.Errorf("scenario %s/%s is not committed", target.Model, target.Scenario)
	}
	state.solved = true
	return nil
}

// Set returns the members of a named set, in insertion order.
func (s *MemStore) Set(target Target, name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.scenarios[target]
	if !ok {
		return nil
	}
	return append([]string(nil), state.sets[name]...)
}

// Parameter returns a copy of a loaded parameter table.
func (s *MemStore) Parameter(target Target, name string) *domain.ParameterTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.scenarios[target]
	if !ok {
		return nil
	}
	table, ok := state.parameters[name]
	if !ok {
		return nil
	}
	return table.Clone()
}

// Committed reports whether the scenario was committed and with what comment.
func (s *MemStore) Committed(target Target) (bool, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.scenarios[target]
	if !ok {
		return false, ""
	}
	return state.committed, state.comment
}

// Solved reports whether a solve was triggered for the scenario.
func (s *MemStore) Solved(target Target) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.scenarios[target]
	if !ok {
		return false
	}
	return state.solved
}

func union(existing, add []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, m := range existing {
		seen[m] = true
	}
	for _, m := range add {
		if !seen[m] {
			seen[m] = true
			existing = append(existing, m)
		}
	}
	return existing
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

package operations

import (
	"sync"

	"bilatcli/internal/calibration"
	"bilatcli/internal/linker"
	"bilatcli/internal/scenario"
	"bilatcli/pkg/contracts/domain"
)

// Step identifiers, in pipeline order.
const (
	StepIDTemplate  = "template"
	StepIDCalibrate = "calibrate"
	StepIDBroadcast = "broadcast"
	StepIDLink      = "link"
	StepIDLoad      = "load"
)

// Step display names.
const (
	StepNameTemplate  = "Bare Template Generation"
	StepNameCalibrate = "Historical Calibration"
	StepNameBroadcast = "Year Broadcast"
	StepNameLink      = "Deduplication & Relations"
	StepNameLoad      = "Scenario Load"
)

// TechnologyState carries one technology's pipeline data between steps.
// Claims is the cross-technology accumulator: the manager threads it through
// technologies in declaration order.
type TechnologyState struct {
	mu sync.RWMutex

	RunID  string
	Target scenario.Target
	Tech   domain.Technology

	Edges      []domain.NetworkEdge
	Tables     map[string]*domain.ParameterTable
	Relations  *linker.RelationSet
	Exclusions calibration.Exclusions
	Claims     linker.ClaimSet

	// CalibrationSkipped is set when the calibration source was missing and
	// structural values stand in.
	CalibrationSkipped bool

	steps map[string]*StepState
}

// NewTechnologyState creates the state for one technology's pipeline run.
func NewTechnologyState(runID string, target scenario.Target, tech domain.Technology, claims linker.ClaimSet) *TechnologyState {
	return &TechnologyState{
		RunID:      runID,
		Target:     target,
		Tech:       tech,
		Tables:     make(map[string]*domain.ParameterTable),
		Exclusions: make(calibration.Exclusions),
		Claims:     claims,
		steps:      make(map[string]*StepState),
	}
}

// StepState returns the runtime state for a step, creating it on first use.
func (s *TechnologyState) StepState(id, name string) *StepState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.steps[id]; ok {
		return st
	}
	st := NewStepState(id, name)
	s.steps[id] = st
	return st
}

// StepStatus returns a step's status, or pending if it never ran.
func (s *TechnologyState) StepStatus(id string) StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.steps[id]; ok {
		return st.GetStatus()
	}
	return StepStatusPending
}

// SetTable stores one parameter table.
func (s *TechnologyState) SetTable(name string, table *domain.ParameterTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tables[name] = table
}

// Table returns one parameter table.
func (s *TechnologyState) Table(name string) (*domain.ParameterTable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.Tables[name]
	return t, ok
}

// RowCount sums the rows across all tables.
func (s *TechnologyState) RowCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, t := range s.Tables {
		total += t.Len()
	}
	if s.Relations != nil {
		total += s.Relations.Activity.Len()
	}
	return total
}

package operations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStep struct {
	id   string
	deps []string
}

func (s *fakeStep) ID() string                               { return s.id }
func (s *fakeStep) Name() string                             { return s.id }
func (s *fakeStep) Dependencies() []string                   { return s.deps }
func (s *fakeStep) Validate(*TechnologyState) error          { return nil }
func (s *fakeStep) Execute(context.Context, *TechnologyState) error { return nil }

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeStep{id: "a"}))
	assert.Equal(t, 1, r.Count())

	err := r.Register(&fakeStep{id: "a"})
	assert.ErrorContains(t, err, "already registered")

	err = r.Register(nil)
	assert.ErrorContains(t, err, "nil step")
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeStep{id: "a"}))

	step, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", step.ID())

	_, err = r.Get("b")
	assert.ErrorContains(t, err, "not registered")
}

func TestRegistry_DependencyOrder(t *testing.T) {
	r := NewRegistry()
	// registered out of order on purpose
	require.NoError(t, r.Register(&fakeStep{id: "load", deps: []string{"link"}}))
	require.NoError(t, r.Register(&fakeStep{id: "link", deps: []string{"broadcast"}}))
	require.NoError(t, r.Register(&fakeStep{id: "broadcast", deps: []string{"template"}}))
	require.NoError(t, r.Register(&fakeStep{id: "template"}))

	steps, err := r.DependencyOrder()
	require.NoError(t, err)

	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID()
	}
	assert.Equal(t, []string{"template", "broadcast", "link", "load"}, ids)
}

func TestRegistry_DependencyOrderStableTiebreak(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeStep{id: "root"}))
	require.NoError(t, r.Register(&fakeStep{id: "b", deps: []string{"root"}}))
	require.NoError(t, r.Register(&fakeStep{id: "a", deps: []string{"root"}}))

	steps, err := r.DependencyOrder()
	require.NoError(t, err)

	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID()
	}
	// independent siblings keep registration order
	assert.Equal(t, []string{"root", "b", "a"}, ids)
}

func TestRegistry_DependencyCycle(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeStep{id: "a", deps: []string{"b"}}))
	require.NoError(t, r.Register(&fakeStep{id: "b", deps: []string{"a"}}))

	_, err := r.DependencyOrder()
	assert.ErrorContains(t, err, "cycle")
}

func TestRegistry_UnregisteredDependency(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeStep{id: "a", deps: []string{"ghost"}}))

	_, err := r.DependencyOrder()
	assert.ErrorContains(t, err, "unregistered")
}

func TestStepState_Lifecycle(t *testing.T) {
	s := NewStepState("calibrate", "Historical Calibration")
	assert.Equal(t, StepStatusPending, s.GetStatus())

	s.Start()
	assert.Equal(t, StepStatusActive, s.GetStatus())

	s.Complete()
	assert.Equal(t, StepStatusCompleted, s.GetStatus())
	assert.GreaterOrEqual(t, s.Duration(), time.Duration(0))
}

func TestStepState_Skip(t *testing.T) {
	s := NewStepState("calibrate", "Historical Calibration")
	s.Start()
	s.Skip("trade statistics unavailable")
	assert.Equal(t, StepStatusSkipped, s.GetStatus())
	assert.Equal(t, "trade statistics unavailable", s.Message)
}

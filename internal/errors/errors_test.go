package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *PipelineError
		want string
	}{
		{
			name: "technology and parameter",
			err: &PipelineError{
				Type:       ErrorTypeSchemaMismatch,
				Technology: "gas_exp_pipe",
				Parameter:  "input",
				Message:    "template columns do not match parameter schema",
			},
			want: "[schema_mismatch] gas_exp_pipe/input: template columns do not match parameter schema",
		},
		{
			name: "technology only",
			err: &PipelineError{
				Type:       ErrorTypeCalibration,
				Technology: "oil_imp_ship",
				Message:    "calibration source trade_stats.csv unavailable",
			},
			want: "[calibration_source] oil_imp_ship: calibration source trade_stats.csv unavailable",
		},
		{
			name: "no technology",
			err: &PipelineError{
				Type:    ErrorTypeConfiguration,
				Message: "no scenario identifiers configured",
			},
			want: "[configuration] no scenario identifiers configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestPipelineError_Unwrap(t *testing.T) {
	cause := stderrors.New("file does not exist")
	err := NewCalibrationUnavailable("gas_exp_pipe", "shipping.xlsx", cause)

	assert.ErrorIs(t, err, cause)
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(NewCalibrationUnavailable("t", "s", nil)))
	assert.False(t, IsRecoverable(NewConfigurationError("bad config", nil)))
	assert.False(t, IsRecoverable(NewInvalidCuration("t", "net.csv")))
	assert.False(t, IsRecoverable(stderrors.New("plain")))
	assert.False(t, IsRecoverable(nil))

	// wrapped recoverable errors stay recoverable
	wrapped := fmt.Errorf("while merging: %w", NewCalibrationUnavailable("t", "s", nil))
	assert.True(t, IsRecoverable(wrapped))
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeMissingCurated, GetErrorType(NewMissingCuratedInput("t", "net.csv")))
	assert.Equal(t, ErrorTypeInvariant, GetErrorType(NewInvariantViolation("t", "input", "activity before vintage")))
	assert.Equal(t, ErrorTypeExecution, GetErrorType(stderrors.New("plain")))
	assert.Equal(t, ErrorType(""), GetErrorType(nil))
}

func TestWrapError(t *testing.T) {
	t.Run("nil passthrough", func(t *testing.T) {
		assert.Nil(t, WrapError(nil, "t", "msg"))
	})

	t.Run("plain error becomes execution error", func(t *testing.T) {
		err := WrapError(stderrors.New("boom"), "gas_exp_pipe", "broadcast failed")
		require.NotNil(t, err)
		assert.Equal(t, ErrorTypeExecution, err.Type)
		assert.Equal(t, "gas_exp_pipe", err.Technology)
		assert.Contains(t, err.Error(), "broadcast failed")
	})

	t.Run("existing pipeline error is enriched", func(t *testing.T) {
		inner := NewInvalidCuration("", "net.csv")
		err := WrapError(inner, "gas_exp_pipe", "")
		assert.Equal(t, ErrorTypeInvalidCurated, err.Type)
		assert.Equal(t, "gas_exp_pipe", err.Technology)
	})
}

func TestErrorList(t *testing.T) {
	var list ErrorList
	assert.False(t, list.HasErrors())
	assert.Equal(t, "no errors", list.Error())

	list.Add(nil)
	assert.False(t, list.HasErrors())

	list.Add(NewInvalidCuration("a", "a.csv"))
	assert.True(t, list.HasErrors())
	assert.Equal(t, list.Errors[0].Error(), list.Error())

	list.Add(NewInvalidCuration("b", "b.csv"))
	assert.Equal(t, "multiple errors: 2 errors occurred", list.Error())

	assert.Len(t, list.ByTechnology("a"), 1)
	assert.Len(t, list.ByTechnology("b"), 1)
	assert.Empty(t, list.ByTechnology("c"))
}

func TestNewSchemaMismatch_Context(t *testing.T) {
	err := NewSchemaMismatch("gas_exp_pipe", "output", []string{"node_dest"}, []string{"extra_col"})
	assert.Equal(t, []string{"node_dest"}, err.Context["missing"])
	assert.Equal(t, []string{"extra_col"}, err.Context["extra"])
}

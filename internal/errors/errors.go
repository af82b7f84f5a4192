package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies pipeline errors per the propagation policy: structural
// errors abort the whole run, recoverable ones are reported per technology.
type ErrorType string

const (
	ErrorTypeConfiguration  ErrorType = "configuration"
	ErrorTypeMissingCurated ErrorType = "missing_curated_input"
	ErrorTypeInvalidCurated ErrorType = "invalid_curation"
	ErrorTypeCalibration    ErrorType = "calibration_source"
	ErrorTypeSchemaMismatch ErrorType = "schema_mismatch"
	ErrorTypeInvariant      ErrorType = "invariant_violation"
	ErrorTypeExecution      ErrorType = "execution"
)

// PipelineError is a typed error carrying the technology and parameter kind it
// affects, so user-visible failures always name both.
type PipelineError struct {
	Type        ErrorType              `json:"type"`
	Technology  string                 `json:"technology,omitempty"`
	Parameter   string                 `json:"parameter,omitempty"`
	Message     string                 `json:"message"`
	Cause       error                  `json:"-"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Recoverable bool                   `json:"recoverable"`
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e == nil {
		return "unknown pipeline error"
	}
	switch {
	case e.Technology != "" && e.Parameter != "":
		return fmt.Sprintf("[%s] %s/%s: %s", e.Type, e.Technology, e.Parameter, e.Message)
	case e.Technology != "":
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Technology, e.Message)
	default:
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
}

// Unwrap returns the underlying cause
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewConfigurationError creates a fatal configuration error. These abort the
// whole run before any external data is read.
func NewConfigurationError(message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeConfiguration,
		Message: message,
		Cause:   cause,
	}
}

// NewMissingCuratedInput signals the generate-then-edit workflow gate: the
// curated file was absent, a template has been written, and the caller must
// annotate it and rerun.
func NewMissingCuratedInput(technology, path string) *PipelineError {
	return &PipelineError{
		Type:       ErrorTypeMissingCurated,
		Technology: technology,
		Message:    fmt.Sprintf("curated network file not found; template written to %s, annotate it and rerun", path),
		Context:    map[string]interface{}{"path": path},
	}
}

// NewInvalidCuration reports a curated file whose rows exclude every edge.
func NewInvalidCuration(technology, path string) *PipelineError {
	return &PipelineError{
		Type:       ErrorTypeInvalidCurated,
		Technology: technology,
		Message:    fmt.Sprintf("curated network file %s marks no edge as included", path),
		Context:    map[string]interface{}{"path": path},
	}
}

// NewCalibrationUnavailable reports a missing calibration source. Recoverable
// at technology granularity: structural values stand in.
func NewCalibrationUnavailable(technology, source string, cause error) *PipelineError {
	return &PipelineError{
		Type:        ErrorTypeCalibration,
		Technology:  technology,
		Message:     fmt.Sprintf("calibration source %s unavailable", source),
		Cause:       cause,
		Context:     map[string]interface{}{"source": source},
		Recoverable: true,
	}
}

// NewSchemaMismatch reports template columns that do not match the declared
// parameter schema. Fatal for that parameter/technology only.
func NewSchemaMismatch(technology, parameter string, missing, extra []string) *PipelineError {
	return &PipelineError{
		Type:       ErrorTypeSchemaMismatch,
		Technology: technology,
		Parameter:  parameter,
		Message:    "template columns do not match parameter schema",
		Context: map[string]interface{}{
			"missing": missing,
			"extra":   extra,
		},
	}
}

// NewInvariantViolation reports rows that survived broadcasting in an invalid
// state. The engine must not emit such rows to the scenario store.
func NewInvariantViolation(technology, parameter, message string) *PipelineError {
	return &PipelineError{
		Type:       ErrorTypeInvariant,
		Technology: technology,
		Parameter:  parameter,
		Message:    message,
	}
}

// IsRecoverable reports whether processing may continue with the remaining
// technologies after this error.
func IsRecoverable(err error) bool {
	var pErr *PipelineError
	if errors.As(err, &pErr) {
		return pErr.Recoverable
	}
	return false
}

// GetErrorType returns the type of the error, or ErrorTypeExecution for
// untyped errors.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var pErr *PipelineError
	if errors.As(err, &pErr) {
		return pErr.Type
	}
	return ErrorTypeExecution
}

// WrapError attaches technology context to an error. Existing PipelineErrors
// are enriched in place rather than re-wrapped.
func WrapError(err error, technology, message string) *PipelineError {
	if err == nil {
		return nil
	}
	var pErr *PipelineError
	if errors.As(err, &pErr) {
		if pErr.Technology == "" {
			pErr.Technology = technology
		}
		if message != "" {
			pErr.Message = fmt.Sprintf("%s: %s", message, pErr.Message)
		}
		return pErr
	}
	return &PipelineError{
		Type:       ErrorTypeExecution,
		Technology: technology,
		Message:    message,
		Cause:      err,
	}
}

// ErrorList collects per-technology errors accumulated across a run.
type ErrorList struct {
	Errors []*PipelineError `json:"errors"`
}

// Error implements the error interface
func (e *ErrorList) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("multiple errors: %d errors occurred", len(e.Errors))
	}
}

// Add appends a non-nil error to the list.
func (e *ErrorList) Add(err *PipelineError) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if any error was recorded.
func (e *ErrorList) HasErrors() bool {
	return len(e.Errors) > 0
}

// ByTechnology returns the errors recorded for one technology.
func (e *ErrorList) ByTechnology(technology string) []*PipelineError {
	var out []*PipelineError
	for _, err := range e.Errors {
		if err.Technology == technology {
			out = append(out, err)
		}
	}
	return out
}

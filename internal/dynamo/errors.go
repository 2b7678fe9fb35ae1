package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownParam indicates a parameter name the model does not expose.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")

	// ErrInsufficientData indicates an analysis was requested before enough
	// samples were recorded. Callers treat it as an empty result.
	ErrInsufficientData = errors.New("dynamo: not enough recorded samples")

	// ErrUnknownFormat indicates an unsupported export format.
	ErrUnknownFormat = errors.New("dynamo: unknown export format")
)

// ConfigurationError reports a rejected physical parameter.
type ConfigurationError struct {
	Param  string
	Value  float64
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s=%g: %s", e.Param, e.Value, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrParameterBounds
}

// RequirePositive returns a ConfigurationError unless value > 0.
func RequirePositive(name string, value float64) error {
	if !(value > 0) {
		return &ConfigurationError{Param: name, Value: value, Reason: "must be positive"}
	}
	return nil
}

// RequireNonNegative returns a ConfigurationError unless value >= 0.
func RequireNonNegative(name string, value float64) error {
	if !(value >= 0) {
		return &ConfigurationError{Param: name, Value: value, Reason: "must not be negative"}
	}
	return nil
}

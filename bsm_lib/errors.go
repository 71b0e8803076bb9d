package bsm

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is matched by every *InvalidParameterError
	ErrInvalidParameter = errors.New("invalid contract parameter")

	// ErrUnrecognizedOptionType is matched by every *UnrecognizedOptionTypeError
	ErrUnrecognizedOptionType = errors.New("unrecognized option type")
)

// InvalidParameterError reports a non-positive strike or spot at contract construction
type InvalidParameterError struct {
	Field string
	Value float64
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid contract parameter: %s must be positive, got %v", e.Field, e.Value)
}

func (e *InvalidParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// UnrecognizedOptionTypeError reports a type argument that does not resolve to Call or Put
type UnrecognizedOptionTypeError struct {
	Input string
}

func (e *UnrecognizedOptionTypeError) Error() string {
	return fmt.Sprintf("unrecognized option type %q: expected CALL or PUT", e.Input)
}

func (e *UnrecognizedOptionTypeError) Is(target error) bool {
	return target == ErrUnrecognizedOptionType
}

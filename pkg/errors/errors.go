package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Upstream data-source errors

var (
	// ErrUpstreamStatus indicates a non-2xx response from an upstream API
	ErrUpstreamStatus = errors.New("upstream returned non-2xx status")

	// ErrUpstreamPayload indicates an upstream response body could not be decoded
	ErrUpstreamPayload = errors.New("upstream payload malformed")
)

// Analysis-specific errors

var (
	// ErrAnalysisBusy indicates an analysis request is already in flight
	ErrAnalysisBusy = errors.New("analysis already in flight")

	// ErrAnalyzerUnavailable indicates no analysis service is registered
	ErrAnalyzerUnavailable = errors.New("analysis service not available")

	// ErrGenerationFailed indicates the text-generation endpoint returned no usable output
	ErrGenerationFailed = errors.New("generation request failed")
)

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

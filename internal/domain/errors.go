package domain

import "errors"

// Error taxonomy shared by the analytics modules. Callers match with errors.Is;
// modules wrap these with context via fmt.Errorf("...: %w").
var (
	// ErrInputShape is returned for wrong arity or malformed input (unsorted
	// timestamps, non-positive values, mismatched dimensions). Never retried.
	ErrInputShape = errors.New("invalid input shape")

	// ErrEmptyRange is returned when a date window or degenerate series yields
	// no usable points.
	ErrEmptyRange = errors.New("no data available for the specified range")

	// ErrUnsupportedMethod is returned for an unknown VaR method.
	ErrUnsupportedMethod = errors.New("unsupported method")

	// ErrOptimizationFailure is returned when a solver does not converge within
	// its iteration budget. It is recoverable: retry from another start point
	// or fall back to equal weights.
	ErrOptimizationFailure = errors.New("optimization did not converge")
)

package graphs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrCancelled             = errors.New("cancelled")
	ErrInternalInconsistency = errors.New("internal inconsistency")
)

// Returned when a support threshold falls outside [0, 1]; carries the
// offending value and unwraps to ErrInvalidArgument.
type ThresholdError struct {
	Value float64
}

func (e *ThresholdError) Error() string {
	return fmt.Sprintf("expected support threshold in [0, 1], got %g", e.Value)
}

func (e *ThresholdError) Unwrap() error {
	return ErrInvalidArgument
}

// CheckThreshold rejects thresholds outside [0, 1] (NaN included).
func CheckThreshold(threshold float64) error {
	if !(threshold >= 0 && threshold <= 1) {
		return &ThresholdError{Value: threshold}
	}
	return nil
}

// Called after every merge or acceptance step. Returning false stops the
// build, which then fails with ErrCancelled.
type ProgressFunc func(step, total int) (keep bool)

// Report calls f if set; a nil ProgressFunc never cancels.
func (f ProgressFunc) Report(step, total int) bool {
	if f == nil {
		return true
	}
	return f(step, total)
}

// Cancelled wraps ErrCancelled with the step at which the build stopped.
func Cancelled(step, total int) error {
	return fmt.Errorf("%w at step %d of %d", ErrCancelled, step, total)
}

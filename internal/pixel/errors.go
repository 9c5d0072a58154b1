package pixel

import (
	"errors"
	"fmt"
)

// ConstructionError reports a frame or pattern that violates the length or
// duration invariants. It is the only hard failure the engine produces for
// pixel data; everything after construction clamps instead.
type ConstructionError struct {
	// Code identifies the error category.
	Code ConstructionErrorCode

	// Message is a human-readable description.
	Message string

	// Frame is the offending frame index, or -1 when not frame specific.
	Frame int
}

// ConstructionErrorCode categorizes construction failures.
type ConstructionErrorCode string

const (
	// ErrCodeInvalidDimensions indicates a non-positive width or height.
	ErrCodeInvalidDimensions ConstructionErrorCode = "INVALID_DIMENSIONS"

	// ErrCodePixelCountMismatch indicates len(pixels) != width*height.
	ErrCodePixelCountMismatch ConstructionErrorCode = "PIXEL_COUNT_MISMATCH"

	// ErrCodeInvalidDuration indicates a frame duration below 1ms.
	ErrCodeInvalidDuration ConstructionErrorCode = "INVALID_DURATION"
)

// Error implements the error interface.
func (e *ConstructionError) Error() string {
	if e.Frame >= 0 && e.Code != ErrCodeInvalidDimensions {
		return fmt.Sprintf("%s: %s (frame=%d)", e.Code, e.Message, e.Frame)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConstructionError reports whether err wraps a *ConstructionError.
func IsConstructionError(err error) bool {
	var ce *ConstructionError
	return errors.As(err, &ce)
}

// IsPixelCountMismatch reports whether err is a length-invariant violation.
func IsPixelCountMismatch(err error) bool {
	var ce *ConstructionError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodePixelCountMismatch
	}
	return false
}

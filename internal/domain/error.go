package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrGenerationAborted = errors.New("generation aborted by timeout")
	ErrRetriesExhausted  = errors.New("generation retries exhausted")
	ErrMalformedOutput   = errors.New("malformed generation output")
)

// FieldViolation names one structural problem in a generated itinerary,
// qualified by its JSON path (e.g. "[2].activities[0].location").
type FieldViolation struct {
	Path   string
	Reason string
}

func (v FieldViolation) String() string {
	return v.Path + ": " + v.Reason
}

// ValidationError aggregates every violation found in one pass so a failed
// job carries a single actionable message instead of the first mismatch.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "itinerary validation failed"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("itinerary validation failed: %s", strings.Join(parts, "; "))
}

func (e *ValidationError) Add(path, reason string) {
	e.Violations = append(e.Violations, FieldViolation{Path: path, Reason: reason})
}

package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a point of interest does not exist.
	ErrNotFound = errors.New("point of interest not found")
	// ErrInvalidID is returned for ids that are not UUIDs. It matches ErrNotFound.
	ErrInvalidID = fmt.Errorf("%w: malformed id", ErrNotFound)
	// ErrIDMismatch is returned when a body id differs from the path id.
	ErrIDMismatch = errors.New("id in body does not match id in path")
)

// ValidationError lists invalid fields and why they were rejected.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// NewValidationError builds a single-field ValidationError.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

package grid

import (
	"errors"
	"fmt"
)

// Domain errors for grid construction and access.
var (
	// ErrDimensionMismatch indicates a field array whose length does not match the grid dimensions.
	ErrDimensionMismatch = errors.New("grid: array size does not match grid dimensions")

	// ErrMissingUnit indicates a field without a unit attached.
	ErrMissingUnit = errors.New("grid: field has no unit")

	// ErrInvalidBBox indicates a bounding box with non-positive width.
	ErrInvalidBBox = errors.New("grid: invalid bounding box")

	// ErrInvalidDims indicates non-positive grid dimensions.
	ErrInvalidDims = errors.New("grid: invalid dimensions")

	// ErrUnknownField indicates a lookup of a field the grid does not carry.
	ErrUnknownField = errors.New("grid: unknown field")

	// ErrDuplicateField indicates two fields with the same name.
	ErrDuplicateField = errors.New("grid: duplicate field")

	// ErrInvalidAxis indicates an axis outside x, y, z.
	ErrInvalidAxis = errors.New("grid: invalid axis")
)

// FieldError wraps an error with the field it concerns.
type FieldError struct {
	Field   string
	Wrapped error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Wrapped)
}

func (e *FieldError) Unwrap() error {
	return e.Wrapped
}

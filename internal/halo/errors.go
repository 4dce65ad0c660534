package halo

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCellsInVicinity indicates no cell center lies within the search radius.
	ErrNoCellsInVicinity = errors.New("halo: no cells within search radius")

	// ErrNoFiniteDensity indicates every cell within the search radius holds
	// a NaN or infinite density.
	ErrNoFiniteDensity = errors.New("halo: no finite density within search radius")

	// ErrMissingField indicates the grid lacks a field the profile needs.
	ErrMissingField = errors.New("halo: required field missing")

	// ErrInvalidOptions indicates bins or radii that cannot form shells.
	ErrInvalidOptions = errors.New("halo: invalid profile options")

	// ErrEmptyProfile indicates no cell fell inside the outermost shell.
	ErrEmptyProfile = errors.New("halo: profile contains no cells")
)

// ComputeError wraps an error with the stage of the profile computation it
// came from.
type ComputeError struct {
	Stage   string
	Wrapped error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Wrapped)
}

func (e *ComputeError) Unwrap() error {
	return e.Wrapped
}

package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRange       = errors.New("pipeline: invalid index range")
	ErrSnapshotLoad       = errors.New("pipeline: snapshot load failed")
	ErrProfileComputation = errors.New("pipeline: profile computation failed")
	ErrWrite              = errors.New("pipeline: output write failed")
)

// IndexError reports the snapshot a failure belongs to.
type IndexError struct {
	Index int
	Path  string
	Err   error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("snapshot %d (%s): %v", e.Index, e.Path, e.Err)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}

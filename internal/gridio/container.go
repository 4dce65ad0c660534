// Package gridio reads uniform-grid datasets from structured containers.
//
// A container holds two groups: Info, with the domain metadata, and Data,
// with one array per field. The arrays are stored [z][y][x] and are
// transposed on read.
package gridio

import (
	"errors"
	"fmt"
	"strings"
)

// Info keys.
const (
	KeyGridDimension = "GridDimension"
	KeyTime          = "Time"
	KeySubdomainSize = "SubdomainSize"
	KeyLeftEdge      = "SubdomainLeftEdge"
	KeyUnitL         = "Unit_L"
	KeyUnitM         = "Unit_M"
	KeyUnitT         = "Unit_T"
)

var (
	ErrMissingKey   = errors.New("gridio: missing metadata key")
	ErrMissingField = errors.New("gridio: missing data field")
	ErrBadMetadata  = errors.New("gridio: malformed metadata")
)

// Container is a read-only view of the Info and Data groups.
type Container interface {
	Info(key string) ([]float64, error)
	Data(name string) ([]float64, error)
	Close() error
}

// Mem is an in-memory Container.
type Mem struct {
	InfoValues map[string][]float64
	DataValues map[string][]float64
}

func NewMem() *Mem {
	return &Mem{
		InfoValues: make(map[string][]float64),
		DataValues: make(map[string][]float64),
	}
}

func (m *Mem) Info(key string) ([]float64, error) {
	v, ok := m.InfoValues[key]
	if !ok {
		return nil, fmt.Errorf("%w: Info/%s", ErrMissingKey, key)
	}
	return v, nil
}

func (m *Mem) Data(name string) ([]float64, error) {
	v, ok := m.DataValues[name]
	if !ok {
		return nil, fmt.Errorf("%w: Data/%s", ErrMissingField, name)
	}
	return v, nil
}

func (m *Mem) Close() error { return nil }

func normalize(path string) string {
	return strings.Trim(path, "/")
}

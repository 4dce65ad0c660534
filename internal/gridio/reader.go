package gridio

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/halotools/internal/config"
	"github.com/san-kum/halotools/internal/grid"
	"github.com/san-kum/halotools/internal/units"
)

// Metadata is the content of the Info group.
type Metadata struct {
	Dims     [3]int
	Time     float64
	Size     [3]float64
	LeftEdge [3]float64
	Units    units.System
}

func ReadMetadata(c Container) (*Metadata, error) {
	var md Metadata

	dims, err := vector(c, KeyGridDimension)
	if err != nil {
		return nil, err
	}
	for d := 0; d < 3; d++ {
		if dims[d] != math.Trunc(dims[d]) || dims[d] < 1 {
			return nil, fmt.Errorf("%w: %s = %v", ErrBadMetadata, KeyGridDimension, dims)
		}
		md.Dims[d] = int(dims[d])
	}

	if md.Size, err = vector(c, KeySubdomainSize); err != nil {
		return nil, err
	}
	if md.LeftEdge, err = vector(c, KeyLeftEdge); err != nil {
		return nil, err
	}
	if md.Time, err = scalar(c, KeyTime); err != nil {
		return nil, err
	}
	if md.Units.Length, err = scalar(c, KeyUnitL); err != nil {
		return nil, err
	}
	if md.Units.Mass, err = scalar(c, KeyUnitM); err != nil {
		return nil, err
	}
	if md.Units.Time, err = scalar(c, KeyUnitT); err != nil {
		return nil, err
	}
	return &md, nil
}

func vector(c Container, key string) ([3]float64, error) {
	var out [3]float64
	v, err := c.Info(key)
	if err != nil {
		return out, err
	}
	if len(v) != 3 {
		return out, fmt.Errorf("%w: %s has %d components, want 3", ErrBadMetadata, key, len(v))
	}
	copy(out[:], v)
	return out, nil
}

func scalar(c Container, key string) (float64, error) {
	v, err := c.Info(key)
	if err != nil {
		return 0, err
	}
	if len(v) != 1 {
		return 0, fmt.Errorf("%w: %s has %d values, want 1", ErrBadMetadata, key, len(v))
	}
	return v[0], nil
}

// ReadField reads one Data array and transposes it into the grid layout.
func ReadField(c Container, name string, dims [3]int) ([]float64, error) {
	raw, err := c.Data(name)
	if err != nil {
		return nil, err
	}
	data, err := grid.Transpose(raw, [3]int{dims[2], dims[1], dims[0]})
	if err != nil {
		return nil, &grid.FieldError{Field: name, Wrapped: err}
	}
	return data, nil
}

// ReadUniformGrid builds a non-periodic uniform grid from the requested
// fields of c.
func ReadUniformGrid(c Container, fields []config.FieldSpec) (*grid.UniformGrid, error) {
	md, err := ReadMetadata(c)
	if err != nil {
		return nil, err
	}

	data := make([]grid.FieldData, 0, len(fields))
	for _, fs := range fields {
		v, err := ReadField(c, fs.Name, md.Dims)
		if err != nil {
			return nil, err
		}
		data = append(data, grid.FieldData{Name: fs.Name, Unit: fs.Unit, Data: v})
	}

	return grid.New(data, md.options())
}

func (md *Metadata) options() grid.Options {
	return grid.Options{
		Dims:     md.Dims,
		BBox:     grid.BBoxFromEdges(md.LeftEdge, md.Size),
		Units:    md.Units,
		Time:     md.Time,
		Periodic: [3]bool{false, false, false},
	}
}

// Canonical field names of a loaded snapshot.
const (
	FieldDensity   = "Dens"
	FieldVelocityX = "VelX"
	FieldVelocityY = "VelY"
	FieldVelocityZ = "VelZ"
)

// VelocityFields lists the canonical velocity names in axis order.
var VelocityFields = [3]string{FieldVelocityX, FieldVelocityY, FieldVelocityZ}

// SnapshotLoader loads a snapshot as a grid with a density field and three
// velocity fields. Velocities are read directly or derived from momentum
// densities.
type SnapshotLoader struct {
	Open           func(path string) (Container, error)
	DensityField   string
	VelocityFields [3]string
	MomentumFields [3]string
	Logger         *zap.Logger
}

func NewSnapshotLoader(cfg *config.ProfileConfig, logger *zap.Logger) *SnapshotLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotLoader{
		Open:           OpenHDF5,
		DensityField:   cfg.DensityField,
		VelocityFields: cfg.VelocityFields,
		MomentumFields: cfg.MomentumFields,
		Logger:         logger,
	}
}

func (l *SnapshotLoader) Load(ctx context.Context, path string) (*grid.UniformGrid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := l.Open(path)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	md, err := ReadMetadata(c)
	if err != nil {
		return nil, err
	}

	rho, err := ReadField(c, l.DensityField, md.Dims)
	if err != nil {
		return nil, err
	}

	vel, err := l.velocities(c, md.Dims, rho)
	if err != nil {
		return nil, err
	}

	l.Logger.Debug("snapshot loaded",
		zap.String("path", path),
		zap.Ints("dims", md.Dims[:]),
		zap.Float64("time", md.Time))

	data := []grid.FieldData{{Name: FieldDensity, Unit: "code_density", Data: rho}}
	for d := 0; d < 3; d++ {
		data = append(data, grid.FieldData{Name: VelocityFields[d], Unit: "code_velocity", Data: vel[d]})
	}
	return grid.New(data, md.options())
}

func (l *SnapshotLoader) velocities(c Container, dims [3]int, rho []float64) ([3][]float64, error) {
	var vel [3][]float64

	err := readAll(c, l.VelocityFields, dims, &vel)
	if err == nil {
		return vel, nil
	}
	if !errors.Is(err, ErrMissingField) {
		return vel, err
	}

	var mom [3][]float64
	if merr := readAll(c, l.MomentumFields, dims, &mom); merr != nil {
		return vel, fmt.Errorf("no velocity (%v) or momentum fields: %w", err, merr)
	}
	l.Logger.Debug("deriving velocity from momentum density")
	for d := 0; d < 3; d++ {
		vel[d] = make([]float64, len(rho))
		for i, m := range mom[d] {
			if rho[i] != 0 {
				vel[d][i] = m / rho[i]
			}
		}
	}
	return vel, nil
}

func readAll(c Container, names [3]string, dims [3]int, out *[3][]float64) error {
	for d, name := range names {
		if name == "" {
			return fmt.Errorf("%w: component %d has no name", ErrMissingField, d)
		}
		v, err := ReadField(c, name, dims)
		if err != nil {
			return err
		}
		out[d] = v
	}
	return nil
}

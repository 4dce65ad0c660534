package grid

import (
	"fmt"

	"github.com/san-kum/halotools/internal/units"
)

// FieldData is one raw field handed to New: a flat array and its unit
// expression.
type FieldData struct {
	Name string
	Unit string
	Data []float64
}

// Field is a validated field attached to a grid.
type Field struct {
	Name string
	Unit units.Unit
	Data []float64
}

// Options carries the domain metadata of a uniform grid.
type Options struct {
	Dims     [3]int
	BBox     [3][2]float64
	Units    units.System
	Time     float64
	Periodic [3]bool
}

type UniformGrid struct {
	Dims     [3]int
	BBox     [3][2]float64
	Units    units.System
	Time     float64
	Periodic [3]bool

	fields []*Field
	byName map[string]*Field
}

// BBoxFromEdges returns the bounding box [left, left+size] on every axis.
func BBoxFromEdges(leftEdge, size [3]float64) [3][2]float64 {
	var bbox [3][2]float64
	for d := 0; d < 3; d++ {
		bbox[d] = [2]float64{leftEdge[d], leftEdge[d] + size[d]}
	}
	return bbox
}

// New validates the fields against opts and assembles a grid. Field data is
// used in place, not copied.
func New(data []FieldData, opts Options) (*UniformGrid, error) {
	n := 1
	for d := 0; d < 3; d++ {
		if opts.Dims[d] <= 0 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDims, opts.Dims)
		}
		n *= opts.Dims[d]
		if !(opts.BBox[d][1] > opts.BBox[d][0]) {
			return nil, fmt.Errorf("%w: axis %d spans [%g, %g]", ErrInvalidBBox, d, opts.BBox[d][0], opts.BBox[d][1])
		}
	}

	g := &UniformGrid{
		Dims:     opts.Dims,
		BBox:     opts.BBox,
		Units:    opts.Units,
		Time:     opts.Time,
		Periodic: opts.Periodic,
		fields:   make([]*Field, 0, len(data)),
		byName:   make(map[string]*Field, len(data)),
	}

	for _, fd := range data {
		if _, dup := g.byName[fd.Name]; dup {
			return nil, &FieldError{Field: fd.Name, Wrapped: ErrDuplicateField}
		}
		if fd.Unit == "" {
			return nil, &FieldError{Field: fd.Name, Wrapped: ErrMissingUnit}
		}
		u, err := units.Parse(fd.Unit)
		if err != nil {
			return nil, &FieldError{Field: fd.Name, Wrapped: err}
		}
		if len(fd.Data) != n {
			return nil, &FieldError{
				Field:   fd.Name,
				Wrapped: fmt.Errorf("%w: %d values for %dx%dx%d cells", ErrDimensionMismatch, len(fd.Data), opts.Dims[0], opts.Dims[1], opts.Dims[2]),
			}
		}

		f := &Field{Name: fd.Name, Unit: u, Data: fd.Data}
		g.fields = append(g.fields, f)
		g.byName[f.Name] = f
	}

	return g, nil
}

// Field returns the named field.
func (g *UniformGrid) Field(name string) (*Field, error) {
	f, ok := g.byName[name]
	if !ok {
		return nil, &FieldError{Field: name, Wrapped: ErrUnknownField}
	}
	return f, nil
}

// Fields returns the fields in the order they were given to New.
func (g *UniformGrid) Fields() []*Field {
	out := make([]*Field, len(g.fields))
	copy(out, g.fields)
	return out
}

func (g *UniformGrid) FieldNames() []string {
	names := make([]string, len(g.fields))
	for i, f := range g.fields {
		names[i] = f.Name
	}
	return names
}

func (g *UniformGrid) NumCells() int {
	return g.Dims[0] * g.Dims[1] * g.Dims[2]
}

// Index maps cell (i, j, k) to its offset in field data.
func (g *UniformGrid) Index(i, j, k int) int {
	return (i*g.Dims[1]+j)*g.Dims[2] + k
}

func (g *UniformGrid) Width() [3]float64 {
	var w [3]float64
	for d := 0; d < 3; d++ {
		w[d] = g.BBox[d][1] - g.BBox[d][0]
	}
	return w
}

func (g *UniformGrid) CellWidth() [3]float64 {
	w := g.Width()
	for d := 0; d < 3; d++ {
		w[d] /= float64(g.Dims[d])
	}
	return w
}

func (g *UniformGrid) CellVolume() float64 {
	cw := g.CellWidth()
	return cw[0] * cw[1] * cw[2]
}

func (g *UniformGrid) CellCenter(i, j, k int) [3]float64 {
	cw := g.CellWidth()
	return [3]float64{
		g.BBox[0][0] + (float64(i)+0.5)*cw[0],
		g.BBox[1][0] + (float64(j)+0.5)*cw[1],
		g.BBox[2][0] + (float64(k)+0.5)*cw[2],
	}
}

// Center returns the center of the domain.
func (g *UniformGrid) Center() [3]float64 {
	var c [3]float64
	for d := 0; d < 3; d++ {
		c[d] = 0.5 * (g.BBox[d][0] + g.BBox[d][1])
	}
	return c
}

func (g *UniformGrid) Contains(p [3]float64) bool {
	for d := 0; d < 3; d++ {
		if p[d] < g.BBox[d][0] || p[d] > g.BBox[d][1] {
			return false
		}
	}
	return true
}

// CellOf returns the indices of the cell containing p. Points on the upper
// boundary belong to the last cell.
func (g *UniformGrid) CellOf(p [3]float64) ([3]int, bool) {
	var idx [3]int
	if !g.Contains(p) {
		return idx, false
	}
	cw := g.CellWidth()
	for d := 0; d < 3; d++ {
		idx[d] = clamp(int((p[d]-g.BBox[d][0])/cw[d]), 0, g.Dims[d]-1)
	}
	return idx, true
}

// Transpose reverses the axis order of a C-order 3-D array of the given
// shape: element [a][b][c] moves to [c][b][a].
func Transpose(data []float64, shape [3]int) ([]float64, error) {
	n := shape[0] * shape[1] * shape[2]
	if len(data) != n {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrDimensionMismatch, len(data), shape)
	}

	out := make([]float64, n)
	s0, s1, s2 := shape[0], shape[1], shape[2]
	for a := 0; a < s0; a++ {
		for b := 0; b < s1; b++ {
			for c := 0; c < s2; c++ {
				out[(c*s1+b)*s0+a] = data[(a*s1+b)*s2+c]
			}
		}
	}
	return out, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

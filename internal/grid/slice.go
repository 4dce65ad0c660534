package grid

import (
	"fmt"
	"math"
	"strings"
)

type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// ParseAxis accepts x, y, z or 0, 1, 2.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x", "0":
		return AxisX, nil
	case "y", "1":
		return AxisY, nil
	case "z", "2":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAxis, s)
}

// planeAxes returns the two in-plane axes for a slice normal to a, in the
// order they appear on an image (horizontal, vertical).
func planeAxes(a Axis) (Axis, Axis) {
	switch a {
	case AxisX:
		return AxisY, AxisZ
	case AxisY:
		return AxisZ, AxisX
	}
	return AxisX, AxisY
}

// Plane is a 2-D cut through one field. It satisfies the gonum/plot GridXYZ
// interface.
type Plane struct {
	Field      string
	Normal     Axis
	Coord      float64
	HAxis      Axis
	VAxis      Axis
	cols, rows int
	x, y       []float64
	z          []float64
}

func (p *Plane) Dims() (c, r int) { return p.cols, p.rows }
func (p *Plane) Z(c, r int) float64 { return p.z[r*p.cols+c] }
func (p *Plane) X(c int) float64 { return p.x[c] }
func (p *Plane) Y(r int) float64 { return p.y[r] }

// Range returns the smallest and largest finite values in the plane.
func (p *Plane) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range p.z {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// Map returns a copy of the plane with fn applied to every value.
func (p *Plane) Map(fn func(float64) float64) *Plane {
	out := *p
	out.z = make([]float64, len(p.z))
	for i, v := range p.z {
		out.z[i] = fn(v)
	}
	return &out
}

// Slice cuts the named field with the plane normal to axis through coord,
// taking the nearest cell layer.
func (g *UniformGrid) Slice(field string, axis Axis, coord float64) (*Plane, error) {
	if axis < AxisX || axis > AxisZ {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAxis, int(axis))
	}
	f, err := g.Field(field)
	if err != nil {
		return nil, err
	}
	n := int(axis)
	if coord < g.BBox[n][0] || coord > g.BBox[n][1] {
		return nil, fmt.Errorf("grid: slice coordinate %g outside [%g, %g]", coord, g.BBox[n][0], g.BBox[n][1])
	}

	cw := g.CellWidth()
	layer := clamp(int((coord-g.BBox[n][0])/cw[n]), 0, g.Dims[n]-1)

	h, v := planeAxes(axis)
	p := &Plane{
		Field:  field,
		Normal: axis,
		Coord:  coord,
		HAxis:  h,
		VAxis:  v,
		cols:   g.Dims[h],
		rows:   g.Dims[v],
	}
	p.x = make([]float64, p.cols)
	for c := range p.x {
		p.x[c] = g.BBox[h][0] + (float64(c)+0.5)*cw[h]
	}
	p.y = make([]float64, p.rows)
	for r := range p.y {
		p.y[r] = g.BBox[v][0] + (float64(r)+0.5)*cw[v]
	}

	p.z = make([]float64, p.cols*p.rows)
	var idx [3]int
	idx[n] = layer
	for r := 0; r < p.rows; r++ {
		for c := 0; c < p.cols; c++ {
			idx[h], idx[v] = c, r
			p.z[r*p.cols+c] = f.Data[g.Index(idx[0], idx[1], idx[2])]
		}
	}
	return p, nil
}

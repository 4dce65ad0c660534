package grid

import "math"

// Bounds is a cell-aligned bounding box: Span[d] cells starting at Origin[d].
type Bounds struct {
	Origin, Span [3]int
}

// Empty reports whether the bounds cover no cells.
func (b Bounds) Empty() bool {
	return b.Span[0] <= 0 || b.Span[1] <= 0 || b.Span[2] <= 0
}

func (b Bounds) Cells() int {
	if b.Empty() {
		return 0
	}
	return b.Span[0] * b.Span[1] * b.Span[2]
}

// Each calls fn for every cell inside the bounds, x slowest.
func (b Bounds) Each(fn func(i, j, k int)) {
	if b.Empty() {
		return
	}
	for i := b.Origin[0]; i < b.Origin[0]+b.Span[0]; i++ {
		for j := b.Origin[1]; j < b.Origin[1]+b.Span[1]; j++ {
			for k := b.Origin[2]; k < b.Origin[2]+b.Span[2]; k++ {
				fn(i, j, k)
			}
		}
	}
}

// SphereBounds returns the cell-aligned box around a sphere of radius r at
// pos, clipped to the grid. The domain is not wrapped.
func (g *UniformGrid) SphereBounds(pos [3]float64, r float64) Bounds {
	var b Bounds
	cw := g.CellWidth()
	for d := 0; d < 3; d++ {
		lo := int(math.Floor((pos[d] - r - g.BBox[d][0]) / cw[d]))
		hi := int(math.Floor((pos[d] + r - g.BBox[d][0]) / cw[d]))
		lo = max(lo, 0)
		hi = min(hi, g.Dims[d]-1)
		b.Origin[d] = lo
		b.Span[d] = hi - lo + 1
	}
	return b
}

// All returns bounds covering the whole grid.
func (g *UniformGrid) All() Bounds {
	return Bounds{Span: g.Dims}
}

// Distance2 returns the squared distance between a and b.
func Distance2(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dx*dx + dy*dy + dz*dz
}

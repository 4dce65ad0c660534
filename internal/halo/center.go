package halo

import (
	"math"

	"github.com/san-kum/halotools/internal/grid"
)

// Peak is the refined halo center.
type Peak struct {
	Guess    [3]float64
	Center   [3]float64
	Cell     [3]int
	Density  float64
	Vicinity float64
	Scanned  int
}

// Offset returns the distance between the first guess and the refined center.
func (p Peak) Offset() float64 {
	return math.Sqrt(grid.Distance2(p.Guess, p.Center))
}

// FindCenter returns the center of the densest cell whose center lies within
// vicinity of guess. Ties keep the first cell in x-slowest order. Non-finite
// densities are skipped and do not count as scanned.
func FindCenter(g *grid.UniformGrid, densityField string, guess [3]float64, vicinity float64) (Peak, error) {
	peak := Peak{Guess: guess, Vicinity: vicinity, Density: math.Inf(-1)}
	if vicinity <= 0 {
		return peak, &ComputeError{Stage: "center", Wrapped: ErrInvalidOptions}
	}
	rho, err := g.Field(densityField)
	if err != nil {
		return peak, &ComputeError{Stage: "center", Wrapped: errJoinField(densityField, err)}
	}

	r2 := vicinity * vicinity
	skipped := 0
	g.SphereBounds(guess, vicinity).Each(func(i, j, k int) {
		c := g.CellCenter(i, j, k)
		if grid.Distance2(c, guess) > r2 {
			return
		}
		v := rho.Data[g.Index(i, j, k)]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			skipped++
			return
		}
		peak.Scanned++
		if v > peak.Density {
			peak.Density = v
			peak.Center = c
			peak.Cell = [3]int{i, j, k}
		}
	})

	if peak.Scanned == 0 && skipped > 0 {
		return peak, &ComputeError{Stage: "center", Wrapped: ErrNoFiniteDensity}
	}
	if peak.Scanned == 0 {
		return peak, &ComputeError{Stage: "center", Wrapped: ErrNoCellsInVicinity}
	}
	return peak, nil
}

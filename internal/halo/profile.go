package halo

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/halotools/internal/grid"
	"github.com/san-kum/halotools/internal/units"
)

// Fields names the grid fields a profile reads.
type Fields struct {
	Density  string
	Velocity [3]string
}

func DefaultFields() Fields {
	return Fields{Density: "Dens", Velocity: [3]string{"VelX", "VelY", "VelZ"}}
}

// Options controls shell layout and derived quantities. Zero values select
// defaults: MinRadius is one cell width, MaxRadius half the narrowest domain
// width, RestFrameRadius MaxRadius, Overdensity 200 and G the gravitational
// constant in the grid's code units.
type Options struct {
	Bins            int
	MinRadius       float64
	MaxRadius       float64
	RestFrameRadius float64
	Overdensity     float64
	G               float64
}

const defaultOverdensity = 200.0

// Profile holds radial profiles around a fixed center. Shell i spans
// [Edges[i], Edges[i+1]), except shell 0 which starts at r = 0.
type Profile struct {
	Center [3]float64
	Time   float64
	Edges  []float64

	Radius    []float64 // geometric shell center
	Count     []int
	ShellMass []float64
	Density   []float64
	Mass      []float64 // enclosed within Edges[i+1]
	VCirc     []float64 // at Edges[i+1]
	Sigma     []float64 // 1-D dispersion in the halo rest frame
	SigmaAxis [3][]float64

	BulkVelocity      [3]float64
	BackgroundDensity float64
	Overdensity       float64
	G                 float64
}

// Bins returns the number of shells.
func (p *Profile) Bins() int { return len(p.Radius) }

// OuterRadius returns the outer edge of shell i.
func (p *Profile) OuterRadius(i int) float64 { return p.Edges[i+1] }

type sample struct {
	r    float64
	bin  int
	mass float64
	v    [3]float64
}

func errJoinField(name string, err error) error {
	return fmt.Errorf("%w: %s (%v)", ErrMissingField, name, err)
}

func (o *Options) resolve(g *grid.UniformGrid) error {
	if o.Bins < 1 {
		return fmt.Errorf("%w: bins = %d", ErrInvalidOptions, o.Bins)
	}
	cw := g.CellWidth()
	w := g.Width()
	if o.MinRadius == 0 {
		o.MinRadius = floats.Min(cw[:])
	}
	if o.MaxRadius == 0 {
		o.MaxRadius = 0.5 * floats.Min(w[:])
	}
	if o.MinRadius <= 0 || o.MaxRadius <= o.MinRadius {
		return fmt.Errorf("%w: radii [%g, %g]", ErrInvalidOptions, o.MinRadius, o.MaxRadius)
	}
	if o.RestFrameRadius == 0 {
		o.RestFrameRadius = o.MaxRadius
	}
	if o.Overdensity == 0 {
		o.Overdensity = defaultOverdensity
	}
	if o.G == 0 {
		o.G = units.NewtonG(g.Units)
	}
	return nil
}

// Compute bins every cell within opts.MaxRadius of center into logarithmic
// shells. The domain is treated as non-periodic.
func Compute(g *grid.UniformGrid, fields Fields, center [3]float64, opts Options) (*Profile, error) {
	if err := opts.resolve(g); err != nil {
		return nil, &ComputeError{Stage: "options", Wrapped: err}
	}

	rho, err := g.Field(fields.Density)
	if err != nil {
		return nil, &ComputeError{Stage: "fields", Wrapped: errJoinField(fields.Density, err)}
	}
	var vel [3]*grid.Field
	for d, name := range fields.Velocity {
		if vel[d], err = g.Field(name); err != nil {
			return nil, &ComputeError{Stage: "fields", Wrapped: errJoinField(name, err)}
		}
	}

	bins := opts.Bins
	p := &Profile{
		Center:      center,
		Time:        g.Time,
		Edges:       floats.LogSpan(make([]float64, bins+1), opts.MinRadius, opts.MaxRadius),
		Radius:      make([]float64, bins),
		Count:       make([]int, bins),
		ShellMass:   make([]float64, bins),
		Density:     make([]float64, bins),
		Mass:        make([]float64, bins),
		VCirc:       make([]float64, bins),
		Sigma:       make([]float64, bins),
		Overdensity: opts.Overdensity,
		G:           opts.G,
	}
	p.Edges[0], p.Edges[bins] = opts.MinRadius, opts.MaxRadius
	for d := 0; d < 3; d++ {
		p.SigmaAxis[d] = make([]float64, bins)
	}
	p.BackgroundDensity = floats.Sum(rho.Data) / float64(len(rho.Data))

	samples := p.collect(g, rho, vel, opts.MaxRadius)
	if len(samples) == 0 {
		return nil, &ComputeError{Stage: "binning", Wrapped: ErrEmptyProfile}
	}

	p.BulkVelocity = bulkVelocity(samples, opts.RestFrameRadius)
	p.accumulate(samples)
	return p, nil
}

func (p *Profile) collect(g *grid.UniformGrid, rho *grid.Field, vel [3]*grid.Field, rMax float64) []sample {
	cellVol := g.CellVolume()
	r2Max := rMax * rMax
	var samples []sample

	g.SphereBounds(p.Center, rMax).Each(func(i, j, k int) {
		d2 := grid.Distance2(g.CellCenter(i, j, k), p.Center)
		if d2 > r2Max {
			return
		}
		idx := g.Index(i, j, k)
		s := sample{
			r:    math.Sqrt(d2),
			mass: rho.Data[idx] * cellVol,
			v:    [3]float64{vel[0].Data[idx], vel[1].Data[idx], vel[2].Data[idx]},
		}
		s.bin = p.binOf(s.r)
		samples = append(samples, s)
	})
	return samples
}

// binOf returns the shell containing r. Radii below Edges[1] land in shell
// 0 and r == Edges[last] in the last shell.
func (p *Profile) binOf(r float64) int {
	i := sort.SearchFloat64s(p.Edges, r)
	if i < len(p.Edges) && p.Edges[i] == r {
		i++
	}
	return min(max(i-1, 0), len(p.Radius)-1)
}

func bulkVelocity(samples []sample, radius float64) [3]float64 {
	var bulk [3]float64
	var w []float64
	var v [3][]float64
	for _, s := range samples {
		if s.r > radius || s.mass <= 0 {
			continue
		}
		w = append(w, s.mass)
		for d := 0; d < 3; d++ {
			v[d] = append(v[d], s.v[d])
		}
	}
	if len(w) == 0 {
		return bulk
	}
	for d := 0; d < 3; d++ {
		bulk[d] = stat.Mean(v[d], w)
	}
	return bulk
}

func (p *Profile) accumulate(samples []sample) {
	bins := len(p.Radius)
	weights := make([][]float64, bins)
	dev2 := make([][3][]float64, bins)

	for _, s := range samples {
		p.Count[s.bin]++
		p.ShellMass[s.bin] += s.mass
		if s.mass <= 0 {
			continue
		}
		weights[s.bin] = append(weights[s.bin], s.mass)
		for d := 0; d < 3; d++ {
			dv := s.v[d] - p.BulkVelocity[d]
			dev2[s.bin][d] = append(dev2[s.bin][d], dv*dv)
		}
	}

	enclosed := 0.0
	for i := 0; i < bins; i++ {
		inner, outer := p.Edges[i], p.Edges[i+1]
		if i == 0 {
			inner = 0
		}
		p.Radius[i] = math.Sqrt(p.Edges[i] * outer)
		p.Density[i] = p.ShellMass[i] / sphereVolume(inner, outer)

		enclosed += p.ShellMass[i]
		p.Mass[i] = enclosed
		p.VCirc[i] = math.Sqrt(math.Max(p.G*enclosed/outer, 0))

		if len(weights[i]) == 0 {
			continue
		}
		sum := 0.0
		for d := 0; d < 3; d++ {
			v2 := stat.Mean(dev2[i][d], weights[i])
			p.SigmaAxis[d][i] = math.Sqrt(v2)
			sum += v2
		}
		p.Sigma[i] = math.Sqrt(sum / 3)
	}
}

func sphereVolume(inner, outer float64) float64 {
	return 4.0 / 3.0 * math.Pi * (outer*outer*outer - inner*inner*inner)
}

// MeanEnclosedDensity returns M(<r) / (4/3 pi r^3) at the outer edge of shell i.
func (p *Profile) MeanEnclosedDensity(i int) float64 {
	return p.Mass[i] / sphereVolume(0, p.OuterRadius(i))
}

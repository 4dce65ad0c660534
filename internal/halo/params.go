package halo

import "math"

// Params summarizes one halo. Rvir is the radius where the mean enclosed
// density falls to Overdensity times the background density; HasVirial is
// false when the profile never reaches that threshold.
type Params struct {
	Index             int        `json:"index"`
	Time              float64    `json:"time"`
	Center            [3]float64 `json:"center"`
	CenterOffset      float64    `json:"center_offset"`
	PeakDensity       float64    `json:"peak_density"`
	BulkVelocity      [3]float64 `json:"bulk_velocity"`
	BackgroundDensity float64    `json:"background_density"`
	Overdensity       float64    `json:"overdensity"`
	HasVirial         bool       `json:"has_virial"`
	Rvir              float64    `json:"rvir"`
	Mvir              float64    `json:"mvir"`
	VCircMax          float64    `json:"vcirc_max"`
	RVCircMax         float64    `json:"r_vcirc_max"`
}

// Params derives the halo summary of p for snapshot index.
func (p *Profile) Params(index int, peak Peak) Params {
	hp := Params{
		Index:             index,
		Time:              p.Time,
		Center:            p.Center,
		CenterOffset:      peak.Offset(),
		PeakDensity:       peak.Density,
		BulkVelocity:      p.BulkVelocity,
		BackgroundDensity: p.BackgroundDensity,
		Overdensity:       p.Overdensity,
	}

	for i, v := range p.VCirc {
		if v > hp.VCircMax {
			hp.VCircMax = v
			hp.RVCircMax = p.OuterRadius(i)
		}
	}

	hp.Rvir, hp.HasVirial = p.VirialRadius()
	if hp.HasVirial {
		hp.Mvir = p.Overdensity * p.BackgroundDensity * sphereVolume(0, hp.Rvir)
	}
	return hp
}

// VirialRadius finds where the mean enclosed density crosses Overdensity
// times the background density, interpolating linearly in log-log space
// between shell edges. A profile already below the threshold in its first
// shell has no virial radius.
func (p *Profile) VirialRadius() (float64, bool) {
	target := p.Overdensity * p.BackgroundDensity
	if !(target > 0) {
		return 0, false
	}

	prevR, prevRho := 0.0, math.Inf(1)
	for i := range p.Mass {
		r, rho := p.OuterRadius(i), p.MeanEnclosedDensity(i)
		if rho < target {
			if i == 0 {
				return 0, false
			}
			if !(rho > 0) {
				return r, true
			}
			x0, x1 := math.Log(prevR), math.Log(r)
			y0, y1 := math.Log(prevRho), math.Log(rho)
			t := (math.Log(target) - y0) / (y1 - y0)
			return math.Exp(x0 + t*(x1-x0)), true
		}
		prevR, prevRho = r, rho
	}
	return 0, false
}

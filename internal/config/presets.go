package config

import "sort"

var Presets = map[string]*ProfileConfig{
	// Target halo of the low resolution LSS zoom-in IC at z=0.
	"lss_zoomin_lowres": {
		CenterGuess: [3]float64{0.295, 9.522, 8.27},
		Vicinity:    0.3,
		Bins:        32,
		Overdensity: 200,
	},
	// Same halo in the high resolution re-simulation; the peak is sharper so
	// a smaller search radius is enough.
	"lss_zoomin_highres": {
		CenterGuess: [3]float64{0.295, 9.522, 8.27},
		Vicinity:    0.1,
		Bins:        48,
		Overdensity: 200,
	},
	// Isolated halo placed at the center of a unit box.
	"isolated": {
		CenterGuess: [3]float64{0.5, 0.5, 0.5},
		Vicinity:    0.05,
		Bins:        32,
		Overdensity: 200,
	},
}

func GetPreset(name string) *ProfileConfig {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply copies the preset's halo parameters onto cfg.
func (p *ProfileConfig) Apply(cfg *ProfileConfig) {
	cfg.CenterGuess = p.CenterGuess
	if p.Vicinity > 0 {
		cfg.Vicinity = p.Vicinity
	}
	if p.Bins > 0 {
		cfg.Bins = p.Bins
	}
	if p.Overdensity > 0 {
		cfg.Overdensity = p.Overdensity
	}
}

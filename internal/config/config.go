package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/halotools/internal/units"
)

const (
	DefaultDataDir       = ".."
	DefaultOutputDir     = "."
	DefaultVicinity      = 0.3
	DefaultAxis          = 0
	DefaultBins          = 32
	DefaultOverdensity   = 200.0
	DefaultJobs          = 1
	DefaultDensityField  = "Dens"
	DefaultDensityUnit   = "code_mass/code_length**3"
	DefaultSliceAxis     = "z"
	DefaultSliceCenter   = "c"
	DefaultImageSizeInch = 6.0
)

// DefaultCenterGuess is the first guess, in cMpc/h, for the target halo of
// the low resolution zoom-in IC at z=0.
var DefaultCenterGuess = [3]float64{0.295, 9.522, 8.27}

var (
	ErrInvalidConfig     = errors.New("config: invalid configuration")
	ErrFieldUnitMismatch = errors.New("config: fields and units differ in length")
)

// ProfileConfig drives compute-profiles.
type ProfileConfig struct {
	DataDir         string     `yaml:"data_dir"`
	OutputDir       string     `yaml:"output_dir"`
	CenterGuess     [3]float64 `yaml:"center_guess"`
	Vicinity        float64    `yaml:"vicinity"`
	Axis            int        `yaml:"axis"`
	Bins            int        `yaml:"bins"`
	MinRadius       float64    `yaml:"min_radius"`
	MaxRadius       float64    `yaml:"max_radius"`
	RestFrameRadius float64    `yaml:"rest_frame_radius"`
	Overdensity     float64    `yaml:"overdensity"`
	Jobs            int        `yaml:"jobs"`
	DensityField    string     `yaml:"density_field"`
	VelocityFields  [3]string  `yaml:"velocity_fields"`
	MomentumFields  [3]string  `yaml:"momentum_fields"`
}

// FieldSpec pairs a field name with the unit its values carry.
type FieldSpec struct {
	Name string `yaml:"name"`
	Unit string `yaml:"unit"`
}

func (f FieldSpec) String() string { return f.Name + ":" + f.Unit }

// SliceConfig drives uniform-slice.
type SliceConfig struct {
	Input     string      `yaml:"input"`
	Fields    []FieldSpec `yaml:"fields"`
	Axis      string      `yaml:"axis"`
	Center    string      `yaml:"center"`
	OutputDir string      `yaml:"output_dir"`
	LogScale  bool        `yaml:"log_scale"`
	WidthIn   float64     `yaml:"width_in"`
	HeightIn  float64     `yaml:"height_in"`
}

func DefaultProfileConfig() *ProfileConfig {
	return &ProfileConfig{
		DataDir:        DefaultDataDir,
		OutputDir:      DefaultOutputDir,
		CenterGuess:    DefaultCenterGuess,
		Vicinity:       DefaultVicinity,
		Axis:           DefaultAxis,
		Bins:           DefaultBins,
		Overdensity:    DefaultOverdensity,
		Jobs:           DefaultJobs,
		DensityField:   DefaultDensityField,
		VelocityFields: [3]string{"VelX", "VelY", "VelZ"},
		MomentumFields: [3]string{"MomX", "MomY", "MomZ"},
	}
}

func DefaultSliceConfig() *SliceConfig {
	return &SliceConfig{
		Fields:    []FieldSpec{{Name: DefaultDensityField, Unit: DefaultDensityUnit}},
		Axis:      DefaultSliceAxis,
		Center:    DefaultSliceCenter,
		OutputDir: DefaultOutputDir,
		LogScale:  true,
		WidthIn:   DefaultImageSizeInch,
		HeightIn:  DefaultImageSizeInch,
	}
}

func LoadProfile(path string) (*ProfileConfig, error) {
	cfg := DefaultProfileConfig()
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadSlice(path string) (*SliceConfig, error) {
	cfg := DefaultSliceConfig()
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(path string, into any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, into); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg any) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *ProfileConfig) Validate() error {
	switch {
	case c.Vicinity <= 0:
		return fmt.Errorf("%w: vicinity must be positive, got %g", ErrInvalidConfig, c.Vicinity)
	case c.Bins < 2:
		return fmt.Errorf("%w: need at least 2 bins, got %d", ErrInvalidConfig, c.Bins)
	case c.Axis < 0 || c.Axis > 2:
		return fmt.Errorf("%w: axis must be 0, 1 or 2, got %d", ErrInvalidConfig, c.Axis)
	case c.MinRadius < 0 || c.MaxRadius < 0 || c.RestFrameRadius < 0:
		return fmt.Errorf("%w: radii must not be negative", ErrInvalidConfig)
	case c.MaxRadius > 0 && c.MinRadius >= c.MaxRadius:
		return fmt.Errorf("%w: min_radius %g >= max_radius %g", ErrInvalidConfig, c.MinRadius, c.MaxRadius)
	case c.Overdensity <= 0:
		return fmt.Errorf("%w: overdensity must be positive, got %g", ErrInvalidConfig, c.Overdensity)
	case c.Jobs < 1:
		return fmt.Errorf("%w: jobs must be at least 1, got %d", ErrInvalidConfig, c.Jobs)
	case c.DensityField == "":
		return fmt.Errorf("%w: density_field is empty", ErrInvalidConfig)
	}
	return nil
}

func (c *SliceConfig) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("%w: no input file", ErrInvalidConfig)
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("%w: no fields requested", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: field with empty name", ErrInvalidConfig)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: field %s requested twice", ErrInvalidConfig, f.Name)
		}
		seen[f.Name] = true
		if _, err := units.Parse(f.Unit); err != nil {
			return fmt.Errorf("%w: field %s: %v", ErrInvalidConfig, f.Name, err)
		}
	}
	switch strings.ToLower(c.Axis) {
	case "x", "y", "z", "0", "1", "2":
	default:
		return fmt.Errorf("%w: axis %q", ErrInvalidConfig, c.Axis)
	}
	if c.WidthIn <= 0 || c.HeightIn <= 0 {
		return fmt.Errorf("%w: image size must be positive", ErrInvalidConfig)
	}
	return nil
}

// PairFields zips positional field and unit lists into one ordered list.
func PairFields(names, unitExprs []string) ([]FieldSpec, error) {
	if len(names) != len(unitExprs) {
		return nil, fmt.Errorf("%w: %d fields, %d units", ErrFieldUnitMismatch, len(names), len(unitExprs))
	}
	out := make([]FieldSpec, len(names))
	for i := range names {
		out[i] = FieldSpec{Name: names[i], Unit: unitExprs[i]}
	}
	return out, nil
}

// ParseFieldSpec reads the command-line form "name:unit".
func ParseFieldSpec(s string) (FieldSpec, error) {
	name, unit, ok := strings.Cut(s, ":")
	name, unit = strings.TrimSpace(name), strings.TrimSpace(unit)
	if !ok || name == "" || unit == "" {
		return FieldSpec{}, fmt.Errorf("%w: field %q, want name:unit", ErrInvalidConfig, s)
	}
	return FieldSpec{Name: name, Unit: unit}, nil
}

package render

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/halotools/internal/grid"
)

var ErrEmptySlice = errors.New("render: slice has no finite values")

// SliceOptions controls image output. Basename prefixes the image name,
// usually the input file name without extension.
type SliceOptions struct {
	OutputDir string
	Basename  string
	LogScale  bool
	Width     vg.Length
	Height    vg.Length
	Colors    int
}

func DefaultSliceOptions() SliceOptions {
	return SliceOptions{
		OutputDir: ".",
		Basename:  "UniformGrid",
		LogScale:  true,
		Width:     6 * vg.Inch,
		Height:    6 * vg.Inch,
		Colors:    255,
	}
}

// SliceFileName follows <basename>_Slice_<axis>_<field>.png.
func SliceFileName(basename string, axis grid.Axis, field string) string {
	return fmt.Sprintf("%s_Slice_%s_%s.png", basename, axis, field)
}

// SlicePlot builds a heat map of plane. Non-positive values are blank when
// opts.LogScale is set.
func SlicePlot(plane *grid.Plane, unit string, opts SliceOptions) (*plot.Plot, error) {
	data := plane
	title := fmt.Sprintf("%s [%s]", plane.Field, unit)
	if opts.LogScale {
		data = plane.Map(func(v float64) float64 {
			if v <= 0 {
				return math.NaN()
			}
			return math.Log10(v)
		})
		title = "log10 " + title
	}

	lo, hi := data.Range()
	if lo > hi {
		return nil, fmt.Errorf("%w: %s", ErrEmptySlice, plane.Field)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	colors := opts.Colors
	if colors < 2 {
		colors = 255
	}
	hm := plotter.NewHeatMap(data, moreland.ExtendedBlackBody().Palette(colors))
	hm.Min, hm.Max = lo, hi

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = plane.HAxis.String() + " [code_length]"
	p.Y.Label.Text = plane.VAxis.String() + " [code_length]"
	p.Add(hm)
	return p, nil
}

// SaveSlice renders field on the plane normal to axis through coord and
// returns the written path.
func SaveSlice(g *grid.UniformGrid, field string, axis grid.Axis, coord float64, opts SliceOptions) (string, error) {
	plane, err := g.Slice(field, axis, coord)
	if err != nil {
		return "", err
	}
	f, err := g.Field(field)
	if err != nil {
		return "", err
	}

	p, err := SlicePlot(plane, f.Unit.String(), opts)
	if err != nil {
		return "", err
	}

	if opts.Width == 0 || opts.Height == 0 {
		opts.Width, opts.Height = 6*vg.Inch, 6*vg.Inch
	}
	path := filepath.Join(opts.OutputDir, SliceFileName(opts.Basename, axis, field))
	if err := p.Save(opts.Width, opts.Height, path); err != nil {
		return "", err
	}
	return path, nil
}

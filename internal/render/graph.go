package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/halotools/internal/storage"
)

var (
	ErrNoColumn   = errors.New("render: column out of range")
	ErrEmptyTable = errors.New("render: table has no rows")
)

type GraphOptions struct {
	Height   int
	Width    int
	LogScale bool
}

func DefaultGraphOptions() GraphOptions {
	return GraphOptions{Height: 15, Width: 80}
}

// ProfileGraph plots column col of t against row order. Rows are radial
// shells, so the x axis is log radius for every profile table.
func ProfileGraph(t *storage.Table, col int, opts GraphOptions) (string, error) {
	if len(t.Rows) == 0 {
		return "", ErrEmptyTable
	}
	if col < 0 || (len(t.Columns) > 0 && col >= len(t.Columns)) || col >= len(t.Rows[0]) {
		return "", fmt.Errorf("%w: %d", ErrNoColumn, col)
	}

	name := fmt.Sprintf("column %d", col)
	if col < len(t.Columns) {
		name = t.Columns[col]
	}

	data := t.Column(col)
	if opts.LogScale {
		name = "log10 " + name
		for i, v := range data {
			if v > 0 {
				data[i] = math.Log10(v)
			} else {
				data[i] = math.NaN()
			}
		}
	}

	var first, last float64
	if r := t.Column(0); len(r) > 0 {
		first, last = r[0], r[len(r)-1]
	}
	caption := fmt.Sprintf("%s, r = %.3g .. %.3g", name, first, last)

	if opts.Height <= 0 {
		opts.Height = 15
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}
	return asciigraph.Plot(data,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
	), nil
}

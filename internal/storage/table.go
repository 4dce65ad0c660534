package storage

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/halotools/internal/halo"
)

// Table is a whitespace-separated numeric file. Leading '#' lines are
// comments; the last of them names the columns.
type Table struct {
	Comments []string
	Columns  []string
	Rows     [][]float64
}

// Column returns column i of every row. Short rows yield NaN.
func (t *Table) Column(i int) []float64 {
	col := make([]float64, len(t.Rows))
	for n, row := range t.Rows {
		if i < len(row) {
			col[n] = row[i]
		} else {
			col[n] = math.NaN()
		}
	}
	return col
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (t *Table) write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, c := range t.Comments {
		fmt.Fprintf(bw, "# %s\n", c)
	}
	if len(t.Columns) > 0 {
		fmt.Fprintf(bw, "# %s\n", strings.Join(t.Columns, "\t"))
	}

	cw := csv.NewWriter(bw)
	cw.Comma = '\t'
	record := make([]string, 0, len(t.Columns))
	for _, row := range t.Rows {
		record = record[:0]
		for _, v := range row {
			record = append(record, strconv.FormatFloat(v, 'e', 8, 64))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTable(f)
}

func ReadTable(r io.Reader) (*Table, error) {
	t := &Table{Rows: [][]float64{}}
	var header []string

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			if len(t.Rows) == 0 {
				header = append(header, strings.TrimSpace(strings.TrimPrefix(text, "#")))
			}
			continue
		}

		fields := strings.Fields(text)
		row := make([]float64, len(fields))
		for i, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedTable, line, err)
			}
			row[i] = v
		}
		t.Rows = append(t.Rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if n := len(header); n > 0 {
		t.Comments = header[:n-1]
		t.Columns = strings.Fields(header[n-1])
	}
	return t, nil
}

func profileComments(p *halo.Profile) []string {
	return []string{
		fmt.Sprintf("center %g %g %g", p.Center[0], p.Center[1], p.Center[2]),
		fmt.Sprintf("time %g", p.Time),
	}
}

func densityTable(p *halo.Profile) *Table {
	t := &Table{
		Comments: profileComments(p),
		Columns:  []string{"radius", "density", "cells", "shell_mass"},
	}
	for i := range p.Radius {
		t.Rows = append(t.Rows, []float64{p.Radius[i], p.Density[i], float64(p.Count[i]), p.ShellMass[i]})
	}
	return t
}

func massTable(p *halo.Profile) *Table {
	t := &Table{
		Comments: profileComments(p),
		Columns:  []string{"radius", "enclosed_mass"},
	}
	for i := range p.Mass {
		t.Rows = append(t.Rows, []float64{p.OuterRadius(i), p.Mass[i]})
	}
	return t
}

func circularVelocityTable(p *halo.Profile) *Table {
	t := &Table{
		Comments: append(profileComments(p), fmt.Sprintf("G %g", p.G)),
		Columns:  []string{"radius", "vcirc"},
	}
	for i := range p.VCirc {
		t.Rows = append(t.Rows, []float64{p.OuterRadius(i), p.VCirc[i]})
	}
	return t
}

func dispersionTable(p *halo.Profile) *Table {
	v := p.BulkVelocity
	t := &Table{
		Comments: append(profileComments(p), fmt.Sprintf("bulk_velocity %g %g %g", v[0], v[1], v[2])),
		Columns:  []string{"radius", "sigma", "sigma_x", "sigma_y", "sigma_z"},
	}
	for i := range p.Sigma {
		t.Rows = append(t.Rows, []float64{p.Radius[i], p.Sigma[i], p.SigmaAxis[0][i], p.SigmaAxis[1][i], p.SigmaAxis[2][i]})
	}
	return t
}

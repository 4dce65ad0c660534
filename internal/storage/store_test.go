package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/halotools/internal/halo"
)

func testProfile() *halo.Profile {
	return &halo.Profile{
		Center:       [3]float64{0.295, 9.522, 8.27},
		Time:         0.25,
		Edges:        []float64{0.1, 0.2, 0.4},
		Radius:       []float64{0.1414, 0.2828},
		Count:        []int{8, 56},
		ShellMass:    []float64{4, 6},
		Density:      []float64{955, 26},
		Mass:         []float64{4, 10},
		VCirc:        []float64{4.47, 5},
		Sigma:        []float64{1, 0.5},
		SigmaAxis:    [3][]float64{{1, 0.5}, {1, 0.5}, {1, 0.5}},
		BulkVelocity: [3]float64{1, 2, 3},
		G:            1,
	}
}

func testParams(idx int) halo.Params {
	return halo.Params{
		Index:             idx,
		Time:              0.25,
		Center:            [3]float64{0.295, 9.522, 8.27},
		PeakDensity:       955,
		BulkVelocity:      [3]float64{1, 2, 3},
		BackgroundDensity: 1,
		Overdensity:       200,
		HasVirial:         true,
		Rvir:              0.15,
		Mvir:              2.8,
		VCircMax:          5,
		RVCircMax:         0.4,
	}
}

func newStore(t *testing.T) *Store {
	t.Helper()
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return st
}

func TestStorePaths(t *testing.T) {
	st := New("out")
	p := st.Paths(36, 0)

	want := Paths{
		Density:            filepath.Join("out", "prof_dens", "Data_000036_0_profile_data"),
		Mass:               filepath.Join("out", "prof_mass", "Data_000036_0_mass_accumule"),
		CircularVelocity:   filepath.Join("out", "prof_circular_vel", "Data_000036_0_circular_velocity"),
		VelocityDispersion: filepath.Join("out", "prof_veldisp", "Data_000036_0_veldisp_haloRestFrame"),
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}

	if got := SnapshotName(7); got != "Data_000007" {
		t.Errorf("expected Data_000007, got %s", got)
	}
	if got := st.ParamsPath(); got != filepath.Join("out", "Halo_Parameter") {
		t.Errorf("unexpected params path %s", got)
	}
}

func TestStoreWriteLoad(t *testing.T) {
	st := newStore(t)
	prof := testProfile()

	if err := st.Write(36, 0, prof, testParams(36)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	paths := st.Paths(36, 0)
	for _, path := range paths.All() {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", path, err)
		}
	}

	dens, err := LoadTable(paths.Density)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"radius", "density", "cells", "shell_mass"}, dens.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if len(dens.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(dens.Rows))
	}
	if diff := cmp.Diff([]float64{8, 56}, dens.Column(2)); diff != "" {
		t.Errorf("cell counts mismatch (-want +got):\n%s", diff)
	}
	if len(dens.Comments) != 2 || !strings.HasPrefix(dens.Comments[0], "center") {
		t.Errorf("unexpected comments %q", dens.Comments)
	}

	mass, err := LoadTable(paths.Mass)
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{0.2, 0.4}, mass.Column(0)); diff != "" {
		t.Errorf("mass radii should be outer edges (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{4, 10}, mass.Column(mass.ColumnIndex("enclosed_mass"))); diff != "" {
		t.Errorf("enclosed mass mismatch (-want +got):\n%s", diff)
	}

	disp, err := LoadTable(paths.VelocityDispersion)
	require.NoError(t, err)
	if got := disp.ColumnIndex("sigma_z"); got != 4 {
		t.Errorf("expected sigma_z at column 4, got %d", got)
	}

	records, err := st.LoadParams()
	require.NoError(t, err)
	if diff := cmp.Diff([]halo.Params{testParams(36)}, records); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreAppendsParams(t *testing.T) {
	st := newStore(t)

	for _, idx := range []int{1, 2, 3} {
		hp := testParams(idx)
		if idx == 2 {
			hp.HasVirial, hp.Rvir, hp.Mvir = false, 0, 0
		}
		if err := st.Write(idx, 0, testProfile(), hp); err != nil {
			t.Fatalf("write %d failed: %v", idx, err)
		}
	}

	records, err := st.LoadParams()
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, r := range records {
		if r.Index != i+1 {
			t.Errorf("row %d: expected index %d, got %d", i, i+1, r.Index)
		}
	}
	if records[1].HasVirial {
		t.Error("expected row without virial radius")
	}

	data, err := os.ReadFile(st.ParamsPath())
	require.NoError(t, err)
	if n := strings.Count(string(data), "#"); n != 1 {
		t.Errorf("expected a single header line, got %d", n)
	}
}

func TestStoreRemovesPartialFiles(t *testing.T) {
	st := newStore(t)
	paths := st.Paths(5, 0)

	// A directory in place of the last file makes its rename fail.
	blocker := paths.VelocityDispersion
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "keep"), 0755))

	err := st.Write(5, 0, testProfile(), testParams(5))
	if err == nil {
		t.Fatal("expected write to fail")
	}

	for _, path := range []string{paths.Density, paths.Mass, paths.CircularVelocity, st.ParamsPath()} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("expected %s to be removed, stat err = %v", path, err)
		}
	}

	for _, dir := range []string{DensityDir, MassDir, CircularVelDir, VelDispDir} {
		temps, _ := filepath.Glob(filepath.Join(st.Dir(), dir, ".Data_*"))
		if len(temps) != 0 {
			t.Errorf("temporary files left in %s: %v", dir, temps)
		}
	}
}

func TestLoadParamsMissing(t *testing.T) {
	st := New(t.TempDir())

	records, err := st.LoadParams()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestReadTable(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		columns []string
		rows    [][]float64
		wantErr error
	}{
		{
			name:    "header and rows",
			input:   "# note\n# r rho\n1 2\n  3\t4\n\n",
			columns: []string{"r", "rho"},
			rows:    [][]float64{{1, 2}, {3, 4}},
		},
		{
			name:  "no header",
			input: "1e-3 2.5e2\n",
			rows:  [][]float64{{1e-3, 250}},
		},
		{
			name:    "bad number",
			input:   "# r\n1 x\n",
			wantErr: ErrMalformedTable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab, err := ReadTable(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.columns, tab.Columns); diff != "" {
				t.Errorf("columns mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.rows, tab.Rows); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, []halo.Params{testParams(1), testParams(2)}); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	if data.Count != 2 || len(data.Halos) != 2 {
		t.Errorf("expected 2 halos, got %d/%d", data.Count, len(data.Halos))
	}
	if data.Halos[1].Index != 2 {
		t.Errorf("expected index 2, got %d", data.Halos[1].Index)
	}

	buf.Reset()
	require.NoError(t, ExportJSON(&buf, nil))
	if !strings.Contains(buf.String(), `"halos": []`) {
		t.Errorf("expected empty halos array, got %s", buf.String())
	}
}

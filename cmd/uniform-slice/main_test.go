package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/halotools/internal/config"
	"github.com/san-kum/halotools/internal/gridio"
)

func cube() *gridio.Mem {
	const n = 6
	m := gridio.NewMem()
	m.InfoValues[gridio.KeyGridDimension] = []float64{n, n, n}
	m.InfoValues[gridio.KeyTime] = []float64{0.5}
	m.InfoValues[gridio.KeySubdomainSize] = []float64{0.02, 0.03, 0.04}
	m.InfoValues[gridio.KeyLeftEdge] = []float64{0.067, 0.067, 0.067}
	m.InfoValues[gridio.KeyUnitL] = []float64{3.0857e24}
	m.InfoValues[gridio.KeyUnitM] = []float64{1.989e43}
	m.InfoValues[gridio.KeyUnitT] = []float64{3.15576e16}

	dens := make([]float64, n*n*n)
	temp := make([]float64, n*n*n)
	for i := range dens {
		dens[i] = float64(i + 1)
		temp[i] = 1e4
	}
	m.DataValues["Dens"] = dens
	m.DataValues["Temp"] = temp
	return m
}

func useMemContainer(t *testing.T) *[]string {
	t.Helper()
	var opened []string
	orig := openContainer
	openContainer = func(path string) (gridio.Container, error) {
		opened = append(opened, path)
		return cube(), nil
	}
	t.Cleanup(func() { openContainer = orig })
	return &opened
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSliceDefaultField(t *testing.T) {
	opened := useMemContainer(t)
	dir := t.TempDir()

	out, err := execute(t, "-i", "Cube_lv1_000001.hdf5", "--out", dir)
	require.NoError(t, err)
	require.Equal(t, []string{"Cube_lv1_000001.hdf5"}, *opened)

	want := filepath.Join(dir, "Cube_lv1_000001_Slice_z_Dens.png")
	if strings.TrimSpace(out) != want {
		t.Errorf("expected %s, got %q", want, out)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("expected image: %v", err)
	}
}

func TestSlicePairedFields(t *testing.T) {
	useMemContainer(t)
	dir := t.TempDir()

	out, err := execute(t, "-i", "cube.hdf5", "--out", dir, "--axis", "x",
		"--fields", "Dens,Temp", "--units", "code_mass/code_length**3,dimensionless", "--linear")
	require.NoError(t, err)

	lines := strings.Fields(out)
	require.Len(t, lines, 2)
	for i, field := range []string{"Dens", "Temp"} {
		want := filepath.Join(dir, "cube_Slice_x_"+field+".png")
		if lines[i] != want {
			t.Errorf("image %d: expected %s, got %s", i, want, lines[i])
		}
	}
}

func TestSliceFieldUnitMismatch(t *testing.T) {
	opened := useMemContainer(t)

	_, err := execute(t, "-i", "cube.hdf5", "--out", t.TempDir(),
		"--fields", "Dens,Temp", "--units", "code_mass/code_length**3")
	if !errors.Is(err, config.ErrFieldUnitMismatch) {
		t.Fatalf("expected ErrFieldUnitMismatch, got %v", err)
	}
	if len(*opened) != 0 {
		t.Errorf("expected no file to be opened, got %v", *opened)
	}
}

func TestSliceFieldExcludesLegacyFlags(t *testing.T) {
	opened := useMemContainer(t)

	for _, extra := range [][]string{
		{"--units", "code_density"},
		{"--fields", "Temp"},
	} {
		args := append([]string{"-i", "cube.hdf5", "--out", t.TempDir(), "--field", "Dens:code_density"}, extra...)
		_, err := execute(t, args...)
		if err == nil || !strings.Contains(err.Error(), "none of the others can be") {
			t.Errorf("%v: expected mutually exclusive flag error, got %v", extra, err)
		}
	}
	if len(*opened) != 0 {
		t.Errorf("expected no file to be opened, got %v", *opened)
	}
}

func TestSliceConfigErrors(t *testing.T) {
	useMemContainer(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"no input", []string{"--out", t.TempDir()}, config.ErrInvalidConfig},
		{"bad axis", []string{"-i", "cube.hdf5", "--axis", "w"}, config.ErrInvalidConfig},
		{"field without unit", []string{"-i", "cube.hdf5", "--field", "Dens"}, config.ErrInvalidConfig},
		{"bad unit", []string{"-i", "cube.hdf5", "--field", "Dens:furlong"}, config.ErrInvalidConfig},
		{"missing field", []string{"-i", "cube.hdf5", "--out", t.TempDir(), "--field", "Pres:code_density"}, gridio.ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSliceFromConfigFile(t *testing.T) {
	useMemContainer(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "slice.yaml")
	cfg := config.DefaultSliceConfig()
	cfg.Input = "cube.hdf5"
	cfg.Axis = "y"
	cfg.OutputDir = dir
	cfg.Center = "0.08"
	require.NoError(t, config.Save(path, cfg))

	out, err := execute(t, "--config", path)
	require.NoError(t, err)
	if want := filepath.Join(dir, "cube_Slice_y_Dens.png"); strings.TrimSpace(out) != want {
		t.Errorf("expected %s, got %q", want, out)
	}
}

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/san-kum/halotools/internal/halo"
)

const (
	ParamsFile     = "Halo_Parameter"
	DensityDir     = "prof_dens"
	MassDir        = "prof_mass"
	CircularVelDir = "prof_circular_vel"
	VelDispDir     = "prof_veldisp"
)

var ErrMalformedTable = errors.New("storage: malformed table")

// SnapshotName returns the on-disk name of snapshot idx.
func SnapshotName(idx int) string {
	return fmt.Sprintf("Data_0000%02d", idx)
}

// Paths names the four profile files of one snapshot.
type Paths struct {
	Density            string
	Mass               string
	CircularVelocity   string
	VelocityDispersion string
}

func (p Paths) All() []string {
	return []string{p.Density, p.Mass, p.CircularVelocity, p.VelocityDispersion}
}

// Store writes profile tables and the halo parameter log under baseDir.
// It is safe for concurrent Write calls on distinct indices.
type Store struct {
	baseDir string
	mu      sync.Mutex
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Dir() string { return s.baseDir }

func (s *Store) Init() error {
	for _, dir := range []string{DensityDir, MassDir, CircularVelDir, VelDispDir} {
		if err := os.MkdirAll(filepath.Join(s.baseDir, dir), 0755); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Paths(idx, axis int) Paths {
	prefix := fmt.Sprintf("%s_%d_", SnapshotName(idx), axis)
	return Paths{
		Density:            filepath.Join(s.baseDir, DensityDir, prefix+"profile_data"),
		Mass:               filepath.Join(s.baseDir, MassDir, prefix+"mass_accumule"),
		CircularVelocity:   filepath.Join(s.baseDir, CircularVelDir, prefix+"circular_velocity"),
		VelocityDispersion: filepath.Join(s.baseDir, VelDispDir, prefix+"veldisp_haloRestFrame"),
	}
}

func (s *Store) ParamsPath() string {
	return filepath.Join(s.baseDir, ParamsFile)
}

// Write stores the four profile tables of snapshot idx and then appends its
// row to the halo parameter log. Either all four tables and the row exist
// afterwards or none of the files written for idx do.
func (s *Store) Write(idx, axis int, p *halo.Profile, hp halo.Params) error {
	paths := s.Paths(idx, axis)
	tables := []*Table{
		densityTable(p),
		massTable(p),
		circularVelocityTable(p),
		dispersionTable(p),
	}

	var temps, written []string
	cleanup := func() {
		for _, path := range temps {
			os.Remove(path)
		}
		for _, path := range written {
			os.Remove(path)
		}
	}

	for i, path := range paths.All() {
		tmp, err := writeTemp(path, tables[i])
		if tmp != "" {
			temps = append(temps, tmp)
		}
		if err != nil {
			cleanup()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	for i, path := range paths.All() {
		if err := os.Rename(temps[i], path); err != nil {
			cleanup()
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	temps = nil

	if err := s.appendParams(hp); err != nil {
		cleanup()
		return fmt.Errorf("write %s: %w", s.ParamsPath(), err)
	}
	return nil
}

func writeTemp(path string, t *Table) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", err
	}
	if err := t.write(f); err != nil {
		f.Close()
		return f.Name(), err
	}
	return f.Name(), f.Close()
}

var paramsColumns = []string{
	"index", "time", "center_x", "center_y", "center_z", "center_offset",
	"peak_density", "bulk_vx", "bulk_vy", "bulk_vz", "background_density",
	"overdensity", "rvir", "mvir", "vcirc_max", "r_vcirc_max",
}

func (s *Store) appendParams(hp halo.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.ParamsPath()
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	t := &Table{Rows: [][]float64{paramsRow(hp)}}
	if fresh {
		t.Columns = paramsColumns
	}
	if err := t.write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func paramsRow(hp halo.Params) []float64 {
	return []float64{
		float64(hp.Index), hp.Time,
		hp.Center[0], hp.Center[1], hp.Center[2], hp.CenterOffset,
		hp.PeakDensity,
		hp.BulkVelocity[0], hp.BulkVelocity[1], hp.BulkVelocity[2],
		hp.BackgroundDensity, hp.Overdensity,
		hp.Rvir, hp.Mvir, hp.VCircMax, hp.RVCircMax,
	}
}

// LoadParams reads every row of the halo parameter log in file order.
func (s *Store) LoadParams() ([]halo.Params, error) {
	t, err := LoadTable(s.ParamsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return []halo.Params{}, nil
		}
		return nil, err
	}

	records := make([]halo.Params, 0, len(t.Rows))
	for n, row := range t.Rows {
		if len(row) != len(paramsColumns) {
			return nil, fmt.Errorf("%w: %s row %d has %d columns", ErrMalformedTable, ParamsFile, n+1, len(row))
		}
		hp := halo.Params{
			Index:             int(row[0]),
			Time:              row[1],
			Center:            [3]float64{row[2], row[3], row[4]},
			CenterOffset:      row[5],
			PeakDensity:       row[6],
			BulkVelocity:      [3]float64{row[7], row[8], row[9]},
			BackgroundDensity: row[10],
			Overdensity:       row[11],
			Rvir:              row[12],
			Mvir:              row[13],
			VCircMax:          row[14],
			RVCircMax:         row[15],
		}
		hp.HasVirial = hp.Rvir > 0
		records = append(records, hp)
	}
	return records, nil
}

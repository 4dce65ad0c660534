package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/halotools/internal/config"
	"github.com/san-kum/halotools/internal/grid"
	"github.com/san-kum/halotools/internal/halo"
	"github.com/san-kum/halotools/internal/storage"
)

func spikeGrid(t *testing.T) *grid.UniformGrid {
	t.Helper()
	const n = 10
	size := n * n * n
	dens := make([]float64, size)
	for i := range dens {
		dens[i] = 1
	}
	dens[(5*n+5)*n+5] = 500
	zero := make([]float64, size)

	g, err := grid.New([]grid.FieldData{
		{Name: "Dens", Unit: "code_density", Data: dens},
		{Name: "VelX", Unit: "code_velocity", Data: zero},
		{Name: "VelY", Unit: "code_velocity", Data: zero},
		{Name: "VelZ", Unit: "code_velocity", Data: zero},
	}, grid.Options{
		Dims: [3]int{n, n, n},
		BBox: grid.BBoxFromEdges([3]float64{}, [3]float64{1, 1, 1}),
	})
	require.NoError(t, err)
	return g
}

type fakeLoader struct {
	mu    sync.Mutex
	grid  *grid.UniformGrid
	fail  map[string]error
	paths []string
}

func (l *fakeLoader) Load(ctx context.Context, path string) (*grid.UniformGrid, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = append(l.paths, path)
	if err := l.fail[path]; err != nil {
		return nil, err
	}
	return l.grid, nil
}

type write struct {
	Index, Axis int
}

type fakeSink struct {
	mu     sync.Mutex
	err    error
	writes []write
}

func (s *fakeSink) Write(idx, axis int, p *halo.Profile, hp halo.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.writes = append(s.writes, write{idx, axis})
	return nil
}

func testConfig() *config.ProfileConfig {
	cfg := config.DefaultProfileConfig()
	cfg.CenterGuess = [3]float64{0.5, 0.5, 0.5}
	cfg.Vicinity = 0.2
	cfg.Bins = 4
	return cfg
}

func newTestDriver(t *testing.T) (*Driver, *fakeLoader, *fakeSink) {
	loader := &fakeLoader{grid: spikeGrid(t)}
	sink := &fakeSink{}
	return NewDriver(testConfig(), loader, sink, nil), loader, sink
}

func TestIndices(t *testing.T) {
	tests := []struct {
		start, end, step int
		want             []int
		wantErr          bool
	}{
		{36, 36, 1, []int{36}, false},
		{1, 3, 1, []int{1, 2, 3}, false},
		{1, 6, 2, []int{1, 3, 5}, false},
		{0, 9, 3, []int{0, 3, 6, 9}, false},
		{3, 1, 1, nil, true},
		{1, 3, 0, nil, true},
		{1, 3, -1, nil, true},
		{-2, 3, 1, nil, true},
		{math.MaxInt - 1, math.MaxInt, 1, []int{math.MaxInt - 1, math.MaxInt}, false},
		{math.MaxInt - 4, math.MaxInt, 3, []int{math.MaxInt - 4, math.MaxInt - 1}, false},
		{0, math.MaxInt, math.MaxInt, []int{0, math.MaxInt}, false},
	}

	for _, tt := range tests {
		got, err := Indices(tt.start, tt.end, tt.step)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidRange) {
				t.Errorf("Indices(%d, %d, %d): expected ErrInvalidRange, got %v", tt.start, tt.end, tt.step, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Indices(%d, %d, %d): unexpected error %v", tt.start, tt.end, tt.step, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Indices(%d, %d, %d) mismatch (-want +got):\n%s", tt.start, tt.end, tt.step, diff)
		}
	}
}

func TestSnapshotPath(t *testing.T) {
	if got := SnapshotPath("..", 36); got != filepath.Join("..", "Data_000036") {
		t.Errorf("unexpected path %s", got)
	}
	if got := SnapshotPath("..", 1); got != filepath.Join("..", "Data_000001") {
		t.Errorf("unexpected path %s", got)
	}
}

func TestRunSingleSnapshot(t *testing.T) {
	d, loader, sink := newTestDriver(t)

	results, err := d.Run(context.Background(), 36, 36, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	if diff := cmp.Diff([]string{filepath.Join("..", "Data_000036")}, loader.paths); diff != "" {
		t.Errorf("loaded paths mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]write{{36, 0}}, sink.writes); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}

	res := results[0]
	if res.Peak.Cell != [3]int{5, 5, 5} {
		t.Errorf("expected peak at [5 5 5], got %v", res.Peak.Cell)
	}
	if res.Params.Index != 36 || res.Params.PeakDensity != 500 {
		t.Errorf("unexpected params %+v", res.Params)
	}
}

func TestRunRangeInOrder(t *testing.T) {
	d, loader, sink := newTestDriver(t)

	_, err := d.Run(context.Background(), 1, 3, 1)
	require.NoError(t, err)

	want := []string{
		filepath.Join("..", "Data_000001"),
		filepath.Join("..", "Data_000002"),
		filepath.Join("..", "Data_000003"),
	}
	if diff := cmp.Diff(want, loader.paths); diff != "" {
		t.Errorf("loaded paths mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]write{{1, 0}, {2, 0}, {3, 0}}, sink.writes); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}
}

func TestRunHonorsStep(t *testing.T) {
	d, _, sink := newTestDriver(t)

	results, err := d.Run(context.Background(), 1, 6, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)
	if diff := cmp.Diff([]write{{1, 0}, {3, 0}, {5, 0}}, sink.writes); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}
}

func TestRunAbortsOnLoadFailure(t *testing.T) {
	d, loader, sink := newTestDriver(t)
	boom := errors.New("no such snapshot")
	loader.fail = map[string]error{SnapshotPath("..", 2): boom}

	results, err := d.Run(context.Background(), 1, 3, 1)
	if !errors.Is(err, ErrSnapshotLoad) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped load failure, got %v", err)
	}

	var ie *IndexError
	require.ErrorAs(t, err, &ie)
	if ie.Index != 2 {
		t.Errorf("expected failing index 2, got %d", ie.Index)
	}

	if len(results) != 1 || results[0].Index != 1 {
		t.Errorf("expected only index 1 to complete, got %+v", results)
	}
	if len(loader.paths) != 2 {
		t.Errorf("expected index 3 never loaded, got %v", loader.paths)
	}
	if diff := cmp.Diff([]write{{1, 0}}, sink.writes); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}
}

func TestRunErrorKinds(t *testing.T) {
	t.Run("computation", func(t *testing.T) {
		d, _, sink := newTestDriver(t)
		d.CenterGuess = [3]float64{5, 5, 5}

		_, err := d.Run(context.Background(), 1, 1, 1)
		if !errors.Is(err, ErrProfileComputation) || !errors.Is(err, halo.ErrNoCellsInVicinity) {
			t.Errorf("expected computation failure, got %v", err)
		}
		if len(sink.writes) != 0 {
			t.Errorf("expected no writes, got %v", sink.writes)
		}
	})

	t.Run("write", func(t *testing.T) {
		d, _, sink := newTestDriver(t)
		sink.err = errors.New("disk full")

		_, err := d.Run(context.Background(), 1, 1, 1)
		if !errors.Is(err, ErrWrite) || !errors.Is(err, sink.err) {
			t.Errorf("expected write failure, got %v", err)
		}
	})

	t.Run("range", func(t *testing.T) {
		d, loader, _ := newTestDriver(t)

		_, err := d.Run(context.Background(), 5, 1, 1)
		if !errors.Is(err, ErrInvalidRange) {
			t.Errorf("expected ErrInvalidRange, got %v", err)
		}
		if len(loader.paths) != 0 {
			t.Errorf("expected no loads, got %v", loader.paths)
		}
	})
}

func TestRunCanceled(t *testing.T) {
	d, loader, _ := newTestDriver(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Run(ctx, 1, 3, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(loader.paths) != 0 {
		t.Errorf("expected no loads, got %v", loader.paths)
	}
}

func TestRunParallel(t *testing.T) {
	d, _, sink := newTestDriver(t)
	d.Jobs = 3

	results, err := d.Run(context.Background(), 1, 6, 1)
	require.NoError(t, err)
	require.Len(t, results, 6)

	for i, res := range results {
		if res.Index != i+1 {
			t.Errorf("result %d: expected index %d, got %d", i, i+1, res.Index)
		}
	}
	if len(sink.writes) != 6 {
		t.Errorf("expected 6 writes, got %d", len(sink.writes))
	}
}

func TestRunParallelFailure(t *testing.T) {
	d, loader, _ := newTestDriver(t)
	d.Jobs = 2
	loader.fail = map[string]error{SnapshotPath("..", 4): errors.New("corrupt")}

	results, err := d.Run(context.Background(), 1, 6, 1)
	if !errors.Is(err, ErrSnapshotLoad) {
		t.Fatalf("expected load failure, got %v", err)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Index <= results[i-1].Index {
			t.Errorf("results not sorted: %+v", results)
		}
	}
	for _, res := range results {
		if res.Index == 4 {
			t.Error("failed index reported as a result")
		}
	}
}

func TestRunWritesStore(t *testing.T) {
	dir := t.TempDir()
	st := storage.New(dir)
	require.NoError(t, st.Init())

	d := NewDriver(testConfig(), &fakeLoader{grid: spikeGrid(t)}, st, nil)
	_, err := d.Run(context.Background(), 36, 36, 1)
	require.NoError(t, err)

	for _, path := range st.Paths(36, 0).All() {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s: %v", path, err)
		}
	}

	records, err := st.LoadParams()
	require.NoError(t, err)
	if len(records) != 1 || records[0].Index != 36 {
		t.Errorf("unexpected params %+v", records)
	}
}

func TestOptionsDefaults(t *testing.T) {
	d, _, _ := newTestDriver(t)
	g := spikeGrid(t)

	opts := d.options(g)
	if opts.MaxRadius != 0.5 {
		t.Errorf("expected max radius clipped to 0.5, got %g", opts.MaxRadius)
	}
	if opts.RestFrameRadius != 0.2 {
		t.Errorf("expected rest frame radius 0.2, got %g", opts.RestFrameRadius)
	}

	d.Vicinity = 0.01
	opts = d.options(g)
	if opts.MaxRadius != 0.1 {
		t.Errorf("expected max radius 0.1, got %g", opts.MaxRadius)
	}

	d.Options.MaxRadius = 0.3
	if got := d.options(g).MaxRadius; got != 0.3 {
		t.Errorf("expected explicit max radius 0.3, got %g", got)
	}
}

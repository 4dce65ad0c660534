package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/halotools/internal/config"
	"github.com/san-kum/halotools/internal/grid"
	"github.com/san-kum/halotools/internal/halo"
	"github.com/san-kum/halotools/internal/storage"
)

// Loader turns a snapshot path into a grid carrying density and velocity.
type Loader interface {
	Load(ctx context.Context, path string) (*grid.UniformGrid, error)
}

// Sink persists the profiles of one snapshot.
type Sink interface {
	Write(idx, axis int, p *halo.Profile, hp halo.Params) error
}

// Indices expands start, start+step, ... up to and including end. Indices
// are non-negative and the expansion stops before i+step could overflow.
func Indices(start, end, step int) ([]int, error) {
	if start < 0 {
		return nil, fmt.Errorf("%w: negative start %d", ErrInvalidRange, start)
	}
	if step <= 0 {
		return nil, fmt.Errorf("%w: step %d", ErrInvalidRange, step)
	}
	if start > end {
		return nil, fmt.Errorf("%w: start %d > end %d", ErrInvalidRange, start, end)
	}
	var out []int
	for i := start; ; i += step {
		out = append(out, i)
		if end-i < step {
			break
		}
	}
	return out, nil
}

func SnapshotPath(dir string, idx int) string {
	return filepath.Join(dir, storage.SnapshotName(idx))
}

type Result struct {
	Index   int
	Path    string
	Peak    halo.Peak
	Params  halo.Params
	Elapsed time.Duration
}

// Driver runs center search, profile extraction and output for a range of
// snapshots.
type Driver struct {
	Loader Loader
	Sink   Sink
	Logger *zap.Logger

	DataDir     string
	Axis        int
	CenterGuess [3]float64
	Vicinity    float64
	Fields      halo.Fields
	Options     halo.Options
	Jobs        int
}

func NewDriver(cfg *config.ProfileConfig, loader Loader, sink Sink, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		Loader:      loader,
		Sink:        sink,
		Logger:      logger,
		DataDir:     cfg.DataDir,
		Axis:        cfg.Axis,
		CenterGuess: cfg.CenterGuess,
		Vicinity:    cfg.Vicinity,
		Fields:      halo.DefaultFields(),
		Options: halo.Options{
			Bins:            cfg.Bins,
			MinRadius:       cfg.MinRadius,
			MaxRadius:       cfg.MaxRadius,
			RestFrameRadius: cfg.RestFrameRadius,
			Overdensity:     cfg.Overdensity,
		},
		Jobs: cfg.Jobs,
	}
}

// Run processes every index of the range and returns the results sorted by
// index. The first failure stops the range.
func (d *Driver) Run(ctx context.Context, start, end, step int) ([]Result, error) {
	indices, err := Indices(start, end, step)
	if err != nil {
		return nil, err
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	if d.Jobs <= 1 {
		results := make([]Result, 0, len(indices))
		for _, idx := range indices {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			res, err := d.Process(ctx, idx)
			if err != nil {
				return results, err
			}
			results = append(results, res)
		}
		return results, nil
	}

	results := make([]Result, len(indices))
	done := make([]bool, len(indices))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(d.Jobs)
	for i, idx := range indices {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			res, err := d.Process(gCtx, idx)
			if err != nil {
				return err
			}
			results[i], done[i] = res, true
			return nil
		})
	}
	err = g.Wait()

	finished := make([]Result, 0, len(indices))
	for i := range results {
		if done[i] {
			finished = append(finished, results[i])
		}
	}
	return finished, err
}

// Process handles a single snapshot.
func (d *Driver) Process(ctx context.Context, idx int) (Result, error) {
	began := time.Now()
	path := SnapshotPath(d.DataDir, idx)
	res := Result{Index: idx, Path: path}
	log := d.Logger.With(zap.Int("index", idx), zap.String("path", path))

	fail := func(kind, err error) (Result, error) {
		log.Error("snapshot failed", zap.Error(err))
		return res, &IndexError{Index: idx, Path: path, Err: fmt.Errorf("%w: %w", kind, err)}
	}

	g, err := d.Loader.Load(ctx, path)
	if err != nil {
		return fail(ErrSnapshotLoad, err)
	}

	peak, err := halo.FindCenter(g, d.Fields.Density, d.CenterGuess, d.Vicinity)
	if err != nil {
		return fail(ErrProfileComputation, err)
	}
	log.Debug("center refined",
		zap.Float64s("center", peak.Center[:]),
		zap.Float64("offset", peak.Offset()),
		zap.Int("scanned", peak.Scanned))

	prof, err := halo.Compute(g, d.Fields, peak.Center, d.options(g))
	if err != nil {
		return fail(ErrProfileComputation, err)
	}

	res.Peak = peak
	res.Params = prof.Params(idx, peak)
	if err := d.Sink.Write(idx, d.Axis, prof, res.Params); err != nil {
		return fail(ErrWrite, err)
	}

	res.Elapsed = time.Since(began)
	log.Info("profiles written",
		zap.Float64("rvir", res.Params.Rvir),
		zap.Float64("mvir", res.Params.Mvir),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// options fills radii left at zero: profiles reach ten times the search
// radius, clipped to half the narrowest domain width, and the rest frame is
// taken within the search radius.
func (d *Driver) options(g *grid.UniformGrid) halo.Options {
	opts := d.Options
	if opts.MaxRadius == 0 {
		w := g.Width()
		opts.MaxRadius = 0.5 * min(w[0], w[1], w[2])
		if d.Vicinity > 0 {
			opts.MaxRadius = min(opts.MaxRadius, 10*d.Vicinity)
		}
	}
	if opts.RestFrameRadius == 0 && d.Vicinity > 0 {
		opts.RestFrameRadius = min(d.Vicinity, opts.MaxRadius)
	}
	return opts
}

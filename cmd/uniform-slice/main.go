package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/halotools/internal/config"
	"github.com/san-kum/halotools/internal/grid"
	"github.com/san-kum/halotools/internal/gridio"
	"github.com/san-kum/halotools/internal/render"
)

var (
	input      string
	fieldSpecs []string
	fieldNames []string
	unitExprs  []string
	axis       string
	outDir     string
	linear     bool
	configFile string
	verbose    bool

	logger *zap.Logger
)

// openContainer is replaced in tests.
var openContainer = gridio.OpenHDF5

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "uniform-slice",
		Short: "load a uniform grid from HDF5 and save slice images",
		Long: `Reads the Info and Data groups of an HDF5 file, rebuilds the uniform grid
with its units and domain, and writes one slice image through the domain
center per requested field.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		PersistentPreRunE: initLogger,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: sliceGrid,
	}

	rootCmd.Flags().StringVarP(&input, "input", "i", "", "input HDF5 file")
	rootCmd.Flags().StringArrayVar(&fieldSpecs, "field", nil, "field as name:unit (repeatable)")
	rootCmd.Flags().StringSliceVar(&fieldNames, "fields", nil, "field names, paired with --units")
	rootCmd.Flags().StringSliceVar(&unitExprs, "units", nil, "units of --fields, in the same order")
	rootCmd.Flags().StringVar(&axis, "axis", config.DefaultSliceAxis, "slice normal: x, y or z")
	rootCmd.Flags().StringVar(&outDir, "out", config.DefaultOutputDir, "output directory")
	rootCmd.Flags().BoolVar(&linear, "linear", false, "linear color scale")
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.MarkFlagsMutuallyExclusive("field", "fields")
	rootCmd.MarkFlagsMutuallyExclusive("field", "units")

	return rootCmd
}

func initLogger(cmd *cobra.Command, args []string) error {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	var err error
	logger, err = cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func resolveConfig(cmd *cobra.Command) (*config.SliceConfig, error) {
	cfg := config.DefaultSliceConfig()
	if configFile != "" {
		loaded, err := config.LoadSlice(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input = input
	}
	switch {
	case flags.Changed("field"):
		cfg.Fields = cfg.Fields[:0:0]
		for _, s := range fieldSpecs {
			f, err := config.ParseFieldSpec(s)
			if err != nil {
				return nil, err
			}
			cfg.Fields = append(cfg.Fields, f)
		}
	case flags.Changed("fields") || flags.Changed("units"):
		fields, err := config.PairFields(fieldNames, unitExprs)
		if err != nil {
			return nil, err
		}
		cfg.Fields = fields
	}
	if flags.Changed("axis") {
		cfg.Axis = axis
	}
	if flags.Changed("out") {
		cfg.OutputDir = outDir
	}
	if flags.Changed("linear") {
		cfg.LogScale = !linear
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// sliceCoord resolves the configured center along the slice normal; "c"
// is the domain center.
func sliceCoord(g *grid.UniformGrid, center string, a grid.Axis) (float64, error) {
	if center == "" || strings.EqualFold(center, config.DefaultSliceCenter) {
		return g.Center()[a], nil
	}
	v, err := strconv.ParseFloat(center, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: center %q", config.ErrInvalidConfig, center)
	}
	return v, nil
}

func sliceGrid(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	a, err := grid.ParseAxis(cfg.Axis)
	if err != nil {
		return err
	}

	c, err := openContainer(cfg.Input)
	if err != nil {
		return err
	}
	defer c.Close()

	g, err := gridio.ReadUniformGrid(c, cfg.Fields)
	if err != nil {
		return err
	}
	logger.Debug("grid loaded",
		zap.String("input", cfg.Input),
		zap.Ints("dims", g.Dims[:]),
		zap.Float64("time", g.Time),
		zap.Strings("fields", g.FieldNames()))

	coord, err := sliceCoord(g, cfg.Center, a)
	if err != nil {
		return err
	}

	opts := render.DefaultSliceOptions()
	opts.OutputDir = cfg.OutputDir
	opts.Basename = strings.TrimSuffix(filepath.Base(cfg.Input), filepath.Ext(cfg.Input))
	opts.LogScale = cfg.LogScale
	opts.Width = vg.Length(cfg.WidthIn) * vg.Inch
	opts.Height = vg.Length(cfg.HeightIn) * vg.Inch

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return err
	}
	for _, f := range cfg.Fields {
		path, err := render.SaveSlice(g, f.Name, a, coord, opts)
		if err != nil {
			return fmt.Errorf("slice %s: %w", f.Name, err)
		}
		logger.Info("slice saved", zap.String("field", f.Name), zap.String("path", path))
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}

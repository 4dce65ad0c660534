package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/halotools/internal/config"
	"github.com/san-kum/halotools/internal/gridio"
	"github.com/san-kum/halotools/internal/pipeline"
	"github.com/san-kum/halotools/internal/render"
	"github.com/san-kum/halotools/internal/storage"
)

var (
	startIdx int
	endIdx   int
	stepIdx  int

	configFile string
	preset     string
	dataDir    string
	outDir     string
	jobs       int
	bins       int
	center     []float64
	vicinity   float64
	verbose    bool

	plotCol int
	plotLog    bool
	asJSON     bool
	exportPath string

	logger *zap.Logger
)

// newLoader is replaced in tests.
var newLoader = func(cfg *config.ProfileConfig, log *zap.Logger) pipeline.Loader {
	return gridio.NewSnapshotLoader(cfg, log)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "compute-profiles",
		Short: "halo density, mass, circular velocity and dispersion profiles",
		Long: `Loads ../Data_0000NN for every index in [start, end], refines the halo
center around the configured first guess and writes

  Halo_Parameter
  prof_dens/Data_0000NN_<axis>_profile_data
  prof_mass/Data_0000NN_<axis>_mass_accumule
  prof_circular_vel/Data_0000NN_<axis>_circular_velocity
  prof_veldisp/Data_0000NN_<axis>_veldisp_haloRestFrame`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		PersistentPreRunE: initLogger,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: computeProfiles,
	}

	rootCmd.PersistentFlags().StringVar(&outDir, "out", config.DefaultOutputDir, "output directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")

	rootCmd.Flags().IntVarP(&startIdx, "start", "s", 0, "first data index")
	rootCmd.Flags().IntVarP(&endIdx, "end", "e", 0, "last data index")
	rootCmd.Flags().IntVarP(&stepIdx, "step", "d", 1, "delta data index")
	rootCmd.Flags().StringVar(&preset, "preset", "", "use preset halo parameters")
	rootCmd.Flags().StringVar(&dataDir, "data-dir", config.DefaultDataDir, "directory holding the snapshots")
	rootCmd.Flags().IntVar(&jobs, "jobs", config.DefaultJobs, "snapshots processed concurrently")
	rootCmd.Flags().IntVar(&bins, "bins", config.DefaultBins, "number of radial shells")
	rootCmd.Flags().Float64SliceVar(&center, "center", nil, "first guess of the halo center x,y,z")
	rootCmd.Flags().Float64Var(&vicinity, "vicinity", config.DefaultVicinity, "search radius around the first guess")
	_ = rootCmd.MarkFlagRequired("start")
	_ = rootCmd.MarkFlagRequired("end")

	plotCmd := &cobra.Command{
		Use:   "plot [profile_file]",
		Short: "plot one column of a profile file",
		Args:  cobra.ExactArgs(1),
		RunE:  plotProfile,
	}
	plotCmd.Flags().IntVar(&plotCol, "col", 1, "column to plot")
	plotCmd.Flags().BoolVar(&plotLog, "log", false, "plot log10 of the column")

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "show the recorded halo parameters",
		Args:  cobra.NoArgs,
		RunE:  showParams,
	}
	paramsCmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	paramsCmd.Flags().StringVar(&exportPath, "export", "", "write the records as JSON to this file")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available halo presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, name := range config.ListPresets() {
				p := config.Presets[name]
				fmt.Fprintf(out, "  %-20s center=%v vicinity=%g\n", name, p.CenterGuess, p.Vicinity)
			}
		},
	}

	rootCmd.AddCommand(plotCmd, paramsCmd, presetsCmd)
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

// resolveConfig layers the config file, the preset and explicitly set flags,
// in that order.
func resolveConfig(cmd *cobra.Command) (*config.ProfileConfig, error) {
	cfg := config.DefaultProfileConfig()
	if configFile != "" {
		loaded, err := config.LoadProfile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		p.Apply(cfg)
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("out") {
		cfg.OutputDir = outDir
	}
	if flags.Changed("jobs") {
		cfg.Jobs = jobs
	}
	if flags.Changed("bins") {
		cfg.Bins = bins
	}
	if flags.Changed("vicinity") {
		cfg.Vicinity = vicinity
	}
	if flags.Changed("center") {
		if len(center) != 3 {
			return nil, fmt.Errorf("%w: --center needs 3 values, got %d", config.ErrInvalidConfig, len(center))
		}
		copy(cfg.CenterGuess[:], center)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func computeProfiles(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	indices, err := pipeline.Indices(startIdx, endIdx, stepIdx)
	if err != nil {
		return err
	}

	st := storage.New(cfg.OutputDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger.Info("computing profiles",
		zap.Int("start", startIdx),
		zap.Int("end", endIdx),
		zap.Int("step", stepIdx),
		zap.Int("snapshots", len(indices)),
		zap.String("data_dir", cfg.DataDir),
		zap.String("output_dir", cfg.OutputDir),
		zap.Int("jobs", cfg.Jobs))

	d := pipeline.NewDriver(cfg, newLoader(cfg, logger), st, logger)
	if _, err := d.Run(ctx, startIdx, endIdx, stepIdx); err != nil {
		logger.Error("profile run aborted", zap.Error(err))
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Done !")
	return nil
}

func plotProfile(cmd *cobra.Command, args []string) error {
	t, err := storage.LoadTable(args[0])
	if err != nil {
		return err
	}

	opts := render.DefaultGraphOptions()
	opts.LogScale = plotLog
	graph, err := render.ProfileGraph(t, plotCol, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "file: %s\n", args[0])
	fmt.Fprintf(out, "shells: %d\n\n", len(t.Rows))
	fmt.Fprintln(out, graph)
	return nil
}

// resultsDir resolves the output directory for subcommands that only read
// results: the config file, then an explicit --out.
func resultsDir(cmd *cobra.Command) (string, error) {
	dir := config.DefaultOutputDir
	if configFile != "" {
		cfg, err := config.LoadProfile(configFile)
		if err != nil {
			return "", fmt.Errorf("failed to load config: %w", err)
		}
		dir = cfg.OutputDir
	}
	if cmd.Flags().Changed("out") {
		dir = outDir
	}
	return dir, nil
}

func showParams(cmd *cobra.Command, args []string) error {
	dir, err := resultsDir(cmd)
	if err != nil {
		return err
	}
	records, err := storage.New(dir).LoadParams()
	if err != nil {
		return err
	}
	if exportPath != "" {
		if err := storage.ExportJSONFile(exportPath, records); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", len(records), exportPath)
		return nil
	}
	if asJSON {
		return storage.ExportJSON(cmd.OutOrStdout(), records)
	}
	fmt.Fprintln(cmd.OutOrStdout(), render.ParamsTable(records))
	return nil
}

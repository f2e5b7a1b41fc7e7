// Package cmd provides the command-line interface of prefetchsweep.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/prefetchsweep/config"
	"github.com/sarchlab/prefetchsweep/sweep"
)

var (
	envFile    string
	logLevel   string
	sweepFile  string
	benchRoot  string
	benchmarks []string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "prefetchsweep",
	Short: "Run gem5 prefetcher sweeps and collect their statistics.",
	Long: `prefetchsweep launches one gem5 simulation per configuration of a ` +
		`prefetcher sweep (launch), and collects the statistics the runs ` +
		`left behind into one table (extract).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(logLevel); err != nil {
			return err
		}

		return config.LoadEnv(envFile)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env-file", config.DefaultEnvFile,
		"File to load environment variables from, if it exists.")
	flags.StringVar(&logLevel, "log-level", "info",
		"Log level: debug, info, warn or error.")
	flags.StringVar(&sweepFile, "sweep", "",
		"YAML file overriding the swept dimensions.")
	flags.StringVar(&benchRoot, "bench-root", "microbenchmark",
		"Directory holding one sub-directory per benchmark. Relative paths "+
			"are resolved against LAB_PATH.")
	flags.StringSliceVar(&benchmarks, "benchmarks", nil,
		"Benchmarks to sweep instead of the discovered ones.")
}

// Execute adds all child commands to the root command and sets flags
// appropriately. On failure it exits through atexit so that open recorders
// flush their buffered rows.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}
}

func setupLogging(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	slog.SetDefault(slog.New(handler))

	return nil
}

// labRelative resolves p against the lab directory unless it is absolute.
func labRelative(labPath, p string) string {
	if filepath.IsAbs(p) {
		return p
	}

	return filepath.Join(labPath, p)
}

// loadDimensions builds the dimensions shared by all commands: defaults,
// overridden by the sweep file, with benchmarks from the flag or discovered
// under the benchmark root.
func loadDimensions(labPath string) (sweep.Dimensions, error) {
	d := sweep.DefaultDimensions()

	if sweepFile != "" {
		var err error

		d, err = sweep.LoadDimensions(sweepFile)
		if err != nil {
			return d, err
		}
	}

	switch {
	case len(benchmarks) > 0:
		d = d.WithBenchmarks(benchmarks)
	case len(d.Benchmarks) == 0:
		found, err := sweep.DiscoverBenchmarks(labRelative(labPath, benchRoot))
		if err != nil {
			return d, fmt.Errorf("discovering benchmarks: %w", err)
		}

		d = d.WithBenchmarks(found)
	}

	if err := d.Validate(); err != nil {
		return d, fmt.Errorf("invalid sweep: %w", err)
	}

	return d, nil
}

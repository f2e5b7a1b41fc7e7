package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/prefetchsweep/config"
	"github.com/sarchlab/prefetchsweep/datarecording"
	"github.com/sarchlab/prefetchsweep/sim"
	"github.com/sarchlab/prefetchsweep/stats"
	"github.com/sarchlab/prefetchsweep/sweep"
)

var (
	extractOut    string
	missingPolicy string
	clockDerived  bool
	ticksPerCycle float64
	tickRate      string
	parallelism   int
	statsDB       string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Collect the statistics of every run of the sweep into a CSV table",
	Long: `Read the stats.txt file of every configuration of the sweep and ` +
		`write one CSV row per configuration, in sweep order. Runs without ` +
		`a report, or with statistics missing, are written as 0 or NA ` +
		`depending on --missing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, err := stats.ParseMissingPolicy(missingPolicy)
		if err != nil {
			return err
		}

		model, err := cycleModel()
		if err != nil {
			return err
		}

		paths, err := config.Resolve(false)
		if err != nil {
			return err
		}

		dims, err := loadDimensions(paths.LabPath)
		if err != nil {
			return err
		}

		extractor := stats.MakeBuilder().
			WithLayout(sweep.Layout{OutputRoot: paths.Results}).
			WithCycleModel(model).
			WithParallelism(parallelism).
			Build()

		rows, err := extractor.Extract(cmd.Context(), sweep.Keys(dims))
		if err != nil {
			return err
		}

		if err := writeTable(cmd.OutOrStdout(), rows, policy); err != nil {
			return err
		}

		if statsDB != "" {
			if err := recordStats(statsDB, rows); err != nil {
				return err
			}
		}

		s := stats.Summarize(rows)
		fmt.Fprintf(cmd.ErrOrStderr(),
			"%d rows: %d complete, %d without report, %d with missing statistics\n",
			s.Rows, s.Complete, s.Unreadable, s.Incomplete)

		return nil
	},
}

func cycleModel() (stats.CycleModel, error) {
	if !clockDerived {
		model := stats.FixedRatio{TicksPerCycle: ticksPerCycle}
		if err := model.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --ticks-per-cycle: %w", err)
		}

		return model, nil
	}

	rate, err := sim.ParseFreq(tickRate)
	if err != nil {
		return nil, fmt.Errorf("invalid tick rate: %w", err)
	}

	if rate <= 0 {
		return nil, fmt.Errorf("tick rate must be positive, got %s", tickRate)
	}

	return stats.ClockDerived{TickRate: rate}, nil
}

func writeTable(stdout io.Writer, rows []stats.Row, policy stats.MissingPolicy) error {
	if extractOut == "-" {
		return stats.WriteCSV(stdout, rows, policy)
	}

	f, err := os.Create(extractOut)
	if err != nil {
		return err
	}

	if err := stats.WriteCSV(f, rows, policy); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func recordStats(db string, rows []stats.Row) error {
	rec, err := datarecording.Open(db)
	if err != nil {
		return err
	}

	if err := stats.Record(rec, rows); err != nil {
		rec.Close()
		return err
	}

	return rec.Close()
}

func init() {
	flags := extractCmd.Flags()
	flags.StringVar(&extractOut, "out", "prefetchstats.csv",
		"CSV file to write, - for stdout.")
	flags.StringVar(&missingPolicy, "missing", "zero",
		"How unmeasured values are written: zero or na.")
	flags.BoolVar(&clockDerived, "clock-derived-cycles", false,
		"Convert ticks to cycles with each run's clock instead of a fixed ratio.")
	flags.Float64Var(&ticksPerCycle, "ticks-per-cycle", stats.DefaultTicksPerCycle,
		"Fixed tick-to-cycle ratio.")
	flags.StringVar(&tickRate, "tick-rate", stats.DefaultTickRate.String(),
		"Simulator tick frequency used with --clock-derived-cycles.")
	flags.IntVar(&parallelism, "parallel", 1, "Reports read at the same time.")
	flags.StringVar(&statsDB, "db", "",
		"Database file to also store the statistics in.")

	rootCmd.AddCommand(extractCmd)
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/prefetchsweep/config"
	"github.com/sarchlab/prefetchsweep/datarecording"
	"github.com/sarchlab/prefetchsweep/monitoring"
	"github.com/sarchlab/prefetchsweep/runner"
	"github.com/sarchlab/prefetchsweep/sim"
	"github.com/sarchlab/prefetchsweep/sweep"
)

var (
	configScript   string
	binaryName     string
	jobTimeout     time.Duration
	runsDB         string
	noDB           bool
	monitorEnabled bool
	monitorPort    int
	openMonitor    bool
	sampleInterval time.Duration
)

var launchCmd = &cobra.Command{
	Use:   "launch [N]",
	Short: "Run every configuration of the sweep on N parallel simulators",
	Long: `Run one gem5 simulation per configuration of the sweep. At most N ` +
		`simulations run at the same time (default 1). One JSON record per ` +
		`finished run is printed on stdout.`,
	Args: cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workers := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid number of workers %q: %w", args[0], err)
			}

			workers = n
		}

		paths, err := config.Resolve(true)
		if err != nil {
			return err
		}

		dims, err := loadDimensions(paths.LabPath)
		if err != nil {
			return err
		}

		jobs := sweep.Enumerate(dims, sweep.Layout{
			OutputRoot:    paths.Results,
			BenchmarkRoot: labRelative(paths.LabPath, benchRoot),
			BinaryName:    binaryName,
			Simulator:     paths.Simulator,
			ConfigScript:  labRelative(paths.LabPath, configScript),
		})

		ctx, stop := signal.NotifyContext(cmd.Context(),
			os.Interrupt, syscall.SIGTERM)
		defer stop()

		return launch(ctx, cmd, workers, jobs)
	},
}

func launch(
	ctx context.Context,
	cmd *cobra.Command,
	workers int,
	jobs []sweep.Job,
) error {
	builder := runner.MakeBuilder().
		WithWorkers(workers).
		WithTimeout(jobTimeout).
		WithLauncher(runner.SimulatorLauncher{
			Sampler: monitoring.ResourceSampler{Interval: sampleInterval},
		}).
		WithSinks(runner.NewJSONLinesSink(cmd.OutOrStdout()))

	var recorderSink *runner.RecorderSink

	if !noDB {
		rec, err := datarecording.New(runsDB)
		if err != nil {
			return err
		}
		defer rec.Close()

		recorderSink, err = runner.NewRecorderSink(rec)
		if err != nil {
			return err
		}

		builder = builder.WithSinks(recorderSink)
	}

	if monitorEnabled || openMonitor {
		monitor := monitoring.NewMonitor()
		if monitorPort != 0 {
			monitor.WithPortNumber(monitorPort)
		}

		bar := monitor.CreateProgressBar("sweep", uint64(len(jobs)))
		defer monitor.CompleteProgressBar(bar)

		url, err := monitor.StartServer()
		if err != nil {
			return err
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(), 5*time.Second)
			defer cancel()

			_ = monitor.StopServer(shutdownCtx)
		}()

		if openMonitor {
			if err := browser.OpenURL(url); err != nil {
				fmt.Fprintf(os.Stderr, "cannot open browser: %v\n", err)
			}
		}

		builder = builder.
			WithProgressBar(bar).
			WithHook(sim.AtPos(runner.HookPosJobState,
				runner.NewMonitorHook(monitor)))
	}

	dispatcher, err := builder.Build()
	if err != nil {
		return err
	}

	results, err := dispatcher.Run(ctx, jobs)

	if recorderSink != nil {
		err = errors.Join(err, recorderSink.Flush())
	}

	completed := 0
	for _, r := range results {
		if r.State == runner.JobCompleted {
			completed++
		}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d runs completed\n",
		completed, len(results))

	return err
}

func init() {
	flags := launchCmd.Flags()
	flags.StringVar(&configScript, "config-script", "gem5-config/run_micro.py",
		"gem5 configuration script. Relative paths are resolved against LAB_PATH.")
	flags.StringVar(&binaryName, "binary-name", sweep.DefaultBinaryName,
		"Executable inside each benchmark directory.")
	flags.DurationVar(&jobTimeout, "timeout", 0,
		"Wall-clock limit of each run, 0 for none.")
	flags.StringVar(&runsDB, "db", "",
		"Database to record runs in, without the .sqlite3 suffix. "+
			"A unique name is picked if empty.")
	flags.BoolVar(&noDB, "no-db", false, "Do not record runs in a database.")
	flags.BoolVar(&monitorEnabled, "monitor", false,
		"Serve the progress of the sweep over HTTP.")
	flags.IntVar(&monitorPort, "monitor-port", 0,
		"Port of the monitoring server, random if 0.")
	flags.BoolVar(&openMonitor, "open-monitor", false,
		"Serve the progress over HTTP and open it in a browser.")
	flags.DurationVar(&sampleInterval, "sample-interval", time.Second,
		"How often simulator memory and CPU use is sampled, 0 to disable.")

	rootCmd.AddCommand(launchCmd)
}

package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/sarchlab/prefetchsweep/monitoring"
	"github.com/sarchlab/prefetchsweep/sweep"
)

// Files the simulator output is redirected to, inside the run's output
// directory.
const (
	SimOutFileName = "simout"
	SimErrFileName = "simerr"
)

// DefaultKillGrace is how long a killed simulator may keep its output pipes
// open before Wait gives up on it.
const DefaultKillGrace = 5 * time.Second

// Outcome is what a launcher observed about one simulator process.
type Outcome struct {
	ExitCode int
	Exit     ExitInfo
	Usage    monitoring.ResourceUsage
}

// A Launcher runs the simulation of one job and blocks until it ends. An
// error means the run did not end on its own: it could not start, or ctx
// was done before it exited. A non-zero exit status is not an error; it is
// reported in the Outcome.
type Launcher interface {
	Launch(ctx context.Context, job sweep.Job) (Outcome, error)
}

// SimulatorLauncher starts the simulator as a child process.
type SimulatorLauncher struct {
	// Sampler watches the memory and CPU use of the simulator.
	Sampler monitoring.ResourceSampler

	// KillGrace bounds the wait after the process group was killed. Zero
	// means DefaultKillGrace.
	KillGrace time.Duration
}

// Args returns the simulator command line of the job, without the simulator
// itself.
func (l SimulatorLauncher) Args(job sweep.Job) []string {
	return []string{
		"--outdir=" + job.OutputDir,
		job.ConfigScript,
		job.Key.CPU,
		job.Key.Mem,
		job.Binary,
		job.Key.DRAM,
		job.Key.Prefetcher,
		"--clock=" + job.Key.Clock,
	}
}

// Launch runs the simulator in its own process group. When ctx is done the
// whole group is killed.
func (l SimulatorLauncher) Launch(
	ctx context.Context,
	job sweep.Job,
) (Outcome, error) {
	outcome := Outcome{ExitCode: -1}

	simoutPath := filepath.Join(job.OutputDir, SimOutFileName)

	simout, err := os.Create(simoutPath)
	if err != nil {
		return outcome, err
	}
	defer simout.Close()

	simerr, err := os.Create(filepath.Join(job.OutputDir, SimErrFileName))
	if err != nil {
		return outcome, err
	}
	defer simerr.Close()

	cmd := exec.CommandContext(ctx, job.Simulator, l.Args(job)...)
	cmd.Stdout = simout
	cmd.Stderr = simerr
	cmd.WaitDelay = l.killGrace()
	runInProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return outcome, fmt.Errorf("starting simulator: %w", err)
	}

	sampleCtx, stopSampling := context.WithCancel(context.Background())
	usage := l.Sampler.Watch(sampleCtx, cmd.Process.Pid)

	waitErr := cmd.Wait()

	stopSampling()
	outcome.Usage = <-usage

	if cmd.ProcessState != nil {
		outcome.ExitCode = cmd.ProcessState.ExitCode()
	}

	info, scanErr := ScanExitFile(simoutPath)
	outcome.Exit = info

	if err := ctx.Err(); err != nil {
		return outcome, err
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return outcome, waitErr
	}

	if scanErr != nil {
		return outcome, fmt.Errorf("reading %s: %w", simoutPath, scanErr)
	}

	return outcome, nil
}

func (l SimulatorLauncher) killGrace() time.Duration {
	if l.KillGrace > 0 {
		return l.KillGrace
	}

	return DefaultKillGrace
}

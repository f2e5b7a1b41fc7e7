// Package runner runs the jobs of a sweep on a bounded pool of workers.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/prefetchsweep/monitoring"
	"github.com/sarchlab/prefetchsweep/sim"
	"github.com/sarchlab/prefetchsweep/sweep"
)

// HookPosJobState marks a job state change. The hook item is a copy of the
// job's Result after the change; the detail is a StateChange.
var HookPosJobState = &sim.HookPos{Name: "Job State"}

// StateChange is the hook detail of HookPosJobState.
type StateChange struct {
	From State
	To   State
}

// ErrInvalidWorkers is returned when the pool would have no worker.
var ErrInvalidWorkers = errors.New("number of workers must be at least 1")

// Builder can build a Dispatcher.
type Builder struct {
	workers     int
	timeout     time.Duration
	launcher    Launcher
	sinks       []RecordSink
	progressBar *monitoring.ProgressBar
	logger      *slog.Logger
	idGen       sim.IDGenerator
	hooks       []sim.Hook
}

// MakeBuilder creates a builder with one worker and no timeout.
func MakeBuilder() Builder {
	return Builder{
		workers: 1,
		logger:  slog.Default(),
		idGen:   sim.NewXIDGenerator(),
	}
}

// WithWorkers sets how many jobs may run at the same time.
func (b Builder) WithWorkers(n int) Builder {
	b.workers = n
	return b
}

// WithTimeout sets the wall-clock limit of each job. Zero means no limit.
func (b Builder) WithTimeout(d time.Duration) Builder {
	b.timeout = d
	return b
}

// WithLauncher sets what runs the jobs.
func (b Builder) WithLauncher(l Launcher) Builder {
	b.launcher = l
	return b
}

// WithSinks adds sinks that receive the completion records.
func (b Builder) WithSinks(sinks ...RecordSink) Builder {
	b.sinks = append(append([]RecordSink(nil), b.sinks...), sinks...)
	return b
}

// WithProgressBar sets a progress bar to update as jobs run.
func (b Builder) WithProgressBar(pb *monitoring.ProgressBar) Builder {
	b.progressBar = pb
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(l *slog.Logger) Builder {
	b.logger = l
	return b
}

// WithIDGenerator sets how run IDs are generated.
func (b Builder) WithIDGenerator(g sim.IDGenerator) Builder {
	b.idGen = g
	return b
}

// WithHook registers a hook on the dispatcher being built.
func (b Builder) WithHook(h sim.Hook) Builder {
	b.hooks = append(append([]sim.Hook(nil), b.hooks...), h)
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.launcher == nil {
		panic("launcher is not set")
	}

	if b.idGen == nil {
		panic("id generator is not set")
	}
}

// Build creates the dispatcher.
func (b Builder) Build() (*Dispatcher, error) {
	b.parametersMustBeValid()

	if b.workers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkers, b.workers)
	}

	if b.timeout < 0 {
		return nil, fmt.Errorf("timeout cannot be negative: %s", b.timeout)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		HookableBase: sim.NewHookableBase(),
		workers:      b.workers,
		timeout:      b.timeout,
		launcher:     b.launcher,
		sinks:        b.sinks,
		progressBar:  b.progressBar,
		logger:       logger,
		idGen:        b.idGen,
	}

	for _, h := range b.hooks {
		d.AcceptHook(h)
	}

	return d, nil
}

// A Dispatcher runs jobs on a bounded pool. A failing job never stops the
// others and is never retried.
type Dispatcher struct {
	*sim.HookableBase

	workers     int
	timeout     time.Duration
	launcher    Launcher
	sinks       []RecordSink
	progressBar *monitoring.ProgressBar
	logger      *slog.Logger
	idGen       sim.IDGenerator
}

type dispatch struct {
	*Dispatcher

	tracker *Tracker
	results []Result

	errLock  sync.Mutex
	sinkErrs []error
}

// Run executes the jobs and blocks until all of them ended. It returns one
// result per job, in the order of jobs. When ctx is canceled, running
// simulators are killed and jobs that have not started fail with cause
// "canceled"; Run then returns the context error along with the results.
// Jobs must have distinct IDs.
func (d *Dispatcher) Run(ctx context.Context, jobs []sweep.Job) ([]Result, error) {
	r := &dispatch{
		Dispatcher: d,
		tracker:    NewTracker(),
		results:    make([]Result, len(jobs)),
	}

	for i, job := range jobs {
		if err := r.tracker.Add(job.ID); err != nil {
			return nil, err
		}

		r.results[i] = Result{
			RunID: d.idGen.Generate(),
			Job:   job,
			State: JobPending,
		}
	}

	d.logger.Info("dispatching jobs", "jobs", len(jobs), "workers", d.workers)

	g := new(errgroup.Group)
	g.SetLimit(d.workers)

	for i := range r.results {
		if ctx.Err() != nil {
			break
		}

		i := i

		g.Go(func() error {
			r.runJob(ctx, &r.results[i])
			return nil
		})
	}

	_ = g.Wait()

	for i := range r.results {
		if r.results[i].State == JobPending {
			r.fail(&r.results[i], CauseCanceled, ctx.Err())
		}
	}

	d.logger.Info("jobs finished",
		"completed", r.tracker.Count(JobCompleted),
		"failed", r.tracker.Count(JobFailed))

	if err := ctx.Err(); err != nil {
		return r.results, err
	}

	if len(r.sinkErrs) > 0 {
		return r.results, fmt.Errorf("recording results: %w",
			errors.Join(r.sinkErrs...))
	}

	return r.results, nil
}

func (r *dispatch) runJob(ctx context.Context, res *Result) {
	r.transition(res, JobDispatched)

	if err := ctx.Err(); err != nil {
		r.fail(res, CauseCanceled, err)
		return
	}

	if err := os.MkdirAll(res.Job.OutputDir, 0o755); err != nil {
		r.fail(res, CauseLaunchFailed, err)
		return
	}

	jobCtx, cancel := r.jobContext(ctx)
	defer cancel()

	res.StartTime = time.Now()
	r.transition(res, JobRunning)

	outcome, err := r.launcher.Launch(jobCtx, res.Job)

	res.EndTime = time.Now()
	res.Duration = res.EndTime.Sub(res.StartTime)
	res.ExitCode = outcome.ExitCode
	res.ROIBegin = outcome.Exit.ROIBegin
	res.ROIEnd = outcome.Exit.ROIEnd
	res.PeakRSS = outcome.Usage.PeakRSS
	res.PeakCPUPercent = outcome.Usage.PeakCPUPercent

	switch {
	case err != nil && ctx.Err() != nil:
		r.fail(res, CauseCanceled, err)
	case err != nil && errors.Is(jobCtx.Err(), context.DeadlineExceeded):
		r.fail(res, CauseTimeout, err)
	case err != nil:
		r.fail(res, CauseLaunchFailed, err)
	default:
		state, cause := classify(outcome)
		res.Cause = cause
		r.finish(res, state)
	}
}

func (r *dispatch) jobContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout == 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, r.timeout)
}

// classify decides the terminal state of a run that ended on its own.
func classify(o Outcome) (State, string) {
	cause := o.Exit.LastCause()

	if cause == "" {
		if o.ExitCode != 0 {
			return JobFailed, fmt.Sprintf("exit status %d", o.ExitCode)
		}

		return JobFailed, CauseNoExitEvent
	}

	if o.ExitCode == 0 && o.Exit.ExitedNormally() {
		return JobCompleted, cause
	}

	return JobFailed, cause
}

func (r *dispatch) fail(res *Result, cause string, err error) {
	res.Cause = cause
	if err != nil {
		res.Err = err.Error()
	}

	r.finish(res, JobFailed)
}

func (r *dispatch) finish(res *Result, state State) {
	wasRunning := res.State == JobRunning

	r.transition(res, state)
	r.updateProgress(wasRunning, state)

	for _, s := range r.sinks {
		if err := s.Record(*res); err != nil {
			r.logger.Warn("cannot record result", "job", res.Job.ID, "err", err)
			r.errLock.Lock()
			r.sinkErrs = append(r.sinkErrs, err)
			r.errLock.Unlock()
		}
	}

	logger := r.logger.With("job", res.Job.ID, "run", res.RunID)
	if state == JobCompleted {
		logger.Info("job completed", "duration", res.Duration)
	} else {
		logger.Warn("job failed", "cause", res.Cause, "exit_code", res.ExitCode,
			"err", res.Err)
	}
}

func (r *dispatch) updateProgress(wasRunning bool, state State) {
	pb := r.progressBar
	if pb == nil {
		return
	}

	switch {
	case state == JobCompleted:
		pb.MoveInProgressToFinished(1)
	case wasRunning:
		pb.MoveInProgressToFailed(1)
	default:
		pb.IncrementFailed(1)
	}
}

func (r *dispatch) transition(res *Result, to State) {
	from := res.State

	if err := r.tracker.Transition(res.Job.ID, to); err != nil {
		panic(err)
	}

	res.State = to

	if to == JobRunning && r.progressBar != nil {
		r.progressBar.IncrementInProgress(1)
	}

	r.InvokeHook(sim.HookCtx{
		Domain: r.Dispatcher,
		Pos:    HookPosJobState,
		Item:   *res,
		Detail: StateChange{From: from, To: to},
	})
}

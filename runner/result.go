package runner

import (
	"time"

	"github.com/sarchlab/prefetchsweep/sweep"
)

// Result is the completion record of one job.
type Result struct {
	RunID          string        `json:"run_id"`
	Job            sweep.Job     `json:"job"`
	State          State         `json:"state"`
	ExitCode       int           `json:"exit_code"`
	Cause          string        `json:"cause"`
	ROIBegin       bool          `json:"roi_begin"`
	ROIEnd         bool          `json:"roi_end"`
	Err            string        `json:"error,omitempty"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	Duration       time.Duration `json:"duration_ns"`
	PeakRSS        uint64        `json:"peak_rss"`
	PeakCPUPercent float64       `json:"peak_cpu_percent"`
}

// RunRecord is the flat form of a Result stored in the runs table.
type RunRecord struct {
	RunID          string
	JobID          string
	Benchmark      string
	CPU            string
	Mem            string
	DRAM           string
	Clock          string
	Prefetcher     string
	State          string
	ExitCode       int
	Cause          string
	ROIBegin       bool
	ROIEnd         bool
	ErrorText      string
	StartUnixNano  int64
	DurationSecond float64
	PeakRSS        uint64
	PeakCPUPercent float64
}

// Record flattens the result.
func (r Result) Record() RunRecord {
	rec := RunRecord{
		RunID:          r.RunID,
		JobID:          r.Job.ID,
		Benchmark:      r.Job.Key.Benchmark,
		CPU:            r.Job.Key.CPU,
		Mem:            r.Job.Key.Mem,
		DRAM:           r.Job.Key.DRAM,
		Clock:          r.Job.Key.Clock,
		Prefetcher:     r.Job.Key.Prefetcher,
		State:          r.State.String(),
		ExitCode:       r.ExitCode,
		Cause:          r.Cause,
		ROIBegin:       r.ROIBegin,
		ROIEnd:         r.ROIEnd,
		ErrorText:      r.Err,
		DurationSecond: r.Duration.Seconds(),
		PeakRSS:        r.PeakRSS,
		PeakCPUPercent: r.PeakCPUPercent,
	}

	if !r.StartTime.IsZero() {
		rec.StartUnixNano = r.StartTime.UnixNano()
	}

	return rec
}

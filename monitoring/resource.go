package monitoring

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// ResourceUsage summarizes what a process consumed while it was watched.
type ResourceUsage struct {
	PeakRSS        uint64  `json:"peak_rss"`
	PeakCPUPercent float64 `json:"peak_cpu_percent"`
	Samples        int     `json:"samples"`
}

// A ResourceSampler periodically samples the memory and CPU usage of a
// process. A zero Interval disables sampling.
type ResourceSampler struct {
	Interval time.Duration
}

// Watch samples the process with the given pid until ctx is done. The usage
// is delivered on the returned channel once sampling stops.
func (s ResourceSampler) Watch(ctx context.Context, pid int) <-chan ResourceUsage {
	out := make(chan ResourceUsage, 1)

	go func() {
		defer close(out)

		usage := ResourceUsage{}

		if s.Interval <= 0 {
			<-ctx.Done()
			out <- usage

			return
		}

		proc, err := process.NewProcess(int32(pid))
		if err != nil {
			<-ctx.Done()
			out <- usage

			return
		}

		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		for {
			sampleInto(proc, &usage)

			select {
			case <-ctx.Done():
				out <- usage
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}

func sampleInto(proc *process.Process, usage *ResourceUsage) {
	mem, err := proc.MemoryInfo()
	if err != nil {
		return
	}

	usage.Samples++

	if mem.RSS > usage.PeakRSS {
		usage.PeakRSS = mem.RSS
	}

	cpu, err := proc.CPUPercent()
	if err == nil && cpu > usage.PeakCPUPercent {
		usage.PeakCPUPercent = cpu
	}
}

// SelfUsage samples the current process once.
func SelfUsage() (ResourceUsage, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return ResourceUsage{}, err
	}

	usage := ResourceUsage{}

	mem, err := proc.MemoryInfo()
	if err != nil {
		return usage, err
	}

	cpu, err := proc.CPUPercent()
	if err != nil {
		return usage, err
	}

	usage.PeakRSS = mem.RSS
	usage.PeakCPUPercent = cpu
	usage.Samples = 1

	return usage, nil
}

package sweep

// Job is everything needed to run one simulation of the sweep. A Job is a
// value; it is never modified after Enumerate creates it.
type Job struct {
	ID           string `json:"id"`
	Key          Key    `json:"key"`
	Simulator    string `json:"simulator"`
	ConfigScript string `json:"config_script"`
	Binary       string `json:"binary"`
	OutputDir    string `json:"output_dir"`
}

// Keys returns the cross product of the dimensions. Benchmark is the
// outermost loop and prefetcher the innermost, so the same dimensions always
// produce the same sequence.
func Keys(d Dimensions) []Key {
	keys := make([]Key, 0, d.Size())

	for _, bm := range d.Benchmarks {
		for _, cpu := range d.CPUs {
			for _, mem := range d.Mems {
				for _, clock := range d.Clocks {
					for _, dram := range d.DRAMs {
						for _, pf := range d.Prefetchers {
							keys = append(keys, Key{
								Benchmark:  bm,
								CPU:        cpu,
								Mem:        mem,
								DRAM:       dram,
								Clock:      clock,
								Prefetcher: pf,
							})
						}
					}
				}
			}
		}
	}

	return keys
}

// Enumerate turns every key of the sweep into a job placed by the layout.
func Enumerate(d Dimensions, l Layout) []Job {
	keys := Keys(d)
	jobs := make([]Job, 0, len(keys))

	for _, k := range keys {
		jobs = append(jobs, NewJob(k, l))
	}

	return jobs
}

// NewJob creates the job of a single key.
func NewJob(k Key, l Layout) Job {
	return Job{
		ID:           k.String(),
		Key:          k,
		Simulator:    l.Simulator,
		ConfigScript: l.ConfigScript,
		Binary:       l.BinaryPath(k),
		OutputDir:    l.OutputDir(k),
	}
}

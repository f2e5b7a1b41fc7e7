package sweep

import (
	"path/filepath"
)

// ReportFileName is the name of the statistics file the simulator writes in
// each run's output directory.
const ReportFileName = "stats.txt"

// DefaultBinaryName is the benchmark executable inside each benchmark
// directory.
const DefaultBinaryName = "bench.X86"

// Layout locates everything a job needs on disk. The output directory of a
// key is the only addressing scheme shared between launching and
// extraction.
type Layout struct {
	OutputRoot    string
	BenchmarkRoot string
	BinaryName    string
	Simulator     string
	ConfigScript  string
}

// OutputDir returns the directory a run writes into.
func (l Layout) OutputDir(k Key) string {
	return filepath.Join(append([]string{l.OutputRoot}, k.PathElements()...)...)
}

// ReportPath returns the location of the run's statistics file.
func (l Layout) ReportPath(k Key) string {
	return filepath.Join(l.OutputDir(k), ReportFileName)
}

// BinaryPath returns the benchmark executable of the key.
func (l Layout) BinaryPath(k Key) string {
	name := l.BinaryName
	if name == "" {
		name = DefaultBinaryName
	}

	return filepath.Join(l.BenchmarkRoot, k.Benchmark, name)
}

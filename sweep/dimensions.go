// Package sweep describes a parameter sweep over simulator configurations
// and enumerates the jobs it contains.
package sweep

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Dimensions holds the values of every swept configuration axis. The same
// Dimensions value drives both launching a sweep and extracting its
// statistics, so the two can never disagree about which runs exist.
type Dimensions struct {
	Benchmarks  []string `yaml:"benchmarks"`
	CPUs        []string `yaml:"cpus"`
	Mems        []string `yaml:"mems"`
	Clocks      []string `yaml:"clocks"`
	DRAMs       []string `yaml:"drams"`
	Prefetchers []string `yaml:"prefetchers"`
}

// DefaultDimensions returns the prefetcher study grid. Benchmarks are left
// empty; they are normally discovered from the benchmark directory.
func DefaultDimensions() Dimensions {
	return Dimensions{
		CPUs:   []string{"Minor4"},
		Mems:   []string{"Slow"},
		Clocks: []string{"1GHz"},
		DRAMs:  []string{"DDR3_2133_8x8"},
		Prefetchers: []string{
			"StridePrefetcher",
			"TaggedPrefetcher",
			"STeMSPrefetcher",
			"SMSPrefetcher",
			"ChenBaerPrefetcher",
		},
	}
}

// LoadDimensions reads a YAML sweep file. Axes that the file leaves empty
// keep their default values.
func LoadDimensions(path string) (Dimensions, error) {
	d := DefaultDimensions()

	b, err := os.ReadFile(path)
	if err != nil {
		return d, err
	}

	var fromFile Dimensions
	if err := yaml.Unmarshal(b, &fromFile); err != nil {
		return d, fmt.Errorf("parsing sweep file %s: %w", path, err)
	}

	return d.Merge(fromFile), nil
}

// Merge returns a copy of d where every non-empty axis of other replaces the
// corresponding axis of d.
func (d Dimensions) Merge(other Dimensions) Dimensions {
	pick := func(mine, theirs []string) []string {
		if len(theirs) > 0 {
			return append([]string(nil), theirs...)
		}

		return append([]string(nil), mine...)
	}

	return Dimensions{
		Benchmarks:  pick(d.Benchmarks, other.Benchmarks),
		CPUs:        pick(d.CPUs, other.CPUs),
		Mems:        pick(d.Mems, other.Mems),
		Clocks:      pick(d.Clocks, other.Clocks),
		DRAMs:       pick(d.DRAMs, other.DRAMs),
		Prefetchers: pick(d.Prefetchers, other.Prefetchers),
	}
}

// WithBenchmarks returns a copy of d using the given benchmarks.
func (d Dimensions) WithBenchmarks(benchmarks []string) Dimensions {
	d.Benchmarks = append([]string(nil), benchmarks...)
	return d
}

// Size returns the number of configurations in the sweep.
func (d Dimensions) Size() int {
	return len(d.Benchmarks) * len(d.CPUs) * len(d.Mems) *
		len(d.Clocks) * len(d.DRAMs) * len(d.Prefetchers)
}

func (d Dimensions) axes() []struct {
	name   string
	values []string
} {
	return []struct {
		name   string
		values []string
	}{
		{"benchmarks", d.Benchmarks},
		{"cpus", d.CPUs},
		{"mems", d.Mems},
		{"clocks", d.Clocks},
		{"drams", d.DRAMs},
		{"prefetchers", d.Prefetchers},
	}
}

// Validate makes sure every axis is non-empty and every value can be used as
// a single path element. Values that pass validation always map distinct
// keys to distinct output directories.
func (d Dimensions) Validate() error {
	var errs []error

	for _, axis := range d.axes() {
		if len(axis.values) == 0 {
			errs = append(errs, fmt.Errorf("%s: no values", axis.name))
			continue
		}

		for _, v := range axis.values {
			if err := validateValue(v); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", axis.name, err))
			}
		}

		dups := lo.FindDuplicates(axis.values)
		if len(dups) > 0 {
			errs = append(errs, fmt.Errorf(
				"%s: duplicated values %s", axis.name, strings.Join(dups, ", ")))
		}
	}

	return errors.Join(errs...)
}

func validateValue(v string) error {
	switch {
	case v == "":
		return errors.New("empty value")
	case v == "." || v == "..":
		return fmt.Errorf("value %q is not a directory name", v)
	case strings.ContainsAny(v, `/\`):
		return fmt.Errorf("value %q contains a path separator", v)
	case strings.TrimSpace(v) != v:
		return fmt.Errorf("value %q has surrounding spaces", v)
	}

	return nil
}

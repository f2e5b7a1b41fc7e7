// Package stats reads the statistics files written by simulator runs and
// turns them into a table.
package stats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// MinReportSize is the smallest report, in bytes, that can hold a statistic.
// Shorter files come from runs that crashed before dumping.
const MinReportSize = 10

// ErrReportTooShort is returned for reports below MinReportSize.
var ErrReportTooShort = errors.New("report file too short")

// A Source answers statistic lookups.
type Source interface {
	Lookup(name string) Lookup
}

// A Report holds the statistics of one run.
//
// The grammar of a report line is
//
//	line    = name WS value [WS] ["#" comment]
//	name    = any run of non-space characters
//	value   = float as printed by the simulator, including nan and inf
//
// Empty lines and lines starting with "---" (dump markers) are skipped, as
// are lines whose value does not parse, such as histogram buckets with
// several numbers. When a name appears more than once, the first value
// wins; the first dump is the region of interest.
type Report struct {
	values map[string]float64
	names  []string
}

// ParseReport reads a report.
func ParseReport(r io.Reader) (*Report, error) {
	rep := &Report{values: make(map[string]float64)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		name, value, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}

		if _, seen := rep.values[name]; seen {
			continue
		}

		rep.values[name] = value
		rep.names = append(rep.names, name)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return rep, nil
}

func parseLine(line string) (string, float64, bool) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}

	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "---") {
		return "", 0, false
	}

	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", 0, false
	}

	value, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return "", 0, false
	}

	return fields[0], value, true
}

// LoadReport reads the report at path. Files shorter than MinReportSize
// yield ErrReportTooShort.
func LoadReport(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	if info.Size() < MinReportSize {
		return nil, fmt.Errorf("%s: %w", path, ErrReportTooShort)
	}

	return ParseReport(f)
}

// Lookup returns the value of the named statistic. Values the simulator
// printed as nan or inf are Undefined.
func (r *Report) Lookup(name string) Lookup {
	v, ok := r.values[name]
	if !ok {
		return Missing(AbsentStat)
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing(Undefined)
	}

	return PresentValue(v)
}

// Names returns the statistic names in file order.
func (r *Report) Names() []string {
	return append([]string(nil), r.names...)
}

// Len returns the number of statistics in the report.
func (r *Report) Len() int {
	return len(r.names)
}

// unreadable is the source of a report that could not be loaded.
type unreadable struct{}

func (u unreadable) Lookup(string) Lookup {
	return Missing(UnreadableFile)
}

// Open loads the report at path. It never fails: a report that cannot be
// loaded answers every lookup with UnreadableFile, and the load error is
// returned alongside for logging.
func Open(path string) (Source, error) {
	rep, err := LoadReport(path)
	if err != nil {
		return unreadable{}, err
	}

	return rep, nil
}

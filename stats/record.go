package stats

import (
	"github.com/sarchlab/prefetchsweep/datarecording"
)

// TableName is the database table holding extracted statistics.
const TableName = "stats"

// Entry is one cell of the table in long form, as stored in the database.
// Value is 0 whenever Status is not "present", so the column never holds
// NaN.
type Entry struct {
	Benchmark  string
	CPU        string
	Mem        string
	DRAM       string
	Clock      string
	Prefetcher string
	Metric     string
	Value      float64
	Status     string
}

// Record stores the rows in the recorder, one entry per cell.
func Record(rec datarecording.DataRecorder, rows []Row) error {
	if err := rec.CreateTable(TableName, Entry{}); err != nil {
		return err
	}

	names := append(columnNames(), DerivedColumns...)

	for _, r := range rows {
		for _, name := range names {
			l := r.Value(name)

			e := Entry{
				Benchmark:  r.Key.Benchmark,
				CPU:        r.Key.CPU,
				Mem:        r.Key.Mem,
				DRAM:       r.Key.DRAM,
				Clock:      r.Key.Clock,
				Prefetcher: r.Key.Prefetcher,
				Metric:     name,
				Status:     l.Status.String(),
			}

			if l.OK() {
				e.Value = l.Value
			}

			if err := rec.InsertData(TableName, e); err != nil {
				return err
			}
		}
	}

	return rec.Flush()
}

func columnNames() []string {
	names := make([]string, len(Columns))
	for i, c := range Columns {
		names[i] = c.Name
	}

	return names
}

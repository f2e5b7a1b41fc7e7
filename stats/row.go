package stats

import (
	"github.com/sarchlab/prefetchsweep/sweep"
)

// A Row holds the statistics of one configuration. Values is parallel to
// Columns.
type Row struct {
	Key    sweep.Key
	Values []Lookup
	IPC    Lookup
	CPI    Lookup
}

// Value returns the named column, including the derived ipc and cpi.
func (r Row) Value(name string) Lookup {
	switch name {
	case ColumnIPC:
		return r.IPC
	case ColumnCPI:
		return r.CPI
	}

	i := columnIndex(name)
	if i < 0 || i >= len(r.Values) {
		return Missing(AbsentStat)
	}

	return r.Values[i]
}

// Unreadable reports whether the report of the row could not be read.
func (r Row) Unreadable() bool {
	for _, v := range r.Values {
		if v.Status != UnreadableFile {
			return false
		}
	}

	return len(r.Values) > 0
}

// Complete reports whether every statistic of the row was found.
func (r Row) Complete() bool {
	for _, v := range r.Values {
		if v.Status == AbsentStat || v.Status == UnreadableFile {
			return false
		}
	}

	return true
}

func newRow(k sweep.Key, src Source, cycles CycleModel) Row {
	row := Row{
		Key:    k,
		Values: make([]Lookup, len(Columns)),
	}

	for i, c := range Columns {
		l := src.Lookup(c.Stat)

		switch c.kind {
		case scaledColumn:
			l = l.Scale(c.divisor)
		case cycleColumn:
			l = toCycles(l, k, cycles)
		}

		row.Values[i] = l
	}

	row.IPC = Divide(row.Value(ColumnInstructions), row.Value(ColumnCycles))
	row.CPI = Reciprocal(row.IPC)

	return row
}

func toCycles(ticks Lookup, k sweep.Key, m CycleModel) Lookup {
	if !ticks.OK() {
		return ticks
	}

	c, err := m.Cycles(ticks.Value, k)
	if err != nil {
		return Missing(Undefined)
	}

	return PresentValue(c)
}

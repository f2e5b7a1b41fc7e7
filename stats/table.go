package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/sarchlab/prefetchsweep/sweep"
)

// MissingPolicy decides how values that were not measured are exported.
type MissingPolicy int

const (
	// ZeroFill writes 0 for absent statistics and unreadable reports.
	ZeroFill MissingPolicy = iota
	// MarkMissing writes NA for absent statistics and unreadable reports.
	MarkMissing
)

// Cell markers used in exported tables.
const (
	CellMissing   = "NA"
	CellUndefined = "NaN"
)

// ParseMissingPolicy maps "zero" and "na" to a policy.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch s {
	case "zero":
		return ZeroFill, nil
	case "na":
		return MarkMissing, nil
	default:
		return 0, fmt.Errorf("unknown missing-value policy %q (want zero or na)", s)
	}
}

func (p MissingPolicy) String() string {
	if p == MarkMissing {
		return "na"
	}

	return "zero"
}

// Cell formats a lookup for export. Undefined values are always written as
// NaN, never as an infinity.
func (p MissingPolicy) Cell(l Lookup) string {
	switch l.Status {
	case Present:
		return strconv.FormatFloat(l.Value, 'g', -1, 64)
	case Undefined:
		return CellUndefined
	default:
		if p == MarkMissing {
			return CellMissing
		}

		return "0"
	}
}

// DerivedCell formats a derived ratio. Zero-filling its inputs makes the
// ratio undefined, so a missing ipc or cpi is written as NaN unless the
// policy marks it NA.
func (p MissingPolicy) DerivedCell(l Lookup) string {
	if l.Status == Present || p == MarkMissing {
		return p.Cell(l)
	}

	return CellUndefined
}

// WriteCSV exports the rows with a header line.
func WriteCSV(w io.Writer, rows []Row, policy MissingPolicy) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header()); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{
			r.Key.Benchmark, r.Key.CPU, r.Key.Mem,
			r.Key.DRAM, r.Key.Clock, r.Key.Prefetcher,
		}

		for _, v := range r.Values {
			record = append(record, policy.Cell(v))
		}

		record = append(record,
			policy.DerivedCell(r.IPC), policy.DerivedCell(r.CPI))

		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// A TableRecord is a row read back from an exported table.
type TableRecord struct {
	Key    sweep.Key
	Values map[string]Lookup
}

// ReadCSV reads a table written by WriteCSV. NA cells come back as
// AbsentStat and NaN cells as Undefined.
func ReadCSV(r io.Reader) ([]TableRecord, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	if len(header) < len(KeyColumns) {
		return nil, fmt.Errorf("header has %d columns, want at least %d",
			len(header), len(KeyColumns))
	}

	for i, name := range KeyColumns {
		if header[i] != name {
			return nil, fmt.Errorf("column %d is %q, want %q", i, header[i], name)
		}
	}

	var records []TableRecord

	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, err
		}

		rec := TableRecord{
			Key: sweep.Key{
				Benchmark:  fields[0],
				CPU:        fields[1],
				Mem:        fields[2],
				DRAM:       fields[3],
				Clock:      fields[4],
				Prefetcher: fields[5],
			},
			Values: make(map[string]Lookup, len(header)-len(KeyColumns)),
		}

		for i := len(KeyColumns); i < len(header); i++ {
			l, err := parseCell(fields[i])
			if err != nil {
				return nil, fmt.Errorf("row %s column %s: %w",
					rec.Key, header[i], err)
			}

			rec.Values[header[i]] = l
		}

		records = append(records, rec)
	}

	return records, nil
}

func parseCell(s string) (Lookup, error) {
	switch s {
	case CellMissing:
		return Missing(AbsentStat), nil
	case CellUndefined:
		return Missing(Undefined), nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Lookup{}, err
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing(Undefined), nil
	}

	return PresentValue(v), nil
}

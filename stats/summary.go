package stats

import (
	"github.com/samber/lo"
)

// Summary counts how much of a sweep was actually measured.
type Summary struct {
	Rows         int
	Complete     int
	Unreadable   int
	Incomplete   int
	UndefinedCPI int
}

// Summarize counts the rows by measurement state.
func Summarize(rows []Row) Summary {
	return Summary{
		Rows:       len(rows),
		Complete:   lo.CountBy(rows, func(r Row) bool { return r.Complete() }),
		Unreadable: lo.CountBy(rows, func(r Row) bool { return r.Unreadable() }),
		Incomplete: lo.CountBy(rows, func(r Row) bool {
			return !r.Complete() && !r.Unreadable()
		}),
		UndefinedCPI: lo.CountBy(rows, func(r Row) bool {
			return r.CPI.Status == Undefined
		}),
	}
}

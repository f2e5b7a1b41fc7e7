package stats_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/prefetchsweep/datarecording"
	"github.com/sarchlab/prefetchsweep/stats"
	"github.com/sarchlab/prefetchsweep/sweep"
)

var _ = Describe("Record", func() {
	It("should store every cell with its status", func() {
		dir := GinkgoT().TempDir()
		layout := sweep.Layout{OutputRoot: filepath.Join(dir, "out")}
		keys := sweep.Keys(sweep.DefaultDimensions().WithBenchmarks([]string{"CCa"}))
		writeReport(layout, keys[0], sampleReport)

		rows, err := stats.MakeBuilder().WithLayout(layout).Build().
			Extract(context.Background(), keys)
		Expect(err).ToNot(HaveOccurred())

		dbPath := filepath.Join(dir, "sweep")
		rec, err := datarecording.New(dbPath)
		Expect(err).ToNot(HaveOccurred())

		Expect(stats.Record(rec, rows)).To(Succeed())
		Expect(rec.Close()).To(Succeed())

		reader, err := datarecording.NewReader(dbPath + ".sqlite3")
		Expect(err).ToNot(HaveOccurred())
		defer reader.Close()

		reader.MapTable(stats.TableName, stats.Entry{})

		perRow := len(stats.Header()) - len(stats.KeyColumns)
		_, total, err := reader.Query(context.Background(), stats.TableName,
			datarecording.QueryParams{})
		Expect(err).ToNot(HaveOccurred())
		Expect(total).To(Equal(len(rows) * perRow))

		results, _, err := reader.Query(context.Background(), stats.TableName,
			datarecording.QueryParams{
				Where: "Benchmark = ? AND Prefetcher = ? AND Metric = ?",
				Args:  []any{"CCa", keys[0].Prefetcher, "instructions"},
			})
		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(HaveLen(1))

		e := results[0].(*stats.Entry)
		Expect(e.Value).To(Equal(500000.0))
		Expect(e.Status).To(Equal("present"))

		results, _, err = reader.Query(context.Background(), stats.TableName,
			datarecording.QueryParams{
				Where: "Prefetcher = ? AND Metric = ?",
				Args:  []any{keys[1].Prefetcher, "cpi"},
			})
		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].(*stats.Entry).Status).To(Equal("unreadable"))
		Expect(results[0].(*stats.Entry).Value).To(Equal(0.0))
	})
})

package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/prefetchsweep/datarecording"
	"github.com/sarchlab/prefetchsweep/sweep"
)

var _ = Describe("Sinks", func() {
	var result Result

	BeforeEach(func() {
		job := makeJobs(GinkgoT().TempDir(), 1)[0]
		start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		result = Result{
			RunID:     "run-1",
			Job:       job,
			State:     JobCompleted,
			Cause:     CauseExitedNormally,
			ROIBegin:  true,
			ROIEnd:    true,
			StartTime: start,
			EndTime:   start.Add(90 * time.Second),
			Duration:  90 * time.Second,
			PeakRSS:   1 << 30,
		}
	})

	It("should write one JSON object per line", func() {
		buf := &bytes.Buffer{}
		sink := NewJSONLinesSink(buf)

		Expect(sink.Record(result)).To(Succeed())
		Expect(sink.Record(result)).To(Succeed())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(HaveLen(2))

		var decoded Result
		Expect(json.Unmarshal([]byte(lines[0]), &decoded)).To(Succeed())
		Expect(decoded.State).To(Equal(JobCompleted))
		Expect(decoded.Job).To(Equal(result.Job))
		Expect(decoded.Duration).To(Equal(90 * time.Second))
		Expect(lines[0]).To(ContainSubstring(`"state":"completed"`))
	})

	It("should store run records in the database", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "runs")
		rec, err := datarecording.New(dbPath)
		Expect(err).ToNot(HaveOccurred())

		sink, err := NewRecorderSink(rec)
		Expect(err).ToNot(HaveOccurred())

		failed := result
		failed.RunID = "run-2"
		failed.State = JobFailed
		failed.Cause = CauseTimeout
		failed.Job.Key.Prefetcher = "SMSPrefetcher"

		Expect(sink.Record(result)).To(Succeed())
		Expect(sink.Record(failed)).To(Succeed())
		Expect(rec.Close()).To(Succeed())

		reader, err := datarecording.NewReader(dbPath + ".sqlite3")
		Expect(err).ToNot(HaveOccurred())
		defer reader.Close()

		reader.MapTable(RunsTableName, RunRecord{})

		rows, total, err := reader.Query(context.Background(), RunsTableName,
			datarecording.QueryParams{
				Where: "State = ?",
				Args:  []any{"failed"},
			})
		Expect(err).ToNot(HaveOccurred())
		Expect(total).To(Equal(1))

		got := rows[0].(*RunRecord)
		Expect(got.RunID).To(Equal("run-2"))
		Expect(got.Cause).To(Equal(CauseTimeout))
		Expect(got.Prefetcher).To(Equal("SMSPrefetcher"))
		Expect(got.DurationSecond).To(Equal(90.0))
		Expect(got.PeakRSS).To(Equal(uint64(1 << 30)))
		Expect(got.StartUnixNano).To(Equal(result.StartTime.UnixNano()))

		key, err := sweep.ParseKey(got.JobID)
		Expect(err).ToNot(HaveOccurred())
		Expect(key.Benchmark).To(Equal("bm00"))
	})

	It("should share the runs table between sinks of one recorder", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "shared")
		rec, err := datarecording.New(dbPath)
		Expect(err).ToNot(HaveOccurred())
		defer rec.Close()

		first, err := NewRecorderSink(rec)
		Expect(err).ToNot(HaveOccurred())
		second, err := NewRecorderSink(rec)
		Expect(err).ToNot(HaveOccurred())

		other := result
		other.RunID = "run-3"

		Expect(first.Record(result)).To(Succeed())
		Expect(second.Record(other)).To(Succeed())
		Expect(second.Flush()).To(Succeed())

		reader, err := datarecording.NewReader(dbPath + ".sqlite3")
		Expect(err).ToNot(HaveOccurred())
		defer reader.Close()

		tables, err := reader.ListTables(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(tables).To(ContainElement(RunsTableName))

		reader.MapTable(RunsTableName, RunRecord{})
		_, total, err := reader.Query(context.Background(), RunsTableName,
			datarecording.QueryParams{})
		Expect(err).ToNot(HaveOccurred())
		Expect(total).To(Equal(2))
	})
})

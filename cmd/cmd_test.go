package cmd

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/prefetchsweep/config"
	"github.com/sarchlab/prefetchsweep/datarecording"
	"github.com/sarchlab/prefetchsweep/runner"
	"github.com/sarchlab/prefetchsweep/stats"
	"github.com/sarchlab/prefetchsweep/sweep"
)

var _ = Describe("Commands", func() {
	var (
		lab string
		out *bytes.Buffer
	)

	execute := func(args ...string) error {
		rootCmd.SetOut(out)
		rootCmd.SetErr(io.Discard)
		rootCmd.SetArgs(args)

		return rootCmd.Execute()
	}

	BeforeEach(func() {
		lab = GinkgoT().TempDir()
		out = &bytes.Buffer{}
		benchmarks = nil
		sweepFile = ""
		ticksPerCycle = stats.DefaultTicksPerCycle
		clockDerived = false
		runsState = ""
		runsLimit = 0

		GinkgoT().Setenv(config.EnvLabPath, lab)
		GinkgoT().Setenv(config.EnvM5Path, filepath.Join(lab, "gem5"))

		for _, bm := range []string{"CCa", "MI", ".git"} {
			Expect(os.MkdirAll(filepath.Join(lab, "microbenchmark", bm), 0o755)).
				To(Succeed())
		}
	})

	It("should extract the sweep into a table", func() {
		key := sweep.Key{
			Benchmark: "CCa", CPU: "Minor4", Mem: "Slow",
			DRAM: "DDR3_2133_8x8", Clock: "1GHz", Prefetcher: "StridePrefetcher",
		}
		layout := sweep.Layout{OutputRoot: config.ResultsRoot(lab)}
		Expect(os.MkdirAll(layout.OutputDir(key), 0o755)).To(Succeed())
		Expect(os.WriteFile(layout.ReportPath(key),
			[]byte("sim_ticks 1000000 # ticks\nsim_insts 500000 # insts\n"),
			0o644)).To(Succeed())

		Expect(execute("extract", "--out", "-", "--missing", "zero")).To(Succeed())

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		Expect(lines).To(HaveLen(1 + 2*5))
		Expect(lines[0]).To(HavePrefix("benchmark,cpu,mem,dram_model,clockspeed,prefetcher,"))
		Expect(lines[1]).To(HavePrefix("CCa,Minor4,Slow,DDR3_2133_8x8,1GHz,StridePrefetcher,"))
		Expect(lines[1]).To(ContainSubstring(",500000,"))
		Expect(lines[6]).To(HavePrefix("MI,"))
	})

	It("should fail without a lab directory", func() {
		Expect(os.Unsetenv(config.EnvLabPath)).To(Succeed())

		err := execute("extract", "--out", "-")

		var cfgErr *config.Error
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
		Expect(cfgErr.Var).To(Equal(config.EnvLabPath))
	})

	It("should list jobs in sweep order", func() {
		Expect(execute("list", "--json")).To(Succeed())

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		Expect(lines).To(HaveLen(10))
		Expect(lines[0]).To(ContainSubstring(`"id":"CCa/Minor4/Slow/DDR3_2133_8x8/1GHz/StridePrefetcher"`))
	})

	It("should refuse to launch without workers", func() {
		err := execute("launch", "0", "--no-db")

		Expect(err).To(MatchError(runner.ErrInvalidWorkers))
	})

	It("should reject a worker count that is not a number", func() {
		Expect(execute("launch", "many", "--no-db")).ToNot(Succeed())
	})

	It("should reject a non-positive ticks per cycle", func() {
		err := execute("extract", "--out", "-", "--ticks-per-cycle", "0")

		Expect(err).To(MatchError(ContainSubstring("ticks-per-cycle")))
		Expect(out.String()).To(BeEmpty())
	})

	It("should show recorded runs", func() {
		dbPath := filepath.Join(lab, "runs")
		rec, err := datarecording.New(dbPath)
		Expect(err).ToNot(HaveOccurred())

		sink, err := runner.NewRecorderSink(rec)
		Expect(err).ToNot(HaveOccurred())

		key := sweep.Key{
			Benchmark: "CCa", CPU: "Minor4", Mem: "Slow",
			DRAM: "DDR3_2133_8x8", Clock: "1GHz", Prefetcher: "SMSPrefetcher",
		}
		Expect(sink.Record(runner.Result{
			RunID: "run-1",
			Job:   sweep.Job{ID: key.String(), Key: key},
			State: runner.JobCompleted,
			Cause: runner.CauseExitedNormally,
		})).To(Succeed())
		Expect(rec.Close()).To(Succeed())

		Expect(execute("runs", dbPath+".sqlite3")).To(Succeed())

		Expect(out.String()).To(ContainSubstring(key.String()))
		Expect(out.String()).To(ContainSubstring("completed"))
	})

	It("should refuse a database without a runs table", func() {
		dbPath := filepath.Join(lab, "other")
		rec, err := datarecording.New(dbPath)
		Expect(err).ToNot(HaveOccurred())
		Expect(rec.CreateTable("stats", stats.Entry{})).To(Succeed())
		Expect(rec.Close()).To(Succeed())

		err = execute("runs", dbPath+".sqlite3")

		Expect(err).To(MatchError(ContainSubstring("no runs table")))
	})
})

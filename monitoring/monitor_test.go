package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Monitor", func() {
	var m *Monitor

	BeforeEach(func() {
		m = NewMonitor()
	})

	It("should keep the first-seen order of jobs", func() {
		m.UpdateJob(JobStatus{ID: "b", State: "Running"})
		m.UpdateJob(JobStatus{ID: "a", State: "Running"})
		m.UpdateJob(JobStatus{ID: "b", State: "Completed"})

		jobs := m.Jobs()

		Expect(jobs).To(HaveLen(2))
		Expect(jobs[0].ID).To(Equal("b"))
		Expect(jobs[0].State).To(Equal("Completed"))
		Expect(jobs[1].ID).To(Equal("a"))
	})

	It("should create and complete progress bars", func() {
		bar := m.CreateProgressBar("sweep", 4)
		bar.IncrementInProgress(2)
		bar.MoveInProgressToFinished(1)
		bar.MoveInProgressToFailed(1)

		snaps := m.ProgressBars()
		Expect(snaps).To(HaveLen(1))
		Expect(snaps[0].Total).To(Equal(uint64(4)))
		Expect(snaps[0].Finished).To(Equal(uint64(2)))
		Expect(snaps[0].Failed).To(Equal(uint64(1)))
		Expect(snaps[0].InProgress).To(Equal(uint64(0)))

		m.CompleteProgressBar(bar)
		Expect(m.ProgressBars()).To(BeEmpty())
	})

	It("should reset low port numbers", func() {
		m.WithPortNumber(80)
		Expect(m.portNumber).To(Equal(0))

		m.WithPortNumber(8080)
		Expect(m.portNumber).To(Equal(8080))
	})

	Context("HTTP API", func() {
		var srv *httptest.Server

		BeforeEach(func() {
			srv = httptest.NewServer(m.Handler())
		})

		AfterEach(func() {
			srv.Close()
		})

		It("should list jobs", func() {
			m.UpdateJob(JobStatus{ID: "CCa/Minor4/Slow/DDR3_2133_8x8/1GHz/StridePrefetcher", State: "Running"})

			rsp, err := http.Get(srv.URL + "/api/jobs")
			Expect(err).ToNot(HaveOccurred())
			defer rsp.Body.Close()

			var jobs []JobStatus
			Expect(json.NewDecoder(rsp.Body).Decode(&jobs)).To(Succeed())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].State).To(Equal("Running"))
		})

		It("should serve a job with slashes in its ID", func() {
			id := "CCa/Minor4/Slow/DDR3_2133_8x8/1GHz/StridePrefetcher"
			m.UpdateJob(JobStatus{ID: id, State: "Failed", Cause: "timeout"})

			rsp, err := http.Get(srv.URL + "/api/job/" + id)
			Expect(err).ToNot(HaveOccurred())
			defer rsp.Body.Close()

			Expect(rsp.StatusCode).To(Equal(http.StatusOK))
		})

		It("should return 404 for unknown jobs", func() {
			rsp, err := http.Get(srv.URL + "/api/job/none")
			Expect(err).ToNot(HaveOccurred())
			defer rsp.Body.Close()

			Expect(rsp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("should list progress bars", func() {
			m.CreateProgressBar("sweep", 3)

			rsp, err := http.Get(srv.URL + "/api/progress")
			Expect(err).ToNot(HaveOccurred())
			defer rsp.Body.Close()

			var bars []ProgressSnapshot
			Expect(json.NewDecoder(rsp.Body).Decode(&bars)).To(Succeed())
			Expect(bars).To(HaveLen(1))
			Expect(bars[0].Name).To(Equal("sweep"))
		})
	})

	It("should start and stop the server", func() {
		url, err := m.StartServer()
		Expect(err).ToNot(HaveOccurred())
		Expect(url).To(HavePrefix("http://localhost:"))

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		Expect(m.StopServer(ctx)).To(Succeed())
	})
})

var _ = Describe("ResourceSampler", func() {
	It("should sample the current process", func() {
		ctx, cancel := context.WithCancel(context.Background())
		s := ResourceSampler{Interval: 5 * time.Millisecond}

		ch := s.Watch(ctx, os.Getpid())
		time.Sleep(30 * time.Millisecond)
		cancel()

		usage := <-ch
		Expect(usage.Samples).To(BeNumerically(">", 0))
		Expect(usage.PeakRSS).To(BeNumerically(">", 0))
	})

	It("should report nothing when disabled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		ch := ResourceSampler{}.Watch(ctx, os.Getpid())
		cancel()

		Expect(<-ch).To(Equal(ResourceUsage{}))
	})
})

// Package monitoring tracks a running sweep and can expose its progress
// through a small HTTP API.
package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/syifan/goseth"

	"github.com/sarchlab/prefetchsweep/sim"
)

// JobStatus is the latest known state of one job.
type JobStatus struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	Cause     string    `json:"cause,omitempty"`
	StartTime time.Time `json:"start_time,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty"`
	PeakRSS   uint64    `json:"peak_rss,omitempty"`
}

// Monitor keeps the job table and progress bars of a sweep.
type Monitor struct {
	portNumber int
	idGen      sim.IDGenerator

	lock         sync.Mutex
	jobs         map[string]JobStatus
	jobOrder     []string
	progressBars []*ProgressBar

	server *http.Server
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		idGen: sim.NewSequentialIDGenerator(),
		jobs:  make(map[string]JobStatus),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// UpdateJob records the latest status of a job.
func (m *Monitor) UpdateJob(s JobStatus) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if _, ok := m.jobs[s.ID]; !ok {
		m.jobOrder = append(m.jobOrder, s.ID)
	}

	m.jobs[s.ID] = s
}

// Jobs returns the status of all jobs seen so far, in the order they were
// first reported.
func (m *Monitor) Jobs() []JobStatus {
	m.lock.Lock()
	defer m.lock.Unlock()

	out := make([]JobStatus, 0, len(m.jobOrder))
	for _, id := range m.jobOrder {
		out = append(out, m.jobs[id])
	}

	return out
}

// Job returns the status of a single job.
func (m *Monitor) Job(id string) (JobStatus, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	s, ok := m.jobs[id]

	return s, ok
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.idGen.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the monitor.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.lock.Lock()
	defer m.lock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// ProgressBars returns snapshots of the active progress bars.
func (m *Monitor) ProgressBars() []ProgressSnapshot {
	m.lock.Lock()
	bars := append([]*ProgressBar(nil), m.progressBars...)
	m.lock.Unlock()

	out := make([]ProgressSnapshot, 0, len(bars))
	for _, b := range bars {
		out = append(out, b.Snapshot())
	}

	return out
}

// Handler returns the HTTP API of the monitor.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/jobs", m.listJobs)
	r.HandleFunc("/api/job/{id:.+}", m.jobDetail)
	r.HandleFunc("/api/resource", m.listResources)

	return r
}

// StartServer starts serving the API in the background and returns the URL
// it listens on.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", fmt.Errorf("starting monitor: %w", err)
	}

	m.server = &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring sweep with %s\n", url)

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "monitor stopped: %v\n", err)
		}
	}()

	return url, nil
}

// StopServer shuts the server down if it is running.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.ProgressBars())
}

func (m *Monitor) listJobs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.Jobs())
}

func (m *Monitor) jobDetail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	status, ok := m.Job(id)
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&status)
	serializer.SetMaxDepth(1)

	if err := serializer.Serialize(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	usage, err := SelfUsage()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, usage)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(bytes)
}

package runner

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/samber/lo"

	"github.com/sarchlab/prefetchsweep/datarecording"
)

// RunsTableName is the database table holding run records.
const RunsTableName = "runs"

// A RecordSink receives the completion record of every job. Sinks are
// called from several workers at once and must be safe for concurrent use.
type RecordSink interface {
	Record(r Result) error
}

// JSONLinesSink writes one JSON object per line.
type JSONLinesSink struct {
	lock sync.Mutex
	enc  *json.Encoder
}

// NewJSONLinesSink creates a sink writing to w.
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{enc: json.NewEncoder(w)}
}

// Record implements RecordSink.
func (s *JSONLinesSink) Record(r Result) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.enc.Encode(r)
}

// RecorderSink stores run records in a database.
type RecorderSink struct {
	recorder datarecording.DataRecorder
}

// NewRecorderSink creates the runs table unless the recorder already has it
// and returns a sink filling it.
func NewRecorderSink(rec datarecording.DataRecorder) (*RecorderSink, error) {
	if !lo.Contains(rec.ListTables(), RunsTableName) {
		if err := rec.CreateTable(RunsTableName, RunRecord{}); err != nil {
			return nil, err
		}
	}

	return &RecorderSink{recorder: rec}, nil
}

// Record implements RecordSink.
func (s *RecorderSink) Record(r Result) error {
	return s.recorder.InsertData(RunsTableName, r.Record())
}

// Flush writes buffered records to the database.
func (s *RecorderSink) Flush() error {
	return s.recorder.Flush()
}

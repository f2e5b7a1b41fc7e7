package runner

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Exit causes reported by the simulator.
const (
	// CauseROIBegin is reported when the benchmark enters its region of
	// interest.
	CauseROIBegin = "workbegin"
	// CauseExitedNormally is reported when the benchmark ran to its end.
	CauseExitedNormally = "exiting with last active thread context"
)

// Causes the dispatcher assigns when the simulator did not report one.
const (
	CauseCanceled     = "canceled"
	CauseTimeout      = "timeout"
	CauseLaunchFailed = "launch failed"
	CauseNoExitEvent  = "no exit event"
)

const (
	exitEventPrefix = "Exit Event"
	causeWasPrefix  = "Exit event cause was \""
	exitingMarker   = " because "
	exitingPrefix   = "Exiting @ tick "
	roiEndMarker    = "Dump stats at the end of the ROI!"
)

// ExitInfo is what the simulator output tells about how a run ended.
type ExitInfo struct {
	// Causes lists the recognized exit causes in output order.
	Causes   []string
	ROIBegin bool
	ROIEnd   bool
}

// LastCause returns the final exit cause, or "" if none was seen.
func (e ExitInfo) LastCause() string {
	if len(e.Causes) == 0 {
		return ""
	}

	return e.Causes[len(e.Causes)-1]
}

// ExitedNormally reports whether the run reached the end of the benchmark.
func (e ExitInfo) ExitedNormally() bool {
	return e.LastCause() == CauseExitedNormally
}

// ScanExitCauses reads simulator output and collects the exit causes. It
// understands the simulator's own "Exiting @ tick N because <cause>" line
// as well as the lines printed by the configuration script. A cause repeated
// on consecutive lines is recorded once.
func ScanExitCauses(r io.Reader) (ExitInfo, error) {
	info := ExitInfo{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		cause, ok := parseCauseLine(line)
		if !ok {
			continue
		}

		if n := len(info.Causes); n > 0 && info.Causes[n-1] == cause {
			continue
		}

		info.Causes = append(info.Causes, cause)

		switch cause {
		case CauseROIBegin:
			info.ROIBegin = true
		case CauseExitedNormally:
			info.ROIEnd = true
		}
	}

	return info, scanner.Err()
}

func parseCauseLine(line string) (string, bool) {
	switch {
	case line == roiEndMarker:
		// Only printed after the benchmark exited normally.
		return CauseExitedNormally, true
	case strings.HasPrefix(line, causeWasPrefix):
		cause := strings.TrimPrefix(line, causeWasPrefix)
		return strings.TrimSuffix(cause, "\""), true
	case strings.HasPrefix(line, exitEventPrefix):
		cause := strings.TrimPrefix(line, exitEventPrefix)
		cause = strings.TrimLeft(cause, " :")

		return cause, cause != ""
	case strings.HasPrefix(line, exitingPrefix):
		i := strings.Index(line, exitingMarker)
		if i < 0 {
			return "", false
		}

		return line[i+len(exitingMarker):], true
	}

	return "", false
}

// ScanExitFile scans the simulator output saved at path.
func ScanExitFile(path string) (ExitInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ExitInfo{}, err
	}
	defer f.Close()

	return ScanExitCauses(f)
}

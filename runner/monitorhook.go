package runner

import (
	"github.com/sarchlab/prefetchsweep/monitoring"
	"github.com/sarchlab/prefetchsweep/sim"
)

// MonitorHook reports job state changes to a monitor.
type MonitorHook struct {
	Monitor *monitoring.Monitor
}

// NewMonitorHook creates a hook feeding m.
func NewMonitorHook(m *monitoring.Monitor) *MonitorHook {
	return &MonitorHook{Monitor: m}
}

// Func implements sim.Hook.
func (h *MonitorHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != HookPosJobState {
		return
	}

	res, ok := ctx.Item.(Result)
	if !ok {
		return
	}

	h.Monitor.UpdateJob(monitoring.JobStatus{
		ID:        res.Job.ID,
		State:     res.State.String(),
		Cause:     res.Cause,
		StartTime: res.StartTime,
		EndTime:   res.EndTime,
		PeakRSS:   res.PeakRSS,
	})
}

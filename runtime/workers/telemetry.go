package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// ProcessSampleSetter receives the periodic gopsutil reading.
type ProcessSampleSetter interface {
	SetProcessSample(cpuPercent float64, rssBytes uint64)
}

// TelemetryWorker samples the server process CPU and RSS on a fixed
// interval and pushes the reading into the monitoring manager.
type TelemetryWorker struct {
	log      *slog.Logger
	monitor  ProcessSampleSetter
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, monitor ProcessSampleSetter, interval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{log: log, monitor: monitor, interval: interval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			memInfo, err := p.MemoryInfo()
			if err != nil {
				w.log.Warn("Failed to collect memory stats", "error", err)
				continue
			}
			cpuPercent, err := p.CPUPercent()
			if err != nil {
				w.log.Warn("Failed to collect cpu stats", "error", err)
				continue
			}
			w.monitor.SetProcessSample(cpuPercent, memInfo.RSS)
		}
	}
}

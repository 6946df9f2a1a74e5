package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain/event"
	"chat-hub/repositories"
	"chat-hub/runtime/workers"
	"context"
	"log/slog"
	"time"
)

// Orchestrator owns the background side of the engine: the event
// channel fed by the router and the supervised workers draining it.
// The routing path itself stays synchronous; only side effects
// (search indexing, telemetry) run under supervision here.
type Orchestrator struct {
	log            *slog.Logger
	supervisor     contract.ISupervisor
	events         chan event.DomainEvent
	index          repositories.ISearchIndex
	monitor        workers.ProcessSampleSetter
	metricInterval time.Duration
}

func NewOrchestrator(
	log *slog.Logger,
	supervisor contract.ISupervisor,
	events chan event.DomainEvent,
	index repositories.ISearchIndex,
	monitor workers.ProcessSampleSetter,
	metricInterval time.Duration,
) *Orchestrator {
	return &Orchestrator{
		log:            log,
		supervisor:     supervisor,
		events:         events,
		index:          index,
		monitor:        monitor,
		metricInterval: metricInterval,
	}
}

// Start registers the workers and launches the supervision loop. It
// returns immediately; workers stop when ctx is canceled or Stop is
// called.
func (o *Orchestrator) Start(ctx context.Context) {
	o.supervisor.Add(
		workers.NewIndexerWorker(o.log, o.events, o.index),
		workers.NewTelemetryWorker(o.log, o.monitor, o.metricInterval),
	)
	o.log.Info("Starting orchestrator and all supervised workers")
	go o.supervisor.Run(ctx)
}

// Stop cancels the supervised context; workers drain and exit.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}

package observability

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Stats is the snapshot served by the stats endpoint.
type Stats struct {
	SessionsOpen     int64   `json:"sessions_open"`
	SessionsOpened   uint64  `json:"sessions_opened"`
	SessionsClosed   uint64  `json:"sessions_closed"`
	MessagesSent     uint64  `json:"messages_sent"`
	FramesDelivered  uint64  `json:"frames_delivered"`
	DeliveryFailures uint64  `json:"delivery_failures"`
	FramesRejected   uint64  `json:"frames_rejected"`
	EventsDropped    uint64  `json:"events_dropped"`
	AllocMemMb       uint64  `json:"alloc_mem_mb"`
	NumGC            uint32  `json:"num_gc"`
	CPUPercent       float64 `json:"cpu_percent"`
	RSSBytes         uint64  `json:"rss_bytes"`
	At               string  `json:"at"`
}

// Manager aggregates live counters from the routing engine and the
// periodic process sample from the telemetry worker.
type Manager struct {
	sessionsOpen     atomic.Int64
	sessionsOpened   atomic.Uint64
	sessionsClosed   atomic.Uint64
	messagesSent     atomic.Uint64
	framesDelivered  atomic.Uint64
	deliveryFailures atomic.Uint64
	framesRejected   atomic.Uint64
	eventsDropped    atomic.Uint64

	mu         sync.RWMutex
	cpuPercent float64
	rssBytes   uint64
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) SessionOpened() {
	m.sessionsOpen.Add(1)
	m.sessionsOpened.Add(1)
}

func (m *Manager) SessionClosed() {
	m.sessionsOpen.Add(-1)
	m.sessionsClosed.Add(1)
}

func (m *Manager) IncrMessagesSent()     { m.messagesSent.Add(1) }
func (m *Manager) IncrFramesDelivered()  { m.framesDelivered.Add(1) }
func (m *Manager) IncrDeliveryFailures() { m.deliveryFailures.Add(1) }
func (m *Manager) IncrFramesRejected()   { m.framesRejected.Add(1) }
func (m *Manager) IncrEventsDropped()    { m.eventsDropped.Add(1) }

// SetProcessSample stores the latest gopsutil reading.
func (m *Manager) SetProcessSample(cpuPercent float64, rssBytes uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cpuPercent = cpuPercent
	m.rssBytes = rssBytes
}

func (m *Manager) Snapshot() Stats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	m.mu.RLock()
	cpu, rss := m.cpuPercent, m.rssBytes
	m.mu.RUnlock()

	return Stats{
		SessionsOpen:     m.sessionsOpen.Load(),
		SessionsOpened:   m.sessionsOpened.Load(),
		SessionsClosed:   m.sessionsClosed.Load(),
		MessagesSent:     m.messagesSent.Load(),
		FramesDelivered:  m.framesDelivered.Load(),
		DeliveryFailures: m.deliveryFailures.Load(),
		FramesRejected:   m.framesRejected.Load(),
		EventsDropped:    m.eventsDropped.Load(),
		AllocMemMb:       mem.Alloc / 1024 / 1024,
		NumGC:            mem.NumGC,
		CPUPercent:       cpu,
		RSSBytes:         rss,
		At:               time.Now().UTC().Format(time.RFC3339),
	}
}

package service

import "sync/atomic"

// Metrics is the injected counter set for engine telemetry. One instance
// is shared across sessions and read by the stats endpoint.
type Metrics struct {
	sessionsStarted   atomic.Int64
	messagesProcessed atomic.Int64
	generationsFailed atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) SessionStarted()   { m.sessionsStarted.Add(1) }
func (m *Metrics) MessageProcessed() { m.messagesProcessed.Add(1) }
func (m *Metrics) GenerationFailed() { m.generationsFailed.Add(1) }

// MetricsSnapshot is a point-in-time read of the counters
type MetricsSnapshot struct {
	SessionsStarted   int64 `json:"sessionsStarted"`
	MessagesProcessed int64 `json:"messagesProcessed"`
	GenerationsFailed int64 `json:"generationsFailed"`
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		SessionsStarted:   m.sessionsStarted.Load(),
		MessagesProcessed: m.messagesProcessed.Load(),
		GenerationsFailed: m.generationsFailed.Load(),
	}
}

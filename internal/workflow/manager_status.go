package workflow

import (
	"context"
	"time"

	"hiretrack/internal/logging"
	"hiretrack/internal/notifications"
	"hiretrack/internal/store"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running     bool
	LastError   string
	LastSweep   time.Time
	LastDrain   notifications.DrainResult
	Sink        string
	Pipeline    store.PipelineSummary
	OutboxStats map[notifications.Status]int
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{
		Running:   m.running,
		LastSweep: m.lastSweep,
		LastDrain: m.lastDrain,
		Sink:      m.dispatcher.ServiceName(),
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	m.mu.RUnlock()

	pipelineStats, err := m.store.ProcessStats(ctx)
	if err != nil {
		m.logger.Warn("failed to read process stats", logging.Error(err))
	}
	summary.Pipeline = pipelineStats

	outbox, err := m.store.OutboxStats(ctx)
	if err != nil {
		m.logger.Warn("failed to read outbox stats", logging.Error(err))
	}
	summary.OutboxStats = outbox
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

package workflow

import (
	"context"
	"errors"
	"time"

	"hiretrack/internal/logging"
)

// Start begins the background sweep and dispatch loops.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(2)
	m.mu.Unlock()

	go m.runSweeper(runCtx)
	go m.runDispatcher(runCtx)
	m.logger.Info("workflow started",
		logging.Duration("sweep_interval", m.cfg.SweepInterval()),
		logging.Duration("dispatch_interval", m.cfg.DispatchInterval()),
	)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) runSweeper(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cfg.SweepInterval())
	defer ticker.Stop()

	for {
		if _, err := m.Sweep(ctx, m.now()); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
			m.logger.Error("sweep failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "sweep_failed"),
				logging.String(logging.FieldErrorHint, "check database access"),
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runDispatcher is the only goroutine draining the outbox while the loop
// runs, which keeps per-process delivery order.
func (m *Manager) runDispatcher(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cfg.DispatchInterval())
	defer ticker.Stop()

	for {
		if _, err := m.DispatchNow(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
			logging.WarnWithContext(m.logger, "notification dispatch failed", "notification_dispatch_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "events stay in the outbox until the next drain"),
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-m.kick:
		}
	}
}

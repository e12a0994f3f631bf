package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"hiretrack/internal/anonymize"
	"hiretrack/internal/config"
	"hiretrack/internal/logging"
	"hiretrack/internal/notifications"
	"hiretrack/internal/store"
)

// Manager coordinates transactional writes, the periodic sweep, and
// notification dispatch.
type Manager struct {
	cfg        *config.Config
	store      *store.Store
	logger     *slog.Logger
	dispatcher *notifications.Dispatcher
	now        func() time.Time

	deferDispatch bool

	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	kick      chan struct{}
	lastErr   error
	lastSweep time.Time
	lastDrain notifications.DrainResult
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	service       notifications.Service
	clock         func() time.Time
	deferDispatch bool
}

// WithNotificationService replaces the sink built from configuration.
func WithNotificationService(service notifications.Service) ManagerOption {
	return func(o *managerOptions) {
		o.service = service
	}
}

// WithClock overrides the time source used for dates and timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(o *managerOptions) {
		o.clock = now
	}
}

// WithDeferredDispatch leaves events in the outbox after commit when the
// background loop is not running. The daemon or 'outbox drain' delivers them.
func WithDeferredDispatch() ManagerOption {
	return func(o *managerOptions) {
		o.deferDispatch = true
	}
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, st *store.Store, logger *slog.Logger, opts ...ManagerOption) *Manager {
	options := &managerOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "workflow")
	service := options.service
	if service == nil {
		service = notifications.NewService(cfg, logger)
	}
	clock := options.clock
	if clock == nil {
		clock = time.Now
	}
	st.SetClock(clock)

	return &Manager{
		cfg:    cfg,
		store:  st,
		logger: logger,
		dispatcher: notifications.NewDispatcher(st, service, notifications.DispatcherOptions{
			RatePerMinute: cfg.Notifications.RatePerMinute,
			MaxAttempts:   cfg.Workflow.MaxAttempts,
			Batch:         cfg.Workflow.DispatchBatch,
		}, logger),
		now:           func() time.Time { return clock().UTC() },
		deferDispatch: options.deferDispatch,
		kick:          make(chan struct{}, 1),
	}
}

// Store exposes the underlying store for read-only queries.
func (m *Manager) Store() *store.Store {
	return m.store
}

func (m *Manager) hasher() (anonymize.Hasher, error) {
	return anonymize.NewHasher(m.cfg.Anonymize.Salt)
}

// afterCommit hands freshly enqueued events to the dispatcher. A running
// background loop is woken; otherwise the outbox is drained inline unless
// dispatch is deferred. Delivery failures never reach the caller.
func (m *Manager) afterCommit(ctx context.Context, enqueued bool) {
	if !enqueued {
		return
	}
	m.mu.RLock()
	running := m.running
	m.mu.RUnlock()
	if running {
		select {
		case m.kick <- struct{}{}:
		default:
		}
		return
	}
	if m.deferDispatch {
		return
	}
	if _, err := m.DispatchNow(ctx); err != nil {
		logging.WarnWithContext(m.logger, "notification dispatch failed", "notification_dispatch_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "events stay in the outbox until the next drain"),
		)
	}
}

// DispatchNow drains the notification outbox once.
func (m *Manager) DispatchNow(ctx context.Context) (notifications.DrainResult, error) {
	result, err := m.dispatcher.Drain(ctx)
	m.mu.Lock()
	m.lastDrain = result
	m.mu.Unlock()
	return result, err
}

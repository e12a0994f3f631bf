package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"hiretrack/internal/logging"
)

// Outbox is the persistence the dispatcher drains. PendingEvents must return
// undelivered, unparked events ordered by Sequence. ParkedProcesses lists the
// processes that still own a parked event.
type Outbox interface {
	PendingEvents(ctx context.Context, limit int) ([]Event, error)
	ParkedProcesses(ctx context.Context) ([]int64, error)
	MarkDelivered(ctx context.Context, sequence int64, at time.Time) error
	MarkAttemptFailed(ctx context.Context, sequence int64, message string, park bool) error
}

// DispatcherOptions tunes outbox draining.
type DispatcherOptions struct {
	// RatePerMinute caps deliveries; zero disables throttling.
	RatePerMinute int
	// MaxAttempts parks an event as failed after this many errors.
	MaxAttempts int
	// Batch is the number of events read per drain.
	Batch int
}

// DrainResult summarizes one pass over the outbox.
type DrainResult struct {
	Delivered int
	Retrying  int
	Parked    int
	Held      int
}

// Dispatcher delivers outbox events after commit. Only one drain runs at a
// time so per-process order is preserved.
type Dispatcher struct {
	outbox  Outbox
	service Service
	limiter *rate.Limiter
	opts    DispatcherOptions
	logger  *slog.Logger
	now     func() time.Time
	mu      sync.Mutex
}

// NewDispatcher wires a dispatcher to an outbox and delivery service.
func NewDispatcher(outbox Outbox, service Service, opts DispatcherOptions, logger *slog.Logger) *Dispatcher {
	if service == nil {
		service = noopService{}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.Batch <= 0 {
		opts.Batch = 50
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.RatePerMinute)/60.0), opts.RatePerMinute)
	}
	return &Dispatcher{
		outbox:  outbox,
		service: service,
		limiter: limiter,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "dispatcher"),
		now:     time.Now,
	}
}

// Drain delivers pending events in sequence order. When delivery of an event
// fails, later events of the same process are held until it succeeds. A parked
// event keeps holding its process until it is retried.
func (d *Dispatcher) Drain(ctx context.Context) (DrainResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var result DrainResult
	events, err := d.outbox.PendingEvents(ctx, d.opts.Batch)
	if err != nil {
		return result, fmt.Errorf("load pending notifications: %w", err)
	}

	parked, err := d.outbox.ParkedProcesses(ctx)
	if err != nil {
		return result, fmt.Errorf("load parked notifications: %w", err)
	}
	blocked := make(map[int64]struct{}, len(parked))
	for _, id := range parked {
		blocked[id] = struct{}{}
	}
	for _, event := range events {
		if _, held := blocked[event.ProcessID]; held {
			result.Held++
			continue
		}
		if err := d.limiter.Wait(ctx); err != nil {
			return result, err
		}
		deliverErr := d.service.Deliver(ctx, event)
		if deliverErr == nil {
			if err := d.outbox.MarkDelivered(ctx, event.Sequence, d.now()); err != nil {
				return result, fmt.Errorf("mark notification %d delivered: %w", event.Sequence, err)
			}
			result.Delivered++
			d.logger.Debug("notification delivered",
				logging.Int64(logging.FieldProcessID, event.ProcessID),
				logging.String(logging.FieldEventID, event.ID),
				logging.String("sink", d.service.Name()),
				logging.Int("recipients", len(event.Recipients)),
			)
			continue
		}

		park := event.Attempts+1 >= d.opts.MaxAttempts
		if err := d.outbox.MarkAttemptFailed(ctx, event.Sequence, deliverErr.Error(), park); err != nil {
			return result, fmt.Errorf("record notification %d failure: %w", event.Sequence, err)
		}
		blocked[event.ProcessID] = struct{}{}
		if park {
			result.Parked++
			logging.ErrorWithContext(d.logger, "notification parked after repeated failures", "notification_parked",
				logging.Int64(logging.FieldProcessID, event.ProcessID),
				logging.String(logging.FieldEventID, event.ID),
				logging.Int("attempts", event.Attempts+1),
				logging.Error(deliverErr),
				logging.String(logging.FieldErrorHint, "check the notification sink, then run 'hiretrack outbox retry'"),
				logging.String(logging.FieldImpact, "later notifications for this process are held until retried"),
			)
			continue
		}
		result.Retrying++
		logging.WarnWithContext(d.logger, "notification delivery failed", "notification_delivery_failed",
			logging.Int64(logging.FieldProcessID, event.ProcessID),
			logging.String(logging.FieldEventID, event.ID),
			logging.Int("attempts", event.Attempts+1),
			logging.Error(deliverErr),
			logging.String(logging.FieldImpact, "later notifications for this process are held"),
		)
	}
	return result, nil
}

// ServiceName reports the configured delivery backend.
func (d *Dispatcher) ServiceName() string {
	return d.service.Name()
}

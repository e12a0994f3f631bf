package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"hiretrack/internal/config"
	"hiretrack/internal/logging"
	"hiretrack/internal/store"
	"hiretrack/internal/workflow"
)

// Run opens the store, starts the daemon, and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	st, err := store.Open(cfg)
	if err != nil {
		logging.ErrorWithContext(logger, "open store", "store_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.data_dir permissions"),
		)
		return err
	}

	d, err := New(cfg, st, logger, workflow.NewManager(cfg, st, logger))
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("hiretrack daemon shutting down")
	return nil
}

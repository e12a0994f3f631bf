package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"hiretrack/internal/config"
	"hiretrack/internal/daemon"
	"hiretrack/internal/logging"
	"hiretrack/internal/pipeline"
	"hiretrack/internal/store"
	"hiretrack/internal/workflow"
)

type commandContext struct {
	configFlag *string
	userFlag   *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	storeOnce sync.Once
	store     *store.Store
	logger    *slog.Logger
	manager   *workflow.Manager
	storeErr  error
}

func newCommandContext(configFlag, userFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		userFlag:   userFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// open connects the store and workflow manager once per invocation. Delivery
// is deferred to the daemon when one holds the instance lock.
func (c *commandContext) open() (*workflow.Manager, error) {
	c.storeOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.storeErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "hiretrack.log")},
		})
		if err != nil {
			c.storeErr = fmt.Errorf("init logger: %w", err)
			return
		}
		st, err := store.Open(cfg)
		if err != nil {
			c.storeErr = err
			return
		}
		var opts []workflow.ManagerOption
		if locked, err := daemon.Locked(cfg.LockPath()); err == nil && locked {
			opts = append(opts, workflow.WithDeferredDispatch())
		}
		c.logger = logger
		c.store = st
		c.manager = workflow.NewManager(cfg, st, logger, opts...)
	})
	return c.manager, c.storeErr
}

func (c *commandContext) withManager(fn func(*workflow.Manager, *store.Store) error) error {
	mgr, err := c.open()
	if err != nil {
		return err
	}
	return fn(mgr, c.store)
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
}

// actor resolves --as to a consultant. The boolean is false when no user was given.
func (c *commandContext) actor(ctx context.Context, st *store.Store) (pipeline.Consultant, bool, error) {
	if c.userFlag == nil || strings.TrimSpace(*c.userFlag) == "" {
		return pipeline.Consultant{}, false, nil
	}
	user, err := st.Read().ConsultantByTrigram(ctx, *c.userFlag)
	if err != nil {
		return pipeline.Consultant{}, false, fmt.Errorf("resolve --as %s: %w", *c.userFlag, err)
	}
	return user, true, nil
}

// writeOptions carries --as into workflow writes.
func (c *commandContext) writeOptions(ctx context.Context, st *store.Store) ([]workflow.WriteOption, error) {
	user, ok, err := c.actor(ctx, st)
	if err != nil || !ok {
		return nil, err
	}
	return []workflow.WriteOption{workflow.AsUser(user)}, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hiretrack/internal/daemon"
	"hiretrack/internal/daemonctl"
	"hiretrack/internal/logging"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run or inspect the background sweep and delivery loop",
	}

	daemonCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.NewFromConfig(cfg, "hiretrackd.log")
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return daemon.Run(signalCtx, cfg, logger)
		},
	})

	daemonCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Report whether a daemon holds the instance lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			locked, err := daemon.Locked(cfg.LockPath())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if locked {
				detail := "Running"
				if pid, err := daemonctl.ReadPID(cfg.PIDPath()); err == nil {
					detail = fmt.Sprintf("Running (pid %d)", pid)
				}
				fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, detail, shouldColorize(out)))
				return nil
			}
			fmt.Fprintln(out, renderStatusLine("Daemon", statusInfo, "Not running", shouldColorize(out)))
			return nil
		},
	})

	daemonCmd.AddCommand(newDaemonStartCommand(ctx))
	daemonCmd.AddCommand(newDaemonStopCommand(ctx))
	daemonCmd.AddCommand(newDaemonRestartCommand(ctx))

	return daemonCmd
}

const (
	daemonStartTimeout = 10 * time.Second
	daemonStopGrace    = 15 * time.Second
)

func launchOptions(ctx *commandContext) (daemonctl.LaunchOptions, string, error) {
	exe, err := os.Executable()
	if err != nil {
		return daemonctl.LaunchOptions{}, "", fmt.Errorf("resolve executable: %w", err)
	}
	opts := daemonctl.LaunchOptions{}
	if ctx.configFlag != nil && strings.TrimSpace(*ctx.configFlag) != "" {
		abs, err := filepath.Abs(strings.TrimSpace(*ctx.configFlag))
		if err != nil {
			return opts, "", fmt.Errorf("resolve config path: %w", err)
		}
		opts.ConfigPath = abs
	}
	return opts, exe, nil
}

func printStart(cmd *cobra.Command, result daemonctl.StartResult) {
	switch result.State {
	case daemonctl.StartStateAlreadyRunning:
		fmt.Fprintf(cmd.OutOrStdout(), "Daemon already running (pid %d)\n", result.PID)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "Daemon started (pid %d)\n", result.PID)
	}
}

func newDaemonStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts, exe, err := launchOptions(ctx)
			if err != nil {
				return err
			}
			result, err := daemonctl.EnsureStarted(cfg, exe, opts, daemonStartTimeout)
			if err != nil {
				return err
			}
			printStart(cmd, result)
			return nil
		},
	}
}

func newDaemonStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, err := daemonctl.Stop(cfg, daemonStopGrace)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(cmd.OutOrStdout(), "Daemon did not stop in time; killed pid %d\n", result.PID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Daemon stopped (pid %d)\n", result.PID)
			return nil
		},
	}
}

func newDaemonRestartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart the background daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts, exe, err := launchOptions(ctx)
			if err != nil {
				return err
			}
			wasRunning, result, err := daemonctl.Restart(cfg, exe, opts, daemonStopGrace, daemonStartTimeout)
			if err != nil {
				return err
			}
			if !wasRunning {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon was not running")
			}
			printStart(cmd, result)
			return nil
		},
	}
}

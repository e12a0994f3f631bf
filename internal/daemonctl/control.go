package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"hiretrack/internal/config"
	"hiretrack/internal/daemon"
	"hiretrack/internal/fileutil"
)

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State StartState
	PID   int
}

// ErrDaemonNotRunning indicates no process holds the daemon lock.
var ErrDaemonNotRunning = errors.New("daemon not running")

const pollInterval = 200 * time.Millisecond

// Launch starts a detached "hiretrack daemon run" process in its own session.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon", "run"}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForLock polls until some process holds the lock at path.
func WaitForLock(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		locked, err := daemon.Locked(path)
		if err != nil {
			return err
		}
		if locked {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("daemon failed to start within %s; see hiretrackd.log", timeout)
		}
		time.Sleep(pollInterval)
	}
}

// WaitForRelease polls until the lock at path is free. It reports whether the
// lock was released before the timeout.
func WaitForRelease(path string, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		locked, err := daemon.Locked(path)
		if err != nil {
			return false, err
		}
		if !locked {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		time.Sleep(pollInterval)
	}
}

// EnsureStarted launches the daemon unless one already holds the lock.
func EnsureStarted(cfg *config.Config, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	locked, err := daemon.Locked(cfg.LockPath())
	if err != nil {
		return StartResult{}, err
	}
	if locked {
		pid, _ := ReadPID(cfg.PIDPath())
		return StartResult{State: StartStateAlreadyRunning, PID: pid}, nil
	}
	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}
	if err := WaitForLock(cfg.LockPath(), waitTimeout); err != nil {
		return StartResult{}, err
	}
	pid, _ := ReadPID(cfg.PIDPath())
	return StartResult{State: StartStateStarted, PID: pid}, nil
}

// ReadPID returns the process id recorded by the running daemon.
func ReadPID(pidPath string) (int, error) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, fmt.Errorf("read daemon pid file %q: %w", pidPath, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("daemon pid file %q is malformed", pidPath)
	}
	return pid, nil
}

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	PID        int
	ForcedKill bool
}

// Stop sends SIGTERM to the daemon and SIGKILL if it still holds the lock
// after gracePeriod.
func Stop(cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	locked, err := daemon.Locked(cfg.LockPath())
	if err != nil {
		return StopResult{}, err
	}
	if !locked {
		return StopResult{}, ErrDaemonNotRunning
	}
	pid, err := ReadPID(cfg.PIDPath())
	if err != nil {
		return StopResult{}, err
	}
	if pid == os.Getpid() {
		return StopResult{}, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return StopResult{}, fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	result := StopResult{PID: pid}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return result, fmt.Errorf("signal daemon process %d: %w", pid, err)
	}
	released, err := WaitForRelease(cfg.LockPath(), gracePeriod)
	if err != nil || released {
		return result, err
	}
	if err := proc.Kill(); err != nil {
		return result, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	if err := fileutil.RemoveIfExists(cfg.PIDPath()); err != nil {
		return result, fmt.Errorf("remove pid file: %w", err)
	}
	result.ForcedKill = true
	return result, nil
}

// Restart stops the daemon if running, then starts a fresh one.
func Restart(cfg *config.Config, executablePath string, opts LaunchOptions, stopGracePeriod, startWaitTimeout time.Duration) (bool, StartResult, error) {
	_, err := Stop(cfg, stopGracePeriod)
	wasRunning := err == nil
	if err != nil && !errors.Is(err, ErrDaemonNotRunning) {
		return false, StartResult{}, err
	}
	start, err := EnsureStarted(cfg, executablePath, opts, startWaitTimeout)
	return wasRunning, start, err
}

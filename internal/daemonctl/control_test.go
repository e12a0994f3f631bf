package daemonctl_test

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"hiretrack/internal/config"
	"hiretrack/internal/daemonctl"
	"hiretrack/internal/testsupport"
)

func newConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return cfg
}

func TestStopWhenNotRunning(t *testing.T) {
	cfg := newConfig(t)
	if _, err := daemonctl.Stop(cfg, time.Second); !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestEnsureStartedReportsRunningDaemon(t *testing.T) {
	cfg := newConfig(t)
	lock := flock.New(cfg.LockPath())
	if ok, err := lock.TryLock(); err != nil || !ok {
		t.Fatalf("acquire lock: ok=%v err=%v", ok, err)
	}
	t.Cleanup(func() { _ = lock.Unlock() })
	if err := os.WriteFile(cfg.PIDPath(), []byte("4242\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := daemonctl.EnsureStarted(cfg, "/nonexistent/hiretrack", daemonctl.LaunchOptions{}, time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted: %v", err)
	}
	if result.State != daemonctl.StartStateAlreadyRunning || result.PID != 4242 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestWaitForRelease(t *testing.T) {
	cfg := newConfig(t)
	lock := flock.New(cfg.LockPath())
	if ok, err := lock.TryLock(); err != nil || !ok {
		t.Fatalf("acquire lock: ok=%v err=%v", ok, err)
	}

	released, err := daemonctl.WaitForRelease(cfg.LockPath(), 300*time.Millisecond)
	if err != nil || released {
		t.Fatalf("expected held lock, released=%v err=%v", released, err)
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = lock.Unlock()
	}()
	released, err = daemonctl.WaitForRelease(cfg.LockPath(), 3*time.Second)
	if err != nil || !released {
		t.Fatalf("expected release, released=%v err=%v", released, err)
	}
}

func TestReadPIDRejectsGarbage(t *testing.T) {
	cfg := newConfig(t)
	if _, err := daemonctl.ReadPID(cfg.PIDPath()); err == nil {
		t.Fatal("expected error for missing pid file")
	}
	if err := os.WriteFile(cfg.PIDPath(), []byte("not-a-pid"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := daemonctl.ReadPID(cfg.PIDPath()); err == nil {
		t.Fatal("expected error for malformed pid file")
	}
}

func TestLaunchRequiresExecutable(t *testing.T) {
	if err := daemonctl.Launch(" ", daemonctl.LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable path")
	}
}

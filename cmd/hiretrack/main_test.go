package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hiretrack/internal/config"
	"hiretrack/internal/pipeline"
	"hiretrack/internal/services"
	"hiretrack/internal/store"
	"hiretrack/internal/workflow"
)

type cliTestEnv struct {
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("HIRETRACK_ANON_SALT", "")
	configPath := filepath.Join(base, "hiretrack.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
documents_dir = %q

[anonymize]
salt = "cli-test-salt"

[notifications]
sink = "none"
`,
		filepath.ToSlash(filepath.Join(base, "data")),
		filepath.ToSlash(filepath.Join(base, "logs")),
		filepath.ToSlash(filepath.Join(base, "documents")),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func mustRunCLI(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, err := runCLI(t, env, args...)
	if err != nil {
		t.Fatalf("hiretrack %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func seedOrganisation(t *testing.T, env *cliTestEnv) {
	t.Helper()
	mustRunCLI(t, env, "consultant", "add", "own", "--name", "Owner", "--email", "owner@example.com", "--joined", "2020-01-01")
	mustRunCLI(t, env, "consultant", "add", "ITW", "--name", "Interviewer", "--email", "itw@example.com", "--joined", "2020-01-01")
	mustRunCLI(t, env, "consultant", "add", "EXT", "--email", "ext@example.com", "--privilege", "external_readonly")
	mustRunCLI(t, env, "subsidiary", "add", "ACME", "--responsible", "OWN")
}

func TestProcessLifecycleThroughCLI(t *testing.T) {
	env := setupCLITestEnv(t)
	seedOrganisation(t, env)

	out := mustRunCLI(t, env, "candidate", "add", "--name", "Jane Doe", "--email", "jane@example.com")
	requireContains(t, out, "Candidate 1: Jane Doe")

	out = mustRunCLI(t, env, "process", "create", "--candidate", "1", "--subsidiary", "acme")
	requireContains(t, out, "Process 1: WAITING_INTERVIEWER_TO_BE_DESIGNED (responsible: OWN)")

	out = mustRunCLI(t, env, "interview", "add", "1", "-i", "ITW")
	requireContains(t, out, "Interview 1 (rank 1): WAITING_PLANIFICATION")
	requireContains(t, out, "WAITING_INTERVIEW_PLANIFICATION (responsible: ITW)")

	out = mustRunCLI(t, env, "interview", "plan", "1", time.Now().AddDate(0, 0, 3).Format("2006-01-02"))
	requireContains(t, out, "INTERVIEW_IS_PLANNED")

	out = mustRunCLI(t, env, "interview", "outcome", "1", "go")
	requireContains(t, out, "WAITING_NEXT_INTERVIEWER_TO_BE_DESIGNED_OR_END_OF_PROCESS (responsible: OWN)")

	_, err := runCLI(t, env, "--as", "EXT", "interview", "add", "1", "-i", "ITW")
	if !errors.Is(err, workflow.ErrReadOnly) {
		t.Fatalf("expected read-only refusal, got %v", err)
	}
	if code := services.ExitCode(err); code != 5 {
		t.Fatalf("expected permission exit code 5, got %d", code)
	}

	out = mustRunCLI(t, env, "process", "list", "--json")
	var views []processView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode process list: %v\n%s", err, out)
	}
	if len(views) != 1 || views[0].Candidate != "Jane Doe" || views[0].Subsidiary != "ACME" {
		t.Fatalf("unexpected listing %+v", views)
	}
	if !views[0].NeedsAttention {
		t.Fatal("process waiting on the next interviewer needs attention")
	}

	out = mustRunCLI(t, env, "process", "close", "1", "hired", "--comment", "signed")
	requireContains(t, out, "Process 1: HIRED (responsible: -)")

	out = mustRunCLI(t, env, "process", "list")
	requireContains(t, out, "HIRED")

	out = mustRunCLI(t, env, "process", "show", "1")
	requireContains(t, out, "Comment:      signed")
	requireContains(t, out, "GO")

	_, err = runCLI(t, env, "interview", "add", "1", "-i", "ITW")
	if !errors.Is(err, workflow.ErrClosedProcess) {
		t.Fatalf("expected closed process refusal, got %v", err)
	}

	out = mustRunCLI(t, env, "outbox", "list", "--status", "delivered", "--json")
	var events []map[string]any
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("decode outbox: %v\n%s", err, out)
	}
	if len(events) != 5 {
		t.Fatalf("expected 5 delivered events, got %d", len(events))
	}
}

func TestInvalidInputsMapToExitCodes(t *testing.T) {
	env := setupCLITestEnv(t)
	seedOrganisation(t, env)
	mustRunCLI(t, env, "candidate", "add", "--name", "Jane Doe")
	mustRunCLI(t, env, "process", "create", "--candidate", "1", "--subsidiary", "ACME")

	cases := []struct {
		args []string
		code int
	}{
		{[]string{"process", "state", "1", "INTERVIEW_IS_PLANNED"}, 2},
		{[]string{"process", "show", "42"}, 3},
		{[]string{"process", "reopen", "1"}, 2},
		{[]string{"interview", "outcome", "7", "GO"}, 3},
		{[]string{"process", "create", "--candidate", "1"}, 2},
	}
	for _, tc := range cases {
		_, err := runCLI(t, env, tc.args...)
		if err == nil {
			t.Fatalf("%v: expected error", tc.args)
		}
		if code := services.ExitCode(err); code != tc.code {
			t.Fatalf("%v: expected exit code %d, got %d (%v)", tc.args, tc.code, code, err)
		}
	}
}

// seedClosedCandidate closes a process two years ago through a manager with a
// fixed clock, so the candidate is eligible for anonymization.
func seedClosedCandidate(t *testing.T, env *cliTestEnv) int64 {
	t.Helper()
	cfg, _, _, err := config.Load(env.configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	past := time.Now().AddDate(-2, 0, 0)
	mgr := workflow.NewManager(cfg, st, nil, workflow.WithClock(func() time.Time { return past }))
	ctx := context.Background()
	sub, err := st.Read().SubsidiaryByCode(ctx, "ACME")
	if err != nil {
		t.Fatalf("subsidiary: %v", err)
	}
	c, err := mgr.CreateCandidate(ctx, pipeline.Candidate{Name: "Old Applicant", Email: "old@example.com"})
	if err != nil {
		t.Fatalf("CreateCandidate: %v", err)
	}
	p, err := mgr.CreateProcess(ctx, workflow.ProcessInput{CandidateID: c.ID, SubsidiaryID: sub.ID})
	if err != nil {
		t.Fatalf("CreateProcess: %v", err)
	}
	if _, err := mgr.CloseProcess(ctx, p.ID, "CANDIDATE_DECLINED", "moved abroad"); err != nil {
		t.Fatalf("CloseProcess: %v", err)
	}
	return c.ID
}

func TestAnonymizeConfirmation(t *testing.T) {
	env := setupCLITestEnv(t)
	seedOrganisation(t, env)
	id := seedClosedCandidate(t, env)

	asked := 0
	answer := false
	original := confirm
	confirm = func(label string, _ io.ReadCloser, _ io.WriteCloser) (bool, error) {
		asked++
		requireContains(t, label, "Anonymize 1 candidate(s)")
		return answer, nil
	}
	t.Cleanup(func() { confirm = original })

	out := mustRunCLI(t, env, "anonymize", "--dry-run")
	requireContains(t, out, "Would anonymize 1 of 1 candidates")
	if asked != 0 {
		t.Fatal("dry run must not prompt")
	}

	out = mustRunCLI(t, env, "anonymize")
	requireContains(t, out, "Aborted")
	if asked != 1 {
		t.Fatalf("expected one prompt, got %d", asked)
	}

	answer = true
	out = mustRunCLI(t, env, "anonymize")
	requireContains(t, out, "Anonymized 1 of 1 candidates")

	out = mustRunCLI(t, env, "candidate", "show", fmt.Sprint(id))
	requireContains(t, out, "Anonymized: yes")

	out = mustRunCLI(t, env, "duplicates", "--name", "applicant OLD")
	requireContains(t, out, fmt.Sprintf("#%d", id))

	out = mustRunCLI(t, env, "candidate", "add", "--name", "Old Applicant")
	requireContains(t, out, "Warning: matches 1 anonymized candidate(s)")

	out = mustRunCLI(t, env, "anonymize", "--yes")
	requireContains(t, out, "Would anonymize 0 of 1 candidates")
	requireContains(t, out, "no_process")
}

func TestStatusAndSweep(t *testing.T) {
	env := setupCLITestEnv(t)
	seedOrganisation(t, env)
	mustRunCLI(t, env, "candidate", "add", "--name", "Jane Doe")
	mustRunCLI(t, env, "process", "create", "--candidate", "1", "--subsidiary", "ACME")
	mustRunCLI(t, env, "interview", "add", "1", "-i", "ITW", "--date", "2026-01-05 10:00")

	out := mustRunCLI(t, env, "sweep", "--now", "2026-01-06")
	requireContains(t, out, "moved 1")

	out = mustRunCLI(t, env, "interview", "list", "--json")
	var interviews []interviewView
	if err := json.Unmarshal([]byte(out), &interviews); err != nil {
		t.Fatalf("decode interviews: %v\n%s", err, out)
	}
	if len(interviews) != 1 || interviews[0].State != string(pipeline.InterviewWaitInformation) {
		t.Fatalf("unexpected interviews %+v", interviews)
	}

	out = mustRunCLI(t, env, "status")
	requireContains(t, out, "Daemon:")
	requireContains(t, out, "Not running")
	requireContains(t, out, "WAITING_ITW_MINUTE")
	requireContains(t, out, "Documents directory:")

	out = mustRunCLI(t, env, "logs", "--process", "1", "-n", "50")
	requireContains(t, out, "Process #1 – process created")

	out = mustRunCLI(t, env, "status", "--json")
	var status map[string]any
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if status["daemon_running"] != false || status["sink"] != "none" {
		t.Fatalf("unexpected status %v", status)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "config", "validate")
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Notification sink: none")

	target := filepath.Join(t.TempDir(), "config.toml")
	out = mustRunCLI(t, env, "config", "init", "--path", target)
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestRenderStatusLine(t *testing.T) {
	got := renderStatusLine("daemon", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
	colored := renderStatusLine("Daemon", statusOK, "Running", true)
	if !strings.HasPrefix(colored, ansiGreen) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected green line, got %q", colored)
	}
	if shouldColorize(io.Discard) {
		t.Fatal("expected non-file writer to disable color")
	}
}

func TestDaemonStopWhenIdle(t *testing.T) {
	env := setupCLITestEnv(t)
	out := mustRunCLI(t, env, "daemon", "stop")
	requireContains(t, out, "Daemon is not running")
	out = mustRunCLI(t, env, "daemon", "status")
	requireContains(t, out, "Not running")
}

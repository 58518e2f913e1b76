package history_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/ladzaretti/bunker/history"
)

func requireGit(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available on PATH")
	}
}

func TestGitStoreInitCommitLog(t *testing.T) {
	requireGit(t)

	dir := t.TempDir()

	s, err := history.NewGitStore()
	if err != nil {
		t.Fatalf("NewGitStore: %v", err)
	}

	if err := s.Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if !s.IsRepo(dir) {
		t.Fatal("expected IsRepo to report true after Init")
	}

	cmd := exec.Command("git", "config", "user.email", "test@example.com")
	cmd.Dir = dir

	if err := cmd.Run(); err != nil {
		t.Skip("git not configured for commits in this sandbox")
	}

	exec.Command("git", "-C", dir, "config", "user.name", "Test").Run() //nolint:errcheck

	if err := os.WriteFile(filepath.Join(dir, "a.json"), []byte("{}"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := s.CommitAll(dir, "add a"); err != nil {
		t.Fatalf("CommitAll: %v", err)
	}

	commits, err := s.Log(dir, 0)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}

	if len(commits) != 1 || commits[0].Message != "add a" {
		t.Fatalf("Log() = %+v, want one commit with message %q", commits, "add a")
	}

	changes, err := s.Status(dir)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	if len(changes) != 0 {
		t.Errorf("Status() after commit = %v, want no changes", changes)
	}
}

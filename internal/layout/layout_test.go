package layout

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTicketDir_Sanitized(t *testing.T) {
	l := New("/tmp/workflow")

	if got := l.TicketDir("ABC/123"); filepath.Base(got) != "ticket-ABC_123" {
		t.Errorf("TicketDir(ABC/123) = %q", got)
	}
	want := filepath.Join("/tmp/workflow", "ticket-hello_world", "worker.log")
	if got := l.WorkerLogPath("hello world"); got != want {
		t.Errorf("WorkerLogPath = %q, want %q", got, want)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain-id_1", "plain-id_1"},
		{"with space", "with_space"},
		{"a/b\\c:d", "a_b_c_d"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := sanitize(tt.in); got != tt.want {
			t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPaths(t *testing.T) {
	l := New("/work/root")

	if got := l.StateFile(); got != filepath.Join("/work/root", "state.json") {
		t.Errorf("StateFile = %q", got)
	}
	if got := l.ReviewLogPath("T1"); got != filepath.Join("/work/root", "ticket-T1", "review.log") {
		t.Errorf("ReviewLogPath = %q", got)
	}
	if got := l.PatchDir("T1"); got != filepath.Join("/work/root", "ticket-T1", "patches") {
		t.Errorf("PatchDir = %q", got)
	}
}

func TestEnsureDirs_Idempotent(t *testing.T) {
	root := filepath.Join(t.TempDir(), "artifacts")
	l := New(root)

	for i := 0; i < 2; i++ {
		if err := l.EnsureRoot(); err != nil {
			t.Fatalf("EnsureRoot (pass %d) failed: %v", i, err)
		}
		dir, err := l.EnsureTicketDir("T1")
		if err != nil {
			t.Fatalf("EnsureTicketDir (pass %d) failed: %v", i, err)
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("ticket dir missing after EnsureTicketDir: %v", err)
		}
	}
}

func TestDefaultRoot(t *testing.T) {
	got := DefaultRoot("/repo", "demo")
	want := filepath.Join("/repo", ".codex", "workflows", "demo")
	if got != want {
		t.Errorf("DefaultRoot = %q, want %q", got, want)
	}
}

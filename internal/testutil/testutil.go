// Package testutil provides testing utilities for foreman tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// SkipIfNoShell skips tests that drive stub session executables written as
// shell scripts.
func SkipIfNoShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub session executables require a POSIX shell")
	}
}

// WriteExecutable writes a shell script to path and marks it executable.
// Tests use this to stand in for the codex binary.
func WriteExecutable(t *testing.T, path, script string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write executable %s: %v", path, err)
	}
	return path
}

// WriteFile writes a regular file, creating parent directories as needed.
func WriteFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// Package session executes one external Codex session against a working
// directory and prompt, captures its output in full, and writes a structured
// log file that is the durable evidence of what the session did.
//
// A non-zero exit code is not an error at this layer: it is surfaced as
// Result.Success = false for the orchestrator to interpret. Only a process
// that cannot be spawned, or a log file that cannot be written, produces an
// error.
package session

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/Iron-Ham/foreman/internal/errors"
)

// Request describes one session invocation. It is a value object passed
// once per invocation and never persisted.
type Request struct {
	// Prompt is the full prompt text, passed as the final positional argument.
	Prompt string
	// WorkingDir is the directory the session operates in.
	WorkingDir string
	// LogPath is where the structured session log is written.
	LogPath string
	// Model optionally overrides the session model (-m flag). Empty means
	// the executable's default.
	Model string
}

// Result carries the outcome of a completed session. Only the derived
// ticket run state fields survive; the Result itself is not persisted.
type Result struct {
	// Success is true when the session exited with status zero.
	Success bool
	// StatusCode is the raw exit code. -1 when the process was terminated
	// by a signal.
	StatusCode int
	// Stdout and Stderr hold the fully captured output streams.
	Stdout string
	Stderr string
}

// Launcher spawns external Codex sessions. It is immutable and safe to
// share across sequential invocations.
type Launcher struct {
	bin             string
	configOverrides []string
}

// NewLauncher returns a Launcher that invokes bin with the given raw
// -c key=value configuration overrides on every session.
func NewLauncher(bin string, configOverrides []string) *Launcher {
	return &Launcher{bin: bin, configOverrides: configOverrides}
}

// Bin returns the configured executable path.
func (l *Launcher) Bin() string {
	return l.bin
}

// Run invokes one session and blocks until the child process exits. The
// command line is:
//
//	<bin> exec [-c <override>]... --skip-git-repo-check [-m <model>] -C <working-dir> <prompt>
//
// Stdout and stderr are captured in full; nothing is streamed to the
// caller. The structured log at req.LogPath is written unconditionally on
// completion, for successful and failed sessions alike.
func (l *Launcher) Run(ctx context.Context, req Request) (*Result, error) {
	args := []string{"exec"}
	for _, override := range l.configOverrides {
		args = append(args, "-c", override)
	}
	args = append(args, "--skip-git-repo-check")
	if req.Model != "" {
		args = append(args, "-m", req.Model)
	}
	args = append(args, "-C", req.WorkingDir, req.Prompt)

	cmd := exec.CommandContext(ctx, l.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// The process never ran; there is no output to log.
			return nil, errors.NewSessionError(fmt.Sprintf("failed to run %s", l.bin),
				errors.Join(errors.ErrSpawnFailed, runErr)).WithLogPath(req.LogPath)
		}
	}

	statusCode := cmd.ProcessState.ExitCode()
	if err := writeLog(req.LogPath, req.Prompt, statusCode, stdout.Bytes(), stderr.Bytes()); err != nil {
		return nil, err
	}

	return &Result{
		Success:    runErr == nil,
		StatusCode: statusCode,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
	}, nil
}

// writeLog persists the structured session log: the prompt, the exit
// status, then the captured streams under separate headers.
func writeLog(logPath, prompt string, statusCode int, stdout, stderr []byte) error {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return errors.NewSessionError("failed to create log directory", err).WithLogPath(logPath)
	}

	var buf bytes.Buffer
	buf.WriteString("# Prompt\n")
	buf.WriteString(prompt)
	buf.WriteString("\n\n")
	fmt.Fprintf(&buf, "# Exit Status: %d\n\n", statusCode)
	buf.WriteString("## STDOUT\n")
	buf.Write(stdout)
	if !bytes.HasSuffix(stdout, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.WriteString("\n## STDERR\n")
	buf.Write(stderr)
	if len(stderr) > 0 && !bytes.HasSuffix(stderr, []byte("\n")) {
		buf.WriteByte('\n')
	}

	if err := os.WriteFile(logPath, buf.Bytes(), 0644); err != nil {
		return errors.NewSessionError("failed to write session log", err).WithLogPath(logPath)
	}
	return nil
}

// DefaultBin resolves the session executable to use when no override is
// configured: the current executable when resolvable, otherwise "codex" on
// PATH.
func DefaultBin() string {
	if exe, err := os.Executable(); err == nil && exe != "" {
		return exe
	}
	return "codex"
}

// Package orchestrator drives the workflow control loop: for each ticket in
// manifest order it inspects the persisted run state, decides which steps
// (worker, review, either, or neither) still need to run, launches the
// corresponding external sessions, applies state transitions, and persists
// state after every transition.
//
// Execution is single-threaded and strictly sequential. No two sessions are
// ever in flight simultaneously, and within a ticket the worker step runs to
// completion before the review step starts. Durability, not locking, is the
// concurrency discipline: the atomic state save is the only safety mechanism
// needed because there is exactly one writer.
package orchestrator

import (
	"context"
	"fmt"
	"os"

	"github.com/Iron-Ham/foreman/internal/errors"
	"github.com/Iron-Ham/foreman/internal/layout"
	"github.com/Iron-Ham/foreman/internal/logging"
	"github.com/Iron-Ham/foreman/internal/manifest"
	"github.com/Iron-Ham/foreman/internal/session"
	"github.com/Iron-Ham/foreman/internal/state"
)

// RunOptions configures one workflow run invocation.
type RunOptions struct {
	// ManifestPath locates the workflow manifest (YAML or TOML).
	ManifestPath string
	// ArtifactsDir overrides the default artifacts root. Empty means
	// .codex/workflows/<workflow-name> next to the manifest.
	ArtifactsDir string
	// Resume reuses a previously saved state file when one exists instead of
	// starting fresh.
	Resume bool
	// CodexBin overrides the session executable. Empty falls back to the
	// current executable, then "codex".
	CodexBin string
	// ConfigOverrides are raw -c key=value flags forwarded to every session.
	ConfigOverrides []string
	// WorkerModel optionally overrides the model for worker sessions.
	WorkerModel string
	// ReviewerModel optionally overrides the model for review sessions.
	// Empty falls back to WorkerModel.
	ReviewerModel string
	// LogLevel controls the structured run log (DEBUG, INFO, WARN, ERROR).
	LogLevel string
}

// launcher abstracts session execution so tests can observe invocations
// without spawning real processes.
type launcher interface {
	Run(ctx context.Context, req session.Request) (*session.Result, error)
}

// Run executes a workflow to completion: every non-terminal ticket is
// driven through its remaining steps, strictly sequentially, in manifest
// order. The returned report reflects the final persisted state.
func Run(ctx context.Context, opts RunOptions) (*StatusReport, error) {
	m, err := manifest.Load(opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	lay := layout.New(resolveArtifactsDir(m, opts.ArtifactsDir))
	if err := lay.EnsureRoot(); err != nil {
		return nil, errors.NewStateError("failed to prepare artifacts root", err).WithPath(lay.Root())
	}
	statePath := lay.StateFile()

	logger, err := logging.NewLogger(lay.Root(), opts.LogLevel)
	if err != nil {
		return nil, err
	}
	defer logger.Close()
	logger = logger.WithWorkflow(m.WorkflowName())

	st, err := loadOrInitialize(m, statePath, opts.Resume)
	if err != nil {
		return nil, err
	}

	bin := opts.CodexBin
	if bin == "" {
		bin = session.DefaultBin()
	}
	run := &runner{
		manifest:  m,
		layout:    lay,
		state:     st,
		statePath: statePath,
		launcher:  session.NewLauncher(bin, opts.ConfigOverrides),
		opts:      opts,
		logger:    logger,
	}
	logger.Info("workflow run starting",
		"tickets", len(m.Tickets), "resume", opts.Resume, "bin", bin)

	for i := range m.Tickets {
		if err := run.processTicket(ctx, &m.Tickets[i]); err != nil {
			return nil, err
		}
	}

	if err := st.Save(statePath); err != nil {
		return nil, err
	}
	logger.Info("workflow run finished")
	return ReportFromState(st, statePath), nil
}

// LoadStatus returns the current status report for a workflow, or nil
// (with no error) when no state file exists yet. The state file is treated
// as a read-only snapshot; it may trail an in-flight run by one transition.
func LoadStatus(manifestPath, artifactsDir string) (*StatusReport, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}

	lay := layout.New(resolveArtifactsDir(m, artifactsDir))
	statePath := lay.StateFile()
	st, err := state.Load(statePath)
	if err != nil {
		if errors.Is(err, errors.ErrNoStateFile) {
			return nil, nil
		}
		return nil, err
	}
	return ReportFromState(st, statePath), nil
}

// ResolveStatePath returns the state file path a run with these inputs
// would use, without touching the filesystem. Callers that watch for state
// changes use this to find the file before it exists.
func ResolveStatePath(manifestPath, artifactsDir string) (string, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return "", err
	}
	return layout.New(resolveArtifactsDir(m, artifactsDir)).StateFile(), nil
}

// resolveArtifactsDir applies the override when given, else the default
// root next to the manifest.
func resolveArtifactsDir(m *manifest.Manifest, override string) string {
	if override != "" {
		return override
	}
	return layout.DefaultRoot(m.Dir(), m.WorkflowName())
}

// loadOrInitialize implements the resume contract: resuming against an
// existing state file keeps all prior progress and only adds entries for
// newly introduced tickets; everything else starts fresh.
func loadOrInitialize(m *manifest.Manifest, statePath string, resume bool) (*state.WorkflowState, error) {
	if resume {
		st, err := state.Load(statePath)
		if err == nil {
			st.SyncWithManifest(m)
			return st, nil
		}
		if !errors.Is(err, errors.ErrNoStateFile) {
			return nil, err
		}
	}
	return state.Initialize(m), nil
}

// runner threads the per-run collaborators through the ticket loop.
type runner struct {
	manifest  *manifest.Manifest
	layout    layout.Layout
	state     *state.WorkflowState
	statePath string
	launcher  launcher
	opts      RunOptions
	logger    *logging.Logger
}

// processTicket drives one ticket through its remaining steps:
//
//   - terminal status (complete, failed, blocked): skip entirely
//   - needs_review or running_review: run only the review step, so a crash
//     after the worker finished re-enters at review and never re-runs the
//     worker
//   - anything else: worker step, then review step unless the worker left
//     the ticket failed
func (r *runner) processTicket(ctx context.Context, ticket *manifest.TicketSpec) error {
	entry := r.state.Ticket(ticket.ID)
	if entry == nil {
		return nil
	}
	log := r.logger.WithTicket(ticket.ID)

	switch {
	case entry.Status.IsTerminal():
		log.Debug("skipping ticket in terminal state", "status", string(entry.Status))
		return nil
	case entry.Status == state.StatusNeedsReview || entry.Status == state.StatusRunningReview:
		return r.runReview(ctx, ticket)
	default:
		if err := r.runWorker(ctx, ticket); err != nil {
			return err
		}
		return r.runReview(ctx, ticket)
	}
}

// runWorker executes the worker step for a ticket: two durable checkpoints,
// one after marking the ticket running and one after recording the outcome,
// so a crash during the session is distinguishable from a crash before it
// started.
func (r *runner) runWorker(ctx context.Context, ticket *manifest.TicketSpec) error {
	log := r.logger.WithTicket(ticket.ID).WithStep("worker")

	if _, err := r.layout.EnsureTicketDir(ticket.ID); err != nil {
		return errors.NewStateError("failed to prepare ticket directory", err).WithPath(r.layout.TicketDir(ticket.ID))
	}
	workingDir, err := r.checkWorkingDir(ticket)
	if err != nil {
		return err
	}
	patchDir := r.layout.PatchDir(ticket.ID)
	if err := os.MkdirAll(patchDir, 0755); err != nil {
		return errors.NewStateError("failed to create patch directory", err).WithPath(patchDir)
	}

	prompt := ticket.Prompt
	if prompt == "" {
		prompt = BuildWorkerPrompt(r.manifest, ticket, r.layout)
	}
	workerLog := r.layout.WorkerLogPath(ticket.ID)

	entry := r.state.Ticket(ticket.ID)
	entry.SetWorkerLog(workerLog)
	entry.MarkRunning(state.StatusRunningWorker)
	if err := r.state.Save(r.statePath); err != nil {
		return err
	}

	log.Info("launching worker session", "working_dir", workingDir)
	result, err := r.launcher.Run(ctx, session.Request{
		Prompt:     prompt,
		WorkingDir: workingDir,
		LogPath:    workerLog,
		Model:      r.opts.WorkerModel,
	})
	if err != nil {
		return errors.NewSessionError("worker session failed to launch", err).WithTicketID(ticket.ID)
	}

	if result.Success {
		entry.Status = state.StatusNeedsReview
		entry.Note = "Worker completed successfully"
		log.Info("worker session succeeded")
	} else {
		entry.MarkFinished(state.StatusFailed,
			fmt.Sprintf("Worker failed with status %d", result.StatusCode))
		log.Warn("worker session failed", "status_code", result.StatusCode)
	}
	return r.state.Save(r.statePath)
}

// runReview executes the review step when the ticket is awaiting or was
// interrupted mid review; every other status is a no-op here.
func (r *runner) runReview(ctx context.Context, ticket *manifest.TicketSpec) error {
	entry := r.state.Ticket(ticket.ID)
	if entry == nil {
		return nil
	}
	if entry.Status != state.StatusNeedsReview && entry.Status != state.StatusRunningReview {
		return nil
	}
	log := r.logger.WithTicket(ticket.ID).WithStep("review")

	workingDir, err := r.checkWorkingDir(ticket)
	if err != nil {
		return err
	}

	prompt := ticket.ReviewPrompt
	if prompt == "" {
		prompt = BuildReviewPrompt(r.manifest, ticket, r.layout)
	}
	model := r.opts.ReviewerModel
	if model == "" {
		model = r.opts.WorkerModel
	}
	reviewLog := r.layout.ReviewLogPath(ticket.ID)

	entry.SetReviewLog(reviewLog)
	entry.MarkRunning(state.StatusRunningReview)
	if err := r.state.Save(r.statePath); err != nil {
		return err
	}

	log.Info("launching review session", "working_dir", workingDir)
	result, err := r.launcher.Run(ctx, session.Request{
		Prompt:     prompt,
		WorkingDir: workingDir,
		LogPath:    reviewLog,
		Model:      model,
	})
	if err != nil {
		return errors.NewSessionError("review session failed to launch", err).WithTicketID(ticket.ID)
	}

	if result.Success {
		entry.MarkFinished(state.StatusComplete, "Review passed")
		log.Info("review session passed")
	} else {
		entry.MarkFinished(state.StatusFailed,
			fmt.Sprintf("Review failed with status %d", result.StatusCode))
		log.Warn("review session failed", "status_code", result.StatusCode)
	}
	return r.state.Save(r.statePath)
}

// checkWorkingDir verifies the ticket's resolved working directory exists.
// A missing directory is a configuration fault that aborts the whole run,
// not a per-ticket failure.
func (r *runner) checkWorkingDir(ticket *manifest.TicketSpec) (string, error) {
	workingDir := ticket.ResolvedWorkingDir(r.manifest.Dir())
	if _, err := os.Stat(workingDir); err != nil {
		return "", errors.NewValidationError(
			fmt.Sprintf("working directory %s does not exist for ticket %s", workingDir, ticket.ID),
			errors.ErrWorkingDirMissing).WithField("working_dir", workingDir)
	}
	return workingDir, nil
}

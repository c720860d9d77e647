package tui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/foreman/internal/orchestrator"
)

var helpStyle = lipgloss.NewStyle().Faint(true)

// Watch displays a live status view for the workflow: the current report is
// rendered immediately and refreshed whenever the state file changes on
// disk. Blocks until the user quits with q, esc, or ctrl+c.
func Watch(manifestPath, artifactsDir string) error {
	statePath, err := orchestrator.ResolveStatePath(manifestPath, artifactsDir)
	if err != nil {
		return err
	}

	// The state file may not exist yet (run not started). Watch its parent
	// directory instead: the atomic rename that publishes each save only
	// surfaces as a directory-level event anyway.
	stateDir := filepath.Dir(statePath)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("failed to prepare artifacts root: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(stateDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", stateDir, err)
	}

	_, err = tea.NewProgram(newWatchModel(manifestPath, artifactsDir, statePath, watcher)).Run()
	return err
}

type reportMsg struct {
	report *orchestrator.StatusReport
	err    error
}

type stateChangedMsg struct{}

type watchModel struct {
	manifestPath string
	artifactsDir string
	statePath    string
	watcher      *fsnotify.Watcher

	spinner spinner.Model
	report  *orchestrator.StatusReport
	loadErr error
}

func newWatchModel(manifestPath, artifactsDir, statePath string, watcher *fsnotify.Watcher) watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return watchModel{
		manifestPath: manifestPath,
		artifactsDir: artifactsDir,
		statePath:    statePath,
		watcher:      watcher,
		spinner:      sp,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadReport(), m.waitForChange())
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case reportMsg:
		m.report = msg.report
		m.loadErr = msg.err
		return m, nil

	case stateChangedMsg:
		return m, tea.Batch(m.loadReport(), m.waitForChange())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m watchModel) View() string {
	var b string
	switch {
	case m.loadErr != nil:
		b = fmt.Sprintf("Error reading workflow state: %v\n", m.loadErr)
	case m.report == nil:
		b = fmt.Sprintf("%s Waiting for workflow state at %s\n", m.spinner.View(), m.statePath)
	default:
		b = RenderReport(m.report)
		if m.report.HasRunningTicket() {
			b += fmt.Sprintf("%s workflow in progress\n", m.spinner.View())
		}
	}
	return b + helpStyle.Render("q to quit") + "\n"
}

// loadReport re-reads the persisted state into a fresh report.
func (m watchModel) loadReport() tea.Cmd {
	return func() tea.Msg {
		report, err := orchestrator.LoadStatus(m.manifestPath, m.artifactsDir)
		return reportMsg{report: report, err: err}
	}
}

// waitForChange blocks until the state file is rewritten. Unrelated files in
// the artifacts root (logs, patches) are ignored.
func (m watchModel) waitForChange() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-m.watcher.Events:
				if !ok {
					return tea.Quit()
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if filepath.Base(event.Name) != filepath.Base(m.statePath) {
					continue
				}
				return stateChangedMsg{}
			case _, ok := <-m.watcher.Errors:
				if !ok {
					return tea.Quit()
				}
				// Watcher errors are transient; keep waiting.
			}
		}
	}
}

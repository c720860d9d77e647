package cmd

import (
	"fmt"

	"github.com/Iron-Ham/foreman/internal/config"
	"github.com/Iron-Ham/foreman/internal/orchestrator"
	"github.com/spf13/cobra"
)

var runFlags struct {
	artifactsDir    string
	resume          bool
	codexBin        string
	workerModel     string
	reviewerModel   string
	configOverrides []string
}

var runCmd = &cobra.Command{
	Use:   "run <manifest>",
	Short: "Run an orchestrated workflow based on a manifest file",
	Long: `Run processes every ticket in the manifest, in order: a worker session
followed by a review session per ticket. Progress is persisted to the
artifacts directory after every transition, so --resume can pick up an
interrupted run without repeating completed steps.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.artifactsDir, "artifacts-dir", "",
		"directory to store workflow artifacts (logs, patches, state.json)")
	runCmd.Flags().BoolVar(&runFlags.resume, "resume", false,
		"resume from a previously saved workflow state if available")
	runCmd.Flags().StringVar(&runFlags.codexBin, "codex-bin", "",
		"override the Codex binary path (defaults to the current executable)")
	runCmd.Flags().StringVar(&runFlags.workerModel, "worker-model", "",
		"model override passed to worker sessions")
	runCmd.Flags().StringVar(&runFlags.reviewerModel, "reviewer-model", "",
		"model override passed to review sessions (defaults to the worker model)")
	runCmd.Flags().StringArrayVarP(&runFlags.configOverrides, "config-override", "c", nil,
		"raw key=value config override forwarded to every codex exec call (repeatable)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	opts := orchestrator.RunOptions{
		ManifestPath:    args[0],
		ArtifactsDir:    firstNonEmpty(runFlags.artifactsDir, cfg.Run.ArtifactsDir),
		Resume:          runFlags.resume,
		CodexBin:        firstNonEmpty(runFlags.codexBin, cfg.Codex.Bin),
		WorkerModel:     firstNonEmpty(runFlags.workerModel, cfg.Codex.WorkerModel),
		ReviewerModel:   firstNonEmpty(runFlags.reviewerModel, cfg.Codex.ReviewerModel),
		ConfigOverrides: append(append([]string{}, cfg.Codex.ConfigOverrides...), runFlags.configOverrides...),
		LogLevel:        cfg.Logging.Level,
	}

	report, err := orchestrator.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), renderReport(report))
	return nil
}

// firstNonEmpty returns the first non-empty string, letting CLI flags win
// over config file values.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

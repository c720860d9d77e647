package cmd

import (
	"fmt"

	"github.com/Iron-Ham/foreman/internal/config"
	"github.com/Iron-Ham/foreman/internal/orchestrator"
	"github.com/Iron-Ham/foreman/internal/tui"
	"github.com/spf13/cobra"
)

var statusFlags struct {
	artifactsDir string
	watch        bool
}

var statusCmd = &cobra.Command{
	Use:   "status <manifest>",
	Short: "Display the current status of a workflow",
	Long: `Status reads the persisted state file for the workflow and prints every
ticket's run state. The state file is treated as a read-only snapshot; while
a run is in flight it may trail the very latest transition.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusFlags.artifactsDir, "artifacts-dir", "",
		"directory that stores workflow artifacts (defaults to .codex/workflows/<workflow-name> next to the manifest)")
	statusCmd.Flags().BoolVar(&statusFlags.watch, "watch", false,
		"keep watching the state file and refresh the report on change")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	manifestPath := args[0]
	artifactsDir := firstNonEmpty(statusFlags.artifactsDir, cfg.Run.ArtifactsDir)

	if statusFlags.watch {
		return tui.Watch(manifestPath, artifactsDir)
	}

	report, err := orchestrator.LoadStatus(manifestPath, artifactsDir)
	if err != nil {
		return err
	}
	if report == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "No workflow state found for manifest %s\n", manifestPath)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), renderReport(report))
	return nil
}

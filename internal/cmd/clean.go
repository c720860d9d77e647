package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/foreman/internal/config"
	"github.com/Iron-Ham/foreman/internal/orchestrator"
)

var cleanFlags struct {
	artifactsDir string
	dryRun       bool
}

var cleanCmd = &cobra.Command{
	Use:   "clean <manifest>",
	Short: "Remove the stored artifacts for a workflow",
	Long: `Clean deletes the workflow's artifacts directory: the state file, every
ticket's session logs, and any saved patches. The next run starts from
scratch. Use --dry-run to see what would be removed.`,
	Args: cobra.ExactArgs(1),
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().StringVar(&cleanFlags.artifactsDir, "artifacts-dir", "",
		"directory that stores workflow artifacts (defaults to .codex/workflows/<workflow-name> next to the manifest)")
	cleanCmd.Flags().BoolVar(&cleanFlags.dryRun, "dry-run", false,
		"show what would be removed without removing anything")
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	artifactsDir := firstNonEmpty(cleanFlags.artifactsDir, cfg.Run.ArtifactsDir)

	statePath, err := orchestrator.ResolveStatePath(args[0], artifactsDir)
	if err != nil {
		return err
	}
	root := filepath.Dir(statePath)

	if _, err := os.Stat(root); os.IsNotExist(err) {
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing to clean: %s does not exist\n", root)
		return nil
	}

	if cleanFlags.dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "Would remove %s:\n", root)
		for _, entry := range listArtifacts(root) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", entry)
		}
		return nil
	}

	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("failed to remove artifacts at %s: %w", root, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", root)
	return nil
}

// listArtifacts returns the files under root, relative to it, sorted.
func listArtifacts(root string) []string {
	var entries []string
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if rel, relErr := filepath.Rel(root, path); relErr == nil {
			entries = append(entries, rel)
		}
		return nil
	})
	sort.Strings(entries)
	return entries
}

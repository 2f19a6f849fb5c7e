package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/insightbrd/brd/internal/intelligence"
	"github.com/insightbrd/brd/internal/models"
	"github.com/insightbrd/brd/internal/output"
	"github.com/insightbrd/brd/internal/store"
)

var (
	conflictProject string
	conflictAll     bool
	resolveAction   string
)

var conflictCmd = &cobra.Command{
	Use:   "conflict",
	Short: "Detect and resolve requirement conflicts",
	Long: `Detect contradictions between requirements and manage their resolution.

Detection scans every requirement pair in a project with the rule set,
so re-running it refreshes existing conflicts instead of duplicating them.`,
}

var conflictDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Run conflict detection across a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		return conflictDetectRun()
	},
}

var conflictListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List conflicts (unresolved by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return conflictListRun()
	},
}

var conflictResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Resolve a conflict",
	Long: `Resolve a conflict with one of three actions:

  apply      accept the suggested resolution
  deprecate  mark both requirements as deprecated
  ignore     dismiss the conflict`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return conflictResolveRun(args[0])
	},
}

func init() {
	conflictCmd.PersistentFlags().StringVarP(&conflictProject, "project", "p", "", "Project name or id")

	conflictListCmd.Flags().BoolVar(&conflictAll, "all", false, "Include resolved conflicts")
	conflictResolveCmd.Flags().StringVar(&resolveAction, "action", "apply", "Resolution action (apply, deprecate, ignore)")

	conflictCmd.AddCommand(conflictDetectCmd)
	conflictCmd.AddCommand(conflictListCmd)
	conflictCmd.AddCommand(conflictResolveCmd)
	rootCmd.AddCommand(conflictCmd)
}

func conflictDetectRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if conflictProject == "" {
		return fmt.Errorf("--project is required")
	}
	p, err := resolveProject(ctx, s, conflictProject)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would run conflict detection on %s", p.Name)
		return nil
	}

	intel := intelligence.NewService(s)
	conflicts, err := intel.DetectConflicts(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("detect conflicts: %w", err)
	}

	if len(conflicts) == 0 {
		ui.Success("No conflicts detected in %s", p.Name)
		return nil
	}

	ui.Warning("Detected %d conflict(s) in %s", len(conflicts), p.Name)
	return conflictListRun()
}

func conflictListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if conflictProject == "" {
		return fmt.Errorf("--project is required")
	}
	p, err := resolveProject(ctx, s, conflictProject)
	if err != nil {
		return err
	}

	conflicts, err := s.ListConflicts(ctx, store.ConflictListFilter{
		ProjectID:      p.ID,
		UnresolvedOnly: !conflictAll,
	})
	if err != nil {
		return err
	}

	if len(conflicts) == 0 {
		ui.Info("No conflicts for %s.", p.Name)
		return nil
	}

	table := ui.Table([]string{"ID", "Type", "Severity", "Req A", "Req B", "Resolution", "Resolved"})
	for _, c := range conflicts {
		resolved := ""
		if c.IsResolved {
			resolved = output.Green("yes")
		}
		table.Append([]string{
			c.ID,
			c.ConflictType,
			output.SeverityColor(c.SeverityScore),
			conflictReqText(ctx, s, c.ReqAID),
			conflictReqText(ctx, s, c.ReqBID),
			truncateText(c.ResolutionSummary, 40),
			resolved,
		})
	}
	table.Render()
	return nil
}

// conflictReqText fetches a short requirement preview for conflict tables.
func conflictReqText(ctx context.Context, s store.Store, id string) string {
	r, err := s.GetRequirement(ctx, id)
	if err != nil {
		return id
	}
	return truncateText(r.Text, 30)
}

func conflictResolveRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	action := models.ResolveAction(resolveAction)
	if !action.Valid() {
		return fmt.Errorf("invalid action %q (use apply, deprecate, or ignore)", resolveAction)
	}

	c, err := s.GetConflict(ctx, id)
	if err != nil {
		return err
	}
	if c.IsResolved {
		ui.Info("Conflict %s is already resolved.", id)
		return nil
	}

	if dryRun {
		ui.DryRunMsg("Would resolve conflict %s with action %s", id, action)
		return nil
	}

	if err := s.ResolveConflict(ctx, id, action); err != nil {
		return fmt.Errorf("resolve conflict: %w", err)
	}

	ui.Success("Resolved conflict %s (%s)", output.Cyan(id), action)
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/insightbrd/brd/internal/models"
	"github.com/insightbrd/brd/internal/output"
)

var (
	reqProject   string
	reqCategory  string
	reqSource    string
	reqPriority  float64
	reqSentiment float64
	reqActor     string

	reqUpdateText      string
	reqUpdateCategory  string
	reqUpdatePriority  string
	reqUpdateSentiment string
	reqUpdateStatus    string
)

var requirementCmd = &cobra.Command{
	Use:     "requirement",
	Aliases: []string{"req"},
	Short:   "Manage project requirements",
	Long: `Add, list, update, and remove requirements.

Every field change on update is recorded as an immutable revision,
which feeds the stability index and the evolution timeline.`,
}

var reqAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a requirement manually",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reqAddRun(args[0])
	},
}

var reqListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List a project's requirements",
	RunE: func(cmd *cobra.Command, args []string) error {
		return reqListRun()
	},
}

var reqShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a requirement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reqShowRun(args[0])
	},
}

var reqUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update requirement fields, recording revisions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reqUpdateRun(args[0])
	},
}

var reqRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a requirement",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reqRemoveRun(args[0])
	},
}

var reqHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the revision timeline for a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		return reqHistoryRun()
	},
}

func init() {
	requirementCmd.PersistentFlags().StringVarP(&reqProject, "project", "p", "", "Project name or id")

	reqAddCmd.Flags().StringVar(&reqCategory, "category", "functional", "Category (functional, non-functional, constraint)")
	reqAddCmd.Flags().StringVar(&reqSource, "source", "manual", "Source type (email, slack, transcript, document, manual)")
	reqAddCmd.Flags().Float64Var(&reqPriority, "priority", 5, "Priority score (0-10)")
	reqAddCmd.Flags().Float64Var(&reqSentiment, "sentiment", 0, "Sentiment score (-1..1)")

	reqUpdateCmd.Flags().StringVar(&reqUpdateText, "text", "", "New requirement text")
	reqUpdateCmd.Flags().StringVar(&reqUpdateCategory, "category", "", "New category")
	reqUpdateCmd.Flags().StringVar(&reqUpdatePriority, "priority", "", "New priority score")
	reqUpdateCmd.Flags().StringVar(&reqUpdateSentiment, "sentiment", "", "New sentiment score")
	reqUpdateCmd.Flags().StringVar(&reqUpdateStatus, "status", "", "New status")
	reqUpdateCmd.Flags().StringVar(&reqActor, "actor", "", "Actor recorded on each revision")

	requirementCmd.AddCommand(reqAddCmd)
	requirementCmd.AddCommand(reqListCmd)
	requirementCmd.AddCommand(reqShowCmd)
	requirementCmd.AddCommand(reqUpdateCmd)
	requirementCmd.AddCommand(reqRemoveCmd)
	requirementCmd.AddCommand(reqHistoryCmd)
	rootCmd.AddCommand(requirementCmd)
}

func reqAddRun(text string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if reqProject == "" {
		return fmt.Errorf("--project is required")
	}
	p, err := resolveProject(ctx, s, reqProject)
	if err != nil {
		return err
	}

	r := &models.Requirement{
		ProjectID:      p.ID,
		Text:           text,
		SourceType:     reqSource,
		Category:       models.RequirementCategory(reqCategory),
		PriorityScore:  reqPriority,
		SentimentScore: reqSentiment,
	}

	if dryRun {
		ui.DryRunMsg("Would add requirement to %s: %s", p.Name, text)
		return nil
	}

	if err := s.CreateRequirement(ctx, r); err != nil {
		return fmt.Errorf("add requirement: %w", err)
	}

	ui.Success("Added requirement %s", output.Cyan(r.ID))
	return nil
}

func reqListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if reqProject == "" {
		return fmt.Errorf("--project is required")
	}
	p, err := resolveProject(ctx, s, reqProject)
	if err != nil {
		return err
	}

	reqs, err := s.ListRequirements(ctx, p.ID)
	if err != nil {
		return err
	}

	if len(reqs) == 0 {
		ui.Info("No requirements for %s. Use 'brd ingest' or 'brd requirement add'.", p.Name)
		return nil
	}

	table := ui.Table([]string{"ID", "Text", "Category", "Priority", "Status", "Source"})
	for _, r := range reqs {
		table.Append([]string{
			r.ID,
			truncateText(r.Text, 60),
			string(r.Category),
			fmt.Sprintf("%.1f", r.PriorityScore),
			output.StatusColor(r.Status),
			r.SourceType,
		})
	}
	table.Render()
	return nil
}

func reqShowRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	r, err := s.GetRequirement(context.Background(), id)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "%s\n", output.Cyan(r.ID))
	fmt.Fprintf(ui.Out, "  Text:      %s\n", r.Text)
	fmt.Fprintf(ui.Out, "  Category:  %s\n", r.Category)
	fmt.Fprintf(ui.Out, "  Priority:  %.1f\n", r.PriorityScore)
	fmt.Fprintf(ui.Out, "  Sentiment: %.2f\n", r.SentimentScore)
	fmt.Fprintf(ui.Out, "  Status:    %s\n", output.StatusColor(r.Status))
	if r.SourceType != "" {
		fmt.Fprintf(ui.Out, "  Source:    %s", r.SourceType)
		if r.SourceRef != "" {
			fmt.Fprintf(ui.Out, " (%s)", r.SourceRef)
		}
		fmt.Fprintln(ui.Out)
	}
	fmt.Fprintf(ui.Out, "  Created:   %s\n", timeAgo(r.CreatedAt))
	fmt.Fprintf(ui.Out, "  Updated:   %s\n", timeAgo(r.UpdatedAt))
	return nil
}

func reqUpdateRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	r, err := s.GetRequirement(ctx, id)
	if err != nil {
		return err
	}

	if reqUpdateText != "" {
		r.Text = reqUpdateText
	}
	if reqUpdateCategory != "" {
		r.Category = models.RequirementCategory(reqUpdateCategory)
	}
	if reqUpdatePriority != "" {
		v, err := strconv.ParseFloat(reqUpdatePriority, 64)
		if err != nil {
			return fmt.Errorf("invalid priority %q", reqUpdatePriority)
		}
		r.PriorityScore = v
	}
	if reqUpdateSentiment != "" {
		v, err := strconv.ParseFloat(reqUpdateSentiment, 64)
		if err != nil {
			return fmt.Errorf("invalid sentiment %q", reqUpdateSentiment)
		}
		r.SentimentScore = v
	}
	if reqUpdateStatus != "" {
		r.Status = reqUpdateStatus
	}

	if dryRun {
		ui.DryRunMsg("Would update requirement: %s", id)
		return nil
	}

	revisions, err := s.UpdateRequirement(ctx, r, reqActor)
	if err != nil {
		return fmt.Errorf("update requirement: %w", err)
	}

	if len(revisions) == 0 {
		ui.Info("No changes for %s", id)
		return nil
	}

	ui.Success("Updated %s (%d revision(s))", output.Cyan(id), len(revisions))
	for _, rev := range revisions {
		ui.VerboseLog("%s: %q -> %q", rev.FieldChanged, rev.OldValue, rev.NewValue)
	}
	return nil
}

func reqRemoveRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would remove requirement: %s", id)
		return nil
	}

	if err := s.DeleteRequirement(context.Background(), id); err != nil {
		return fmt.Errorf("remove requirement: %w", err)
	}

	ui.Success("Removed requirement: %s", id)
	return nil
}

func reqHistoryRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if reqProject == "" {
		return fmt.Errorf("--project is required")
	}
	p, err := resolveProject(ctx, s, reqProject)
	if err != nil {
		return err
	}

	revisions, err := s.ListRevisions(ctx, p.ID)
	if err != nil {
		return err
	}

	if len(revisions) == 0 {
		ui.Info("No revisions recorded for %s.", p.Name)
		return nil
	}

	table := ui.Table([]string{"When", "Requirement", "Field", "Old", "New", "By"})
	for _, rev := range revisions {
		table.Append([]string{
			timeAgo(rev.CreatedAt),
			rev.RequirementID,
			rev.FieldChanged,
			truncateText(rev.OldValue, 30),
			truncateText(rev.NewValue, 30),
			rev.ChangedBy,
		})
	}
	table.Render()
	return nil
}

// truncateText shortens s for table display, cutting on a rune boundary.
func truncateText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

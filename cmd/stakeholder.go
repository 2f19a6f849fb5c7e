package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/insightbrd/brd/internal/models"
	"github.com/insightbrd/brd/internal/output"
)

var (
	stakeholderProject   string
	stakeholderRole      string
	stakeholderEmail     string
	stakeholderInfluence float64
)

var stakeholderCmd = &cobra.Command{
	Use:   "stakeholder",
	Short: "Manage project stakeholders",
	Long:  "Add, list, and remove stakeholders whose communications feed a project.",
}

var stakeholderAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a stakeholder to a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return stakeholderAddRun(args[0])
	},
}

var stakeholderListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List a project's stakeholders",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stakeholderListRun()
	},
}

var stakeholderRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a stakeholder",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return stakeholderRemoveRun(args[0])
	},
}

func init() {
	stakeholderCmd.PersistentFlags().StringVarP(&stakeholderProject, "project", "p", "", "Project name or id")

	stakeholderAddCmd.Flags().StringVar(&stakeholderRole, "role", "", "Stakeholder role (e.g. sponsor, product, engineering)")
	stakeholderAddCmd.Flags().StringVar(&stakeholderEmail, "email", "", "Email address for ingest attribution")
	stakeholderAddCmd.Flags().Float64Var(&stakeholderInfluence, "influence", 0, "Influence score (0-1)")

	stakeholderCmd.AddCommand(stakeholderAddCmd)
	stakeholderCmd.AddCommand(stakeholderListCmd)
	stakeholderCmd.AddCommand(stakeholderRemoveCmd)
	rootCmd.AddCommand(stakeholderCmd)
}

func stakeholderAddRun(name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if stakeholderProject == "" {
		return fmt.Errorf("--project is required")
	}
	p, err := resolveProject(ctx, s, stakeholderProject)
	if err != nil {
		return err
	}

	st := &models.Stakeholder{
		ProjectID:      p.ID,
		Name:           name,
		Role:           stakeholderRole,
		Email:          stakeholderEmail,
		InfluenceScore: stakeholderInfluence,
	}

	if dryRun {
		ui.DryRunMsg("Would add stakeholder %s to %s", name, p.Name)
		return nil
	}

	if err := s.CreateStakeholder(ctx, st); err != nil {
		return fmt.Errorf("add stakeholder: %w", err)
	}

	ui.Success("Added stakeholder %s to %s", output.Cyan(name), p.Name)
	return nil
}

func stakeholderListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if stakeholderProject == "" {
		return fmt.Errorf("--project is required")
	}
	p, err := resolveProject(ctx, s, stakeholderProject)
	if err != nil {
		return err
	}

	stakeholders, err := s.ListStakeholders(ctx, p.ID)
	if err != nil {
		return err
	}

	if len(stakeholders) == 0 {
		ui.Info("No stakeholders for %s.", p.Name)
		return nil
	}

	table := ui.Table([]string{"ID", "Name", "Role", "Email", "Influence"})
	for _, st := range stakeholders {
		table.Append([]string{
			st.ID,
			output.Cyan(st.Name),
			st.Role,
			st.Email,
			fmt.Sprintf("%.2f", st.InfluenceScore),
		})
	}
	table.Render()
	return nil
}

func stakeholderRemoveRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would remove stakeholder: %s", id)
		return nil
	}

	if err := s.DeleteStakeholder(context.Background(), id); err != nil {
		return fmt.Errorf("remove stakeholder: %w", err)
	}

	ui.Success("Removed stakeholder: %s", id)
	return nil
}

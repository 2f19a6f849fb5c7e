package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/insightbrd/brd/internal/models"
	"github.com/insightbrd/brd/internal/output"
	"github.com/insightbrd/brd/internal/store"
)

var (
	projectDescription string
	projectStatus      string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage tracked projects",
	Long:  "Add, remove, list, and show tracked business projects.",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a project to tracking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectAddRun(args[0])
	},
}

var projectRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a project and all its data",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectRemoveRun(args[0])
	},
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tracked projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectListRun()
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show detailed project information",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectShowRun(args[0])
	},
}

func init() {
	projectAddCmd.Flags().StringVar(&projectDescription, "description", "", "Project description")
	projectAddCmd.Flags().StringVar(&projectStatus, "status", "", "Project status (draft, active, archived)")

	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(projectRemoveCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	rootCmd.AddCommand(projectCmd)
}

func projectAddRun(name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	p := &models.Project{
		Name:        name,
		Description: projectDescription,
		Status:      models.ProjectStatus(projectStatus),
	}

	if dryRun {
		ui.DryRunMsg("Would add project: %s", name)
		return nil
	}

	if err := s.CreateProject(context.Background(), p); err != nil {
		return fmt.Errorf("add project: %w", err)
	}

	ui.Success("Added project: %s", output.Cyan(name))
	ui.VerboseLog("ID: %s", p.ID)
	return nil
}

func projectRemoveRun(name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, s, name)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would remove project: %s", p.Name)
		return nil
	}

	if err := s.DeleteProject(ctx, p.ID); err != nil {
		return fmt.Errorf("remove project: %w", err)
	}

	ui.Success("Removed project: %s", output.Cyan(p.Name))
	return nil
}

func projectListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	projects, err := s.ListProjects(ctx)
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		ui.Info("No projects tracked. Use 'brd project add <name>' to get started.")
		return nil
	}

	table := ui.Table([]string{"Name", "Status", "Requirements", "Open Conflicts", "Created"})
	for _, p := range projects {
		reqs, _ := s.ListRequirements(ctx, p.ID)
		conflicts, _ := s.ListConflicts(ctx, store.ConflictListFilter{ProjectID: p.ID, UnresolvedOnly: true})

		table.Append([]string{
			output.Cyan(p.Name),
			string(p.Status),
			fmt.Sprintf("%d", len(reqs)),
			fmt.Sprintf("%d", len(conflicts)),
			timeAgo(p.CreatedAt),
		})
	}
	table.Render()
	return nil
}

func projectShowRun(name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, s, name)
	if err != nil {
		return err
	}

	// Header
	fmt.Fprintf(ui.Out, "%s\n", output.Cyan(p.Name))
	if p.Description != "" {
		fmt.Fprintf(ui.Out, "  Desc:       %s\n", p.Description)
	}
	fmt.Fprintf(ui.Out, "  Status:     %s\n", p.Status)
	fmt.Fprintf(ui.Out, "  Created:    %s\n", timeAgo(p.CreatedAt))
	fmt.Fprintln(ui.Out)

	// Stakeholders
	if stakeholders, err := s.ListStakeholders(ctx, p.ID); err == nil && len(stakeholders) > 0 {
		fmt.Fprintf(ui.Out, "  Stakeholders: %d\n", len(stakeholders))
		for _, st := range stakeholders {
			line := st.Name
			if st.Role != "" {
				line += " (" + st.Role + ")"
			}
			fmt.Fprintf(ui.Out, "    - %s\n", line)
		}
	}

	// Requirement counts by status
	reqs, err := s.ListRequirements(ctx, p.ID)
	if err == nil && len(reqs) > 0 {
		extracted, analyzed, deprecated := 0, 0, 0
		for _, r := range reqs {
			switch r.Status {
			case models.RequirementStatusExtracted:
				extracted++
			case models.RequirementStatusAnalyzed:
				analyzed++
			case models.RequirementStatusDeprecated:
				deprecated++
			}
		}
		fmt.Fprintf(ui.Out, "  Requirements: %d (%d extracted, %d analyzed, %d deprecated)\n",
			len(reqs), extracted, analyzed, deprecated)
	}

	// Conflicts
	if conflicts, err := s.ListConflicts(ctx, store.ConflictListFilter{ProjectID: p.ID, UnresolvedOnly: true}); err == nil {
		fmt.Fprintf(ui.Out, "  Conflicts:    %d unresolved\n", len(conflicts))
	}

	return nil
}

// resolveProject finds a project by name or id.
func resolveProject(ctx context.Context, s store.Store, nameOrID string) (*models.Project, error) {
	if p, err := s.GetProjectByName(ctx, nameOrID); err == nil {
		return p, nil
	}
	if p, err := s.GetProject(ctx, nameOrID); err == nil {
		return p, nil
	}
	return nil, fmt.Errorf("project not found: %s", nameOrID)
}

// timeAgo returns a human-readable duration from a time.
func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	}
}

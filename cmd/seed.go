package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/insightbrd/brd/internal/intelligence"
	"github.com/insightbrd/brd/internal/models"
	"github.com/insightbrd/brd/internal/output"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a demo project with sample data",
	Long: `Create a demo project with stakeholders and requirements that
exercise the conflict detector and the intelligence metrics. Useful for
trying brd without wiring up real sources.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return seedRun()
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func seedRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if _, err := s.GetProjectByName(ctx, "demo"); err == nil {
		return fmt.Errorf("project 'demo' already exists")
	}

	if dryRun {
		ui.DryRunMsg("Would create demo project with sample requirements")
		return nil
	}

	p := &models.Project{
		Name:        "demo",
		Description: "Customer portal revamp (seeded demo data)",
		Status:      models.ProjectStatusActive,
	}
	if err := s.CreateProject(ctx, p); err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	stakeholders := []*models.Stakeholder{
		{ProjectID: p.ID, Name: "Dana Whitfield", Role: "sponsor", Email: "dana@example.com", InfluenceScore: 0.9},
		{ProjectID: p.ID, Name: "Marcus Lee", Role: "engineering", Email: "marcus@example.com", InfluenceScore: 0.6},
		{ProjectID: p.ID, Name: "Priya Raman", Role: "product", Email: "priya@example.com", InfluenceScore: 0.7},
	}
	for _, st := range stakeholders {
		if err := s.CreateStakeholder(ctx, st); err != nil {
			return fmt.Errorf("create stakeholder: %w", err)
		}
	}

	requirements := []*models.Requirement{
		{
			ProjectID:      p.ID,
			StakeholderID:  stakeholders[0].ID,
			Text:           "Launch the customer portal within one month of contract signing",
			SourceType:     "email",
			Category:       models.CategoryFunctional,
			PriorityScore:  9,
			SentimentScore: 0.4,
		},
		{
			ProjectID:      p.ID,
			StakeholderID:  stakeholders[1].ID,
			Text:           "The migration needs at least a three month runway before launch",
			SourceType:     "slack",
			Category:       models.CategoryFunctional,
			PriorityScore:  7,
			SentimentScore: -0.3,
		},
		{
			ProjectID:      p.ID,
			StakeholderID:  stakeholders[2].ID,
			Text:           "All user accounts must be migrated to the new portal",
			SourceType:     "transcript",
			Category:       models.CategoryConstraint,
			PriorityScore:  8,
			SentimentScore: 0.2,
		},
		{
			ProjectID:      p.ID,
			StakeholderID:  stakeholders[1].ID,
			Text:           "Migrate everything except legacy enterprise accounts in phase one",
			SourceType:     "email",
			Category:       models.CategoryConstraint,
			PriorityScore:  6,
			SentimentScore: -0.1,
		},
		{
			ProjectID:      p.ID,
			Text:           "Page loads must complete under two seconds on broadband",
			SourceType:     "document",
			Category:       models.CategoryNonFunctional,
			PriorityScore:  5,
			SentimentScore: 0.1,
		},
	}
	for _, r := range requirements {
		if err := s.CreateRequirement(ctx, r); err != nil {
			return fmt.Errorf("create requirement: %w", err)
		}
	}

	intel := intelligence.NewService(s)
	conflicts, err := intel.DetectConflicts(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("detect conflicts: %w", err)
	}

	ui.Success("Seeded project %s", output.Cyan(p.Name))
	fmt.Fprintf(ui.Out, "  Stakeholders: %d\n", len(stakeholders))
	fmt.Fprintf(ui.Out, "  Requirements: %d\n", len(requirements))
	fmt.Fprintf(ui.Out, "  Conflicts:    %d\n", len(conflicts))
	fmt.Fprintln(ui.Out)
	ui.Info("Try: brd status demo")
	return nil
}

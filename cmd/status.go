package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/insightbrd/brd/internal/intelligence"
	"github.com/insightbrd/brd/internal/output"
	"github.com/insightbrd/brd/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status [project]",
	Short: "Show the intelligence dashboard",
	Long: `Show a cross-project intelligence overview or detailed metrics for one project.

Without arguments, shows a summary table of all tracked projects with
alignment, stability, and risk. With a project name, shows the full
forecast including risk indicators.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return statusDetailRun(args[0])
		}
		return statusOverviewRun()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func statusOverviewRun() error {
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

	intel := intelligence.NewService(s)
	table := ui.Table([]string{"Project", "Requirements", "Conflicts", "Alignment", "Stability", "Risk"})

	for _, p := range projects {
		reqs, _ := s.ListRequirements(ctx, p.ID)
		conflicts, _ := s.ListConflicts(ctx, store.ConflictListFilter{ProjectID: p.ID, UnresolvedOnly: true})

		sas, err := intel.AlignmentScore(ctx, p.ID)
		if err != nil {
			ui.Warning("Failed to score %s: %v", p.Name, err)
			continue
		}
		rsi, err := intel.StabilityIndex(ctx, p.ID)
		if err != nil {
			ui.Warning("Failed to score %s: %v", p.Name, err)
			continue
		}
		forecast := intelligence.Forecast(sas, rsi)

		table.Append([]string{
			output.Cyan(p.Name),
			fmt.Sprintf("%d", len(reqs)),
			fmt.Sprintf("%d", len(conflicts)),
			output.ScoreColor(sas),
			output.ScoreColor(rsi),
			output.RiskColor(string(forecast.Status)),
		})
	}

	table.Render()
	return nil
}

func statusDetailRun(name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, s, name)
	if err != nil {
		return err
	}

	intel := intelligence.NewService(s)
	sas, err := intel.AlignmentScore(ctx, p.ID)
	if err != nil {
		return err
	}
	rsi, err := intel.StabilityIndex(ctx, p.ID)
	if err != nil {
		return err
	}
	forecast := intelligence.Forecast(sas, rsi)

	fmt.Fprintf(ui.Out, "%s\n", output.Cyan(p.Name))
	fmt.Fprintf(ui.Out, "  Alignment:  %s\n", output.ScoreColor(sas))
	fmt.Fprintf(ui.Out, "  Stability:  %s\n", output.ScoreColor(rsi))
	fmt.Fprintf(ui.Out, "  Risk:       %.1f (%s)\n", forecast.RiskScore, output.RiskColor(string(forecast.Status)))
	fmt.Fprintln(ui.Out)
	fmt.Fprintf(ui.Out, "  Alignment risk:  %s\n", forecast.Indicators.AlignmentRisk)
	fmt.Fprintf(ui.Out, "  Volatility risk: %s\n", forecast.Indicators.VolatilityRisk)

	return nil
}

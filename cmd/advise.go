package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/insightbrd/brd/internal/advisor"
	"github.com/insightbrd/brd/internal/output"
)

var (
	impactField string
	impactValue string
)

var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "Negotiation proposals and change impact simulation",
}

var adviseProposeCmd = &cobra.Command{
	Use:   "propose <conflict-id>",
	Short: "Generate a compromise proposal for a conflict",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return adviseProposeRun(args[0])
	},
}

var adviseImpactCmd = &cobra.Command{
	Use:   "impact <requirement-id>",
	Short: "Simulate the ripple effect of changing a requirement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return adviseImpactRun(args[0])
	},
}

func init() {
	adviseImpactCmd.Flags().StringVar(&impactField, "field", "priority_score", "Field to change")
	adviseImpactCmd.Flags().StringVar(&impactValue, "value", "", "Proposed new value")
	_ = adviseImpactCmd.MarkFlagRequired("value")

	adviseCmd.AddCommand(adviseProposeCmd)
	adviseCmd.AddCommand(adviseImpactCmd)
	rootCmd.AddCommand(adviseCmd)
}

func adviseProposeRun(conflictID string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	adv := advisor.NewService(s)
	proposal, err := adv.NegotiationProposal(context.Background(), conflictID)
	if err != nil {
		return fmt.Errorf("generate proposal: %w", err)
	}

	fmt.Fprintf(ui.Out, "%s\n", output.Cyan("Proposal"))
	fmt.Fprintf(ui.Out, "  %s\n\n", proposal.Proposal)
	fmt.Fprintf(ui.Out, "%s\n", output.Cyan("Rationale"))
	fmt.Fprintf(ui.Out, "  %s\n\n", proposal.Rationale)
	fmt.Fprintf(ui.Out, "Impact on alignment: %s\n", output.Green(proposal.ImpactOnAlignment))
	return nil
}

func adviseImpactRun(requirementID string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	adv := advisor.NewService(s)
	impact, err := adv.SimulateChangeImpact(context.Background(), requirementID, impactField, impactValue)
	if err != nil {
		return fmt.Errorf("simulate impact: %w", err)
	}

	fmt.Fprintf(ui.Out, "%s\n", output.Cyan("Change Impact"))
	fmt.Fprintf(ui.Out, "  Requirement: %s\n", impact.Requirement)
	fmt.Fprintf(ui.Out, "  Change:      %s\n", impact.Change)
	fmt.Fprintf(ui.Out, "  Affected:    %d requirement(s)\n", impact.AffectedCount)
	fmt.Fprintf(ui.Out, "  Risk delta:  %s\n", impact.EstimatedRiskDelta)
	for _, dep := range impact.RippleEffect {
		fmt.Fprintf(ui.Out, "    - %s\n", dep)
	}
	fmt.Fprintf(ui.Out, "\n%s\n", impact.Recommendation)
	return nil
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/insightbrd/brd/internal/connector"
	"github.com/insightbrd/brd/internal/ingest"
	"github.com/insightbrd/brd/internal/output"
)

var (
	ingestProject string
	ingestSource  string
	ingestActor   string
	ingestChannel string
	ingestQuery   string
	ingestLimit   int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest communications and extract requirements",
	Long: `Fetch communications from a source, filter noise, extract structured
requirements with the LLM, and run conflict detection over the result.

Sources:
  slack   channel history via the Slack API (mock messages without a token)
  gmail   email threads (sample data)
  enron   the public Enron email corpus sample
  ami     AMI meeting corpus transcript sample

Without an Anthropic API key the extraction runs in mock mode.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return ingestRun()
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestProject, "project", "p", "", "Project name or id")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "slack", "Source to ingest (slack, gmail, enron, ami)")
	ingestCmd.Flags().StringVar(&ingestActor, "actor", "", "Actor recorded on extracted requirements")
	ingestCmd.Flags().StringVar(&ingestChannel, "channel", "", "Slack channel id (default from config)")
	ingestCmd.Flags().StringVar(&ingestQuery, "query", "", "Gmail search query")
	ingestCmd.Flags().IntVar(&ingestLimit, "limit", 0, "Max items to fetch (default from config)")

	rootCmd.AddCommand(ingestCmd)
}

func ingestRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if ingestProject == "" {
		return fmt.Errorf("--project is required")
	}
	if ingestActor == "" {
		return fmt.Errorf("--actor is required")
	}
	p, err := resolveProject(ctx, s, ingestProject)
	if err != nil {
		return err
	}

	channel := ingestChannel
	if channel == "" {
		channel = viper.GetString("slack.channel")
	}
	limit := ingestLimit
	if limit == 0 {
		limit = viper.GetInt("ingest.limit")
	}

	var conn connector.Connector
	switch ingestSource {
	case "slack":
		conn = connector.NewSlackConnector(viper.GetString("slack.token"), channel, limit)
	case "gmail":
		conn = connector.NewGmailConnector(ingestQuery)
	case "enron":
		conn = connector.NewEnronConnector(limit)
	case "ami":
		conn = connector.NewAMIConnector()
	default:
		return fmt.Errorf("unsupported source: %s", ingestSource)
	}

	if dryRun {
		ui.DryRunMsg("Would ingest %s into %s", ingestSource, p.Name)
		return nil
	}

	client := getLLM()
	if client.Mock() {
		ui.Warning("No Anthropic API key configured; extraction runs in mock mode")
	}

	svc := ingest.NewService(s, client)
	result, err := svc.Run(ctx, p.ID, conn, ingestActor)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	ui.Success("Ingested %s into %s", ingestSource, output.Cyan(p.Name))
	fmt.Fprintf(ui.Out, "  Items processed:        %d\n", result.ProcessedItems)
	fmt.Fprintf(ui.Out, "  Requirements extracted: %d\n", result.RequirementsExtracted)
	fmt.Fprintf(ui.Out, "  Conflicts detected:     %d\n", result.ConflictsDetected)
	return nil
}

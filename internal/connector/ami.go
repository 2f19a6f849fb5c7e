package connector

import (
	"context"
	"fmt"
	"strings"
)

// AMIConnector serves meeting transcripts from the AMI corpus sample set.
// Each record is one speaker turn; Normalize reassembles turns into a
// single transcript chunk per meeting with the small talk filtered out.
type AMIConnector struct{}

// NewAMIConnector creates an AMI meeting-transcript connector.
func NewAMIConnector() *AMIConnector {
	return &AMIConnector{}
}

func (a *AMIConnector) SourceType() string { return "transcript" }

var amiSamples = []Record{
	{Ref: "ES2008a", Sender: "PM", Text: "Our decision today: the remote control must have a fresh look and the budget is twelve fifty per unit."},
	{Ref: "ES2008a", Sender: "ID", Text: "The priority should be an ergonomic shape, that was the main user study finding."},
	{Ref: "ES2008a", Sender: "UI", Text: "Did everyone have a good weekend?"},
	{Ref: "ES2008a", Sender: "ME", Text: "Scope note: we agreed the device only controls the television, not other appliances."},
	{Ref: "ES2008b", Sender: "PM", Text: "Milestone for next week is the functional design presentation."},
	{Ref: "ES2008b", Sender: "ID", Text: "One constraint from marketing: the deadline cannot slip past the trade show."},
}

func (a *AMIConnector) Fetch(ctx context.Context) ([]Record, error) {
	return amiSamples, nil
}

func (a *AMIConnector) Normalize(records []Record) []string {
	// Group speaker turns by meeting, preserving order.
	var order []string
	byMeeting := make(map[string][]Record)
	for _, r := range records {
		if _, ok := byMeeting[r.Ref]; !ok {
			order = append(order, r.Ref)
		}
		byMeeting[r.Ref] = append(byMeeting[r.Ref], r)
	}

	var texts []string
	for _, meeting := range order {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Meeting ID: %s\nTranscript:\n", meeting)
		kept := 0
		for _, turn := range byMeeting[meeting] {
			if IsNoise(turn.Text) {
				continue
			}
			fmt.Fprintf(&sb, "[%s]: %s\n", turn.Sender, CleanText(turn.Text))
			kept++
		}
		if kept > 0 {
			texts = append(texts, sb.String())
		}
	}
	return texts
}

package connector

import (
	"context"
	"fmt"
)

// EnronConnector serves emails from the Enron corpus sample set. The corpus
// is a standard requirements-mining benchmark; the built-in samples mirror
// its tone, including the noise that the filter is expected to drop.
type EnronConnector struct {
	limit int
}

// NewEnronConnector creates an Enron dataset connector.
func NewEnronConnector(limit int) *EnronConnector {
	if limit <= 0 {
		limit = 100
	}
	return &EnronConnector{limit: limit}
}

func (e *EnronConnector) SourceType() string { return "email" }

var enronSamples = []Record{
	{Sender: "jeff.dasovich@enron.com", Subject: "Gas scheduling system", Text: "The new scheduling system is a priority. It must have automated nomination handling and the deadline for phase one is end of quarter.", Ref: "enron-0001"},
	{Sender: "sara.shackleton@enron.com", Subject: "Contract review requirement", Text: "Legal requirement: every counterparty contract must be reviewed before execution. This is a hard constraint from compliance.", Ref: "enron-0002"},
	{Sender: "chris.germany@enron.com", Subject: "Lunch on Friday?", Text: "Anyone up for lunch at the new place across the street? Thinking noon.", Ref: "enron-0003"},
	{Sender: "vince.kaminski@enron.com", Subject: "Risk model scope", Text: "The risk model scope should cover all trading desks. We agreed the VaR calculation is the first milestone.", Ref: "enron-0004"},
	{Sender: "enron.announcements@enron.com", Subject: "Newsletter: week in review", Text: "This week's newsletter covers the company picnic and football pool results. Unsubscribe below.", Ref: "enron-0005"},
}

func (e *EnronConnector) Fetch(ctx context.Context) ([]Record, error) {
	if e.limit < len(enronSamples) {
		return enronSamples[:e.limit], nil
	}
	return enronSamples, nil
}

func (e *EnronConnector) Normalize(records []Record) []string {
	var texts []string
	for _, r := range records {
		full := r.Subject + "\n" + r.Text
		if IsNoise(full) {
			continue
		}
		texts = append(texts, fmt.Sprintf("Subject: %s\nFrom: %s\nContent: %s", r.Subject, r.Sender, CleanText(r.Text)))
	}
	return texts
}

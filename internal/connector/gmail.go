package connector

import (
	"context"
	"fmt"
)

// GmailConnector returns inbox samples shaped like Gmail API output. A real
// credentialed fetch is out of scope; the sample set keeps the ingestion
// path exercisable end to end.
type GmailConnector struct {
	query string
}

// NewGmailConnector creates a Gmail connector for the given search query.
func NewGmailConnector(query string) *GmailConnector {
	if query == "" {
		query = "label:inbox"
	}
	return &GmailConnector{query: query}
}

func (g *GmailConnector) SourceType() string { return "email" }

func (g *GmailConnector) Fetch(ctx context.Context) ([]Record, error) {
	return []Record{
		{Subject: "Project Requirements", Sender: "cto@example.com", Text: "Please ensure the system is GDPR compliant.", Ref: "gmail-1"},
		{Subject: "Meeting Notes", Sender: "pm@example.com", Text: "Decision: Mobile app must launch by June.", Ref: "gmail-2"},
	}, nil
}

func (g *GmailConnector) Normalize(records []Record) []string {
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

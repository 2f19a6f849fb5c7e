package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultSlackBaseURL = "https://slack.com/api"

// SlackConnector fetches channel history via the Slack Web API. Without a
// bot token it returns mock records so ingestion can be exercised offline.
type SlackConnector struct {
	token     string
	channelID string
	limit     int

	// BaseURL overrides the Slack API endpoint, for tests.
	BaseURL string
	client  *http.Client
}

// NewSlackConnector creates a Slack connector for one channel.
func NewSlackConnector(token, channelID string, limit int) *SlackConnector {
	if limit <= 0 {
		limit = 20
	}
	return &SlackConnector{
		token:     token,
		channelID: channelID,
		limit:     limit,
		BaseURL:   defaultSlackBaseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SlackConnector) SourceType() string { return "slack" }

// slackHistoryResponse is the subset of conversations.history we consume.
type slackHistoryResponse struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error"`
	Messages []struct {
		User string `json:"user"`
		Text string `json:"text"`
		TS   string `json:"ts"`
	} `json:"messages"`
}

func (s *SlackConnector) Fetch(ctx context.Context) ([]Record, error) {
	if s.token == "" {
		return []Record{
			{Sender: "U123", Text: "[MOCK] We need the SSO to support OAuth2.", Ref: "123456.78"},
			{Sender: "U456", Text: "[MOCK] The budget for this is $50k.", Ref: "123457.90"},
		}, nil
	}

	q := url.Values{}
	q.Set("channel", s.channelID)
	q.Set("limit", strconv.Itoa(s.limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/conversations.history?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("slack API call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var history slackHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, fmt.Errorf("decode slack response: %w", err)
	}
	if !history.OK {
		return nil, fmt.Errorf("slack API error: %s", history.Error)
	}

	records := make([]Record, 0, len(history.Messages))
	for _, m := range history.Messages {
		records = append(records, Record{Sender: m.User, Text: m.Text, Ref: m.TS})
	}
	return records, nil
}

func (s *SlackConnector) Normalize(records []Record) []string {
	var texts []string
	for _, r := range records {
		if IsNoise(r.Text) {
			continue
		}
		texts = append(texts, fmt.Sprintf("[%s]: %s", r.Sender, CleanText(r.Text)))
	}
	return texts
}

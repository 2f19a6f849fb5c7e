// Package connector fetches raw communication records from external sources
// and normalizes them into plain text for the extraction pipeline. Every
// source implements the same two-operation capability, so nothing downstream
// depends on source-specific shapes.
package connector

import "context"

// Record is one raw item fetched from a source: an email, a chat message,
// or a meeting transcript segment.
type Record struct {
	Sender  string
	Subject string
	Text    string
	Ref     string
}

// Connector is the source capability: fetch raw records, normalize to text.
type Connector interface {
	// SourceType identifies the source, e.g. "slack", "email", "transcript".
	SourceType() string
	Fetch(ctx context.Context) ([]Record, error)
	// Normalize converts fetched records into text chunks suitable for
	// requirement extraction, dropping noise.
	Normalize(records []Record) []string
}

package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_MockWithoutKey(t *testing.T) {
	c := NewClient("", "claude-haiku-4-5-20251001")
	assert.True(t, c.Mock())

	c = NewClient("sk-ant-test", "claude-haiku-4-5-20251001")
	assert.False(t, c.Mock())
}

func TestExtractRequirements_MockMode(t *testing.T) {
	c := NewClient("", "")
	ctx := context.Background()

	reqs, err := c.ExtractRequirements(ctx, "We need the portal launched before the end of the quarter.")
	require.NoError(t, err)
	require.Len(t, reqs, 1)

	assert.Equal(t, "Mock: We need the portal l", reqs[0].Text)
	assert.Equal(t, "functional", reqs[0].Category)
	assert.Equal(t, 5.0, reqs[0].PriorityScore)
	assert.Equal(t, "Mock User", reqs[0].StakeholderName)
}

func TestExtractRequirements_MockShortText(t *testing.T) {
	c := NewClient("", "")

	reqs, err := c.ExtractRequirements(context.Background(), "short")
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Mock: short", reqs[0].Text)
}

func TestDetectConflicts_MockReturnsNone(t *testing.T) {
	c := NewClient("", "")

	conflicts, err := c.DetectConflicts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestDetectConflicts_EmptyInput(t *testing.T) {
	c := NewClient("sk-ant-test", "claude-haiku-4-5-20251001")

	// Empty requirement lists short-circuit before any API call.
	conflicts, err := c.DetectConflicts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `[{"text": "x"}]`, `[{"text": "x"}]`},
		{"fenced", "```\n[1, 2]\n```", "[1, 2]"},
		{"fenced with language", "```json\n[1, 2]\n```", "[1, 2]"},
		{"leading whitespace", "  \n```json\n{}\n```\n", "{}"},
		{"unclosed fence", "```json\n[1]", "[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}

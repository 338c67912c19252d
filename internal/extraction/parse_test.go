package extraction

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellarlinkco/briefclaw/internal/brief"
)

func TestStripFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `  {"a":1} `, `{"a":1}`},
		{"json fence", "Here you go:\n```json\n{\"a\":1}\n```\nThanks", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"json fence wins", "```\nnope\n```\n```json\n{\"b\":2}\n```", `{"b":2}`},
		{"unterminated", "```json\n{\"a\":1}", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFence(tt.in))
		})
	}
}

func TestParseResponseExtractsTypedCandidates(t *testing.T) {
	content := "```json\n" + `{
		"summary": "Spring campaign for Acme.",
		"budget_amount": 50000,
		"client_name": "Acme",
		"territory": ["DE", "AT"],
		"stems_required": false,
		"reference_tracks": [{"artist": "Moby", "title": "Porcelain", "notes": "piano"}],
		"deadline_date": null,
		"project_type": "b",
		"favourite_colour": "blue",
		"completion_rate": 80
	}` + "\n```"

	ext, err := ParseResponse(content)
	require.NoError(t, err)
	assert.Equal(t, "Spring campaign for Acme.", ext.Summary)
	assert.Equal(t, []brief.Candidate{
		{Field: brief.ClientName, Value: "Acme"},
		{Field: brief.BudgetAmount, Value: 50000.0},
		{Field: brief.Territory, Value: []string{"DE", "AT"}},
		{Field: brief.DeadlineDate, Value: nil},
		{Field: brief.ReferenceTracks, Value: []brief.ReferenceTrack{{Artist: "Moby", Title: "Porcelain", Notes: "piano"}}},
		{Field: brief.StemsRequired, Value: false},
		{Field: brief.ProjectType, Value: "b"},
	}, ext.Candidates)
	assert.Equal(t, []string{"completion_rate", "favourite_colour"}, ext.Dropped)
}

func TestParseResponseSummaryOnly(t *testing.T) {
	ext, err := ParseResponse(`{"summary": "The budget is €50,000."}`)
	require.NoError(t, err)
	assert.Equal(t, "The budget is €50,000.", ext.Summary)
	assert.Empty(t, ext.Candidates)
}

func TestParseResponseMalformed(t *testing.T) {
	cases := map[string]string{
		"prose":          "Sure! The client is Acme.",
		"empty":          "   ",
		"array":          `[{"client_name": "Acme"}]`,
		"trailing":       `{"summary": "a"} {"summary": "b"}`,
		"summary type":   `{"summary": 42}`,
		"mistyped field": `{"budget_amount": "fifty thousand"}`,
		"mixed list":     `{"territory": ["DE", 1]}`,
		"tier type":      `{"project_type": 3}`,
		"truncated":      "```json\n{\"client_name\": \"Ac",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseResponse(content)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedOutput))
		})
	}
}

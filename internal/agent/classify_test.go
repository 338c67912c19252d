package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	longPaste := strings.Repeat("music for a car spot ", 12)

	tests := []struct {
		name       string
		text       string
		projectID  string
		meaningful int
		want       Classification
	}{
		{"question with project", "What is the budget?", "p1", 0, Classification{IsQuestion: true, NeedsContext: true}},
		{"question without project", "What is the budget?", "", 0, Classification{IsQuestion: true}},
		{"question with known fields", "who is the client", "p1", 2, Classification{IsQuestion: true}},
		{"instruction", "Set the title to Spring Launch", "p1", 0, Classification{}},
		{"email header", "From: anna@agency.com\nWe need music", "p1", 0, Classification{IsQuestion: true, IsBriefPaste: true}},
		{"subject header", "SUBJECT: new brief, what do you think", "p1", 0, Classification{IsQuestion: true, IsBriefPaste: true}},
		{"long paste", longPaste, "p1", 0, Classification{IsBriefPaste: true}},
		{"marker inside word", "somewhat upbeat please", "p1", 0, Classification{IsQuestion: true, NeedsContext: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text, tt.projectID, tt.meaningful))
		})
	}
}

func TestClassifyCountsRunes(t *testing.T) {
	// 150 two-byte runes stay under the paste threshold.
	text := strings.Repeat("é", 150)
	assert.False(t, Classify(text, "", 0).IsBriefPaste)
	assert.True(t, Classify(strings.Repeat("é", 201), "", 0).IsBriefPaste)
}

func TestResolveProjectID(t *testing.T) {
	assert.Equal(t, "abc", ResolveProjectID("  abc ", "project:xyz"))
	assert.Equal(t, "xyz", ResolveProjectID("   ", "project:xyz"))
	assert.Equal(t, "", ResolveProjectID("", "project:  "))
	assert.Equal(t, "", ResolveProjectID("", "telegram:42"))
	assert.Equal(t, "", ResolveProjectID("", ""))
}

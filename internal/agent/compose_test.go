package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stellarlinkco/briefclaw/internal/brief"
)

func TestCompose(t *testing.T) {
	tests := []struct {
		name string
		in   Reply
		want string
	}{
		{
			name: "budget tier",
			in:   Reply{Summary: "Got it", ChangedCount: 2, Completeness: 10, Tier: brief.TierB, Budget: 50000},
			want: "Got it\n\n**Extracted 2 fields** from your brief.\n\n" +
				"The brief is **10% complete**. I've identified some missing information that would help with the music search.\n\n" +
				"Based on the budget of €50,000, this is classified as a **Type B** project.",
		},
		{
			name: "single field, mid banner, no tier",
			in:   Reply{ChangedCount: 1, Completeness: 70},
			want: "**Extracted 1 field** from your brief.\n\n" +
				"The brief is **70% complete**. Just a few more details would make it comprehensive.",
		},
		{
			name: "instruction this turn",
			in:   Reply{Completeness: 90, Tier: brief.TierC, TierSetThisTurn: true, TierPinned: true, Budget: 500000},
			want: "The brief is **90% complete**. This is a solid brief with most key information captured.\n\n" +
				"Project type has been set to **C** based on your instruction.",
		},
		{
			name: "pinned earlier",
			in:   Reply{Summary: "  ", Completeness: 89, Tier: brief.TierProduction, TierPinned: true},
			want: "The brief is **89% complete**. Just a few more details would make it comprehensive.\n\n" +
				"Project type remains **Production** as instructed.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compose(tt.in))
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0", FormatAmount(0))
	assert.Equal(t, "2,500", FormatAmount(2500))
	assert.Equal(t, "1,234,568", FormatAmount(1234567.6))
}

package agent

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/stellarlinkco/briefclaw/internal/brief"
)

const (
	bannerLowThreshold  = 70
	bannerHighThreshold = 90
)

var amountPrinter = message.NewPrinter(language.English)

// Reply is what the composer needs to know about a processed turn.
type Reply struct {
	Summary      string
	ChangedCount int
	Completeness int
	Tier         brief.Tier
	// TierSetThisTurn is true when an explicit instruction changed the tier.
	TierSetThisTurn bool
	// TierPinned is true when the tier comes from an earlier instruction.
	TierPinned bool
	Budget     float64
}

// Compose renders the reply text for an extraction turn.
func Compose(r Reply) string {
	var parts []string
	if s := strings.TrimSpace(r.Summary); s != "" {
		parts = append(parts, s)
	}

	if r.ChangedCount > 0 {
		noun := "fields"
		if r.ChangedCount == 1 {
			noun = "field"
		}
		parts = append(parts, fmt.Sprintf("**Extracted %d %s** from your brief.", r.ChangedCount, noun))
	}

	switch {
	case r.Completeness < bannerLowThreshold:
		parts = append(parts, fmt.Sprintf("The brief is **%d%% complete**. I've identified some missing information that would help with the music search.", r.Completeness))
	case r.Completeness < bannerHighThreshold:
		parts = append(parts, fmt.Sprintf("The brief is **%d%% complete**. Just a few more details would make it comprehensive.", r.Completeness))
	default:
		parts = append(parts, fmt.Sprintf("The brief is **%d%% complete**. This is a solid brief with most key information captured.", r.Completeness))
	}

	switch {
	case r.Tier == brief.TierNone:
	case r.TierSetThisTurn:
		parts = append(parts, fmt.Sprintf("Project type has been set to **%s** based on your instruction.", r.Tier))
	case r.TierPinned:
		parts = append(parts, fmt.Sprintf("Project type remains **%s** as instructed.", r.Tier))
	default:
		parts = append(parts, fmt.Sprintf("Based on the budget of €%s, this is classified as a **Type %s** project.", FormatAmount(r.Budget), r.Tier))
	}

	return strings.Join(parts, "\n\n")
}

// FormatAmount renders a whole-unit amount with thousands separators.
func FormatAmount(v float64) string {
	return amountPrinter.Sprintf("%d", int64(math.Round(v)))
}

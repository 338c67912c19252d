package brief

import (
	"fmt"
	"strings"
)

// Tier is the budget class of a project. The zero value means no tier.
type Tier string

const (
	TierNone       Tier = ""
	TierA          Tier = "A"
	TierB          Tier = "B"
	TierC          Tier = "C"
	TierD          Tier = "D"
	TierE          Tier = "E"
	TierProduction Tier = "Production"
)

// Lower bounds of the budget bands, inclusive.
const (
	tierABudget = 100000
	tierBBudget = 25000
	tierCBudget = 10000
	tierDBudget = 2500
)

// NormalizeTier canonicalizes a user-supplied project type label.
func NormalizeTier(v any) (Tier, bool) {
	if v == nil {
		return TierNone, false
	}
	raw := strings.TrimSpace(fmt.Sprint(v))
	if raw == "" {
		return TierNone, false
	}
	switch upper := strings.ToUpper(raw); upper {
	case "A", "B", "C", "D", "E":
		return Tier(upper), true
	case "PRODUCTION", "PROD":
		return TierProduction, true
	}
	return TierNone, false
}

// TierForBudget classifies a budget amount.
func TierForBudget(budget float64) Tier {
	switch {
	case budget >= tierABudget:
		return TierA
	case budget >= tierBBudget:
		return TierB
	case budget >= tierCBudget:
		return TierC
	case budget >= tierDBudget:
		return TierD
	default:
		return TierE
	}
}

// ClassifyTier picks the project tier: an explicit tier wins, otherwise the
// budget decides. Without either the result is TierNone.
func ClassifyTier(b Brief, explicit Tier) Tier {
	if explicit != TierNone {
		return explicit
	}
	budget, ok := b.Budget()
	if !ok {
		return TierNone
	}
	return TierForBudget(budget)
}

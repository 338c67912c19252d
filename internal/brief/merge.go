package brief

import "github.com/google/go-cmp/cmp"

// Candidate is one field/value pair proposed by extraction.
type Candidate struct {
	Field string
	Value any
}

// MergeResult is the outcome of reconciling candidates into a Brief.
type MergeResult struct {
	Brief Brief
	// Changed lists fields whose value differs from before, in candidate
	// order. Rewrites of an identical value are not listed.
	Changed []string
	// ExplicitTier is the canonical tier the candidates asked for, if any.
	ExplicitTier Tier
	// TierOverridden is set when ExplicitTier differs from the current tier.
	TierOverridden bool
	// Skipped lists candidates that were not meaningful or not in the
	// closed field set.
	Skipped []string
}

// Merge reconciles candidates against existing and returns the updated copy.
// Existing values are never deleted.
func Merge(existing Brief, candidates []Candidate, currentTier Tier) MergeResult {
	res := MergeResult{Brief: existing.Clone()}
	if res.Brief == nil {
		res.Brief = Brief{}
	}

	for _, c := range candidates {
		meaningful := IsMeaningful(c.Value)

		if c.Field == ProjectType {
			if !meaningful {
				res.Skipped = append(res.Skipped, c.Field)
				continue
			}
			tier, ok := NormalizeTier(c.Value)
			if !ok {
				res.Skipped = append(res.Skipped, c.Field)
				continue
			}
			res.ExplicitTier = tier
			if tier != currentTier {
				res.TierOverridden = true
				res.Changed = appendOnce(res.Changed, ProjectType)
			}
			continue
		}

		if !meaningful || !IsKnown(c.Field) {
			res.Skipped = append(res.Skipped, c.Field)
			continue
		}
		if prev, ok := res.Brief[c.Field]; !ok || !cmp.Equal(prev, c.Value) {
			res.Changed = appendOnce(res.Changed, c.Field)
		}
		res.Brief[c.Field] = c.Value
	}
	return res
}

func appendOnce(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

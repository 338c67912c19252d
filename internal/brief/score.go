package brief

// Completeness returns the weighted share of filled scored fields as an
// integer percentage, truncated toward zero.
func Completeness(b Brief) int {
	score := 0
	for _, f := range Fields {
		if b.Has(f.Name) {
			score += Weight(f.Priority)
		}
	}
	if MaxScore == 0 {
		return 0
	}
	return score * 100 / MaxScore
}

// Missing returns the unfilled fields of priority p in catalog order.
func Missing(b Brief, p Priority) []string {
	var out []string
	for _, name := range FieldsWithPriority(p) {
		if !b.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

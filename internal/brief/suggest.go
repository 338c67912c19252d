package brief

import "fmt"

// SuggestionChip is a follow-up question surfaced for a missing field.
type SuggestionChip struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Field    string   `json:"field"`
	Priority Priority `json:"priority"`
}

const (
	maxImportantChips = 3
	maxHelpfulChips   = 2
	MaxChips          = 8
)

// Suggest builds chips for missing fields: every critical one, up to three
// important and two helpful, truncated to MaxChips. Critical fields alone can
// fill the list and crowd out the rest.
func Suggest(b Brief) []SuggestionChip {
	var chips []SuggestionChip
	next := 0
	add := func(p Priority, limit int) {
		added := 0
		for _, field := range Missing(b, p) {
			if limit >= 0 && added >= limit {
				return
			}
			label, ok := Question(field)
			if !ok {
				continue
			}
			chips = append(chips, SuggestionChip{
				ID:       fmt.Sprintf("chip_%d", next),
				Label:    label,
				Field:    field,
				Priority: p,
			})
			next++
			added++
		}
	}

	add(PriorityCritical, -1)
	add(PriorityImportant, maxImportantChips)
	add(PriorityHelpful, maxHelpfulChips)

	if len(chips) > MaxChips {
		chips = chips[:MaxChips]
	}
	return chips
}

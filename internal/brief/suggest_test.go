package brief

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chipFields(chips []SuggestionChip) []string {
	out := make([]string, len(chips))
	for i, c := range chips {
		out[i] = c.Field
	}
	return out
}

func TestSuggestEmptyBriefIsCappedAtEight(t *testing.T) {
	chips := Suggest(Brief{})
	require.Len(t, chips, MaxChips)

	assert.Equal(t, []string{
		ClientName, BudgetAmount, Territory, DeadlineDate,
		ProjectTitle, MediaTypes, CreativeDirection,
		ReferenceTracks,
	}, chipFields(chips))

	for i, c := range chips {
		if i < 4 {
			assert.Equal(t, PriorityCritical, c.Priority)
		} else if i < 7 {
			assert.Equal(t, PriorityImportant, c.Priority)
		} else {
			assert.Equal(t, PriorityHelpful, c.Priority)
		}
	}
	assert.Equal(t, "chip_0", chips[0].ID)
	assert.Equal(t, "chip_7", chips[7].ID)
}

func TestSuggestHelpfulCapAndCatalogGaps(t *testing.T) {
	b := fullBrief()
	for _, name := range FieldsWithPriority(PriorityHelpful) {
		delete(b, name)
	}
	chips := Suggest(b)

	// agency_name, brand_name, mood_keywords and genre_preferences have no
	// question, so the first two helpful chips come from later fields.
	assert.Equal(t, []string{ReferenceTracks, SyncPoints}, chipFields(chips))
}

func TestSuggestImportantCap(t *testing.T) {
	b := Brief{ClientName: "a", BudgetAmount: 1.0, Territory: []string{"DE"}, DeadlineDate: "d"}
	chips := Suggest(b)

	var important int
	for _, c := range chips {
		if c.Priority == PriorityImportant {
			important++
		}
	}
	assert.Equal(t, 3, important)
	assert.Len(t, chips, 5)
}

func TestSuggestFullBriefHasNoChips(t *testing.T) {
	assert.Empty(t, Suggest(fullBrief()))
}

func TestSuggestMeaningfulFalseIsNotMissing(t *testing.T) {
	b := fullBrief()
	b[StemsRequired] = false
	delete(b, SyncPoints)
	assert.Equal(t, []string{SyncPoints}, chipFields(Suggest(b)))
}

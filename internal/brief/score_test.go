package brief

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fullBrief() Brief {
	b := Brief{}
	for _, f := range Fields {
		switch f.Kind {
		case KindString:
			b[f.Name] = "x"
		case KindNumber:
			b[f.Name] = 1000.0
		case KindBool:
			b[f.Name] = false
		case KindStringList:
			b[f.Name] = []string{"x"}
		case KindTrackList:
			b[f.Name] = []ReferenceTrack{{Title: "x"}}
		}
	}
	return b
}

func TestCompletenessBounds(t *testing.T) {
	assert.Equal(t, 0, Completeness(nil))
	assert.Equal(t, 0, Completeness(Brief{}))
	assert.Equal(t, 100, Completeness(fullBrief()))
}

func TestCompletenessWeights(t *testing.T) {
	tests := []struct {
		name string
		b    Brief
		want int
	}{
		{"one critical", Brief{ClientName: "Acme"}, 10},                     // 10/92
		{"one important", Brief{ProjectTitle: "Launch"}, 5},                 // 5/92
		{"one helpful", Brief{AgencyName: "Ogilvy"}, 2},                     // 2/92
		{"context only", Brief{BudgetCurrency: "EUR", ExtractionNotes: "x"}, 0},
		{"all critical", Brief{ClientName: "a", BudgetAmount: 0.0, Territory: []string{"DE"}, DeadlineDate: "2026-01-01"}, 43},
		{"empty values ignored", Brief{ClientName: "", Territory: []string{}}, 0},
		{"false counts", Brief{StemsRequired: false, Exclusivity: false}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Completeness(tt.b))
		})
	}
}

func TestCompletenessNeverDecreasesWhenAFieldIsAdded(t *testing.T) {
	b := Brief{}
	prev := Completeness(b)
	for name, v := range fullBrief() {
		b[name] = v
		got := Completeness(b)
		assert.GreaterOrEqual(t, got, prev, "adding %s", name)
		assert.LessOrEqual(t, got, 100)
		prev = got
	}
}

func TestMissing(t *testing.T) {
	b := Brief{ClientName: "Acme", DeadlineDate: ""}
	assert.Equal(t, []string{BudgetAmount, Territory, DeadlineDate}, Missing(b, PriorityCritical))
}

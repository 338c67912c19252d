package agent

import (
	"context"
	"time"

	"github.com/stellarlinkco/briefclaw/internal/brief"
)

// State is everything persisted for one conversation thread between turns.
type State struct {
	ThreadID     string                 `json:"thread_id"`
	Messages     []Message              `json:"messages"`
	ProjectID    string                 `json:"current_project_id,omitempty"`
	Brief        brief.Brief            `json:"extracted_brief"`
	Completeness int                    `json:"completeness"`
	ProjectTier  brief.Tier             `json:"project_type,omitempty"`
	ExplicitTier brief.Tier             `json:"explicit_project_type,omitempty"`
	Chips        []brief.SuggestionChip `json:"suggestion_chips"`
	FieldUpdates []string               `json:"field_updates"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// Checkpointer persists State keyed by thread id.
type Checkpointer interface {
	// Load returns the saved state and whether one existed.
	Load(ctx context.Context, threadID string) (State, bool, error)
	Save(ctx context.Context, state State) error
}

// TurnInput is one request to process a conversation turn. Brief is an
// optional client-side snapshot overlaid onto the stored brief.
type TurnInput struct {
	ThreadID  string      `json:"thread_id"`
	Messages  []Message   `json:"messages"`
	Brief     brief.Brief `json:"extracted_brief,omitempty"`
	ProjectID string      `json:"current_project_id,omitempty"`
}

// OutcomeKind tells which path a turn took.
type OutcomeKind string

const (
	OutcomeExtraction OutcomeKind = "extraction"
	OutcomeAnswer     OutcomeKind = "answer"
	OutcomeMalformed  OutcomeKind = "malformed"
	OutcomeNoMessage  OutcomeKind = "no_message"
	OutcomeUnreadable OutcomeKind = "unreadable"
)

// TurnOutput is the result of one processed turn.
type TurnOutput struct {
	ThreadID     string                 `json:"thread_id"`
	Outcome      OutcomeKind            `json:"outcome"`
	Reply        string                 `json:"reply"`
	Brief        brief.Brief            `json:"extracted_brief"`
	Completeness int                    `json:"completeness"`
	ProjectTier  brief.Tier             `json:"project_type,omitempty"`
	Chips        []brief.SuggestionChip `json:"suggestion_chips"`
	FieldUpdates []string               `json:"field_updates"`
	ProjectID    string                 `json:"current_project_id,omitempty"`
}

func outputFrom(s State, kind OutcomeKind, reply string) TurnOutput {
	b := s.Brief
	if b == nil {
		b = brief.Brief{}
	}
	chips := s.Chips
	if chips == nil {
		chips = []brief.SuggestionChip{}
	}
	updates := s.FieldUpdates
	if updates == nil {
		updates = []string{}
	}
	return TurnOutput{
		ThreadID:     s.ThreadID,
		Outcome:      kind,
		Reply:        reply,
		Brief:        b,
		Completeness: s.Completeness,
		ProjectTier:  s.ProjectTier,
		Chips:        chips,
		FieldUpdates: updates,
		ProjectID:    s.ProjectID,
	}
}

// Package agent runs the turn pipeline: it loads a thread's state, routes the
// latest message through context fetch and extraction, reconciles the result
// into the brief and saves the new state.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stellarlinkco/briefclaw/internal/brief"
	"github.com/stellarlinkco/briefclaw/internal/extraction"
	"github.com/stellarlinkco/briefclaw/internal/projects"
)

const (
	replyNoMessage  = "I didn't receive any message. Please paste your brief."
	replyUnreadable = "I couldn't read your message. Please try again."
	replyMalformed  = "I had trouble parsing that brief. Could you paste the raw text from the client email or document? I'll extract the key details like budget, territory, timeline, and creative direction."
)

// ErrEmptyThread rejects a turn without a thread id.
var ErrEmptyThread = errors.New("empty thread id")

// Extractor is the model-facing half of a turn.
type Extractor interface {
	Extract(ctx context.Context, current brief.Brief, userMessage string, offerTool bool) (extraction.Result, error)
	Answer(ctx context.Context, data brief.Brief, question string) (string, error)
}

type Agent struct {
	extractor Extractor
	fetcher   projects.Fetcher
	store     Checkpointer
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	threads map[string]*threadLock
}

type threadLock struct {
	mu   sync.Mutex
	refs int
}

// New builds an Agent. fetcher may be nil when no project store is
// configured; the project lookup tool is then never offered.
func New(extractor Extractor, fetcher projects.Fetcher, store Checkpointer, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		extractor: extractor,
		fetcher:   fetcher,
		store:     store,
		logger:    logger.Named("agent"),
		now:       time.Now,
		threads:   make(map[string]*threadLock),
	}
}

// HandleTurn processes one turn for in.ThreadID. Turns on the same thread are
// serialized. An error means the model call failed; no state is saved then.
func (a *Agent) HandleTurn(ctx context.Context, in TurnInput) (TurnOutput, error) {
	if in.ThreadID == "" {
		return TurnOutput{}, fmt.Errorf("handle turn: %w", ErrEmptyThread)
	}
	unlock := a.lock(in.ThreadID)
	defer unlock()

	state, found, err := a.store.Load(ctx, in.ThreadID)
	if err != nil {
		return TurnOutput{}, fmt.Errorf("load thread %s: %w", in.ThreadID, err)
	}
	if !found {
		state = State{ThreadID: in.ThreadID, Brief: brief.Brief{}}
	}
	if state.Brief == nil {
		state.Brief = brief.Brief{}
	}
	if len(in.Brief) > 0 {
		state.Brief.Overlay(in.Brief)
		state.Completeness = brief.Completeness(state.Brief)
		state.ProjectTier = brief.ClassifyTier(state.Brief, state.ExplicitTier)
		state.Chips = brief.Suggest(state.Brief)
	}
	if id := ResolveProjectID(in.ProjectID, in.ThreadID); id != "" {
		state.ProjectID = id
	}
	state.Messages = append(state.Messages, unsaved(state.Messages, in.Messages)...)
	state.FieldUpdates = nil

	if len(in.Messages) == 0 {
		return a.finish(ctx, state, OutcomeNoMessage, replyNoMessage)
	}
	last := in.Messages[len(in.Messages)-1]
	if last.Unreadable {
		a.logger.Debug("unreadable message", zap.String("thread", in.ThreadID))
		return a.finish(ctx, state, OutcomeUnreadable, replyUnreadable)
	}

	working := state.Brief.Clone()
	cls := Classify(last.Content, state.ProjectID, working.MeaningfulCount())
	a.logger.Debug("classified message",
		zap.String("thread", in.ThreadID),
		zap.Bool("question", cls.IsQuestion),
		zap.Bool("brief_paste", cls.IsBriefPaste),
		zap.Bool("needs_context", cls.NeedsContext))

	if cls.NeedsContext && a.fetcher != nil {
		if res := a.fetch(ctx, state.ProjectID); res.OK() {
			working.Overlay(res.Fields)
		}
	}

	result, err := a.extractor.Extract(ctx, working, last.Content, a.fetcher != nil)
	switch {
	case errors.Is(err, extraction.ErrMalformedOutput):
		return a.finish(ctx, state, OutcomeMalformed, replyMalformed)
	case err != nil:
		return TurnOutput{}, err
	}

	switch r := result.(type) {
	case extraction.ToolRequest:
		return a.answer(ctx, state, working, r, last.Content)
	case extraction.Extraction:
		return a.extract(ctx, state, working, r)
	default:
		return TurnOutput{}, fmt.Errorf("handle turn: unexpected extraction result %T", result)
	}
}

// answer serves the tool branch. The brief picks up fetched fields but the
// score, tier and chips keep their previous values.
func (a *Agent) answer(ctx context.Context, state State, working brief.Brief, req extraction.ToolRequest, question string) (TurnOutput, error) {
	projectID := req.ProjectID
	if projectID == "" {
		projectID = state.ProjectID
	}

	prompt := question
	res := a.fetch(ctx, projectID)
	if res.OK() {
		working.Overlay(res.Fields)
		state.ProjectID = projectID
	} else {
		prompt = fmt.Sprintf("%s\n\n(Note: the project data could not be loaded: %s.)", question, res.Status)
	}

	reply, err := a.extractor.Answer(ctx, working, prompt)
	if err != nil {
		return TurnOutput{}, err
	}
	state.Brief = working
	return a.finish(ctx, state, OutcomeAnswer, reply)
}

func (a *Agent) extract(ctx context.Context, state State, working brief.Brief, ext extraction.Extraction) (TurnOutput, error) {
	merged := brief.Merge(working, ext.Candidates, state.ProjectTier)
	if len(merged.Skipped) > 0 {
		a.logger.Debug("skipped candidates", zap.String("thread", state.ThreadID), zap.Strings("fields", merged.Skipped))
	}
	if merged.ExplicitTier != brief.TierNone {
		state.ExplicitTier = merged.ExplicitTier
	}

	state.Brief = merged.Brief
	state.Completeness = brief.Completeness(merged.Brief)
	state.ProjectTier = brief.ClassifyTier(merged.Brief, state.ExplicitTier)
	state.Chips = brief.Suggest(merged.Brief)
	state.FieldUpdates = merged.Changed

	budget, _ := merged.Brief.Budget()
	reply := Compose(Reply{
		Summary:         ext.Summary,
		ChangedCount:    len(merged.Changed),
		Completeness:    state.Completeness,
		Tier:            state.ProjectTier,
		TierSetThisTurn: merged.TierOverridden,
		TierPinned:      state.ExplicitTier != brief.TierNone,
		Budget:          budget,
	})

	a.logger.Info("brief updated",
		zap.String("thread", state.ThreadID),
		zap.Strings("changed", merged.Changed),
		zap.Int("completeness", state.Completeness),
		zap.String("tier", string(state.ProjectTier)))
	return a.finish(ctx, state, OutcomeExtraction, reply)
}

func (a *Agent) fetch(ctx context.Context, projectID string) projects.Result {
	if a.fetcher == nil {
		return projects.Result{Status: projects.StatusError, Err: fmt.Errorf("no project store configured")}
	}
	res := a.fetcher.Fetch(ctx, projectID)
	if !res.OK() {
		a.logger.Warn("project context unavailable",
			zap.String("project_id", projectID),
			zap.Stringer("status", res.Status),
			zap.Error(res.Err))
	}
	return res
}

func (a *Agent) finish(ctx context.Context, state State, kind OutcomeKind, reply string) (TurnOutput, error) {
	state.Messages = append(state.Messages, Message{Role: RoleAssistant, Content: reply})
	state.UpdatedAt = a.now().UTC()
	if err := a.store.Save(ctx, state); err != nil {
		return TurnOutput{}, fmt.Errorf("save thread %s: %w", state.ThreadID, err)
	}
	return outputFrom(state, kind, reply), nil
}

// unsaved drops the leading part of in that repeats the saved transcript, so
// clients resending the whole history do not duplicate it.
func unsaved(saved, in []Message) []Message {
	if len(saved) == 0 || len(in) < len(saved) {
		return in
	}
	for i, m := range saved {
		if in[i].Role != m.Role || in[i].Content != m.Content {
			return in
		}
	}
	return in[len(saved):]
}

func (a *Agent) lock(threadID string) func() {
	a.mu.Lock()
	l, ok := a.threads[threadID]
	if !ok {
		l = &threadLock{}
		a.threads[threadID] = l
	}
	l.refs++
	a.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		a.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(a.threads, threadID)
		}
		a.mu.Unlock()
	}
}

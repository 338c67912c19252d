package agent

import (
	"strings"
	"unicode/utf8"
)

// briefPasteLength is the rune count above which a message is treated as a
// pasted brief.
const briefPasteLength = 200

var questionMarkers = []string{
	"what", "who", "when", "where", "how much", "how many", "tell me", "show me",
	"budget", "client", "agency", "deadline", "territory", "give me", "?",
	"summary", "overview", "details", "information",
}

// Classification is the per-turn routing decision.
type Classification struct {
	IsQuestion   bool
	IsBriefPaste bool
	NeedsContext bool
}

// Classify inspects a user message. Context is needed for a question that is
// not a pasted brief, on a thread bound to a project, while the working
// brief holds no meaningful field.
func Classify(text, projectID string, meaningfulFields int) Classification {
	lower := strings.ToLower(text)

	var c Classification
	for _, m := range questionMarkers {
		if strings.Contains(lower, m) {
			c.IsQuestion = true
			break
		}
	}
	c.IsBriefPaste = utf8.RuneCountInString(text) > briefPasteLength ||
		strings.Contains(lower, "from:") ||
		strings.Contains(lower, "subject:")
	c.NeedsContext = c.IsQuestion && !c.IsBriefPaste && projectID != "" && meaningfulFields == 0
	return c
}

const threadProjectPrefix = "project:"

// ResolveProjectID picks the project a turn is bound to. A non-blank explicit
// id wins; otherwise a thread id of the form "project:<id>" yields <id>.
func ResolveProjectID(explicit, threadID string) string {
	if id := strings.TrimSpace(explicit); id != "" {
		return id
	}
	if rest, ok := strings.CutPrefix(threadID, threadProjectPrefix); ok {
		return strings.TrimSpace(rest)
	}
	return ""
}

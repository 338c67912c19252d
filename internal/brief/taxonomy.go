package brief

// Priority is the scoring tier a field belongs to.
type Priority string

const (
	PriorityCritical  Priority = "critical"
	PriorityImportant Priority = "important"
	PriorityHelpful   Priority = "helpful"
	// PriorityContext fields are stored but never scored.
	PriorityContext Priority = "context"
)

// Kind is the value type a field accepts.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindStringList
	KindTrackList
)

const (
	ClientName            = "client_name"
	AgencyName            = "agency_name"
	BrandName             = "brand_name"
	ProjectTitle          = "project_title"
	BudgetAmount          = "budget_amount"
	BudgetCurrency        = "budget_currency"
	Territory             = "territory"
	MediaTypes            = "media_types"
	TermLength            = "term_length"
	Exclusivity           = "exclusivity"
	ExclusivityDetails    = "exclusivity_details"
	CreativeDirection     = "creative_direction"
	MoodKeywords          = "mood_keywords"
	GenrePreferences      = "genre_preferences"
	ReferenceTracks       = "reference_tracks"
	MustAvoid             = "must_avoid"
	VocalsPreference      = "vocals_preference"
	VideoLengths          = "video_lengths"
	StemsRequired         = "stems_required"
	SyncPoints            = "sync_points"
	DeadlineDate          = "deadline_date"
	AirDate               = "air_date"
	DeadlineUrgency       = "deadline_urgency"
	FirstPresentationDate = "first_presentation_date"
	KickoffDate           = "kickoff_date"
	BriefSenderName       = "brief_sender_name"
	BriefSenderEmail      = "brief_sender_email"
	BriefSenderRole       = "brief_sender_role"
	CampaignContext       = "campaign_context"
	TargetAudience        = "target_audience"
	BrandValues           = "brand_values"
	ExtractionNotes       = "extraction_notes"

	// ProjectType is accepted from extraction as a tier instruction. It is
	// conversation state and never stored in a Brief.
	ProjectType = "project_type"
)

// Point weights per scored priority.
const (
	CriticalWeight  = 10
	ImportantWeight = 5
	HelpfulWeight   = 2
)

// FieldSpec describes one entry of the closed field set.
type FieldSpec struct {
	Name        string
	Priority    Priority
	Kind        Kind
	Description string
}

// Fields is the closed field set in catalog order: critical, important,
// helpful, then context.
var Fields = []FieldSpec{
	{ClientName, PriorityCritical, KindString, "The client company name"},
	{BudgetAmount, PriorityCritical, KindNumber, "The total budget as a number (extract currency value, convert to number)"},
	{Territory, PriorityCritical, KindStringList, "List of territories/countries where music will be used"},
	{DeadlineDate, PriorityCritical, KindString, `When music is needed (ISO date if possible, e.g., "2025-12-15")`},

	{ProjectTitle, PriorityImportant, KindString, `A short descriptive title for this project (e.g., "BMW Electric Launch" or "Nike Summer Campaign")`},
	{MediaTypes, PriorityImportant, KindStringList, "List of media types (TV, Cinema, Online, Social, Radio, etc.)"},
	{CreativeDirection, PriorityImportant, KindString, "Description of the creative direction/mood"},
	{VideoLengths, PriorityImportant, KindStringList, `List of video/spot lengths (e.g., ["60s", "30s", "15s"])`},
	{BriefSenderName, PriorityImportant, KindString, "Name of person who sent the brief"},
	{BriefSenderEmail, PriorityImportant, KindString, "Email of person who sent the brief"},

	{AgencyName, PriorityHelpful, KindString, "The agency name (if different from client)"},
	{BrandName, PriorityHelpful, KindString, "The specific brand/sub-brand"},
	{MoodKeywords, PriorityHelpful, KindStringList, "List of mood/emotion keywords"},
	{GenrePreferences, PriorityHelpful, KindStringList, "List of preferred genres"},
	{ReferenceTracks, PriorityHelpful, KindTrackList, "List of reference tracks with artist, title, and notes"},
	{SyncPoints, PriorityHelpful, KindString, "Description of key sync points in the edit"},
	{StemsRequired, PriorityHelpful, KindBool, "Whether stems are needed (true/false)"},
	{VocalsPreference, PriorityHelpful, KindString, `"instrumental", "vocals", "either", or "specific"`},
	{TermLength, PriorityHelpful, KindString, `License duration (e.g., "2 years", "12 months")`},
	{Exclusivity, PriorityHelpful, KindBool, "Whether exclusivity is required (true/false)"},
	{AirDate, PriorityHelpful, KindString, "When the campaign airs (ISO date if possible)"},

	{BudgetCurrency, PriorityContext, KindString, "The currency (EUR, USD, GBP, CHF)"},
	{ExclusivityDetails, PriorityContext, KindString, "Details about exclusivity scope"},
	{MustAvoid, PriorityContext, KindString, "Things to avoid in the music"},
	{DeadlineUrgency, PriorityContext, KindString, `"standard", "rush", or "urgent"`},
	{FirstPresentationDate, PriorityContext, KindString, "Date of first client presentation"},
	{KickoffDate, PriorityContext, KindString, "When the project starts"},
	{BriefSenderRole, PriorityContext, KindString, "Role/title of brief sender"},
	{CampaignContext, PriorityContext, KindString, "Background information about the campaign or product launch"},
	{TargetAudience, PriorityContext, KindString, "Who the campaign is aimed at (demographics, psychographics)"},
	{BrandValues, PriorityContext, KindStringList, `List of brand attributes or values mentioned (e.g., ["innovative", "premium", "sustainable"])`},
	{ExtractionNotes, PriorityContext, KindString, "Your observations about ambiguous or interpreted information"},
}

var fieldIndex = func() map[string]FieldSpec {
	m := make(map[string]FieldSpec, len(Fields))
	for _, f := range Fields {
		m[f.Name] = f
	}
	return m
}()

// Lookup returns the FieldSpec of a field in the closed set.
func Lookup(name string) (FieldSpec, bool) {
	f, ok := fieldIndex[name]
	return f, ok
}

// IsKnown reports whether name belongs to the closed field set.
func IsKnown(name string) bool {
	_, ok := fieldIndex[name]
	return ok
}

// FieldsWithPriority returns field names of one priority in catalog order.
func FieldsWithPriority(p Priority) []string {
	var out []string
	for _, f := range Fields {
		if f.Priority == p {
			out = append(out, f.Name)
		}
	}
	return out
}

// Weight returns the points a meaningful field of priority p contributes.
func Weight(p Priority) int {
	switch p {
	case PriorityCritical:
		return CriticalWeight
	case PriorityImportant:
		return ImportantWeight
	case PriorityHelpful:
		return HelpfulWeight
	default:
		return 0
	}
}

// MaxScore is the number of points a fully populated Brief earns.
var MaxScore = func() int {
	total := 0
	for _, f := range Fields {
		total += Weight(f.Priority)
	}
	return total
}()

// questions maps fields to the follow-up asked when they are missing. Fields
// without an entry never produce a chip.
var questions = map[string]string{
	BudgetAmount:      "What's the total budget for this project?",
	Territory:         "What territories will this be used in?",
	DeadlineDate:      "When is the music needed by?",
	ClientName:        "Who is the client for this project?",
	ProjectTitle:      "What should this project be called?",
	MediaTypes:        "What media types will be used?",
	CreativeDirection: "What's the creative direction or mood?",
	VideoLengths:      "What are the video/spot lengths?",
	SyncPoints:        "Are there specific sync points in the edit?",
	StemsRequired:     "Do they need stems for the music?",
	VocalsPreference:  "Should the music be instrumental, with vocals, or either?",
	ReferenceTracks:   "Are there any reference tracks?",
	BriefSenderName:   "Who sent the brief?",
	BriefSenderEmail:  "What's the brief sender's email?",
	AirDate:           "When does the campaign air?",
}

// Question returns the catalog question for a field.
func Question(field string) (string, bool) {
	q, ok := questions[field]
	return q, ok
}

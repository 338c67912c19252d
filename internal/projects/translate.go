package projects

import (
	"encoding/json"
	"fmt"

	"github.com/stellarlinkco/briefclaw/internal/brief"
)

const defaultCurrency = "EUR"

// storeFields maps brief columns of the project store onto field names. When
// a field lists several columns the first non-null, non-empty one wins.
var storeFields = []struct {
	field   string
	columns []string
}{
	{brief.ClientName, []string{"client", "client_name"}},
	{brief.AgencyName, []string{"agency", "agency_name"}},
	{brief.BrandName, []string{"brand", "brand_name"}},
	{brief.ProjectTitle, []string{"project_title"}},
	{brief.BudgetAmount, []string{"budget_min"}},
	{brief.Territory, []string{"territory"}},
	{brief.MediaTypes, []string{"media"}},
	{brief.TermLength, []string{"term"}},
	{brief.Exclusivity, []string{"exclusivity"}},
	{brief.ExclusivityDetails, []string{"exclusivity_details"}},
	{brief.CreativeDirection, []string{"mood", "creative_direction"}},
	{brief.MoodKeywords, []string{"keywords"}},
	{brief.GenrePreferences, []string{"genres"}},
	{brief.ReferenceTracks, []string{"reference_tracks"}},
	{brief.VocalsPreference, []string{"vocals_preference"}},
	{brief.MustAvoid, []string{"must_avoid"}},
	{brief.VideoLengths, []string{"lengths"}},
	{brief.StemsRequired, []string{"stems_required"}},
	{brief.SyncPoints, []string{"sync_points"}},
	{brief.DeadlineDate, []string{"submission_deadline"}},
	{brief.AirDate, []string{"air_date"}},
	{brief.BriefSenderName, []string{"brief_sender_name"}},
	{brief.BriefSenderEmail, []string{"brief_sender_email"}},
	{brief.BriefSenderRole, []string{"brief_sender_role"}},
}

// Translate decodes a project store response and maps its nested brief onto
// the closed field set. Columns outside the table, null values and values of
// the wrong type are left out.
func Translate(body []byte) (Project, brief.Brief, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Project{}, nil, err
	}
	if raw == nil {
		return Project{}, nil, fmt.Errorf("empty project payload")
	}

	project := Project{
		ID:          stringOf(raw["id"]),
		CaseNumber:  stringOf(raw["case_number"]),
		ProjectType: stringOf(raw["project_type"]),
		Status:      stringOf(raw["status"]),
	}

	var stored map[string]any
	switch b := raw["tf_briefs"].(type) {
	case map[string]any:
		stored = b
	case []any:
		if len(b) > 0 {
			stored, _ = b[0].(map[string]any)
		}
	}
	if stored == nil {
		stored = map[string]any{}
	}
	if stored["project_title"] == nil && raw["project_title"] != nil {
		stored["project_title"] = raw["project_title"]
	}

	fields := brief.Brief{}
	for _, m := range storeFields {
		spec, ok := brief.Lookup(m.field)
		if !ok {
			continue
		}
		for _, col := range m.columns {
			v := stored[col]
			if v == nil || v == "" {
				continue
			}
			val, err := brief.Coerce(spec.Kind, v)
			if err != nil {
				continue
			}
			fields[m.field] = val
			break
		}
	}
	fields[brief.BudgetCurrency] = defaultCurrency

	return project, fields, nil
}

func stringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprint(t)
	}
}

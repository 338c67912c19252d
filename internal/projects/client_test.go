package projects

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellarlinkco/briefclaw/internal/brief"
	"github.com/stellarlinkco/briefclaw/internal/config"
)

const projectJSON = `{
  "id": "p-42",
  "case_number": "TF-2024-042",
  "project_type": "B",
  "status": "active",
  "project_title": "Spring Campaign",
  "tf_briefs": {
    "client": "Acme",
    "agency": "Wieden",
    "brand": null,
    "budget_min": 50000,
    "territory": ["DE", "AT"],
    "media": ["TV", "Online"],
    "term": "1 year",
    "exclusivity": false,
    "mood": "uplifting",
    "keywords": ["bright", "warm"],
    "reference_tracks": [{"artist": "Moby", "title": "Porcelain"}],
    "lengths": ["30s"],
    "submission_deadline": "2024-05-01",
    "stems_required": true,
    "internal_notes": "not part of the brief"
  }
}`

func newTestClient(t *testing.T, h http.HandlerFunc, timeout int) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.StoreConfig{BaseURL: srv.URL + "/", TimeoutSeconds: timeout}, nil)
}

func TestFetchMapsStoreColumns(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(projectJSON))
	}, 5)

	res := c.Fetch(context.Background(), " p-42 ")
	require.True(t, res.OK(), "fetch failed: %v", res.Err)
	assert.Equal(t, "/api/projects/p-42", gotPath)
	assert.Equal(t, Project{ID: "p-42", CaseNumber: "TF-2024-042", ProjectType: "B", Status: "active"}, res.Project)

	want := brief.Brief{
		brief.ClientName:        "Acme",
		brief.AgencyName:        "Wieden",
		brief.ProjectTitle:      "Spring Campaign",
		brief.BudgetAmount:      50000.0,
		brief.BudgetCurrency:    "EUR",
		brief.Territory:         []string{"DE", "AT"},
		brief.MediaTypes:        []string{"TV", "Online"},
		brief.TermLength:        "1 year",
		brief.Exclusivity:       false,
		brief.CreativeDirection: "uplifting",
		brief.MoodKeywords:      []string{"bright", "warm"},
		brief.ReferenceTracks:   []brief.ReferenceTrack{{Artist: "Moby", Title: "Porcelain"}},
		brief.VideoLengths:      []string{"30s"},
		brief.DeadlineDate:      "2024-05-01",
		brief.StemsRequired:     true,
	}
	if diff := cmp.Diff(want, res.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	assert.NotContains(t, res.Fields, "internal_notes")
	assert.NotContains(t, res.Fields, brief.BrandName)
}

func TestFetchNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}, 5)

	res := c.Fetch(context.Background(), "missing")
	assert.Equal(t, StatusNotFound, res.Status)
	assert.True(t, errors.Is(res.Err, ErrNotFound))
	assert.Empty(t, res.Fields)
}

func TestFetchServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}, 5)

	res := c.Fetch(context.Background(), "p-1")
	assert.Equal(t, StatusError, res.Status)
	assert.ErrorContains(t, res.Err, "500")
}

func TestFetchMalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}, 5)

	res := c.Fetch(context.Background(), "p-1")
	assert.Equal(t, StatusError, res.Status)
	assert.Empty(t, res.Fields)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 5)
	t.Cleanup(func() { close(release) })
	c.timeout = 50 * time.Millisecond

	start := time.Now()
	res := c.Fetch(context.Background(), "slow")
	assert.Equal(t, StatusTimedOut, res.Status)
	assert.True(t, errors.Is(res.Err, ErrTimeout))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchEmptyID(t *testing.T) {
	c := NewClient(config.StoreConfig{BaseURL: "http://unused"}, nil)
	res := c.Fetch(context.Background(), "   ")
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, config.DefaultStoreTimeout*time.Second, c.timeout)
}

func TestTranslateListFormAndFallbackTitle(t *testing.T) {
	body := []byte(`{
		"id": 7,
		"project_title": "Top Level Title",
		"tf_briefs": [
			{"creative_direction": "dark", "budget_min": "lots", "genres": ["ambient", 3]},
			{"client": "ignored"}
		]
	}`)

	project, fields, err := Translate(body)
	require.NoError(t, err)
	assert.Equal(t, "7", project.ID)
	assert.Equal(t, brief.Brief{
		brief.ProjectTitle:      "Top Level Title",
		brief.CreativeDirection: "dark",
		brief.BudgetCurrency:    "EUR",
	}, fields)
}

func TestTranslateMissingBrief(t *testing.T) {
	_, fields, err := Translate([]byte(`{"id": "p-1"}`))
	require.NoError(t, err)
	assert.Equal(t, brief.Brief{brief.BudgetCurrency: "EUR"}, fields)

	_, _, err = Translate([]byte(`null`))
	assert.Error(t, err)
}

func TestTranslateEmptyColumnFallsThrough(t *testing.T) {
	body := []byte(`{"id": "p-1", "tf_briefs": {"mood": "", "creative_direction": "warm and hopeful", "client": "", "client_name": "Acme"}}`)

	_, fields, err := Translate(body)
	require.NoError(t, err)
	assert.Equal(t, "warm and hopeful", fields[brief.CreativeDirection])
	assert.Equal(t, "Acme", fields[brief.ClientName])

	_, fields, err = Translate([]byte(`{"id": "p-1", "tf_briefs": {"mood": ""}}`))
	require.NoError(t, err)
	assert.NotContains(t, fields, brief.CreativeDirection)
}

package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fasthttp/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	dbpkg "releasedash/internal/db"
	"releasedash/internal/releasenotes"
)

func notesFixture() []releasenotes.Feature {
	return []releasenotes.Feature{
		{
			ID:                        1,
			Name:                      "Managed bookmarks policy",
			Summary:                   "Admins can **pin** bookmarks.",
			EnterpriseProductCategory: releasenotes.ProductEnterpriseCore,
			EnterpriseFeatureCategories: []releasenotes.EnterpriseFeatureCategory{
				releasenotes.CategoryManagement,
			},
			Owners:                               []string{"alice@example.com", "bob@example.com"},
			Editors:                              []string{"carol@example.com"},
			FirstEnterpriseNotificationMilestone: ms(118),
			Updated:                              releasenotes.Updated{When: time.Now().Add(-2 * time.Hour), By: "alice"},
			Stages: []releasenotes.Stage{{
				StageType:        releasenotes.StageEntRollout,
				RolloutMilestone: ms(120),
				RolloutPlatforms: []releasenotes.Platform{releasenotes.PlatformMac, releasenotes.PlatformWindows},
				RolloutDetails:   "Set via policy.",
			}},
		},
		{
			ID:                        2,
			Name:                      "Legacy TLS removal",
			EnterpriseProductCategory: releasenotes.ProductBrowserUpdate,
			Stages: []releasenotes.Stage{{
				StageType:        releasenotes.StageEntRollout,
				RolloutMilestone: ms(121),
			}},
		},
		{
			ID:                        3,
			Name:                      "Mystery category feature",
			EnterpriseProductCategory: releasenotes.ProductCategory(9),
			Stages: []releasenotes.Stage{{
				StageType:        releasenotes.StageEntRollout,
				RolloutMilestone: ms(120),
			}},
		},
	}
}

func notesRouter(notes NotesProvider, user *dbpkg.User) *router.Router {
	r := router.New()
	r.GET("/release-notes", as(user, ReleaseNotesPage(notes, testCfg, zap.NewNop())))
	r.GET("/api/v0/enterprise-release-notes", ReleaseNotesAPI(notes, zap.NewNop()))
	return r
}

func TestReleaseNotesPageRendersSections(t *testing.T) {
	notes := &fakeNotes{features: notesFixture(), stable: 119}
	c := serve(t, notesRouter(notes, nil))

	resp := get(t, c, "/release-notes?milestone=120")

	require.Equal(t, fasthttp.StatusOK, resp.status)
	assert.Contains(t, resp.body, "Chrome 120 Enterprise and Education release notes")
	assert.Contains(t, resp.body, "Managed bookmarks policy")
	assert.Contains(t, resp.body, "<strong>pin</strong>")
	assert.Contains(t, resp.body, "<strong>Chrome 120 on Mac, Windows</strong>")
	assert.Contains(t, resp.body, "Upcoming Chrome Browser updates")
	assert.Contains(t, resp.body, "<strong>Chrome 121</strong>")
	assert.Contains(t, resp.body, "Last updated")
	assert.NotContains(t, resp.body, "Mystery category feature")
	assert.NotContains(t, resp.body, "Edit summary")
}

func TestReleaseNotesPageShowsToRemoveLine(t *testing.T) {
	c := serve(t, notesRouter(&fakeNotes{features: notesFixture()}, nil))

	resp := get(t, c, "/release-notes?milestone=120")

	require.Equal(t, fasthttp.StatusOK, resp.status)
	assert.Contains(t, resp.body, "&lt; To remove")
	assert.Contains(t, resp.body, "<b>Owners:</b> alice@example.com, bob@example.com")
	assert.Contains(t, resp.body, "<b>Editors:</b> carol@example.com")
	assert.Contains(t, resp.body, "<b>First Notice:</b> 118")
	assert.Contains(t, resp.body, "<b>Last updated</b>")
	assert.Contains(t, resp.body, "by alice")
}

func TestReleaseNotesPageDefaultsToStable(t *testing.T) {
	notes := &fakeNotes{features: notesFixture(), stable: 119}
	c := serve(t, notesRouter(notes, nil))

	for _, uri := range []string{"/release-notes", "/release-notes?milestone=abc", "/release-notes?milestone=0"} {
		resp := get(t, c, uri)
		require.Equal(t, fasthttp.StatusOK, resp.status, uri)
		assert.Contains(t, resp.body, "Chrome 119 Enterprise and Education release notes", uri)
	}
}

func TestReleaseNotesPageInlineEdit(t *testing.T) {
	notes := &fakeNotes{features: notesFixture()}
	editor := &dbpkg.User{ID: 7, Username: "ed", EditableFeatures: []int64{1}}
	c := serve(t, notesRouter(notes, editor))

	resp := get(t, c, "/release-notes?milestone=120")
	assert.Contains(t, resp.body, "Edit summary")
	assert.NotContains(t, resp.body, `<textarea name="summary"`)

	resp = get(t, c, "/release-notes?milestone=120&edit=1")
	assert.Contains(t, resp.body, `<textarea name="summary"`)
	assert.Contains(t, resp.body, `action="/features/1/summary"`)

	// Feature 2 is not in the editor's list.
	resp = get(t, c, "/release-notes?milestone=120&edit=2")
	assert.NotContains(t, resp.body, `<textarea name="summary"`)
}

func TestReleaseNotesPageUpstreamError(t *testing.T) {
	c := serve(t, notesRouter(&fakeNotes{err: errUpstream}, nil))

	resp := get(t, c, "/release-notes?milestone=120")

	assert.Equal(t, fasthttp.StatusBadGateway, resp.status)
	assert.Contains(t, resp.body, loadErrorText)
}

func TestReleaseNotesAPI(t *testing.T) {
	notes := &fakeNotes{features: notesFixture()}
	c := serve(t, notesRouter(notes, nil))

	resp := get(t, c, "/api/v0/enterprise-release-notes?milestone=120")
	require.Equal(t, fasthttp.StatusOK, resp.status)
	assert.Equal(t, "application/json", resp.ctype)

	var got struct {
		Milestone int                             `json:"milestone"`
		Current   map[string][]struct{ ID int64 } `json:"current"`
		Upcoming  map[string][]struct{ ID int64 } `json:"upcoming"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.body), &got))
	assert.Equal(t, 120, got.Milestone)
	require.Len(t, got.Current["enterprise_core"], 1)
	assert.Equal(t, int64(1), got.Current["enterprise_core"][0].ID)
	require.Len(t, got.Upcoming["browser_update"], 1)
	assert.Equal(t, int64(2), got.Upcoming["browser_update"][0].ID)
	assert.NotContains(t, resp.body, "Mystery category feature")
}

func TestReleaseNotesAPIMarkdown(t *testing.T) {
	c := serve(t, notesRouter(&fakeNotes{features: notesFixture()}, nil))

	resp := get(t, c, "/api/v0/enterprise-release-notes?milestone=120&format=markdown")

	require.Equal(t, fasthttp.StatusOK, resp.status)
	assert.Contains(t, resp.body, "## Chrome Enterprise Core (CEC)")
	assert.Contains(t, resp.body, "- **Chrome 120 on Mac, Windows**")
}

func TestReleaseNotesAPIError(t *testing.T) {
	c := serve(t, notesRouter(&fakeNotes{err: errUpstream}, nil))

	resp := get(t, c, "/api/v0/enterprise-release-notes")

	assert.Equal(t, fasthttp.StatusBadGateway, resp.status)
	assert.JSONEq(t, `{"error":"`+loadErrorText+`"}`, resp.body)
}

func TestAnnotateFeatures(t *testing.T) {
	n := releasenotes.Build(notesFixture(), 120)
	now := time.Now()

	editable, updated := annotateFeatures(n, nil, now, "", "")
	assert.Empty(t, editable)
	assert.Contains(t, updated[1], "(2 hours ago) by alice")
	assert.Empty(t, updated[2])

	editable, _ = annotateFeatures(n, &dbpkg.User{CanEditAll: true}, now, "", "")
	assert.Equal(t, map[int64]bool{1: true, 2: true}, editable)
}

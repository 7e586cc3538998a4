package handlers

import (
	"encoding/json"
	"testing"

	"github.com/fasthttp/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	dbpkg "releasedash/internal/db"
	"releasedash/internal/releasenotes"
)

func storedFeature() dbpkg.Feature {
	return dbpkg.Feature{
		ID:                        5,
		Name:                      "Password manager policy",
		Summary:                   "Old summary.",
		FeatureType:               int(releasenotes.FeatureTypeEnterprise),
		EnterpriseProductCategory: int(releasenotes.ProductEnterprisePremium),
		Owners:                    []string{"owner@example.com"},
		Stages: []dbpkg.Stage{{
			ID:               50,
			FeatureID:        5,
			StageType:        int(releasenotes.StageEntRollout),
			RolloutMilestone: ms(122),
			RolloutPlatforms: []int{int(releasenotes.PlatformLinux)},
		}},
	}
}

func featureRouter(store FeatureStore, user *dbpkg.User) *router.Router {
	r := router.New()
	r.GET("/features/{id}", as(user, FeaturePage(store, testCfg, zap.NewNop())))
	r.POST("/features/{id}/summary", as(user, UpdateSummary(store, zap.NewNop())))
	r.GET("/api/v0/features/{id}", FeatureAPI(store, zap.NewNop()))
	return r
}

func TestFeatureAPI(t *testing.T) {
	c := serve(t, featureRouter(newFakeStore(storedFeature()), nil))

	resp := get(t, c, "/api/v0/features/5")
	require.Equal(t, fasthttp.StatusOK, resp.status)

	var got struct {
		FeatureType int                  `json:"feature_type"`
		Feature     releasenotes.Feature `json:"feature"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.body), &got))
	assert.Equal(t, int(releasenotes.FeatureTypeEnterprise), got.FeatureType)
	assert.Equal(t, "Password manager policy", got.Feature.Name)
	assert.Equal(t, releasenotes.ProductEnterprisePremium, got.Feature.EnterpriseProductCategory)
	require.Len(t, got.Feature.Stages, 1)
	assert.Equal(t, []releasenotes.Platform{releasenotes.PlatformLinux}, got.Feature.Stages[0].RolloutPlatforms)

	assert.Equal(t, fasthttp.StatusNotFound, get(t, c, "/api/v0/features/6").status)
	assert.Equal(t, fasthttp.StatusBadRequest, get(t, c, "/api/v0/features/abc").status)
	assert.Equal(t, fasthttp.StatusBadRequest, get(t, c, "/api/v0/features/-1").status)
}

func TestFeatureAPIStoreError(t *testing.T) {
	store := newFakeStore()
	store.err = errUpstream
	c := serve(t, featureRouter(store, nil))

	assert.Equal(t, fasthttp.StatusInternalServerError, get(t, c, "/api/v0/features/5").status)
}

func TestFeaturePage(t *testing.T) {
	c := serve(t, featureRouter(newFakeStore(storedFeature()), nil))

	resp := get(t, c, "/features/5")

	require.Equal(t, fasthttp.StatusOK, resp.status)
	assert.Contains(t, resp.body, "Password manager policy")
	assert.Contains(t, resp.body, "Chrome Enterprise Premium")
	assert.Contains(t, resp.body, "Chrome 122")
	assert.Contains(t, resp.body, "Linux")
}

func TestUpdateSummary(t *testing.T) {
	tests := []struct {
		name     string
		user     *dbpkg.User
		uri      string
		form     string
		status   int
		location string
		summary  string
	}{
		{
			name:    "anonymous",
			uri:     "/features/5/summary",
			form:    "summary=x",
			status:  fasthttp.StatusUnauthorized,
			summary: "Old summary.",
		},
		{
			name:    "no rights",
			user:    &dbpkg.User{Username: "bob", EditableFeatures: []int64{4}},
			uri:     "/features/5/summary",
			form:    "summary=x",
			status:  fasthttp.StatusForbidden,
			summary: "Old summary.",
		},
		{
			name:     "listed feature returns to release notes",
			user:     &dbpkg.User{Username: "ed", EditableFeatures: []int64{5}},
			uri:      "/features/5/summary",
			form:     "summary=++New+%2A%2Abold%2A%2A+summary.+&milestone=122",
			status:   fasthttp.StatusSeeOther,
			location: "/release-notes?milestone=122",
			summary:  "New **bold** summary.",
		},
		{
			name:     "edit all returns to feature page",
			user:     &dbpkg.User{Username: "root", CanEditAll: true},
			uri:      "/features/5/summary",
			form:     "summary=Another.",
			status:   fasthttp.StatusSeeOther,
			location: "/features/5",
			summary:  "Another.",
		},
		{
			name:   "unknown feature",
			user:   &dbpkg.User{Username: "root", CanEditAll: true},
			uri:    "/features/6/summary",
			form:   "summary=x",
			status: fasthttp.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore(storedFeature())
			c := serve(t, featureRouter(store, tt.user))

			resp := postForm(t, c, tt.uri, tt.form)

			assert.Equal(t, tt.status, resp.status)
			if tt.location != "" {
				assert.Contains(t, resp.location, tt.location)
			}
			if tt.summary != "" {
				f := store.feature(5)
				assert.Equal(t, tt.summary, f.Summary)
				if tt.status == fasthttp.StatusSeeOther {
					assert.Equal(t, tt.user.Username, f.UpdatedBy)
				}
			}
		})
	}
}

package releasenotes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	features := []Feature{
		{ID: 1, EnterpriseProductCategory: ProductBrowserUpdate, Stages: []Stage{rollout(110, ImpactLow)}},
		{ID: 2, EnterpriseProductCategory: ProductBrowserUpdate, Stages: []Stage{rollout(110, ImpactHigh)}},
		{ID: 3, EnterpriseProductCategory: ProductEnterpriseCore, Stages: []Stage{rollout(114, ImpactLow)}},
		{ID: 4, EnterpriseProductCategory: ProductEnterpriseCore, Stages: []Stage{{StageType: StageBlinkShipping, DesktopFirst: ms(111)}}},
		{ID: 5, EnterpriseProductCategory: ProductEnterprisePremium, Stages: []Stage{rollout(109, ImpactHigh)}},
		{ID: 6, EnterpriseProductCategory: 9, Stages: []Stage{rollout(110, ImpactHigh)}},
	}

	n := Build(features, 110)

	assert.Equal(t, 110, n.Milestone)
	assert.Equal(t, []int64{2, 1}, ids(n.Current.BrowserUpdate))
	assert.Empty(t, n.Current.Core)
	assert.Empty(t, n.Current.Premium)
	assert.Empty(t, n.Upcoming.BrowserUpdate)
	assert.Equal(t, []int64{4, 3}, ids(n.Upcoming.Core))
	assert.Empty(t, n.Upcoming.Premium)
	assert.Equal(t, []int64{6}, ids(n.Unrecognized()))
}

func TestSectionsOrder(t *testing.T) {
	secs := Notes{Milestone: 120}.Sections()
	require.Len(t, secs, 6)

	titles := make([]string, 0, len(secs))
	for _, s := range secs {
		titles = append(titles, s.Title)
		assert.Equal(t, 120, s.Milestone)
	}
	assert.Equal(t, []string{
		"Chrome Browser updates",
		"Chrome Enterprise Core (CEC)",
		"Chrome Enterprise Premium (CEP, paid SKU)",
		"Upcoming Chrome Browser updates",
		"Upcoming Chrome Enterprise Core (CEC)",
		"Upcoming Chrome Enterprise Premium (CEP, paid SKU)",
	}, titles)
	assert.False(t, secs[2].Upcoming)
	assert.True(t, secs[3].Upcoming)
}

func TestSectionHighlight(t *testing.T) {
	f := Feature{Stages: []Stage{rollout(110, ImpactLow), rollout(112, ImpactLow), rollout(118, ImpactLow)}}

	current := Section{Milestone: 112}
	assert.False(t, current.Highlight(f, f.Stages[0]))
	assert.True(t, current.Highlight(f, f.Stages[1]))

	upcoming := Section{Milestone: 111, Upcoming: true}
	assert.False(t, upcoming.Highlight(f, f.Stages[0]))
	assert.True(t, upcoming.Highlight(f, f.Stages[1]))
	assert.False(t, upcoming.Highlight(f, f.Stages[2]))

	assert.False(t, current.Highlight(f, Stage{StageType: StageEntRollout}))
}

func TestStageTitle(t *testing.T) {
	tests := []struct {
		name  string
		stage Stage
		want  string
	}{
		{"no platforms", rollout(120, ImpactLow), "Chrome 120"},
		{
			"all platforms",
			rollout(121, ImpactLow, PlatformAndroid, PlatformIOS, PlatformChromeOS, PlatformLacros,
				PlatformLinux, PlatformMac, PlatformWindows, PlatformFuchsia),
			"Chrome 121",
		},
		{"some platforms", rollout(122, ImpactLow, PlatformAndroid, PlatformWindows), "Chrome 122 on Android, Windows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StageTitle(tt.stage))
		})
	}
}

func TestHasCategory(t *testing.T) {
	f := Feature{EnterpriseFeatureCategories: []EnterpriseFeatureCategory{CategoryManagement}}
	assert.True(t, HasCategory(f, CategoryManagement))
	assert.False(t, HasCategory(f, CategorySecurityAndPrivacy))
}

func TestMilestoneOptions(t *testing.T) {
	opts := MilestoneOptions(120)
	require.Len(t, opts, 140)
	assert.Equal(t, 0, opts[0])
	assert.Equal(t, 139, opts[len(opts)-1])

	assert.Len(t, MilestoneOptions(-3), 20)
}

func TestMarkdown(t *testing.T) {
	n := Build([]Feature{
		{
			ID:                        1,
			Name:                      "Partitioned cookies",
			Summary:                   "Cookies get *partitioned*.",
			EnterpriseProductCategory: ProductBrowserUpdate,
			Stages: []Stage{
				rollout(110, ImpactHigh, PlatformAndroid),
				{StageType: StageEntRollout, RolloutMilestone: ms(113), RolloutDetails: "Policy removed."},
			},
		},
	}, 110)

	md := n.Markdown()

	assert.True(t, strings.HasPrefix(md, "# Chrome 110 Enterprise and Education release notes\n"))
	assert.Contains(t, md, "### Partitioned cookies\n\nCookies get *partitioned*.\n")
	assert.Contains(t, md, "- **Chrome 110 on Android**\n")
	assert.Contains(t, md, "- Chrome 113\n  Policy removed.\n")
	assert.Contains(t, md, "## Chrome Enterprise Core (CEC)\n\nNothing\n")
}

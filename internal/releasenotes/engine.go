// Package releasenotes turns feature launch records into enterprise release
// notes for a browser milestone.
//
// The bucketing functions are pure: they never mutate their input and keep no
// state between calls, so callers simply re-run them whenever the feature list
// or the selected milestone changes.
package releasenotes

import (
	"slices"
	"sort"
	"time"
)

// Stage is a lifecycle record attached to a feature.
type Stage struct {
	ID               int64      `json:"id,omitempty"`
	StageType        StageType  `json:"stage_type"`
	RolloutMilestone *int       `json:"rollout_milestone,omitempty"`
	RolloutPlatforms []Platform `json:"rollout_platforms"`
	RolloutImpact    Impact     `json:"rollout_impact"`
	RolloutDetails   string     `json:"rollout_details,omitempty"`

	DesktopFirst *int `json:"desktop_first,omitempty"`
	AndroidFirst *int `json:"android_first,omitempty"`
	IOSFirst     *int `json:"ios_first,omitempty"`
	WebviewFirst *int `json:"webview_first,omitempty"`
	DesktopLast  *int `json:"desktop_last,omitempty"`
	AndroidLast  *int `json:"android_last,omitempty"`
	IOSLast      *int `json:"ios_last,omitempty"`
	WebviewLast  *int `json:"webview_last,omitempty"`
}

// Updated records the last edit of a feature.
type Updated struct {
	When time.Time `json:"when"`
	By   string    `json:"by"`
}

// Feature is the part of a feature entry that release notes need.
type Feature struct {
	ID                                   int64                       `json:"id"`
	Name                                 string                      `json:"name"`
	Summary                              string                      `json:"summary"`
	EnterpriseProductCategory            ProductCategory             `json:"enterprise_product_category"`
	EnterpriseFeatureCategories          []EnterpriseFeatureCategory `json:"enterprise_feature_categories"`
	Owners                               []string                    `json:"owners"`
	Editors                              []string                    `json:"editors"`
	FirstEnterpriseNotificationMilestone *int                        `json:"first_enterprise_notification_milestone,omitempty"`
	Updated                              Updated                     `json:"updated"`
	ScreenshotLinks                      []string                    `json:"screenshot_links"`
	Stages                               []Stage                     `json:"stages"`
}

// Milestone returns the value of m and whether it names a real milestone.
// Absent and zero milestones are both rejected.
func Milestone(m *int) (int, bool) {
	if m == nil || *m <= 0 {
		return 0, false
	}
	return *m, true
}

var (
	desktopPlatforms = []Platform{PlatformWindows, PlatformMac, PlatformLinux}
	androidPlatforms = []Platform{PlatformAndroid}
	iosPlatforms     = []Platform{PlatformIOS}
	// WebView ships with Android.
	webviewPlatforms = []Platform{PlatformAndroid}
)

// SynthesizeRolloutStages derives rollout stages from the per-platform
// milestones of a shipping stage: one low impact rollout stage per distinct
// milestone, covering every platform that first or last ships in it.
func SynthesizeRolloutStages(stage Stage) []Stage {
	fields := []struct {
		milestone *int
		platforms []Platform
	}{
		{stage.DesktopFirst, desktopPlatforms},
		{stage.AndroidFirst, androidPlatforms},
		{stage.IOSFirst, iosPlatforms},
		{stage.WebviewFirst, webviewPlatforms},
		{stage.DesktopLast, desktopPlatforms},
		{stage.AndroidLast, androidPlatforms},
		{stage.IOSLast, iosPlatforms},
		{stage.WebviewLast, webviewPlatforms},
	}

	byMilestone := make(map[int]map[Platform]bool)
	for _, f := range fields {
		m, ok := Milestone(f.milestone)
		if !ok {
			continue
		}
		set, exists := byMilestone[m]
		if !exists {
			set = make(map[Platform]bool)
			byMilestone[m] = set
		}
		for _, p := range f.platforms {
			set[p] = true
		}
	}

	milestones := make([]int, 0, len(byMilestone))
	for m := range byMilestone {
		milestones = append(milestones, m)
	}
	sort.Ints(milestones)

	out := make([]Stage, 0, len(milestones))
	for _, m := range milestones {
		platforms := make([]Platform, 0, len(byMilestone[m]))
		for p := range byMilestone[m] {
			platforms = append(platforms, p)
		}
		slices.Sort(platforms)
		out = append(out, Stage{
			StageType:        StageEntRollout,
			RolloutMilestone: intPtr(m),
			RolloutPlatforms: platforms,
			RolloutImpact:    ImpactLow,
		})
	}
	return out
}

// DeriveDisplayableFeatures returns the features that can appear in release
// notes, each carrying only its rollout stages with a valid milestone, in
// ascending milestone order.
//
// Features without a rollout stage but with shipping stages get rollout stages
// synthesized from their shipping milestones. Those features are appended after
// the ones that already had rollout stages.
func DeriveDisplayableFeatures(features []Feature) []Feature {
	withRollout := make([]Feature, 0, len(features))
	synthesized := make([]Feature, 0)
	for _, f := range features {
		switch {
		case slices.ContainsFunc(f.Stages, func(s Stage) bool { return s.StageType.IsRollout() }):
			withRollout = append(withRollout, f)
		case slices.ContainsFunc(f.Stages, func(s Stage) bool { return s.StageType.IsShipping() }):
			var stages []Stage
			for _, s := range f.Stages {
				if s.StageType.IsShipping() {
					stages = append(stages, SynthesizeRolloutStages(s)...)
				}
			}
			f.Stages = stages
			synthesized = append(synthesized, f)
		}
	}

	out := make([]Feature, 0, len(withRollout)+len(synthesized))
	for _, f := range append(withRollout, synthesized...) {
		stages := make([]Stage, 0, len(f.Stages))
		for _, s := range f.Stages {
			if _, ok := Milestone(s.RolloutMilestone); ok && s.StageType.IsRollout() {
				stages = append(stages, s)
			}
		}
		if len(stages) == 0 {
			continue
		}
		sort.SliceStable(stages, func(i, j int) bool {
			return *stages[i].RolloutMilestone < *stages[j].RolloutMilestone
		})
		f.Stages = stages
		out = append(out, f)
	}
	return out
}

// PartitionByMilestone splits features into those rolling out in selected and
// those rolling out later.
//
// Current features are ordered by their highest impact at selected, highest
// first. Upcoming features are ordered by their nearest milestone after
// selected. Both sorts are stable.
func PartitionByMilestone(features []Feature, selected int) (current, upcoming []Feature) {
	current = make([]Feature, 0)
	upcoming = make([]Feature, 0)
	for _, f := range features {
		if hasStageAt(f, selected) {
			current = append(current, f)
		} else if _, ok := nextMilestoneAfter(f, selected); ok {
			upcoming = append(upcoming, f)
		}
	}

	sort.SliceStable(current, func(i, j int) bool {
		return maxImpactAt(current[i], selected) > maxImpactAt(current[j], selected)
	})
	sort.SliceStable(upcoming, func(i, j int) bool {
		a, _ := nextMilestoneAfter(upcoming[i], selected)
		b, _ := nextMilestoneAfter(upcoming[j], selected)
		return a < b
	})
	return current, upcoming
}

func hasStageAt(f Feature, milestone int) bool {
	for _, s := range f.Stages {
		if m, ok := Milestone(s.RolloutMilestone); ok && m == milestone {
			return true
		}
	}
	return false
}

// maxImpactAt is 0 when f has no stage at milestone.
func maxImpactAt(f Feature, milestone int) Impact {
	best := ImpactNone
	for _, s := range f.Stages {
		if m, ok := Milestone(s.RolloutMilestone); ok && m == milestone && s.RolloutImpact > best {
			best = s.RolloutImpact
		}
	}
	return best
}

func nextMilestoneAfter(f Feature, milestone int) (int, bool) {
	next, found := 0, false
	for _, s := range f.Stages {
		m, ok := Milestone(s.RolloutMilestone)
		if !ok || m <= milestone {
			continue
		}
		if !found || m < next {
			next, found = m, true
		}
	}
	return next, found
}

// CategoryBuckets holds features by enterprise product category.
type CategoryBuckets struct {
	BrowserUpdate []Feature `json:"browser_update"`
	Core          []Feature `json:"enterprise_core"`
	Premium       []Feature `json:"enterprise_premium"`

	// Unrecognized collects features whose category code is unknown. They are
	// excluded from every section.
	Unrecognized []Feature `json:"-"`
}

// SplitByCategory partitions features into the three product categories,
// keeping their relative order.
func SplitByCategory(features []Feature) CategoryBuckets {
	b := CategoryBuckets{
		BrowserUpdate: make([]Feature, 0),
		Core:          make([]Feature, 0),
		Premium:       make([]Feature, 0),
	}
	for _, f := range features {
		switch f.EnterpriseProductCategory {
		case ProductBrowserUpdate:
			b.BrowserUpdate = append(b.BrowserUpdate, f)
		case ProductEnterpriseCore:
			b.Core = append(b.Core, f)
		case ProductEnterprisePremium:
			b.Premium = append(b.Premium, f)
		default:
			b.Unrecognized = append(b.Unrecognized, f)
		}
	}
	return b
}

// Len returns the number of features across the three sections.
func (b CategoryBuckets) Len() int {
	return len(b.BrowserUpdate) + len(b.Core) + len(b.Premium)
}

func intPtr(v int) *int { return &v }

package releasenotes

import (
	"fmt"
	"slices"
	"strings"
)

// Notes are the release notes for one milestone.
type Notes struct {
	Milestone int             `json:"milestone"`
	Current   CategoryBuckets `json:"current"`
	Upcoming  CategoryBuckets `json:"upcoming"`
}

// Build computes the release notes of milestone from the raw feature list.
func Build(features []Feature, milestone int) Notes {
	displayable := DeriveDisplayableFeatures(features)
	current, upcoming := PartitionByMilestone(displayable, milestone)
	return Notes{
		Milestone: milestone,
		Current:   SplitByCategory(current),
		Upcoming:  SplitByCategory(upcoming),
	}
}

// Unrecognized returns every feature dropped for an unknown product category.
func (n Notes) Unrecognized() []Feature {
	out := make([]Feature, 0, len(n.Current.Unrecognized)+len(n.Upcoming.Unrecognized))
	out = append(out, n.Current.Unrecognized...)
	return append(out, n.Upcoming.Unrecognized...)
}

// Section is one titled block of the release notes.
type Section struct {
	Title     string
	Category  ProductCategory
	Upcoming  bool
	Milestone int
	Features  []Feature
}

// Sections returns the six sections in display order: the current milestone
// for each product category, then the upcoming ones.
func (n Notes) Sections() []Section {
	return []Section{
		{Title: "Chrome Browser updates", Category: ProductBrowserUpdate, Milestone: n.Milestone, Features: n.Current.BrowserUpdate},
		{Title: "Chrome Enterprise Core (CEC)", Category: ProductEnterpriseCore, Milestone: n.Milestone, Features: n.Current.Core},
		{Title: "Chrome Enterprise Premium (CEP, paid SKU)", Category: ProductEnterprisePremium, Milestone: n.Milestone, Features: n.Current.Premium},
		{Title: "Upcoming Chrome Browser updates", Category: ProductBrowserUpdate, Upcoming: true, Milestone: n.Milestone, Features: n.Upcoming.BrowserUpdate},
		{Title: "Upcoming Chrome Enterprise Core (CEC)", Category: ProductEnterpriseCore, Upcoming: true, Milestone: n.Milestone, Features: n.Upcoming.Core},
		{Title: "Upcoming Chrome Enterprise Premium (CEP, paid SKU)", Category: ProductEnterprisePremium, Upcoming: true, Milestone: n.Milestone, Features: n.Upcoming.Premium},
	}
}

// Highlight reports whether stage s of f should be emphasized in this
// section: the stage in the selected milestone for current sections, the
// first later stage for upcoming ones.
func (s Section) Highlight(f Feature, st Stage) bool {
	m, ok := Milestone(st.RolloutMilestone)
	if !ok {
		return false
	}
	if !s.Upcoming {
		return m == s.Milestone
	}
	next, found := nextMilestoneAfter(f, s.Milestone)
	return found && next == m
}

// StageTitle names a rollout stage by milestone and, unless it covers every
// platform, by the platforms it affects.
func StageTitle(s Stage) string {
	m, _ := Milestone(s.RolloutMilestone)
	if len(s.RolloutPlatforms) == 0 || len(s.RolloutPlatforms) == Platforms.Len() {
		return fmt.Sprintf("Chrome %d", m)
	}
	names := make([]string, 0, len(s.RolloutPlatforms))
	for _, p := range s.RolloutPlatforms {
		names = append(names, p.String())
	}
	return fmt.Sprintf("Chrome %d on %s", m, strings.Join(names, ", "))
}

// HasCategory reports whether f is tagged with the enterprise category c.
func HasCategory(f Feature, c EnterpriseFeatureCategory) bool {
	return slices.Contains(f.EnterpriseFeatureCategories, c)
}

// MilestoneOptions lists the milestones offered by the selector: every
// milestone up to twenty past the selected one.
func MilestoneOptions(selected int) []int {
	if selected < 0 {
		selected = 0
	}
	out := make([]int, 0, selected+20)
	for i := 0; i < selected+20; i++ {
		out = append(out, i)
	}
	return out
}

// Markdown renders the notes as a plain markdown document.
func (n Notes) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Chrome %d Enterprise and Education release notes\n", n.Milestone)
	for _, sec := range n.Sections() {
		fmt.Fprintf(&b, "\n## %s\n\n", sec.Title)
		if len(sec.Features) == 0 {
			b.WriteString("Nothing\n")
			continue
		}
		for _, f := range sec.Features {
			fmt.Fprintf(&b, "### %s\n\n", f.Name)
			if s := strings.TrimSpace(f.Summary); s != "" {
				b.WriteString(s)
				b.WriteString("\n\n")
			}
			for _, st := range f.Stages {
				title := StageTitle(st)
				if sec.Highlight(f, st) {
					title = "**" + title + "**"
				}
				fmt.Fprintf(&b, "- %s\n", title)
				if d := strings.TrimSpace(st.RolloutDetails); d != "" {
					fmt.Fprintf(&b, "  %s\n", d)
				}
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

package db

import (
	"time"

	"gorm.io/datatypes"

	"releasedash/internal/releasenotes"
)

// Feature is a feature entry tracked by the dashboard.
type Feature struct {
	ID int64 `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Name    string `gorm:"size:255;not null"`
	Summary string `gorm:"type:text"`

	// FeatureType selects the launch process (releasenotes.FeatureType).
	FeatureType int `gorm:"index;not null;default:0"`

	// BreakingChange marks web platform features that enterprises must hear
	// about even without an explicit rollout plan.
	BreakingChange bool `gorm:"default:false"`

	EnterpriseProductCategory   int                      `gorm:"index;not null;default:0"`
	EnterpriseFeatureCategories datatypes.JSONSlice[int] `gorm:"type:json"`

	Owners          datatypes.JSONSlice[string] `gorm:"type:json"`
	Editors         datatypes.JSONSlice[string] `gorm:"type:json"`
	ScreenshotLinks datatypes.JSONSlice[string] `gorm:"type:json"`

	FirstEnterpriseNotificationMilestone *int

	// UpdatedBy is the email or username of the last editor.
	UpdatedBy string `gorm:"size:255"`

	Stages []Stage `gorm:"foreignKey:FeatureID;constraint:OnDelete:CASCADE"`
}

// IsEnterprise reports whether the feature follows the enterprise process.
func (f Feature) IsEnterprise() bool {
	return releasenotes.FeatureType(f.FeatureType) == releasenotes.FeatureTypeEnterprise
}

// Stage is one lifecycle stage of a feature. Shipping stages use the
// per-platform milestone columns, rollout stages the rollout columns.
type Stage struct {
	ID int64 `gorm:"primaryKey"`

	FeatureID int64 `gorm:"index;not null"`
	StageType int   `gorm:"index;not null"`

	RolloutMilestone *int                     `gorm:"index"`
	RolloutPlatforms datatypes.JSONSlice[int] `gorm:"type:json"`
	RolloutImpact    int                      `gorm:"not null;default:0"`
	RolloutDetails   string                   `gorm:"type:text"`

	DesktopFirst *int
	AndroidFirst *int
	IOSFirst     *int `gorm:"column:ios_first"`
	WebviewFirst *int
	DesktopLast  *int
	AndroidLast  *int
	IOSLast      *int `gorm:"column:ios_last"`
	WebviewLast  *int
}

// MilestoneSummary stores how many features each release notes section of a
// milestone holds. Filled by the summary worker.
type MilestoneSummary struct {
	ID uint `gorm:"primaryKey"`

	Milestone int    `gorm:"uniqueIndex:idx_milestone_summary_unique,priority:1;not null"`
	Bucket    string `gorm:"uniqueIndex:idx_milestone_summary_unique,priority:2;size:16;not null"` // "current" or "upcoming"
	Category  int    `gorm:"uniqueIndex:idx_milestone_summary_unique,priority:3;not null"`

	FeatureCount int64     `gorm:"not null"`
	ComputedAt   time.Time `gorm:"not null"`
}

// ToReleaseNotes converts the stored feature to the release notes view.
func (f Feature) ToReleaseNotes() releasenotes.Feature {
	out := releasenotes.Feature{
		ID:                                   f.ID,
		Name:                                 f.Name,
		Summary:                              f.Summary,
		EnterpriseProductCategory:            releasenotes.ProductCategory(f.EnterpriseProductCategory),
		EnterpriseFeatureCategories:          make([]releasenotes.EnterpriseFeatureCategory, 0, len(f.EnterpriseFeatureCategories)),
		Owners:                               append([]string{}, f.Owners...),
		Editors:                              append([]string{}, f.Editors...),
		FirstEnterpriseNotificationMilestone: f.FirstEnterpriseNotificationMilestone,
		Updated:                              releasenotes.Updated{When: f.UpdatedAt, By: f.UpdatedBy},
		ScreenshotLinks:                      append([]string{}, f.ScreenshotLinks...),
		Stages:                               make([]releasenotes.Stage, 0, len(f.Stages)),
	}
	for _, c := range f.EnterpriseFeatureCategories {
		out.EnterpriseFeatureCategories = append(out.EnterpriseFeatureCategories, releasenotes.EnterpriseFeatureCategory(c))
	}
	for _, s := range f.Stages {
		out.Stages = append(out.Stages, s.ToReleaseNotes())
	}
	return out
}

// ToReleaseNotes converts the stored stage to the release notes view.
func (s Stage) ToReleaseNotes() releasenotes.Stage {
	platforms := make([]releasenotes.Platform, 0, len(s.RolloutPlatforms))
	for _, p := range s.RolloutPlatforms {
		platforms = append(platforms, releasenotes.Platform(p))
	}
	return releasenotes.Stage{
		ID:               s.ID,
		StageType:        releasenotes.StageType(s.StageType),
		RolloutMilestone: s.RolloutMilestone,
		RolloutPlatforms: platforms,
		RolloutImpact:    releasenotes.Impact(s.RolloutImpact),
		RolloutDetails:   s.RolloutDetails,
		DesktopFirst:     s.DesktopFirst,
		AndroidFirst:     s.AndroidFirst,
		IOSFirst:         s.IOSFirst,
		WebviewFirst:     s.WebviewFirst,
		DesktopLast:      s.DesktopLast,
		AndroidLast:      s.AndroidLast,
		IOSLast:          s.IOSLast,
		WebviewLast:      s.WebviewLast,
	}
}

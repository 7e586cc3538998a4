package db

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"releasedash/internal/releasenotes"
)

// SeedFile is the document accepted by the seed command (YAML) and the
// feature ingest endpoint (JSON).
type SeedFile struct {
	Features []SeedFeature `yaml:"features" json:"features"`
}

type SeedFeature struct {
	ID                                   int64       `yaml:"id" json:"id"`
	Name                                 string      `yaml:"name" json:"name"`
	Summary                              string      `yaml:"summary" json:"summary"`
	FeatureType                          int         `yaml:"feature_type" json:"feature_type"`
	BreakingChange                       bool        `yaml:"breaking_change" json:"breaking_change"`
	EnterpriseProductCategory            int         `yaml:"enterprise_product_category" json:"enterprise_product_category"`
	EnterpriseFeatureCategories          []int       `yaml:"enterprise_feature_categories" json:"enterprise_feature_categories"`
	Owners                               []string    `yaml:"owners" json:"owners"`
	Editors                              []string    `yaml:"editors" json:"editors"`
	ScreenshotLinks                      []string    `yaml:"screenshot_links" json:"screenshot_links"`
	FirstEnterpriseNotificationMilestone *int        `yaml:"first_enterprise_notification_milestone" json:"first_enterprise_notification_milestone"`
	Stages                               []SeedStage `yaml:"stages" json:"stages"`
}

type SeedStage struct {
	StageType        int    `yaml:"stage_type" json:"stage_type"`
	RolloutMilestone *int   `yaml:"rollout_milestone" json:"rollout_milestone"`
	RolloutPlatforms []int  `yaml:"rollout_platforms" json:"rollout_platforms"`
	RolloutImpact    int    `yaml:"rollout_impact" json:"rollout_impact"`
	RolloutDetails   string `yaml:"rollout_details" json:"rollout_details"`
	DesktopFirst     *int   `yaml:"desktop_first" json:"desktop_first"`
	AndroidFirst     *int   `yaml:"android_first" json:"android_first"`
	IOSFirst         *int   `yaml:"ios_first" json:"ios_first"`
	WebviewFirst     *int   `yaml:"webview_first" json:"webview_first"`
	DesktopLast      *int   `yaml:"desktop_last" json:"desktop_last"`
	AndroidLast      *int   `yaml:"android_last" json:"android_last"`
	IOSLast          *int   `yaml:"ios_last" json:"ios_last"`
	WebviewLast      *int   `yaml:"webview_last" json:"webview_last"`
}

// ParseSeed decodes and validates a YAML seed document.
func ParseSeed(data []byte) ([]Feature, error) {
	var doc SeedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	return doc.ToFeatures("seed")
}

// ToFeatures validates the document and converts it to storable features
// attributed to updatedBy.
func (doc SeedFile) ToFeatures(updatedBy string) ([]Feature, error) {
	out := make([]Feature, 0, len(doc.Features))
	for i, sf := range doc.Features {
		if sf.Name == "" {
			return nil, fmt.Errorf("feature %d: name is required", i)
		}
		if !releasenotes.FeatureTypes.Valid(releasenotes.FeatureType(sf.FeatureType)) {
			return nil, fmt.Errorf("feature %q: unknown feature_type %d", sf.Name, sf.FeatureType)
		}
		f := Feature{
			ID:                                   sf.ID,
			Name:                                 sf.Name,
			Summary:                              sf.Summary,
			FeatureType:                          sf.FeatureType,
			BreakingChange:                       sf.BreakingChange,
			EnterpriseProductCategory:            sf.EnterpriseProductCategory,
			EnterpriseFeatureCategories:          sf.EnterpriseFeatureCategories,
			Owners:                               sf.Owners,
			Editors:                              sf.Editors,
			ScreenshotLinks:                      sf.ScreenshotLinks,
			FirstEnterpriseNotificationMilestone: sf.FirstEnterpriseNotificationMilestone,
			UpdatedBy:                            updatedBy,
		}
		for _, ss := range sf.Stages {
			if !releasenotes.StageTypes.Valid(releasenotes.StageType(ss.StageType)) {
				return nil, fmt.Errorf("feature %q: unknown stage_type %d", sf.Name, ss.StageType)
			}
			f.Stages = append(f.Stages, Stage{
				StageType:        ss.StageType,
				RolloutMilestone: ss.RolloutMilestone,
				RolloutPlatforms: ss.RolloutPlatforms,
				RolloutImpact:    ss.RolloutImpact,
				RolloutDetails:   ss.RolloutDetails,
				DesktopFirst:     ss.DesktopFirst,
				AndroidFirst:     ss.AndroidFirst,
				IOSFirst:         ss.IOSFirst,
				WebviewFirst:     ss.WebviewFirst,
				DesktopLast:      ss.DesktopLast,
				AndroidLast:      ss.AndroidLast,
				IOSLast:          ss.IOSLast,
				WebviewLast:      ss.WebviewLast,
			})
		}
		out = append(out, f)
	}
	return out, nil
}

// LoadSeedFile reads and parses a seed document from disk.
func LoadSeedFile(path string) ([]Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return ParseSeed(data)
}

// ImportSeed upserts the seed features and returns how many were stored.
func ImportSeed(ctx context.Context, store *FeatureStore, features []Feature) (int, error) {
	if len(features) == 0 {
		return 0, nil
	}
	if err := store.Upsert(ctx, features); err != nil {
		return 0, err
	}
	return len(features), nil
}

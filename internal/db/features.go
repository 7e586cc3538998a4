package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"releasedash/internal/releasenotes"
)

var ErrFeatureNotFound = errors.New("feature not found")

// milestoneColumns are the stage columns that place a stage on the timeline.
var milestoneColumns = []string{
	"rollout_milestone",
	"desktop_first", "android_first", "ios_first", "webview_first",
	"desktop_last", "android_last", "ios_last", "webview_last",
}

// FeatureStore reads and writes features for the release notes.
type FeatureStore struct {
	db *gorm.DB
}

func NewFeatureStore(db *gorm.DB) *FeatureStore {
	return &FeatureStore{db: db}
}

// FeaturesForReleaseNotes returns enterprise features and breaking changes
// that have a stage at or after milestone, with their stages loaded.
func (s *FeatureStore) FeaturesForReleaseNotes(ctx context.Context, milestone int) ([]releasenotes.Feature, error) {
	conds := make([]string, 0, len(milestoneColumns))
	args := make([]any, 0, len(milestoneColumns))
	for _, c := range milestoneColumns {
		conds = append(conds, c+" >= ?")
		args = append(args, milestone)
	}
	upcomingStages := s.db.Model(&Stage{}).Select("feature_id").Where(strings.Join(conds, " OR "), args...)

	var rows []Feature
	err := s.db.WithContext(ctx).
		Where("feature_type = ? OR breaking_change = ?", int(releasenotes.FeatureTypeEnterprise), true).
		Where("id IN (?)", upcomingStages).
		Preload("Stages", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query release notes features: %w", err)
	}

	out := make([]releasenotes.Feature, 0, len(rows))
	for _, f := range rows {
		out = append(out, f.ToReleaseNotes())
	}
	return out, nil
}

// Get loads one feature with its stages.
func (s *FeatureStore) Get(ctx context.Context, id int64) (*Feature, error) {
	var f Feature
	err := s.db.WithContext(ctx).
		Preload("Stages", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		First(&f, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFeatureNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create stores a new feature. A feature without stages gets the default
// shipping stage of its process.
func (s *FeatureStore) Create(ctx context.Context, f *Feature) error {
	if len(f.Stages) == 0 {
		f.Stages = []Stage{{StageType: int(releasenotes.ShippingStageFor(releasenotes.FeatureType(f.FeatureType)))}}
	}
	return s.db.WithContext(ctx).Create(f).Error
}

// Upsert stores features by ID, replacing the stages of existing ones.
// Features without an ID are created.
func (s *FeatureStore) Upsert(ctx context.Context, features []Feature) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range features {
			f := &features[i]
			stages := f.Stages
			f.Stages = nil

			if err := tx.Omit("Stages").Save(f).Error; err != nil {
				return fmt.Errorf("save feature %q: %w", f.Name, err)
			}
			if err := tx.Where("feature_id = ?", f.ID).Delete(&Stage{}).Error; err != nil {
				return fmt.Errorf("clear stages of feature %d: %w", f.ID, err)
			}
			for j := range stages {
				stages[j].ID = 0
				stages[j].FeatureID = f.ID
			}
			if len(stages) > 0 {
				if err := tx.Create(&stages).Error; err != nil {
					return fmt.Errorf("create stages of feature %d: %w", f.ID, err)
				}
			}
			f.Stages = stages
		}
		return nil
	})
}

// UpdateSummary replaces a feature's summary and records who edited it.
func (s *FeatureStore) UpdateSummary(ctx context.Context, id int64, summary, by string) error {
	res := s.db.WithContext(ctx).Model(&Feature{}).Where("id = ?", id).Updates(map[string]interface{}{
		"summary":    summary,
		"updated_by": by,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrFeatureNotFound
	}
	return nil
}

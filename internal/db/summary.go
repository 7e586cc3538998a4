package db

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"releasedash/internal/releasenotes"
)

// NotesBuilder is the part of the release notes service the summary worker
// needs.
type NotesBuilder interface {
	ResolveMilestone(ctx context.Context, requested *int) (int, error)
	ForMilestone(ctx context.Context, milestone int) (releasenotes.Notes, error)
}

func summaryRows(n releasenotes.Notes, computedAt time.Time) []MilestoneSummary {
	rows := make([]MilestoneSummary, 0, 6)
	for _, bucket := range []struct {
		name string
		b    releasenotes.CategoryBuckets
	}{{"current", n.Current}, {"upcoming", n.Upcoming}} {
		for _, c := range []struct {
			cat   releasenotes.ProductCategory
			count int
		}{
			{releasenotes.ProductBrowserUpdate, len(bucket.b.BrowserUpdate)},
			{releasenotes.ProductEnterpriseCore, len(bucket.b.Core)},
			{releasenotes.ProductEnterprisePremium, len(bucket.b.Premium)},
		} {
			rows = append(rows, MilestoneSummary{
				Milestone:    n.Milestone,
				Bucket:       bucket.name,
				Category:     int(c.cat),
				FeatureCount: int64(c.count),
				ComputedAt:   computedAt,
			})
		}
	}
	return rows
}

// runSummaryOnce recomputes the section sizes of the stable milestone and the
// next horizon milestones.
func runSummaryOnce(ctx context.Context, db *gorm.DB, notes NotesBuilder, horizon int) error {
	stable, err := notes.ResolveMilestone(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	for m := stable; m <= stable+horizon; m++ {
		n, err := notes.ForMilestone(ctx, m)
		if err != nil {
			return err
		}
		for _, row := range summaryRows(n, now) {
			var existing MilestoneSummary
			err := db.WithContext(ctx).
				Where("milestone = ? AND bucket = ? AND category = ?", row.Milestone, row.Bucket, row.Category).
				First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = db.WithContext(ctx).Create(&row).Error
			} else if err == nil {
				err = db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
					"feature_count": row.FeatureCount,
					"computed_at":   row.ComputedAt,
				}).Error
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// StartSummaryWorker recomputes milestone summaries at startup and then every
// hour until ctx is cancelled. The returned channel is closed on exit.
func StartSummaryWorker(ctx context.Context, db *gorm.DB, notes NotesBuilder, horizon int, log *zap.Logger) <-chan struct{} {
	if log == nil {
		log = zap.NewNop()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := runSummaryOnce(ctx, db, notes, horizon); err != nil && ctx.Err() == nil {
			log.Warn("milestone summary failed (startup)", zap.Error(err))
		}

		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := runSummaryOnce(ctx, db, notes, horizon); err != nil && ctx.Err() == nil {
					log.Warn("milestone summary failed", zap.Error(err))
				}
			}
		}
	}()
	return done
}

// ListMilestoneSummaries returns the stored summaries ordered by milestone.
func ListMilestoneSummaries(ctx context.Context, db *gorm.DB) ([]MilestoneSummary, error) {
	var rows []MilestoneSummary
	err := db.WithContext(ctx).Order("milestone, bucket, category").Find(&rows).Error
	return rows, err
}

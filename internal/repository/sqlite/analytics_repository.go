package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/VOID-NULLED/hackathon-OCR/internal/models"
)

// AnalyticsRepository implements repository.AnalyticsRepository for SQLite.
type AnalyticsRepository struct {
	db *DB
}

// NewAnalyticsRepository creates a new SQLite analytics summary repository.
func NewAnalyticsRepository(db *DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Save replaces any cached summary for the source.
func (r *AnalyticsRepository) Save(summary *models.AnalyticsSummary) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO analytics_summaries
			(source_id, window_start, frame_count, avg_blur_variance, avg_illumination,
			 avg_confidence, avg_raw_confidence, avg_accuracy_improvement, enhanced_count, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			window_start = excluded.window_start,
			frame_count = excluded.frame_count,
			avg_blur_variance = excluded.avg_blur_variance,
			avg_illumination = excluded.avg_illumination,
			avg_confidence = excluded.avg_confidence,
			avg_raw_confidence = excluded.avg_raw_confidence,
			avg_accuracy_improvement = excluded.avg_accuracy_improvement,
			enhanced_count = excluded.enhanced_count,
			computed_at = excluded.computed_at
	`, summary.SourceID, summary.WindowStart.UTC(), summary.FrameCount, summary.AvgBlurVariance,
		summary.AvgIllumination, summary.AvgConfidence, summary.AvgRawConfidence,
		summary.AvgAccuracyImprovement, summary.EnhancedCount, summary.ComputedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save analytics summary: %w", err)
	}
	return nil
}

// GetBySource retrieves the cached summary for a source, or nil when absent.
func (r *AnalyticsRepository) GetBySource(sourceID string) (*models.AnalyticsSummary, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var summary models.AnalyticsSummary
	err := r.db.Conn().QueryRow(`
		SELECT source_id, window_start, frame_count, avg_blur_variance, avg_illumination,
		       avg_confidence, avg_raw_confidence, avg_accuracy_improvement, enhanced_count, computed_at
		FROM analytics_summaries WHERE source_id = ?
	`, sourceID).Scan(&summary.SourceID, &summary.WindowStart, &summary.FrameCount,
		&summary.AvgBlurVariance, &summary.AvgIllumination, &summary.AvgConfidence,
		&summary.AvgRawConfidence, &summary.AvgAccuracyImprovement, &summary.EnhancedCount,
		&summary.ComputedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analytics summary: %w", err)
	}
	return &summary, nil
}

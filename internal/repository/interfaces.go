package repository

import (
	"time"

	"github.com/VOID-NULLED/hackathon-OCR/internal/models"
)

// FrameRepository defines the interface for frame metadata operations.
type FrameRepository interface {
	// Upsert writes a frame record keyed by (source_id, timestamp). Submitting
	// the same logical capture twice yields exactly one row.
	Upsert(frame *models.FrameMetadata) error

	// Read operations
	GetBySource(sourceID string, from, to time.Time) ([]models.FrameMetadata, error)
	GetByKey(sourceID string, timestamp time.Time) (*models.FrameMetadata, error)
	CountBySource(sourceID string, from, to time.Time) (int, error)

	// Delete operations
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// AnalyticsRepository defines the interface for cached analytics summaries.
type AnalyticsRepository interface {
	// Save replaces any prior summary for the source.
	Save(summary *models.AnalyticsSummary) error

	GetBySource(sourceID string) (*models.AnalyticsSummary, error)
}

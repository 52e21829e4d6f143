package models

import "time"

// AnalyticsSummary holds rolling per-source statistics over a trailing time
// window. It is recomputed in full after each committed capture and cached;
// it carries no consistency guarantee beyond eventual agreement with the
// underlying frame_metadata rows.
type AnalyticsSummary struct {
	SourceID               string    `json:"source_id"`
	WindowStart            time.Time `json:"window_start"`
	FrameCount             int       `json:"frame_count"`
	AvgBlurVariance        float64   `json:"avg_blur_variance"`
	AvgIllumination        float64   `json:"avg_illumination"`
	AvgConfidence          float64   `json:"avg_confidence"`
	AvgRawConfidence       float64   `json:"avg_raw_confidence"`
	AvgAccuracyImprovement float64   `json:"avg_accuracy_improvement"`
	EnhancedCount          int       `json:"enhanced_count"`
	ComputedAt             time.Time `json:"computed_at"`
}

package models

import "time"

// FrameMetadata is one committed capture. (Timestamp, SourceID) is the natural
// key; duplicate submissions upsert onto the same row.
type FrameMetadata struct {
	ID               int64     `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	SourceID         string    `json:"source_id"`
	BlurVariance     float64   `json:"blur_variance"`
	IlluminationMean float64   `json:"illumination_mean"`
	WasEnhanced      bool      `json:"was_enhanced"`

	// Enhanced-pass recognition result.
	WordCount  int     `json:"word_count"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0-100

	// Pre-enhancement recognition result. RawConfidence is 0 when the raw
	// pass was skipped.
	RawWordCount  int     `json:"raw_word_count"`
	RawText       string  `json:"raw_text"`
	RawConfidence float64 `json:"raw_confidence"`

	ExtraMetrics MetricBag `json:"extra_metrics"`
}

// AccuracyImprovement is the relative confidence gain attributable to the
// enhancement stage, recomputed on read. It is 0 when the frame was not
// enhanced or when the raw pass reported no confidence.
func (f *FrameMetadata) AccuracyImprovement() float64 {
	if !f.WasEnhanced || f.RawConfidence <= 0 {
		return 0
	}
	return ((f.Confidence - f.RawConfidence) / f.RawConfidence) * 100
}

package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/VOID-NULLED/hackathon-OCR/internal/models"
)

// FrameRepository implements repository.FrameRepository for SQLite.
type FrameRepository struct {
	db *DB
}

// NewFrameRepository creates a new SQLite frame metadata repository.
func NewFrameRepository(db *DB) *FrameRepository {
	return &FrameRepository{db: db}
}

// Upsert writes a frame record keyed by (source_id, timestamp). A second
// submission of the same logical capture overwrites the first row in place,
// which makes duplicate job delivery a safe no-op.
func (r *FrameRepository) Upsert(frame *models.FrameMetadata) error {
	r.db.Lock()
	defer r.db.Unlock()

	metrics, err := encodeMetrics(frame.ExtraMetrics)
	if err != nil {
		return fmt.Errorf("failed to encode extra metrics: %w", err)
	}

	_, err = r.db.Conn().Exec(`
		INSERT INTO frame_metadata
			(timestamp, source_id, blur_variance, illumination_mean, was_enhanced,
			 word_count, text, confidence, raw_word_count, raw_text, raw_confidence, extra_metrics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, timestamp) DO UPDATE SET
			blur_variance = excluded.blur_variance,
			illumination_mean = excluded.illumination_mean,
			was_enhanced = excluded.was_enhanced,
			word_count = excluded.word_count,
			text = excluded.text,
			confidence = excluded.confidence,
			raw_word_count = excluded.raw_word_count,
			raw_text = excluded.raw_text,
			raw_confidence = excluded.raw_confidence,
			extra_metrics = excluded.extra_metrics
	`, frame.Timestamp.UTC(), frame.SourceID, frame.BlurVariance, frame.IlluminationMean,
		frame.WasEnhanced, frame.WordCount, frame.Text, frame.Confidence,
		frame.RawWordCount, frame.RawText, frame.RawConfidence, metrics)
	if err != nil {
		return fmt.Errorf("failed to upsert frame metadata: %w", err)
	}

	// LastInsertId is stale on the DO UPDATE path; read the id back by the
	// natural key instead.
	err = r.db.Conn().QueryRow(`
		SELECT id FROM frame_metadata WHERE source_id = ? AND timestamp = ?
	`, frame.SourceID, frame.Timestamp.UTC()).Scan(&frame.ID)
	if err != nil {
		return fmt.Errorf("failed to read back frame id: %w", err)
	}
	return nil
}

// GetBySource retrieves all frames for a source within [from, to), oldest first.
func (r *FrameRepository) GetBySource(sourceID string, from, to time.Time) ([]models.FrameMetadata, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, timestamp, source_id, blur_variance, illumination_mean, was_enhanced,
		       word_count, text, confidence, raw_word_count, raw_text, raw_confidence, extra_metrics
		FROM frame_metadata
		WHERE source_id = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC
	`, sourceID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query frames: %w", err)
	}
	defer rows.Close()

	var frames []models.FrameMetadata
	for rows.Next() {
		frame, err := scanFrame(rows)
		if err != nil {
			return nil, err
		}
		frames = append(frames, *frame)
	}
	return frames, rows.Err()
}

// GetByKey retrieves a frame by its natural key, or nil when absent.
func (r *FrameRepository) GetByKey(sourceID string, timestamp time.Time) (*models.FrameMetadata, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`
		SELECT id, timestamp, source_id, blur_variance, illumination_mean, was_enhanced,
		       word_count, text, confidence, raw_word_count, raw_text, raw_confidence, extra_metrics
		FROM frame_metadata
		WHERE source_id = ? AND timestamp = ?
	`, sourceID, timestamp.UTC())

	frame, err := scanFrame(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return frame, nil
}

// CountBySource counts frames for a source within [from, to).
func (r *FrameRepository) CountBySource(sourceID string, from, to time.Time) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	err := r.db.Conn().QueryRow(`
		SELECT COUNT(*) FROM frame_metadata
		WHERE source_id = ? AND timestamp >= ? AND timestamp < ?
	`, sourceID, from.UTC(), to.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count frames: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes frames captured before the cutoff and reports how
// many rows went away.
func (r *FrameRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		DELETE FROM frame_metadata WHERE timestamp < ?
	`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete frames: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFrame(row rowScanner) (*models.FrameMetadata, error) {
	var frame models.FrameMetadata
	var metrics string
	err := row.Scan(&frame.ID, &frame.Timestamp, &frame.SourceID, &frame.BlurVariance,
		&frame.IlluminationMean, &frame.WasEnhanced, &frame.WordCount, &frame.Text,
		&frame.Confidence, &frame.RawWordCount, &frame.RawText, &frame.RawConfidence, &metrics)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan frame: %w", err)
	}

	if err := json.Unmarshal([]byte(metrics), &frame.ExtraMetrics); err != nil {
		return nil, fmt.Errorf("failed to decode extra metrics: %w", err)
	}
	return &frame, nil
}

func encodeMetrics(bag models.MetricBag) (string, error) {
	if bag == nil {
		return "{}", nil
	}
	data, err := json.Marshal(bag)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

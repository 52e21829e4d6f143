package analytics

import (
	"sync"
	"testing"
	"time"

	"github.com/VOID-NULLED/hackathon-OCR/internal/config"
	"github.com/VOID-NULLED/hackathon-OCR/internal/logger"
	"github.com/VOID-NULLED/hackathon-OCR/internal/models"
)

type fakeFrameRepo struct {
	frames []models.FrameMetadata
}

func (f *fakeFrameRepo) Upsert(frame *models.FrameMetadata) error { return nil }

func (f *fakeFrameRepo) GetBySource(sourceID string, from, to time.Time) ([]models.FrameMetadata, error) {
	var out []models.FrameMetadata
	for _, frame := range f.frames {
		if frame.SourceID == sourceID && !frame.Timestamp.Before(from) && frame.Timestamp.Before(to) {
			out = append(out, frame)
		}
	}
	return out, nil
}

func (f *fakeFrameRepo) GetByKey(sourceID string, timestamp time.Time) (*models.FrameMetadata, error) {
	return nil, nil
}

func (f *fakeFrameRepo) CountBySource(sourceID string, from, to time.Time) (int, error) {
	frames, _ := f.GetBySource(sourceID, from, to)
	return len(frames), nil
}

func (f *fakeFrameRepo) DeleteOlderThan(cutoff time.Time) (int64, error) { return 0, nil }

type fakeAnalyticsRepo struct {
	mu        sync.Mutex
	summaries map[string]*models.AnalyticsSummary
	saves     int
}

func newFakeAnalyticsRepo() *fakeAnalyticsRepo {
	return &fakeAnalyticsRepo{summaries: make(map[string]*models.AnalyticsSummary)}
}

func (f *fakeAnalyticsRepo) Save(summary *models.AnalyticsSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries[summary.SourceID] = summary
	f.saves++
	return nil
}

func (f *fakeAnalyticsRepo) GetBySource(sourceID string) (*models.AnalyticsSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summaries[sourceID], nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
}

func TestSummarize_Averages(t *testing.T) {
	windowStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	frames := []models.FrameMetadata{
		{SourceID: "camera_0", BlurVariance: 100, IlluminationMean: 120, Confidence: 75, RawConfidence: 50, WasEnhanced: true},
		{SourceID: "camera_0", BlurVariance: 300, IlluminationMean: 180, Confidence: 80, RawConfidence: 80, WasEnhanced: false},
	}

	summary := Summarize("camera_0", windowStart, frames)

	if summary.FrameCount != 2 {
		t.Errorf("FrameCount = %d, expected 2", summary.FrameCount)
	}
	if summary.AvgBlurVariance != 200 {
		t.Errorf("AvgBlurVariance = %v, expected 200", summary.AvgBlurVariance)
	}
	if summary.AvgIllumination != 150 {
		t.Errorf("AvgIllumination = %v, expected 150", summary.AvgIllumination)
	}
	if summary.AvgConfidence != 77.5 {
		t.Errorf("AvgConfidence = %v, expected 77.5", summary.AvgConfidence)
	}
	if summary.AvgRawConfidence != 65 {
		t.Errorf("AvgRawConfidence = %v, expected 65", summary.AvgRawConfidence)
	}
	// First frame improves 50%, second is not enhanced and contributes 0.
	if summary.AvgAccuracyImprovement != 25 {
		t.Errorf("AvgAccuracyImprovement = %v, expected 25", summary.AvgAccuracyImprovement)
	}
	if summary.EnhancedCount != 1 {
		t.Errorf("EnhancedCount = %d, expected 1", summary.EnhancedCount)
	}
}

func TestSummarize_EmptyWindow(t *testing.T) {
	summary := Summarize("camera_0", time.Now(), nil)

	if summary.FrameCount != 0 {
		t.Errorf("FrameCount = %d, expected 0", summary.FrameCount)
	}
	if summary.AvgConfidence != 0 || summary.AvgBlurVariance != 0 {
		t.Error("Averages over an empty window must be zero")
	}
}

func TestRecompute_CountMatchesWindow(t *testing.T) {
	now := time.Now()
	frameRepo := &fakeFrameRepo{frames: []models.FrameMetadata{
		{SourceID: "camera_0", Timestamp: now.Add(-time.Hour), Confidence: 70},
		{SourceID: "camera_0", Timestamp: now.Add(-23 * time.Hour), Confidence: 60},
		{SourceID: "camera_0", Timestamp: now.Add(-25 * time.Hour), Confidence: 90}, // outside window
		{SourceID: "camera_1", Timestamp: now.Add(-time.Hour), Confidence: 80},      // other source
	}}
	analyticsRepo := newFakeAnalyticsRepo()
	agg := NewAggregator(frameRepo, analyticsRepo, 24*time.Hour, testLogger(t))

	summary, err := agg.Recompute("camera_0")
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}

	if summary.FrameCount != 2 {
		t.Errorf("FrameCount = %d, expected 2 (trailing 24h, one source)", summary.FrameCount)
	}

	cached, err := agg.Summary("camera_0")
	if err != nil {
		t.Fatalf("Summary read failed: %v", err)
	}
	if cached == nil || cached.FrameCount != 2 {
		t.Errorf("Cached summary should match recompute, got %+v", cached)
	}
}

func TestRecompute_ReplacesPriorSummary(t *testing.T) {
	now := time.Now()
	frameRepo := &fakeFrameRepo{frames: []models.FrameMetadata{
		{SourceID: "camera_0", Timestamp: now.Add(-time.Hour), Confidence: 70},
	}}
	analyticsRepo := newFakeAnalyticsRepo()
	agg := NewAggregator(frameRepo, analyticsRepo, 24*time.Hour, testLogger(t))

	if _, err := agg.Recompute("camera_0"); err != nil {
		t.Fatalf("First recompute failed: %v", err)
	}

	frameRepo.frames = append(frameRepo.frames, models.FrameMetadata{
		SourceID: "camera_0", Timestamp: now.Add(-time.Minute), Confidence: 90,
	})

	if _, err := agg.Recompute("camera_0"); err != nil {
		t.Fatalf("Second recompute failed: %v", err)
	}

	cached, _ := agg.Summary("camera_0")
	if cached.FrameCount != 2 {
		t.Errorf("Second recompute should replace the first, got count %d", cached.FrameCount)
	}
}

func TestConsume_RecomputesPerEvent(t *testing.T) {
	now := time.Now()
	frameRepo := &fakeFrameRepo{frames: []models.FrameMetadata{
		{SourceID: "camera_0", Timestamp: now.Add(-time.Hour), Confidence: 70},
		{SourceID: "camera_1", Timestamp: now.Add(-time.Hour), Confidence: 80},
	}}
	analyticsRepo := newFakeAnalyticsRepo()
	agg := NewAggregator(frameRepo, analyticsRepo, 24*time.Hour, testLogger(t))

	events := make(chan string, 3)
	agg.Consume(events)

	events <- "camera_0"
	events <- "camera_1"
	events <- "camera_0"
	close(events)
	agg.Wait()

	analyticsRepo.mu.Lock()
	defer analyticsRepo.mu.Unlock()
	if analyticsRepo.saves != 3 {
		t.Errorf("Expected 3 recomputes, got %d", analyticsRepo.saves)
	}
	if len(analyticsRepo.summaries) != 2 {
		t.Errorf("Expected summaries for 2 sources, got %d", len(analyticsRepo.summaries))
	}
}

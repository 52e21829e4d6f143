package analytics

import (
	"fmt"
	"sync"
	"time"

	"github.com/VOID-NULLED/hackathon-OCR/internal/logger"
	"github.com/VOID-NULLED/hackathon-OCR/internal/models"
	"github.com/VOID-NULLED/hackathon-OCR/internal/repository"
)

// Aggregator recomputes per-source rolling summaries. Every recompute reads
// the full trailing window and replaces the cached summary, so it never
// depends on trigger ordering. Triggers arrive as committed-capture events,
// never from a timer.
type Aggregator struct {
	frameRepo     repository.FrameRepository
	analyticsRepo repository.AnalyticsRepository
	window        time.Duration
	logger        *logger.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewAggregator creates an analytics aggregator over the given trailing window.
func NewAggregator(frameRepo repository.FrameRepository, analyticsRepo repository.AnalyticsRepository,
	window time.Duration, logger *logger.Logger) *Aggregator {
	return &Aggregator{
		frameRepo:     frameRepo,
		analyticsRepo: analyticsRepo,
		window:        window,
		logger:        logger,
	}
}

// Consume recomputes summaries for every source id arriving on events, until
// the channel closes. Run it in its own goroutine.
func (a *Aggregator) Consume(events <-chan string) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for sourceID := range events {
			if _, err := a.Recompute(sourceID); err != nil {
				// Cache refresh failure: the next commit re-triggers.
				a.logger.Warning("Analytics recompute for %s failed: %v", sourceID, err)
			}
		}
	}()
}

// Wait blocks until the consume goroutine has drained its events channel.
func (a *Aggregator) Wait() {
	a.stopOnce.Do(a.wg.Wait)
}

// Recompute reads all frames for the source within the trailing window and
// produces a fresh summary, replacing any cached one.
func (a *Aggregator) Recompute(sourceID string) (*models.AnalyticsSummary, error) {
	now := time.Now()
	windowStart := now.Add(-a.window)

	frames, err := a.frameRepo.GetBySource(sourceID, windowStart, now.Add(time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to read frames for %s: %w", sourceID, err)
	}

	summary := Summarize(sourceID, windowStart, frames)
	summary.ComputedAt = now

	if err := a.analyticsRepo.Save(summary); err != nil {
		return nil, fmt.Errorf("failed to save summary for %s: %w", sourceID, err)
	}

	a.logger.Info("Analytics for %s: %d frame(s) in window, avg confidence %.2f, avg improvement %.2f%%",
		sourceID, summary.FrameCount, summary.AvgConfidence, summary.AvgAccuracyImprovement)
	return summary, nil
}

// Summary returns the cached summary for a source, or nil when none exists.
func (a *Aggregator) Summary(sourceID string) (*models.AnalyticsSummary, error) {
	return a.analyticsRepo.GetBySource(sourceID)
}

// Summarize folds a window of frame records into a summary. Averages over an
// empty window are zero, not NaN.
func Summarize(sourceID string, windowStart time.Time, frames []models.FrameMetadata) *models.AnalyticsSummary {
	summary := &models.AnalyticsSummary{
		SourceID:    sourceID,
		WindowStart: windowStart,
		FrameCount:  len(frames),
	}
	if len(frames) == 0 {
		return summary
	}

	var blur, illum, conf, rawConf, improvement float64
	for i := range frames {
		frame := &frames[i]
		blur += frame.BlurVariance
		illum += frame.IlluminationMean
		conf += frame.Confidence
		rawConf += frame.RawConfidence
		improvement += frame.AccuracyImprovement()
		if frame.WasEnhanced {
			summary.EnhancedCount++
		}
	}

	n := float64(len(frames))
	summary.AvgBlurVariance = blur / n
	summary.AvgIllumination = illum / n
	summary.AvgConfidence = conf / n
	summary.AvgRawConfidence = rawConf / n
	summary.AvgAccuracyImprovement = improvement / n
	return summary
}

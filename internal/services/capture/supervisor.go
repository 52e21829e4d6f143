package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/VOID-NULLED/hackathon-OCR/internal/config"
	"github.com/VOID-NULLED/hackathon-OCR/internal/dto"
	"github.com/VOID-NULLED/hackathon-OCR/internal/logger"
	"github.com/VOID-NULLED/hackathon-OCR/internal/models"
	"github.com/VOID-NULLED/hackathon-OCR/internal/services/detector"
	"github.com/VOID-NULLED/hackathon-OCR/internal/services/ocr"
	"github.com/VOID-NULLED/hackathon-OCR/internal/services/quality"
)

// FrameSource is the video device boundary. Exactly one supervisor owns a
// source; Open/Read/Close are never called concurrently.
type FrameSource interface {
	Open() error
	Read() (dto.CapturedFrame, error)
	Close() error
}

// Enhancer is the image-enhancement toolkit boundary. Enhance must be
// deterministic and must not mutate its input.
type Enhancer interface {
	Enhance(data []byte) ([]byte, error)
}

// QualityAnalyzer computes quality metrics on a raw frame.
type QualityAnalyzer interface {
	Measure(data []byte) (quality.Metrics, error)
}

// Submitter receives committed captures for persistence.
type Submitter interface {
	Submit(record models.FrameMetadata) error
}

// SnapshotStore optionally keeps the committed frame images themselves.
type SnapshotStore interface {
	Add(image []byte, sourceID string, timestamp time.Time, isCode bool) string
}

// Snapshot is a point-in-time view of the pipeline counters.
type Snapshot struct {
	Running        bool    `json:"running"`
	MeasuredFPS    float64 `json:"measured_fps"`
	FramesSeen     uint64  `json:"frames_seen"`
	FramesEnhanced uint64  `json:"frames_enhanced"`
	FramesDetected uint64  `json:"frames_detected"`
	FramesCaptured uint64  `json:"frames_captured"`
	LastError      string  `json:"last_error,omitempty"`
}

// Supervisor owns the continuous acquisition loop for one source. A capture
// goroutine keeps a single latest-frame slot fresh while a processing
// goroutine runs quality metrics, the dual recognition pass and the gate over
// whatever frame is newest. Frames that age out of the slot before the
// processor gets to them are dropped, which bounds memory to one pending
// frame no matter how slow processing gets.
type Supervisor struct {
	cfg        *config.Config
	source     FrameSource
	enhancer   Enhancer
	recognizer ocr.Engine
	analyzer   QualityAnalyzer
	gate       *detector.Gate
	dispatcher Submitter
	snapshots  SnapshotStore // may be nil
	logger     *logger.Logger

	mu             sync.Mutex
	running        bool
	lastErr        error
	fps            float64
	framesSeen     uint64
	framesEnhanced uint64
	framesDetected uint64
	framesCaptured uint64

	latest    dto.CapturedFrame
	latestSet bool
	processed uint64 // seq of the newest frame already handed to processing

	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}
}

// NewSupervisor wires a pipeline for one source. The snapshot store may be nil.
func NewSupervisor(cfg *config.Config, source FrameSource, enhancer Enhancer, recognizer ocr.Engine,
	analyzer QualityAnalyzer, gate *detector.Gate, dispatcher Submitter, snapshots SnapshotStore,
	logger *logger.Logger) *Supervisor {
	return &Supervisor{
		cfg:        cfg,
		source:     source,
		enhancer:   enhancer,
		recognizer: recognizer,
		analyzer:   analyzer,
		gate:       gate,
		dispatcher: dispatcher,
		snapshots:  snapshots,
		logger:     logger,
	}
}

// Start opens the device and begins the acquisition loop.
func (s *Supervisor) Start(ctx context.Context) error {
	// Claim the pipeline before touching the device so a concurrent Start
	// cannot open it twice.
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("pipeline for %s is already running", s.cfg.SourceID)
	}
	s.running = true
	s.mu.Unlock()

	if err := s.source.Open(); err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("failed to start pipeline for %s: %w", s.cfg.SourceID, err)
	}

	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.lastErr = nil
	s.fps = 0
	s.framesSeen = 0
	s.framesEnhanced = 0
	s.framesDetected = 0
	s.framesCaptured = 0
	s.latestSet = false
	s.processed = 0
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.wg.Add(2)
	go s.captureLoop(runCtx)
	go s.processLoop(runCtx)

	go func() {
		s.wg.Wait()
		if err := s.source.Close(); err != nil {
			s.logger.Error("Error releasing device for %s: %v", s.cfg.SourceID, err)
		}
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(done)
	}()

	s.logger.Info("Pipeline started for %s (device %d)", s.cfg.SourceID, s.cfg.DeviceID)
	return nil
}

// Stop requests graceful termination and waits for the current iteration to
// finish and the device handle to be released. In-flight dispatch jobs are
// unaffected.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	s.logger.Info("Pipeline stopped for %s", s.cfg.SourceID)
}

// Stats returns a snapshot of the pipeline counters.
func (s *Supervisor) Stats() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Running:        s.running,
		MeasuredFPS:    s.fps,
		FramesSeen:     s.framesSeen,
		FramesEnhanced: s.framesEnhanced,
		FramesDetected: s.framesDetected,
		FramesCaptured: s.framesCaptured,
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}

// captureLoop reads frames as fast as the device delivers them, keeping only
// the newest in the latest-frame slot. Read failures are retried with a short
// delay; exceeding the retry ceiling is fatal for the pipeline.
func (s *Supervisor) captureLoop(ctx context.Context) {
	defer s.wg.Done()

	failures := 0
	fpsCount := 0
	fpsStart := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := s.source.Read()
		if err != nil {
			failures++
			s.logger.Warning("Frame read failed for %s (%d/%d): %v",
				s.cfg.SourceID, failures, s.cfg.MaxReadRetries, err)
			if failures >= s.cfg.MaxReadRetries {
				s.fail(fmt.Errorf("device read retries exhausted: %w", err))
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.cfg.ReadRetryDelay):
			}
			continue
		}
		failures = 0

		fpsCount++
		s.mu.Lock()
		s.framesSeen++
		if elapsed := time.Since(fpsStart); elapsed >= time.Second {
			s.fps = float64(fpsCount) / elapsed.Seconds()
			fpsCount = 0
			fpsStart = time.Now()
		}
		s.latest = frame
		s.latestSet = true
		s.mu.Unlock()
	}
}

// processLoop drains the latest-frame slot. Each iteration runs to completion
// before cancellation is observed, so a stop never interrupts a recognition
// call.
func (s *Supervisor) processLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, ok := s.takeLatest()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(20 * time.Millisecond):
			}
			continue
		}

		s.processFrame(frame)
	}
}

// takeLatest claims the newest unprocessed frame, if any.
func (s *Supervisor) takeLatest() (dto.CapturedFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.latestSet || s.latest.Seq <= s.processed {
		return dto.CapturedFrame{}, false
	}
	s.processed = s.latest.Seq
	return s.latest, true
}

// processFrame runs one frame through metrics, the dual recognition pass and
// the gate. Any stage failure discards the frame; the loop carries on.
func (s *Supervisor) processFrame(frame dto.CapturedFrame) {
	metrics, err := s.analyzer.Measure(frame.Data)
	if err != nil {
		s.logger.Warning("Quality metrics failed for %s: %v", frame.SourceID, err)
		return
	}

	// Optional fast path: frames too blurry to ever pass the gate skip both
	// recognition passes.
	if s.cfg.BlurSkipEnabled && metrics.BlurVariance < s.cfg.BlurFloor {
		return
	}

	if s.gate.InCooldown(frame.Timestamp) {
		return
	}

	started := time.Now()

	rawResult, err := s.recognizer.Recognize(frame.Data)
	if err != nil {
		s.logger.Warning("Raw recognition failed for %s: %v", frame.SourceID, err)
		return
	}

	enhanced, err := s.enhancer.Enhance(frame.Data)
	if err != nil {
		s.logger.Warning("Enhancement failed for %s: %v", frame.SourceID, err)
		return
	}
	s.mu.Lock()
	s.framesEnhanced++
	s.mu.Unlock()

	enhancedResult, err := s.recognizer.Recognize(enhanced)
	if err != nil {
		s.logger.Warning("Enhanced recognition failed for %s: %v", frame.SourceID, err)
		return
	}

	if !s.gate.Offer(frame.Timestamp, enhancedResult.Confidence) {
		return
	}

	s.mu.Lock()
	s.framesDetected++
	s.mu.Unlock()

	isCode := ocr.DetectCodePatterns(enhancedResult.Text)
	extra := models.MetricBag{
		"is_code":       models.BoolMetric(isCode),
		"processing_ms": models.IntMetric(time.Since(started).Milliseconds()),
	}
	if s.snapshots != nil {
		if path := s.snapshots.Add(enhanced, frame.SourceID, frame.Timestamp, isCode); path != "" {
			extra["image_path"] = models.StringMetric(path)
		}
	}

	record := models.FrameMetadata{
		Timestamp:        frame.Timestamp,
		SourceID:         frame.SourceID,
		BlurVariance:     metrics.BlurVariance,
		IlluminationMean: metrics.IlluminationMean,
		WasEnhanced:      true,
		WordCount:        enhancedResult.WordCount,
		Text:             enhancedResult.Text,
		Confidence:       enhancedResult.Confidence,
		RawWordCount:     rawResult.WordCount,
		RawText:          rawResult.Text,
		RawConfidence:    rawResult.Confidence,
		ExtraMetrics:     extra,
	}

	if err := s.dispatcher.Submit(record); err != nil {
		s.logger.Warning("Dispatch failed for %s: %v", frame.SourceID, err)
		return
	}

	s.mu.Lock()
	s.framesCaptured++
	s.mu.Unlock()

	kind := "TEXT"
	if isCode {
		kind = "CODE"
	}
	s.logger.Info("Text detected on %s! Confidence: %.2f%% | Type: %s | Preview: %s",
		frame.SourceID, enhancedResult.Confidence, kind, ocr.Preview(enhancedResult.Text, 10))
}

// fail records a fatal device error and tears the pipeline down.
func (s *Supervisor) fail(err error) {
	s.logger.Error("Pipeline for %s stopping: %v", s.cfg.SourceID, err)

	s.mu.Lock()
	s.lastErr = err
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

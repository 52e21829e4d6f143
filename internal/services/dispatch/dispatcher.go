package dispatch

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/VOID-NULLED/hackathon-OCR/internal/config"
	"github.com/VOID-NULLED/hackathon-OCR/internal/logger"
	"github.com/VOID-NULLED/hackathon-OCR/internal/models"
	"github.com/VOID-NULLED/hackathon-OCR/internal/repository"
)

// Job is one persistence unit of work. Jobs for different commits are
// independent; nothing orders them, even within one source.
type Job struct {
	ID     uuid.UUID
	Record models.FrameMetadata
}

// Dispatcher hands committed captures off to the durable store. Each job is
// retried with exponential backoff; a job that exhausts its attempts is logged
// to the error log and dropped without disturbing the acquisition loop.
//
// A successful persist emits the record's source id on the committed-events
// channel, which the analytics aggregator consumes.
type Dispatcher struct {
	frameRepo repository.FrameRepository
	logger    *logger.Logger

	jobs      chan Job
	committed chan string

	numWorkers  int
	maxAttempts int
	baseDelay   time.Duration

	mu       sync.RWMutex
	closed   bool
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDispatcher creates a dispatcher and starts its worker pool.
func NewDispatcher(frameRepo repository.FrameRepository, cfg *config.Config, logger *logger.Logger) *Dispatcher {
	d := &Dispatcher{
		frameRepo:   frameRepo,
		logger:      logger,
		jobs:        make(chan Job, cfg.DispatchQueueSize),
		committed:   make(chan string, cfg.DispatchQueueSize),
		numWorkers:  cfg.DispatchWorkers,
		maxAttempts: cfg.MaxJobAttempts,
		baseDelay:   cfg.RetryBaseDelay,
	}

	for i := 0; i < d.numWorkers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	d.logger.Info("Dispatcher started with %d worker(s), max %d attempt(s) per job", d.numWorkers, d.maxAttempts)
	return d
}

// Submit enqueues a persistence job for a committed capture. When the queue is
// full the job is rejected so the acquisition loop never blocks. A stopped
// dispatcher rejects all jobs.
func (d *Dispatcher) Submit(record models.FrameMetadata) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return fmt.Errorf("dispatcher is stopped")
	}

	job := Job{ID: uuid.New(), Record: record}

	select {
	case d.jobs <- job:
		return nil
	default:
		d.logger.Warning("Dispatch queue full - dropping job %s for %s", job.ID, record.SourceID)
		return fmt.Errorf("dispatch queue is full")
	}
}

// Committed exposes the stream of source ids whose captures were persisted.
func (d *Dispatcher) Committed() <-chan string {
	return d.committed
}

// Stop drains the queue and waits for in-flight jobs to finish or exhaust
// their retries. A pipeline stop never cancels dispatch work.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		// The write lock waits out in-flight Submits, so nothing can send
		// on jobs once it closes.
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()

		close(d.jobs)
		d.wg.Wait()
		close(d.committed)
		d.logger.Info("Dispatcher stopped")
	})
}

// worker processes jobs until the queue closes.
func (d *Dispatcher) worker(workerID int) {
	defer d.wg.Done()

	for job := range d.jobs {
		d.process(job, workerID)
	}
}

// process runs one job to success or terminal failure.
func (d *Dispatcher) process(job Job, workerID int) {
	var lastErr error

	for attempt := 0; attempt < d.maxAttempts; attempt++ {
		if attempt > 0 {
			// base delay doubled per attempt
			time.Sleep(d.baseDelay << (attempt - 1))
		}

		lastErr = d.frameRepo.Upsert(&job.Record)
		if lastErr == nil {
			d.emitCommitted(job.Record.SourceID)
			return
		}

		d.logger.Warning("Worker %d: job %s attempt %d/%d failed: %v",
			workerID, job.ID, attempt+1, d.maxAttempts, lastErr)
	}

	// Terminal, non-fatal. The diagnostic record is the only trace.
	d.logger.Error("Job %s permanently failed after %d attempts (source=%s timestamp=%s): %v",
		job.ID, d.maxAttempts, job.Record.SourceID, job.Record.Timestamp.Format(time.RFC3339Nano), lastErr)
}

// emitCommitted publishes a committed-capture event. The summary is a cache
// recomputed on every commit, so a dropped event only delays the next refresh.
func (d *Dispatcher) emitCommitted(sourceID string) {
	select {
	case d.committed <- sourceID:
	default:
		d.logger.Warning("Committed-events channel full - skipping analytics trigger for %s", sourceID)
	}
}

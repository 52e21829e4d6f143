package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/VOID-NULLED/hackathon-OCR/internal/logger"
)

// Capture is one committed frame image awaiting a disk flush.
type Capture struct {
	Timestamp time.Time
	SourceID  string
	IsCode    bool
	Data      []byte
}

// Store buffers committed capture images and flushes them to the images
// directory in batches. Losing a buffered image loses only the picture; the
// FrameMetadata row is persisted independently by the dispatcher.
type Store struct {
	imagesDir   string
	captures    []Capture
	bufferLimit int
	logger      *logger.Logger
	mu          sync.Mutex
	done        chan struct{}
	stopOnce    sync.Once
}

// NewStore creates a capture image store writing under imagesDir.
func NewStore(imagesDir string, bufferLimit int, logger *logger.Logger) *Store {
	return &Store{
		imagesDir:   imagesDir,
		bufferLimit: bufferLimit,
		captures:    make([]Capture, 0),
		logger:      logger,
		done:        make(chan struct{}),
	}
}

// Run flushes the buffer every flushInterval seconds until Stop is called.
func (s *Store) Run(flushInterval int) {
	ticker := time.NewTicker(time.Duration(flushInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Flush()
		case <-s.done:
			s.Flush()
			return
		}
	}
}

// Stop ends the flush loop after a final flush.
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

// Add buffers a committed capture image and returns the path it will be
// written to. When the buffer is full the image is dropped.
func (s *Store) Add(image []byte, sourceID string, timestamp time.Time, isCode bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	capture := Capture{
		Timestamp: timestamp,
		SourceID:  sourceID,
		IsCode:    isCode,
		Data:      image,
	}

	if len(s.captures) >= s.bufferLimit {
		s.logger.Warning("Capture buffer full (%d) - dropping image for %s", s.bufferLimit, sourceID)
		return ""
	}
	s.captures = append(s.captures, capture)
	return filepath.Join(s.imagesDir, filename(capture))
}

// Flush writes all buffered images to disk.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.captures) == 0 {
		return
	}

	if err := os.MkdirAll(s.imagesDir, 0755); err != nil {
		s.logger.Error("Error creating capture directory: %v", err)
		return
	}

	for _, capture := range s.captures {
		fullpath := filepath.Join(s.imagesDir, filename(capture))
		if err := os.WriteFile(fullpath, capture.Data, 0644); err != nil {
			s.logger.Error("Error writing capture %s: %v", fullpath, err)
			continue
		}
	}

	s.logger.Info("Flushed %d capture image(s) to %s", len(s.captures), s.imagesDir)
	s.captures = s.captures[:0]
}

func filename(c Capture) string {
	kind := "text"
	if c.IsCode {
		kind = "code"
	}
	return fmt.Sprintf("capture_%s_%s_%s.jpg", c.Timestamp.Format("2006-01-02_15-04-05.000"), c.SourceID, kind)
}

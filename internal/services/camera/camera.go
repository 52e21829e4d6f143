package camera

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/VOID-NULLED/hackathon-OCR/internal/config"
	"github.com/VOID-NULLED/hackathon-OCR/internal/dto"
)

// Source wraps a video device handle and hands out JPEG-encoded frames. It is
// owned by exactly one supervisor; Read and Close must not race.
type Source struct {
	deviceID int
	sourceID string
	width    int
	height   int
	fps      int

	webcam *gocv.VideoCapture
	frame  gocv.Mat // reusable read buffer
	seq    uint64
}

// NewSource creates an unopened camera source from configuration.
func NewSource(cfg *config.Config) *Source {
	return &Source{
		deviceID: cfg.DeviceID,
		sourceID: cfg.SourceID,
		width:    cfg.FrameWidth,
		height:   cfg.FrameHeight,
		fps:      cfg.FrameRate,
	}
}

// Open acquires the device handle and applies capture properties.
func (s *Source) Open() error {
	webcam, err := gocv.VideoCaptureDevice(s.deviceID)
	if err != nil {
		return fmt.Errorf("failed to open camera device %d: %w", s.deviceID, err)
	}
	if !webcam.IsOpened() {
		webcam.Close()
		return fmt.Errorf("camera device %d is not available", s.deviceID)
	}

	webcam.Set(gocv.VideoCaptureFrameWidth, float64(s.width))
	webcam.Set(gocv.VideoCaptureFrameHeight, float64(s.height))
	webcam.Set(gocv.VideoCaptureFPS, float64(s.fps))

	s.webcam = webcam
	s.frame = gocv.NewMat()
	return nil
}

// Read grabs the next frame and returns it JPEG-encoded. A failed read is
// recoverable; the caller decides how many failures it tolerates.
func (s *Source) Read() (dto.CapturedFrame, error) {
	if s.webcam == nil {
		return dto.CapturedFrame{}, fmt.Errorf("camera %s is not open", s.sourceID)
	}

	if !s.webcam.Read(&s.frame) {
		return dto.CapturedFrame{}, fmt.Errorf("failed to read frame from device %d", s.deviceID)
	}
	if s.frame.Empty() {
		return dto.CapturedFrame{}, fmt.Errorf("device %d returned an empty frame", s.deviceID)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, s.frame)
	if err != nil {
		return dto.CapturedFrame{}, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())

	s.seq++
	return dto.CapturedFrame{
		Data:      data,
		Timestamp: time.Now(),
		SourceID:  s.sourceID,
		Seq:       s.seq,
	}, nil
}

// Close releases the device handle.
func (s *Source) Close() error {
	if s.webcam == nil {
		return nil
	}
	s.frame.Close()
	err := s.webcam.Close()
	s.webcam = nil
	return err
}

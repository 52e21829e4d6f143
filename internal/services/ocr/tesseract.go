package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine on top of a gosseract client. The client
// is not safe for concurrent use; the acquisition loop is sequential, so one
// engine per supervisor is enough.
type TesseractEngine struct {
	client *gosseract.Client
}

// NewTesseractEngine creates a recognition engine for the given languages
// (comma-separated tesseract codes, e.g. "eng" or "eng,deu").
func NewTesseractEngine(languages string) (*TesseractEngine, error) {
	client := gosseract.NewClient()

	langs := strings.Split(languages, ",")
	for i := range langs {
		langs[i] = strings.TrimSpace(langs[i])
	}
	if err := client.SetLanguage(langs...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR languages %q: %w", languages, err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	return &TesseractEngine{client: client}, nil
}

// Recognize extracts text from a JPEG frame. Confidence is the average of the
// word-level box confidences, which is more stable than any single word score.
func (e *TesseractEngine) Recognize(data []byte) (Result, error) {
	if err := e.client.SetImageFromBytes(data); err != nil {
		return Result{}, fmt.Errorf("failed to set OCR image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("failed to extract text: %w", err)
	}
	text = strings.TrimSpace(text)

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get word boxes: %w", err)
	}

	var total float64
	var scored int
	for _, box := range boxes {
		if box.Confidence > 0 {
			total += box.Confidence
			scored++
		}
	}

	var confidence float64
	if scored > 0 {
		confidence = total / float64(scored)
	}

	return Result{
		Text:       text,
		Confidence: confidence,
		WordCount:  len(strings.Fields(text)),
	}, nil
}

// Close releases the tesseract client.
func (e *TesseractEngine) Close() error {
	return e.client.Close()
}

package ocr

// Result is one recognition pass over a single frame.
type Result struct {
	Text       string
	Confidence float64 // engine-reported certainty, 0-100
	WordCount  int
}

// Engine is the boundary to the external recognition engine. Recognize may
// fail transiently; callers treat that as a discarded frame, never as fatal.
type Engine interface {
	Recognize(data []byte) (Result, error)
	Close() error
}

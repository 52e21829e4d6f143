package dto

import "time"

// CapturedFrame is a single frame read from a video source, JPEG-encoded.
// It lives for one pipeline iteration and is never persisted as-is; Seq lets
// the processing loop tell whether the slot already holds a newer frame.
type CapturedFrame struct {
	Data      []byte
	Timestamp time.Time
	SourceID  string
	Seq       uint64
}

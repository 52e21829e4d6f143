package models

import "testing"

func TestFrameMetadata_AccuracyImprovement(t *testing.T) {
	tests := []struct {
		name          string
		wasEnhanced   bool
		rawConfidence float64
		confidence    float64
		expected      float64
	}{
		{"enhancement helped", true, 50, 75, 50.0},
		{"enhancement hurt", true, 80, 60, -25.0},
		{"no change", true, 70, 70, 0},
		{"raw pass skipped", true, 0, 75, 0},
		{"not enhanced", false, 50, 75, 0},
		{"not enhanced and raw zero", false, 0, 75, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := FrameMetadata{
				WasEnhanced:   tt.wasEnhanced,
				RawConfidence: tt.rawConfidence,
				Confidence:    tt.confidence,
			}
			if got := frame.AccuracyImprovement(); got != tt.expected {
				t.Errorf("AccuracyImprovement() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

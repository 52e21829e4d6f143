package quality

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Metrics are the per-frame quality measurements taken on the raw frame.
type Metrics struct {
	// BlurVariance is the variance of the Laplacian of the grayscale frame.
	// Higher means sharper; low values signal an out-of-focus frame.
	BlurVariance float64

	// IlluminationMean is the mean grayscale intensity (0-255), used to flag
	// under- or over-exposed frames.
	IlluminationMean float64
}

// Analyzer computes frame quality metrics. It is stateless; identical input
// yields identical output.
type Analyzer struct{}

// NewAnalyzer creates a quality metrics analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Measure decodes a JPEG frame and computes its quality metrics.
func (a *Analyzer) Measure(data []byte) (Metrics, error) {
	gray, err := gocv.IMDecode(data, gocv.IMReadGrayScale)
	if err != nil {
		return Metrics{}, fmt.Errorf("failed to decode frame: %w", err)
	}
	defer gray.Close()
	if gray.Empty() {
		return Metrics{}, fmt.Errorf("decoded frame is empty")
	}

	laplacian := gocv.NewMat()
	defer laplacian.Close()
	gocv.Laplacian(gray, &laplacian, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)

	mean, stdDev := laplacian.MeanStdDev()
	defer mean.Close()
	defer stdDev.Close()
	sigma := stdDev.GetDoubleAt(0, 0)

	return Metrics{
		BlurVariance:     sigma * sigma,
		IlluminationMean: gray.Mean().Val1,
	}, nil
}

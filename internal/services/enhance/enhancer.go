package enhance

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Enhancer sharpens and re-contrasts frames ahead of the enhanced recognition
// pass. Enhance is deterministic and never touches the input buffer.
type Enhancer struct{}

// NewEnhancer creates the default frame enhancer.
func NewEnhancer() *Enhancer {
	return &Enhancer{}
}

// Enhance decodes a JPEG frame, applies the deblur/sharpen/contrast chain and
// returns a freshly encoded JPEG.
func (e *Enhancer) Enhance(data []byte) ([]byte, error) {
	src, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	defer src.Close()
	if src.Empty() {
		return nil, fmt.Errorf("decoded frame is empty")
	}

	deblurred := deblur(src)
	defer deblurred.Close()

	sharpened := sharpen(deblurred)
	defer sharpened.Close()

	adjusted := autoContrast(sharpened)
	defer adjusted.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, adjusted)
	if err != nil {
		return nil, fmt.Errorf("failed to encode enhanced frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

// deblur reduces noise while keeping edges, then applies unsharp masking and
// a first contrast-limited equalization on the grayscale plane.
func deblur(src gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	denoised := gocv.NewMat()
	defer denoised.Close()
	gocv.BilateralFilter(gray, &denoised, 9, 75, 75)

	gaussian := gocv.NewMat()
	defer gaussian.Close()
	gocv.GaussianBlur(denoised, &gaussian, image.Pt(0, 0), 2.0, 2.0, gocv.BorderDefault)

	unsharp := gocv.NewMat()
	defer unsharp.Close()
	gocv.AddWeighted(denoised, 2.0, gaussian, -1.0, 0, &unsharp)

	clahe := gocv.NewCLAHEWithParams(3.0, image.Pt(8, 8))
	defer clahe.Close()

	equalized := gocv.NewMat()
	defer equalized.Close()
	clahe.Apply(unsharp, &equalized)

	result := gocv.NewMat()
	gocv.CvtColor(equalized, &result, gocv.ColorGrayToBGR)
	return result
}

// sharpen convolves with a 3x3 edge-boost kernel.
func sharpen(src gocv.Mat) gocv.Mat {
	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	defer kernel.Close()
	weights := [3][3]float32{
		{-1, -1, -1},
		{-1, 9, -1},
		{-1, -1, -1},
	}
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			kernel.SetFloatAt(row, col, weights[row][col])
		}
	}

	result := gocv.NewMat()
	gocv.Filter2D(src, &result, -1, kernel, image.Pt(-1, -1), 0, gocv.BorderDefault)
	return result
}

// autoContrast equalizes the lightness channel in Lab space, leaving color
// untouched.
func autoContrast(src gocv.Mat) gocv.Mat {
	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(src, &lab, gocv.ColorBGRToLab)

	channels := gocv.Split(lab)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()

	clahe := gocv.NewCLAHEWithParams(2.0, image.Pt(8, 8))
	defer clahe.Close()

	lightness := gocv.NewMat()
	defer lightness.Close()
	clahe.Apply(channels[0], &lightness)
	lightness.CopyTo(&channels[0])

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge(channels, &merged)

	result := gocv.NewMat()
	gocv.CvtColor(merged, &result, gocv.ColorLabToBGR)
	return result
}

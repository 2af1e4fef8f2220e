// Package gocv_compare contains tests that compare the pure Go transforms
// against gocv (OpenCV). These tests require OpenCV to be installed.
//
// Run with: cd imageutil/gocv_compare && go test -v
package gocv_compare

import (
	"testing"

	"github.com/wbrown/imgenhance/imageutil"
	"gocv.io/x/gocv"
)

// gocvToRGBA converts a gocv.Mat (BGR) to RGBAImage (RGB).
func gocvToRGBA(mat gocv.Mat) *imageutil.RGBAImage {
	height, width := mat.Rows(), mat.Cols()
	img := imageutil.NewRGBAImage(width, height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// gocv uses BGR format
			vec := mat.GetVecbAt(y, x)
			img.SetRGB(x, y, imageutil.RGB{R: vec[2], G: vec[1], B: vec[0]})
		}
	}
	return img
}

// rgbaToGocv converts an RGBAImage to gocv.Mat (BGR).
func rgbaToGocv(img *imageutil.RGBAImage) gocv.Mat {
	mat := gocv.NewMatWithSize(img.Height(), img.Width(), gocv.MatTypeCV8UC3)

	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			c := img.GetRGB(x, y)
			mat.SetUCharAt(y, x*3, c.B)
			mat.SetUCharAt(y, x*3+1, c.G)
			mat.SetUCharAt(y, x*3+2, c.R)
		}
	}
	return mat
}

// lutToGocv converts a LUT to a 1x256 single channel gocv.Mat.
func lutToGocv(lut imageutil.LUT) gocv.Mat {
	mat := gocv.NewMatWithSize(1, 256, gocv.MatTypeCV8U)
	for i, v := range lut {
		mat.SetUCharAt(0, i, v)
	}
	return mat
}

func TestCompareInvert(t *testing.T) {
	img := imageutil.CreateColorBarsImage(256, 64)
	mat := rgbaToGocv(img)
	defer mat.Close()

	inverted := gocv.NewMat()
	defer inverted.Close()
	gocv.BitwiseNot(mat, &inverted)

	maxDiff := imageutil.CalculateMaxDiff(gocvToRGBA(inverted), imageutil.Invert(img))
	if maxDiff != 0 {
		t.Errorf("Invert differs from BitwiseNot by up to %d", maxDiff)
	}
}

func TestCompareContrast(t *testing.T) {
	for _, factor := range []float64{0.5, 1.5, 3} {
		img := imageutil.CreateGradientImage(256, 16)
		mat := rgbaToGocv(img)

		scaled := gocv.NewMat()
		gocv.ConvertScaleAbs(mat, &scaled, factor, 0)

		// OpenCV rounds halves to even, we round them away from zero
		maxDiff := imageutil.CalculateMaxDiff(gocvToRGBA(scaled), imageutil.Contrast(img, factor))
		t.Logf("factor %v: max diff %d", factor, maxDiff)
		if maxDiff > 1 {
			t.Errorf("factor %v: Contrast differs from ConvertScaleAbs by %d", factor, maxDiff)
		}

		scaled.Close()
		mat.Close()
	}
}

func TestCompareLogLUT(t *testing.T) {
	img := imageutil.CreateGradientImage(256, 16)
	mat := rgbaToGocv(img)
	defer mat.Close()
	lut := lutToGocv(imageutil.LogLUT())
	defer lut.Close()

	mapped := gocv.NewMat()
	defer mapped.Close()
	gocv.LUT(mat, lut, &mapped)

	maxDiff := imageutil.CalculateMaxDiff(gocvToRGBA(mapped), imageutil.LogTransform(img))
	if maxDiff != 0 {
		t.Errorf("LogTransform differs from gocv.LUT by up to %d", maxDiff)
	}
}

func TestCompareEqualizeHistogram(t *testing.T) {
	// OpenCV excludes the lowest occupied level from the cumulative sum,
	// so the two only agree closely when every level is equally
	// populated, as in a full width gradient.
	img := imageutil.CreateGradientImage(256, 32)
	mat := rgbaToGocv(img)
	defer mat.Close()

	channels := gocv.Split(mat)
	for i := range channels {
		eq := gocv.NewMat()
		gocv.EqualizeHist(channels[i], &eq)
		channels[i].Close()
		channels[i] = eq
	}
	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge(channels, &merged)
	for _, ch := range channels {
		ch.Close()
	}

	ours := imageutil.EqualizeHistogram(img)
	mse := imageutil.CalculateMSE(gocvToRGBA(merged), ours)
	maxDiff := imageutil.CalculateMaxDiff(gocvToRGBA(merged), ours)
	t.Logf("Histogram equalization MSE: %f, Max diff: %d", mse, maxDiff)

	if maxDiff > 1 {
		t.Errorf("EqualizeHistogram differs from per-channel EqualizeHist by %d", maxDiff)
	}
}

package imageutil

import "math"

// Transform is a named pixel transform. Apply must not modify its argument.
type Transform struct {
	Name  string
	Apply func(src *RGBAImage) *RGBAImage
}

// Invert returns a new image where every channel value v becomes 255 - v.
func Invert(src *RGBAImage) *RGBAImage {
	return Map(src, invertRGB)
}

// InvertInPlace inverts img in place.
func InvertInPlace(img *RGBAImage) {
	MapInPlace(img, invertRGB)
}

func invertRGB(c RGB) RGB {
	return RGB{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B}
}

// RescaleLUT returns the table for v -> round(clamp(factor*v + offset)).
func RescaleLUT(factor, offset float64) LUT {
	return NewLUT(func(v float64) float64 {
		return factor*v + offset
	})
}

// Rescale returns a new image where every channel value v becomes
// factor*v + offset, rounded and clamped to [0, 255].
func Rescale(src *RGBAImage, factor, offset float64) *RGBAImage {
	lut := Uniform(RescaleLUT(factor, offset))
	return lut.Apply(src)
}

// Contrast rescales src by factor with no offset. factor must be positive.
func Contrast(src *RGBAImage, factor float64) *RGBAImage {
	return Rescale(src, factor, 0)
}

// logScale normalises ln(1+v) so that 255 maps back to 255.
var logScale = 255 / math.Log(256)

// LogLUT returns the table for v -> round(ln(1+v) * 255 / ln(256)).
func LogLUT() LUT {
	return NewLUT(func(v float64) float64 {
		return math.Log1p(v) * logScale
	})
}

// LogTransform returns a new image with logarithmic tone mapping applied,
// which brightens dark regions more than bright ones.
func LogTransform(src *RGBAImage) *RGBAImage {
	lut := Uniform(LogLUT())
	return lut.Apply(src)
}

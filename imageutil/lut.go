package imageutil

import "math"

// LUT maps every 8-bit input level to an output level.
type LUT [256]uint8

// ChannelLUT holds one LUT per color channel.
type ChannelLUT [NumChannels]LUT

// IdentityLUT returns the table mapping every level to itself.
func IdentityLUT() LUT {
	var lut LUT
	for i := range lut {
		lut[i] = uint8(i)
	}
	return lut
}

// NewLUT builds a table by evaluating fn at every level. Results are
// rounded to the nearest integer and clamped to [0, 255].
func NewLUT(fn func(v float64) float64) LUT {
	var lut LUT
	for i := range lut {
		lut[i] = clampUint8(fn(float64(i)))
	}
	return lut
}

// Uniform returns a ChannelLUT that applies lut to every channel.
func Uniform(lut LUT) ChannelLUT {
	return ChannelLUT{lut, lut, lut}
}

// IsMonotonic reports whether the table never decreases with the index.
func (lut *LUT) IsMonotonic() bool {
	for i := 1; i < len(lut); i++ {
		if lut[i] < lut[i-1] {
			return false
		}
	}
	return true
}

// Map remaps a single pixel.
func (cl *ChannelLUT) Map(c RGB) RGB {
	return RGB{
		R: cl[Red][c.R],
		G: cl[Green][c.G],
		B: cl[Blue][c.B],
	}
}

// Apply returns a new image with every channel value of src remapped
// through the matching table.
func (cl *ChannelLUT) Apply(src *RGBAImage) *RGBAImage {
	return Map(src, cl.Map)
}

// ApplyInPlace remaps img in place.
func (cl *ChannelLUT) ApplyInPlace(img *RGBAImage) {
	MapInPlace(img, cl.Map)
}

// clampUint8 rounds v to the nearest integer, halves away from zero,
// and clamps it to [0, 255].
func clampUint8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

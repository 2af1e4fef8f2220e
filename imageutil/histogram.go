package imageutil

import "math"

// Histogram holds a 256 bucket frequency table per channel. It is also used
// for the cumulative form returned by Cumulative.
type Histogram [NumChannels][256]int

// ComputeHistogram counts, for every channel independently, how many pixels
// have each level.
func ComputeHistogram(img *RGBAImage) Histogram {
	var h Histogram
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			c := img.GetRGB(x, y)
			h[Red][c.R]++
			h[Green][c.G]++
			h[Blue][c.B]++
		}
	}
	return h
}

// Total returns the number of samples counted in channel c.
func (h *Histogram) Total(c Channel) int {
	total := 0
	for _, n := range h[c] {
		total += n
	}
	return total
}

// Cumulative returns the running sum of every channel's table, so that
// entry i is the number of pixels with a level <= i.
func (h *Histogram) Cumulative() Histogram {
	var cum Histogram
	for c := range h {
		cum[c][0] = h[c][0]
		for i := 1; i < 256; i++ {
			cum[c][i] = cum[c][i-1] + h[c][i]
		}
	}
	return cum
}

// EqualizationLUT derives lut[c][i] = round(cum[c][i] / total * 255) from a
// cumulative histogram. Channels are mapped independently, which can shift
// the color balance. A total below one yields the identity mapping.
func EqualizationLUT(cum Histogram, total int) ChannelLUT {
	if total < 1 {
		return Uniform(IdentityLUT())
	}
	var cl ChannelLUT
	for c := range cum {
		for i := 0; i < 256; i++ {
			v := float64(cum[c][i]) / float64(total) * 255
			cl[c][i] = clampUint8(math.Round(v))
		}
	}
	return cl
}

// EqualizeHistogram returns a new image with every channel's levels
// redistributed towards a uniform histogram.
func EqualizeHistogram(src *RGBAImage) *RGBAImage {
	hist := ComputeHistogram(src)
	cum := hist.Cumulative()
	lut := EqualizationLUT(cum, src.Width()*src.Height())
	return lut.Apply(src)
}

// Package imageutil provides the raster type and the pure Go pixel
// transforms used by imgenhance: inversion, contrast rescale, logarithmic
// tone mapping and per-channel histogram equalization.
package imageutil

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Channel identifies one color component of an RGB pixel.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

// NumChannels is the number of color channels in an RGB pixel.
const NumChannels = 3

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	}
	return "unknown"
}

// RGB represents a color in the RGB color space with 8-bit channels.
type RGB struct {
	R, G, B uint8
}

// Channel returns the value of channel c.
func (rgb RGB) Channel(c Channel) uint8 {
	switch c {
	case Green:
		return rgb.G
	case Blue:
		return rgb.B
	}
	return rgb.R
}

// WithChannel returns a copy of rgb with channel c set to v.
func (rgb RGB) WithChannel(c Channel, v uint8) RGB {
	switch c {
	case Red:
		rgb.R = v
	case Green:
		rgb.G = v
	case Blue:
		rgb.B = v
	}
	return rgb
}

// RGBFromColor converts a color.Color to RGB.
func RGBFromColor(c color.Color) RGB {
	r, g, b, _ := c.RGBA()
	return RGB{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
	}
}

// RGBAImage wraps image.RGBA with coordinate based RGB access. The origin
// is always (0, 0) and alpha is always opaque.
type RGBAImage struct {
	*image.RGBA
}

// NewRGBAImage creates a new RGBAImage with the specified dimensions.
func NewRGBAImage(width, height int) *RGBAImage {
	return &RGBAImage{
		RGBA: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// RGBAImageFromImage converts any image.Image to an RGBAImage anchored at
// (0, 0). Transparent areas are composited over black.
func RGBAImageFromImage(img image.Image) *RGBAImage {
	bounds := img.Bounds()
	rgba := NewRGBAImage(bounds.Dx(), bounds.Dy())
	draw.Draw(rgba.RGBA, rgba.Bounds(), image.Black, image.Point{}, draw.Src)
	draw.Draw(rgba.RGBA, rgba.Bounds(), img, bounds.Min, draw.Over)
	return rgba
}

// Width returns the image width.
func (img *RGBAImage) Width() int {
	return img.Bounds().Dx()
}

// Height returns the image height.
func (img *RGBAImage) Height() int {
	return img.Bounds().Dy()
}

// InBounds reports whether (x, y) addresses a pixel of the image.
func (img *RGBAImage) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < img.Width() && y < img.Height()
}

// GetRGB returns the RGB value at (x, y). Out of bounds reads return black.
func (img *RGBAImage) GetRGB(x, y int) RGB {
	if !img.InBounds(x, y) {
		return RGB{}
	}
	i := img.PixOffset(x, y)
	return RGB{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2]}
}

// SetRGB sets the RGB value at (x, y). Out of bounds writes are ignored.
func (img *RGBAImage) SetRGB(x, y int, c RGB) {
	if !img.InBounds(x, y) {
		return
	}
	i := img.PixOffset(x, y)
	img.Pix[i] = c.R
	img.Pix[i+1] = c.G
	img.Pix[i+2] = c.B
	img.Pix[i+3] = 255
}

// Clone creates a deep copy of the image.
func (img *RGBAImage) Clone() *RGBAImage {
	clone := NewRGBAImage(img.Width(), img.Height())
	copy(clone.Pix, img.Pix)
	return clone
}

// Equal reports whether both images have the same size and RGB values.
func (img *RGBAImage) Equal(other *RGBAImage) bool {
	if img.Width() != other.Width() || img.Height() != other.Height() {
		return false
	}
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			if img.GetRGB(x, y) != other.GetRGB(x, y) {
				return false
			}
		}
	}
	return true
}

// Map returns a new image where every pixel is fn applied to the
// corresponding pixel of src. src is not modified.
func Map(src *RGBAImage, fn func(RGB) RGB) *RGBAImage {
	width, height := src.Width(), src.Height()
	dst := NewRGBAImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dst.SetRGB(x, y, fn(src.GetRGB(x, y)))
		}
	}
	return dst
}

// MapInPlace applies fn to every pixel of img.
func MapInPlace(img *RGBAImage, fn func(RGB) RGB) {
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			img.SetRGB(x, y, fn(img.GetRGB(x, y)))
		}
	}
}

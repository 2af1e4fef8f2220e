package imageutil

import (
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

var (
	// ErrDecode is returned when input bytes are not a supported image.
	ErrDecode = errors.New("imageutil: decode failed")
	// ErrEncode is returned when an image cannot be encoded.
	ErrEncode = errors.New("imageutil: encode failed")
	// ErrUnsupportedFormat is returned for unknown output format names.
	ErrUnsupportedFormat = errors.New("imageutil: unsupported format")
)

// Format is an output encoding.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
	FormatTIFF Format = "tiff"
	FormatBMP  Format = "bmp"
)

// DefaultQuality is the JPEG quality used when none is given.
const DefaultQuality = 95

// ParseFormat maps a format name or file extension to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(name), ".") {
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "gif":
		return FormatGIF, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	case "bmp":
		return FormatBMP, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatTIFF:
		return ".tif"
	}
	return "." + string(f)
}

// EncodeOptions tunes lossy encoders.
type EncodeOptions struct {
	// Quality is the JPEG quality in [1, 100]. Zero means DefaultQuality.
	Quality int
}

// Decode reads an image from r and returns it with the detected format
// name. Supports PNG, JPEG, GIF, TIFF, BMP and WebP.
func Decode(r io.Reader) (*RGBAImage, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if img.Bounds().Empty() {
		return nil, format, fmt.Errorf("%w: empty %s image", ErrDecode, format)
	}
	return RGBAImageFromImage(img), format, nil
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format Format, opts EncodeOptions) error {
	// Unwrap so the encoders take their *image.RGBA fast paths
	if rgba, ok := img.(*RGBAImage); ok {
		img = rgba.RGBA
	}

	var err error
	switch format {
	case FormatJPEG:
		quality := opts.Quality
		if quality == 0 {
			quality = DefaultQuality
		}
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatGIF:
		err = gif.Encode(w, img, nil)
	case FormatTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case FormatBMP:
		err = bmp.Encode(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEncode, format, err)
	}
	return nil
}

// LoadImage loads an image from the specified path.
func LoadImage(path string) (*RGBAImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := Decode(f)
	return img, err
}

// SaveImage saves an image to the specified path. The format is determined
// by the file extension and defaults to PNG.
func SaveImage(img image.Image, path string) error {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		format = FormatPNG
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Encode(f, img, format, EncodeOptions{}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package imageutil

import (
	"image"
	"image/color"
	"testing"
)

func TestNewRGBAImage(t *testing.T) {
	img := NewRGBAImage(100, 50)
	if img.Width() != 100 {
		t.Errorf("Expected width 100, got %d", img.Width())
	}
	if img.Height() != 50 {
		t.Errorf("Expected height 50, got %d", img.Height())
	}
}

func TestRGBAImageGetSetRGB(t *testing.T) {
	img := NewRGBAImage(10, 10)
	c := RGB{R: 100, G: 150, B: 200}
	img.SetRGB(5, 5, c)

	got := img.GetRGB(5, 5)
	if got != c {
		t.Errorf("Expected %v, got %v", c, got)
	}
	if a := img.RGBAAt(5, 5).A; a != 255 {
		t.Errorf("SetRGB should write opaque alpha, got %d", a)
	}
}

func TestRGBAImageBounds(t *testing.T) {
	img := NewRGBAImage(4, 3)

	// Out of bounds writes must not touch any pixel
	img.SetRGB(-1, 0, RGB{R: 1})
	img.SetRGB(4, 0, RGB{R: 1})
	img.SetRGB(0, 3, RGB{R: 1})
	for _, p := range img.Pix {
		if p != 0 {
			t.Fatal("Out of bounds SetRGB modified the image")
		}
	}

	if got := img.GetRGB(10, 10); got != (RGB{}) {
		t.Errorf("Out of bounds GetRGB should return black, got %v", got)
	}
	if img.InBounds(4, 0) || !img.InBounds(3, 2) {
		t.Error("InBounds disagrees with image dimensions")
	}
}

func TestRGBAImageClone(t *testing.T) {
	img := NewRGBAImage(10, 10)
	img.SetRGB(5, 5, RGB{R: 255, G: 0, B: 0})

	clone := img.Clone()
	if !clone.Equal(img) {
		t.Error("Clone should have same pixel values")
	}

	// Modify clone, original should be unchanged
	clone.SetRGB(5, 5, RGB{R: 0, G: 255, B: 0})
	if img.GetRGB(5, 5).G != 0 {
		t.Error("Modifying clone should not affect original")
	}
}

func TestRGBAImageFromImageOffsetBounds(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 20, 13, 22))
	src.SetNRGBA(10, 20, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.SetNRGBA(12, 21, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	img := RGBAImageFromImage(src)
	if img.Width() != 3 || img.Height() != 2 {
		t.Fatalf("Expected 3x2, got %dx%d", img.Width(), img.Height())
	}
	if got := img.GetRGB(0, 0); got != (RGB{10, 20, 30}) {
		t.Errorf("Top-left pixel: got %v", got)
	}
	if got := img.GetRGB(2, 1); got != (RGB{200, 100, 50}) {
		t.Errorf("Bottom-right pixel: got %v", got)
	}
	// Transparent pixels are composited over black
	if got := img.RGBAAt(1, 0); got != (color.RGBA{A: 255}) {
		t.Errorf("Transparent pixel should become opaque black, got %v", got)
	}
}

func TestRGBAImageFromGray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 1))
	src.SetGray(1, 0, color.Gray{Y: 77})

	img := RGBAImageFromImage(src)
	if got := img.GetRGB(1, 0); got != (RGB{77, 77, 77}) {
		t.Errorf("Expected gray 77 in every channel, got %v", got)
	}
}

func TestRGBChannelAccess(t *testing.T) {
	c := RGB{R: 1, G: 2, B: 3}
	for ch, want := range map[Channel]uint8{Red: 1, Green: 2, Blue: 3} {
		if got := c.Channel(ch); got != want {
			t.Errorf("Channel(%v) = %d, want %d", ch, got, want)
		}
	}
	if got := c.WithChannel(Green, 9); got != (RGB{1, 9, 3}) {
		t.Errorf("WithChannel(Green, 9) = %v", got)
	}
}

func TestMapDoesNotModifySource(t *testing.T) {
	src := CreateColorBarsImage(16, 4)
	orig := src.Clone()

	dst := Map(src, func(RGB) RGB { return RGB{R: 7} })
	if !src.Equal(orig) {
		t.Error("Map modified its source")
	}
	if dst.GetRGB(3, 3) != (RGB{R: 7}) {
		t.Errorf("Map result not applied: %v", dst.GetRGB(3, 3))
	}
}

func TestResize(t *testing.T) {
	img := CreateGradientImage(100, 100)

	// Downscale
	resized := Resize(img, 50, 50, InterpolationCatmullRom)
	if resized.Width() != 50 || resized.Height() != 50 {
		t.Errorf("Expected 50x50, got %dx%d", resized.Width(), resized.Height())
	}

	// Upscale
	resized = Resize(img, 200, 200, InterpolationLinear)
	if resized.Width() != 200 || resized.Height() != 200 {
		t.Errorf("Expected 200x200, got %dx%d", resized.Width(), resized.Height())
	}

	resized = ResizeToWidth(CreateSolidImage(40, 10, RGB{R: 9}), 20, InterpolationNearest)
	if resized.Width() != 20 || resized.Height() != 5 {
		t.Errorf("Expected 20x5, got %dx%d", resized.Width(), resized.Height())
	}
	if got := resized.GetRGB(10, 2); got != (RGB{R: 9}) {
		t.Errorf("Nearest neighbor resize of a solid image changed color: %v", got)
	}
}

func TestCalculateMSE(t *testing.T) {
	img1 := NewRGBAImage(10, 10)
	img2 := NewRGBAImage(10, 10)

	// Same images should have MSE of 0
	mse := CalculateMSE(img1, img2)
	if mse != 0 {
		t.Errorf("Identical images should have MSE=0, got %f", mse)
	}

	img1 = CreateSolidImage(10, 10, RGB{0, 0, 0})
	img2 = CreateSolidImage(10, 10, RGB{10, 10, 10})
	mse = CalculateMSE(img1, img2)
	expected := 100.0 // 10^2 = 100
	if mse != expected {
		t.Errorf("Expected MSE=%f, got %f", expected, mse)
	}
	if d := CalculateMaxDiff(img1, img2); d != 10 {
		t.Errorf("Expected max diff 10, got %d", d)
	}
}

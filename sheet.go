package imgenhance

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/wbrown/imgenhance/imageutil"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultThumbWidth is the contact sheet thumbnail width in pixels.
const DefaultThumbWidth = 240

const (
	sheetPadding  = 8
	captionHeight = 24
	captionSize   = 14.0
)

var (
	sheetBackground = color.RGBA{R: 32, G: 32, B: 32, A: 255}
	captionColor    = color.RGBA{R: 230, G: 230, B: 230, A: 255}
)

// Panel is one labelled image on a contact sheet.
type Panel struct {
	Label string
	Image *imageutil.RGBAImage
}

var loadCaptionFont = sync.OnceValues(func() (*truetype.Font, error) {
	return freetype.ParseFont(goregular.TTF)
})

// BuildContactSheet lays the panels out left to right as thumbnails of
// thumbWidth pixels, each captioned with its label. thumbWidth <= 0 means
// DefaultThumbWidth.
func BuildContactSheet(panels []Panel, thumbWidth int) (*imageutil.RGBAImage, error) {
	if len(panels) == 0 {
		return nil, errors.New("imgenhance: contact sheet needs at least one panel")
	}
	if thumbWidth <= 0 {
		thumbWidth = DefaultThumbWidth
	}

	thumbs := make([]*imageutil.RGBAImage, len(panels))
	thumbHeight := 0
	for i, p := range panels {
		thumbs[i] = imageutil.ResizeToWidth(p.Image, thumbWidth, imageutil.InterpolationCatmullRom)
		thumbHeight = max(thumbHeight, thumbs[i].Height())
	}

	width := len(panels)*(thumbWidth+sheetPadding) + sheetPadding
	height := sheetPadding + thumbHeight + captionHeight + sheetPadding
	sheet := imageutil.NewRGBAImage(width, height)
	draw.Draw(sheet.RGBA, sheet.Bounds(), image.NewUniform(sheetBackground), image.Point{}, draw.Src)

	f, err := loadCaptionFont()
	if err != nil {
		return nil, fmt.Errorf("imgenhance: caption font: %w", err)
	}
	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(f)
	ctx.SetFontSize(captionSize)
	ctx.SetDst(sheet.RGBA)
	ctx.SetSrc(image.NewUniform(captionColor))
	ctx.SetHinting(font.HintingFull)

	captionTop := sheetPadding + thumbHeight
	for i, th := range thumbs {
		x := sheetPadding + i*(thumbWidth+sheetPadding)
		r := image.Rect(x, sheetPadding, x+th.Width(), sheetPadding+th.Height())
		draw.Draw(sheet.RGBA, r, th.RGBA, image.Point{}, draw.Src)

		// Long labels are clipped to their own column
		ctx.SetClip(image.Rect(x, captionTop, x+thumbWidth, height))
		pt := freetype.Pt(x+2, captionTop+captionHeight-6)
		if _, err := ctx.DrawString(panels[i].Label, pt); err != nil {
			return nil, fmt.Errorf("imgenhance: caption %q: %w", panels[i].Label, err)
		}
	}

	return sheet, nil
}

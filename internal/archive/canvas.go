package archive

import (
	"image"
	"image/color"

	"github.com/andresmejia3/warden/internal/types"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

var (
	// LabelColor is used for recognition text.
	LabelColor = color.RGBA{R: 0, G: 225, B: 0, A: 255}
	// OutlineColor is used for region rectangles.
	OutlineColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}
)

const (
	outlineWidth = 2
	// labels closer than this to the top edge are not lifted
	labelMargin = 11
	labelLift   = 5
)

// Canvas is the mutable working copy of a frame that annotations are drawn on.
type Canvas struct {
	dc *gg.Context
}

// NewCanvas copies img into a new drawable canvas.
func NewCanvas(img image.Image) *Canvas {
	dc := gg.NewContextForImage(img)
	dc.SetFontFace(basicfont.Face7x13)
	return &Canvas{dc: dc}
}

// Label draws text with its baseline at (x, y-5), or at (x, y) when the point
// is too close to the top edge.
func (c *Canvas) Label(text string, x, y int) {
	if y > labelMargin {
		y -= labelLift
	}
	c.dc.SetColor(LabelColor)
	c.dc.DrawString(text, float64(x), float64(y))
}

// Outline strokes the border of r.
func (c *Canvas) Outline(r types.Region) {
	c.dc.SetColor(OutlineColor)
	c.dc.SetLineWidth(outlineWidth)
	c.dc.DrawRectangle(float64(r.X), float64(r.Y), float64(r.Width), float64(r.Height))
	c.dc.Stroke()
}

// Image returns the current pixels. It aliases the canvas.
func (c *Canvas) Image() image.Image {
	return c.dc.Image()
}

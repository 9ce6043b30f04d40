package types

import (
	"fmt"
	"image"
)

// Region is an axis-aligned rectangle in the coordinate space of one normalized frame.
// Fields are always read and written in X, Y, Width, Height order.
type Region struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// RegionFromRect converts an image.Rectangle (Min/Max corners) into a Region.
func RegionFromRect(r image.Rectangle) Region {
	r = r.Canon()
	return Region{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Empty reports whether the region covers no pixels.
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Within reports whether the region satisfies 0 <= x, 0 <= y, x+w <= W, y+h <= H
// for the given frame bounds.
func (r Region) Within(bounds image.Rectangle) bool {
	return r.X >= 0 && r.Y >= 0 &&
		r.X+r.Width <= bounds.Dx() && r.Y+r.Height <= bounds.Dy()
}

func (r Region) String() string {
	return fmt.Sprintf("[x=%d y=%d w=%d h=%d]", r.X, r.Y, r.Width, r.Height)
}

// RegionCrop pairs the pixels of a region with the region they came from.
type RegionCrop struct {
	Image  image.Image
	Region Region
}

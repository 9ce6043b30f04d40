// Package extract crops detected regions out of a frame.
package extract

import (
	"fmt"
	"image"

	"github.com/andresmejia3/warden/internal/types"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Extract crops img once per region, keeping the input order. Every crop owns
// its pixels. A region outside the frame is a caller bug and panics.
func Extract(img image.Image, regions []types.Region) []types.RegionCrop {
	bounds := img.Bounds()
	crops := make([]types.RegionCrop, 0, len(regions))
	for _, r := range regions {
		if r.Empty() || !r.Within(bounds) {
			panic(fmt.Sprintf("extract: region %v outside frame %v", r, bounds))
		}
		rect := r.Rect().Add(bounds.Min)
		crops = append(crops, types.RegionCrop{
			Image:  imaging.Crop(img, rect),
			Region: r,
		})
	}
	return crops
}

// ToGrayscale returns single-channel copies of crops. The input is not modified.
func ToGrayscale(crops []types.RegionCrop) []types.RegionCrop {
	out := make([]types.RegionCrop, len(crops))
	for i, c := range crops {
		out[i] = types.RegionCrop{Image: Gray(c.Image), Region: c.Region}
	}
	return out
}

// Gray converts img to an 8-bit grayscale image anchored at the origin.
func Gray(img image.Image) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Package frame loads source images and brings them to the working resolution
// used by detection.
package frame

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// DefaultMaxDimension is the largest width or height a working frame may have.
const DefaultMaxDimension = 800

// LoadError reports that a source image could not be opened or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load image %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Presenter displays an intermediate image for interactive inspection.
// Show must block until the viewer has dismissed the image.
type Presenter interface {
	Show(title string, img image.Image)
}

// NopPresenter discards everything it is asked to show.
type NopPresenter struct{}

func (NopPresenter) Show(string, image.Image) {}

// Load decodes the image at path, honouring EXIF orientation.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return img, nil
}

// Normalizer downsizes frames that exceed MaxDimension.
type Normalizer struct {
	MaxDimension int
	Presenter    Presenter
	Log          logrus.FieldLogger
}

// NewNormalizer returns a Normalizer with the given bound. A non-positive bound
// falls back to DefaultMaxDimension.
func NewNormalizer(maxDimension int) *Normalizer {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Normalizer{
		MaxDimension: maxDimension,
		Presenter:    NopPresenter{},
		Log:          logrus.StandardLogger(),
	}
}

// Ratio returns the divisor applied to both dimensions of a w x h image.
// It is computed from the larger dimension only and is 1 when the image fits.
func Ratio(w, h, maxDimension int) float64 {
	if w <= maxDimension && h <= maxDimension {
		return 1
	}
	if w > h {
		return float64(w) / float64(maxDimension)
	}
	return float64(h) / float64(maxDimension)
}

// Normalize returns a new frame no larger than MaxDimension on either side.
// The aspect ratio is preserved. Images already within bounds are copied as is.
func (n *Normalizer) Normalize(img image.Image) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	n.logger().WithField("resolution", fmt.Sprintf("%dx%d", w, h)).Debug("Image resolution")

	var out *image.NRGBA
	if ratio := Ratio(w, h, n.MaxDimension); ratio != 1 {
		nw, nh := int(float64(w)/ratio), int(float64(h)/ratio)
		// imaging treats a zero side as "keep aspect", which would undo the bound
		nw, nh = max(nw, 1), max(nh, 1)
		n.logger().WithField("size", fmt.Sprintf("%dx%d", nw, nh)).Info("Image resizing")
		out = imaging.Resize(img, nw, nh, imaging.Linear)
	} else {
		out = imaging.Clone(img)
	}

	if n.Presenter != nil {
		n.Presenter.Show("preview", out)
	}
	return out
}

// Open loads and normalizes the image at path.
func (n *Normalizer) Open(path string) (*image.NRGBA, error) {
	n.logger().WithField("image", path).Info("Image")
	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	return n.Normalize(img), nil
}

func (n *Normalizer) logger() logrus.FieldLogger {
	if n.Log == nil {
		return logrus.StandardLogger()
	}
	return n.Log
}

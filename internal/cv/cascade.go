// Package cv adapts OpenCV, through gocv, to the detection, recognition and
// preview interfaces used by the pipeline.
package cv

import (
	"image"
	"path/filepath"

	"github.com/andresmejia3/warden/internal/detect"
	"github.com/andresmejia3/warden/internal/types"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Haar cascade files shipped with OpenCV, in detection order.
const (
	FrontalFace = "haarcascade_frontalface_default.xml"
	ProfileFace = "haarcascade_profileface.xml"
	FullBody    = "haarcascade_fullbody.xml"
)

// DefaultCascades is the classifier set run on every frame.
var DefaultCascades = []string{FrontalFace, ProfileFace, FullBody}

// Cascade is an OpenCV Haar cascade classifier.
type Cascade struct {
	path       string
	classifier gocv.CascadeClassifier
}

// LoadCascade reads a cascade XML file.
func LoadCascade(path string) (*Cascade, error) {
	c := gocv.NewCascadeClassifier()
	if !c.Load(path) {
		c.Close()
		return nil, errors.Errorf("error reading cascade file: %s", path)
	}
	return &Cascade{path: path, classifier: c}, nil
}

// LoadCascades loads the default classifier set from dir, named after the file
// each one came from.
func LoadCascades(dir string) ([]detect.Named, error) {
	var out []detect.Named
	for _, name := range DefaultCascades {
		c, err := LoadCascade(filepath.Join(dir, name))
		if err != nil {
			for _, n := range out {
				n.Classifier.(*Cascade).Close()
			}
			return nil, err
		}
		out = append(out, detect.Named{Name: name, Classifier: c})
	}
	return out, nil
}

// DetectRegions runs multi-scale detection with the given pyramid step and
// neighbor count, no flags and no size limits.
func (c *Cascade) DetectRegions(img image.Image, scaleFactor float64, minNeighbors int) ([]types.Region, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert frame")
	}
	defer mat.Close()

	rects := c.classifier.DetectMultiScaleWithParams(mat, scaleFactor, minNeighbors, 0, image.Point{}, image.Point{})
	regions := make([]types.Region, 0, len(rects))
	for _, r := range rects {
		regions = append(regions, types.RegionFromRect(r))
	}
	return regions, nil
}

func (c *Cascade) Close() error {
	return c.classifier.Close()
}

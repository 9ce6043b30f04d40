// Package detect runs one or more region classifiers over a frame and merges
// their output.
package detect

import (
	"image"

	"github.com/andresmejia3/warden/internal/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultScaleFactor is the window shrink step between scan passes. Must be > 1.
	DefaultScaleFactor = 1.1
	// DefaultMinNeighbors is how many overlapping raw hits a candidate needs to be kept.
	DefaultMinNeighbors = 6
)

// Classifier is a pre-trained detection capability.
type Classifier interface {
	DetectRegions(img image.Image, scaleFactor float64, minNeighbors int) ([]types.Region, error)
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(img image.Image, scaleFactor float64, minNeighbors int) ([]types.Region, error)

func (f ClassifierFunc) DetectRegions(img image.Image, scaleFactor float64, minNeighbors int) ([]types.Region, error) {
	return f(img, scaleFactor, minNeighbors)
}

// Named attaches a display name to a classifier for logs and errors.
type Named struct {
	Name string
	Classifier
}

// Detector merges the regions of several classifiers.
type Detector struct {
	Classifiers  []Named
	ScaleFactor  float64
	MinNeighbors int
	Log          logrus.FieldLogger
}

// New returns a Detector with the default scan configuration.
func New(classifiers ...Named) *Detector {
	return &Detector{
		Classifiers:  classifiers,
		ScaleFactor:  DefaultScaleFactor,
		MinNeighbors: DefaultMinNeighbors,
		Log:          logrus.StandardLogger(),
	}
}

// Detect runs every classifier in declaration order and concatenates their
// regions. Overlapping regions from different classifiers are all kept.
// Regions are clipped to the frame; regions left empty are dropped.
func (d *Detector) Detect(img image.Image) ([]types.Region, error) {
	if d.ScaleFactor <= 1 {
		return nil, errors.Errorf("scale factor must be > 1, got %v", d.ScaleFactor)
	}
	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.Debug("Searching items in image")

	bounds := img.Bounds()
	all := []types.Region{}
	for _, c := range d.Classifiers {
		found, err := c.DetectRegions(img, d.ScaleFactor, d.MinNeighbors)
		if err != nil {
			return nil, errors.Wrapf(err, "classifier %s", c.Name)
		}
		kept := 0
		for _, r := range found {
			clipped, ok := clip(r, bounds)
			if !ok {
				continue
			}
			all = append(all, clipped)
			kept++
		}
		log.WithFields(logrus.Fields{"classifier": c.Name, "items": kept}).Info("Classifier finished")
	}

	log.WithFields(logrus.Fields{"count": len(all), "regions": all}).Info("Items found")
	return all, nil
}

// clip restricts r to the frame, expressed in frame-relative coordinates.
func clip(r types.Region, bounds image.Rectangle) (types.Region, bool) {
	frame := image.Rect(0, 0, bounds.Dx(), bounds.Dy())
	c := types.RegionFromRect(r.Rect().Intersect(frame))
	if c.Empty() {
		return types.Region{}, false
	}
	return c, true
}

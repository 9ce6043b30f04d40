// Package dlib detects frontal faces with dlib through go-face.
package dlib

import (
	"bytes"
	"image"

	"github.com/Kagami/go-face"
	"github.com/andresmejia3/warden/internal/types"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Classifier runs dlib's HOG detector, or its CNN detector when CNN is set.
// dlib has no pyramid step or neighbor count, so those parameters are ignored.
type Classifier struct {
	CNN bool

	rec *face.Recognizer
}

// New loads the dlib models from modelsDir.
func New(modelsDir string) (*Classifier, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load dlib models from %s", modelsDir)
	}
	return &Classifier{rec: rec}, nil
}

func (c *Classifier) DetectRegions(img image.Image, _ float64, _ int) ([]types.Region, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		return nil, errors.Wrap(err, "failed to encode frame for dlib")
	}

	var faces []face.Face
	var err error
	if c.CNN {
		faces, err = c.rec.RecognizeCNN(buf.Bytes())
	} else {
		faces, err = c.rec.Recognize(buf.Bytes())
	}
	if err != nil {
		return nil, err
	}

	regions := make([]types.Region, 0, len(faces))
	for _, f := range faces {
		regions = append(regions, types.RegionFromRect(f.Rectangle))
	}
	return regions, nil
}

func (c *Classifier) Close() {
	c.rec.Close()
}

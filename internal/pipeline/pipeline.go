// Package pipeline wires normalization, detection, extraction, recognition and
// archiving into the per-image flows the commands run.
package pipeline

import (
	"image"
	"time"

	"github.com/andresmejia3/warden/internal/archive"
	"github.com/andresmejia3/warden/internal/detect"
	"github.com/andresmejia3/warden/internal/extract"
	"github.com/andresmejia3/warden/internal/frame"
	"github.com/andresmejia3/warden/internal/recognizer"
	"github.com/andresmejia3/warden/internal/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Pipeline holds the components shared by every image of a run. Recognizer is
// only needed by Recognize.
type Pipeline struct {
	Normalizer *frame.Normalizer
	Detector   *detect.Detector
	Recognizer *recognizer.Recognizer
	Presenter  frame.Presenter
	Log        logrus.FieldLogger

	// Format and Quality configure the archiver created for each image.
	Format  string
	Quality int
	// Now stamps the file prefix of each image. Defaults to time.Now.
	Now func() time.Time
}

// Outcome describes what one image went through.
type Outcome struct {
	Path      string
	Regions   []types.Region
	Results   []recognizer.Result
	Crops     []string
	Annotated string
}

// Matched counts the recognized regions.
func (o Outcome) Matched() int {
	n := 0
	for _, r := range o.Results {
		if r.Matched {
			n++
		}
	}
	return n
}

// Prepare detects regions in the image at path and archives every color crop
// into dir, typically an identity folder of a training set.
func (p *Pipeline) Prepare(path, dir string) (Outcome, error) {
	out := Outcome{Path: path}
	img, regions, err := p.find(path)
	if err != nil {
		return out, err
	}
	out.Regions = regions
	if len(regions) == 0 {
		return out, nil
	}

	crops := p.extract(img, regions)
	out.Crops, err = p.archiver().ArchiveCrops(crops, dir)
	return out, err
}

// Detect archives the annotated frame into dir, and every crop when regions
// were found.
func (p *Pipeline) Detect(path, dir string) (Outcome, error) {
	out := Outcome{Path: path}
	img, regions, err := p.find(path)
	if err != nil {
		return out, err
	}
	out.Regions = regions

	a := p.archiver()
	if len(regions) > 0 {
		if out.Crops, err = a.ArchiveCrops(p.extract(img, regions), dir); err != nil {
			return out, err
		}
	}
	out.Annotated, err = p.annotate(a, archive.NewCanvas(img), regions, dir)
	return out, err
}

// Recognize matches every region of the image at path against the trained
// gallery, labels the matches and archives the annotated frame into dir.
func (p *Pipeline) Recognize(path, dir string) (Outcome, error) {
	out := Outcome{Path: path}
	if p.Recognizer == nil || !p.Recognizer.Trained() {
		return out, recognizer.ErrNotTrained
	}

	img, regions, err := p.find(path)
	if err != nil {
		return out, err
	}
	out.Regions = regions

	canvas := archive.NewCanvas(img)
	faces := extract.ToGrayscale(p.extract(img, regions))
	for _, f := range faces {
		res, err := p.Recognizer.Recognize(f.Image)
		if err != nil {
			return out, errors.Wrapf(err, "region %s", f.Region)
		}
		out.Results = append(out.Results, res)
		if res.Matched {
			canvas.Label(res.Text(), f.Region.X, f.Region.Y)
		}
	}

	out.Annotated, err = p.annotate(p.archiver(), canvas, regions, dir)
	return out, err
}

func (p *Pipeline) find(path string) (image.Image, []types.Region, error) {
	img, err := p.Normalizer.Open(path)
	if err != nil {
		return nil, nil, err
	}
	regions, err := p.Detector.Detect(img)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "detection failed on %s", path)
	}
	return img, regions, nil
}

func (p *Pipeline) extract(img image.Image, regions []types.Region) []types.RegionCrop {
	p.logger().WithField("items", len(regions)).Info("Extraction of frame's items in progress...")
	crops := extract.Extract(img, regions)
	if len(crops) > 0 {
		p.presenter().Show("item", crops[len(crops)-1].Image)
	}
	return crops
}

func (p *Pipeline) annotate(a *archive.Archiver, canvas *archive.Canvas, regions []types.Region, dir string) (string, error) {
	path, err := a.ArchiveAnnotated(canvas, regions, dir)
	if err != nil {
		return "", err
	}
	p.logger().WithField("path", path).Info("Annotated file saved")
	p.presenter().Show("item", canvas.Image())
	return path, nil
}

// archiver returns a fresh archiver, so every image gets its own file prefix.
func (p *Pipeline) archiver() *archive.Archiver {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	a := archive.New(now())
	if p.Format != "" {
		a.Format = p.Format
	}
	if p.Quality > 0 {
		a.Quality = p.Quality
	}
	a.Log = p.Log
	return a
}

func (p *Pipeline) presenter() frame.Presenter {
	if p.Presenter == nil {
		return frame.NopPresenter{}
	}
	return p.Presenter
}

func (p *Pipeline) logger() logrus.FieldLogger {
	if p.Log == nil {
		return logrus.StandardLogger()
	}
	return p.Log
}

// Package backend maps configuration to the detection and recognition
// capabilities that implement it.
package backend

import (
	"path/filepath"

	"github.com/andresmejia3/warden/internal/config"
	"github.com/andresmejia3/warden/internal/cv"
	"github.com/andresmejia3/warden/internal/detect"
	"github.com/andresmejia3/warden/internal/dlib"
	"github.com/andresmejia3/warden/internal/recognizer"
	"github.com/pkg/errors"
)

// PigoCascade is the file name of the pigo frontal-face cascade inside the
// cascades folder.
const PigoCascade = "facefinder"

// Detection is the classifier set of a run plus the native resources behind it.
type Detection struct {
	Classifiers []detect.Named
	closers     []func()
}

// Close releases every classifier.
func (d *Detection) Close() {
	for _, c := range d.closers {
		c()
	}
	d.closers = nil
}

// NewDetection loads the classifiers selected by cfg.Detector from cfg.Cascades.
func NewDetection(cfg config.Config) (*Detection, error) {
	switch cfg.Detector {
	case config.DetectorOpenCV, "":
		named, err := cv.LoadCascades(cfg.Cascades)
		if err != nil {
			return nil, err
		}
		d := &Detection{Classifiers: named}
		for _, n := range named {
			c := n.Classifier.(*cv.Cascade)
			d.closers = append(d.closers, func() { c.Close() })
		}
		return d, nil

	case config.DetectorPigo:
		p, err := detect.LoadPigo(filepath.Join(cfg.Cascades, PigoCascade))
		if err != nil {
			return nil, err
		}
		return &Detection{Classifiers: []detect.Named{{Name: "pigo", Classifier: p}}}, nil

	case config.DetectorDlib, config.DetectorDlibCNN:
		c, err := dlib.New(cfg.Cascades)
		if err != nil {
			return nil, err
		}
		c.CNN = cfg.Detector == config.DetectorDlibCNN
		return &Detection{
			Classifiers: []detect.Named{{Name: cfg.Detector, Classifier: c}},
			closers:     []func(){c.Close},
		}, nil

	default:
		return nil, errors.Errorf("unknown detector variant: %s", cfg.Detector)
	}
}

// NewModel returns an untrained model for cfg.Algorithm on cfg.RecognizerBackend,
// and a function releasing it.
func NewModel(cfg config.Config) (recognizer.Model, func(), error) {
	algo, err := recognizer.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.RecognizerBackend {
	case config.BackendNative:
		if algo != recognizer.AlgorithmLBPH {
			return nil, nil, errors.Errorf("the native backend does not implement %s", algo)
		}
		return recognizer.NewLBPH(), func() {}, nil

	case config.BackendOpenCV, "":
		m, err := cv.NewModel(algo)
		if err != nil {
			return nil, nil, err
		}
		return m, func() { m.Close() }, nil

	default:
		return nil, nil, errors.Errorf("unknown recognizer backend: %s", cfg.RecognizerBackend)
	}
}

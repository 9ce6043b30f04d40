// Package recognizer matches face crops against a trained gallery.
package recognizer

import (
	"fmt"
	"image"
	"strings"

	"github.com/andresmejia3/warden/internal/gallery"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultThreshold is the largest distance, exclusive, accepted as a match.
const DefaultThreshold = 70

// Algorithm selects the statistical model used for matching.
type Algorithm string

const (
	AlgorithmLBPH   Algorithm = "lbph"
	AlgorithmFisher Algorithm = "fisher"
	AlgorithmEigen  Algorithm = "eigen"
)

// Algorithms lists every supported algorithm.
var Algorithms = []Algorithm{AlgorithmLBPH, AlgorithmFisher, AlgorithmEigen}

// ParseAlgorithm maps a name to an Algorithm. The empty string means LBPH.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return AlgorithmLBPH, nil
	case AlgorithmLBPH, AlgorithmFisher, AlgorithmEigen:
		return a, nil
	default:
		return "", errors.Errorf("unknown recognition algorithm: %s", s)
	}
}

var (
	// ErrNotTrained is returned by Recognize before Train has succeeded.
	ErrNotTrained = errors.New("recognizer is not trained")
	// ErrAlreadyTrained is returned by a second call to Train.
	ErrAlreadyTrained = errors.New("recognizer is already trained")
)

// FitError reports that the model could not be fitted to the gallery.
type FitError struct {
	Algorithm Algorithm
	Err       error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("failed to train %s model: %v", e.Algorithm, e.Err)
}

func (e *FitError) Unwrap() error { return e.Err }

// Model is a statistical face model. Predict returns the label of the closest
// training sample and a distance where lower means closer.
type Model interface {
	Train(samples []*image.Gray, labels []int) error
	Predict(sample *image.Gray) (label int, distance float64, err error)
}

// Result is the outcome of matching one face.
type Result struct {
	Matched    bool
	Label      string
	Confidence float64
	// Index is the nearest gallery identity, matched or not.
	Index int
}

// Text is the annotation drawn next to a matched face.
func (r Result) Text() string {
	return fmt.Sprintf("%s %d", r.Label, int(r.Confidence))
}

// UnknownLabel is the label reported when the nearest identity is too far away.
func UnknownLabel(nearest string) string {
	return fmt.Sprintf("N/A (%s)", nearest)
}

// Recognizer wraps a Model with the gallery labels and the acceptance policy.
// Once Train returns it is read-only and may be shared between goroutines.
type Recognizer struct {
	Algorithm Algorithm
	Threshold float64
	FaceSize  int
	Log       logrus.FieldLogger

	model      Model
	identities []string
	trained    bool
}

// New returns an untrained recognizer around model.
func New(model Model, algorithm Algorithm) *Recognizer {
	return &Recognizer{
		Algorithm: algorithm,
		Threshold: DefaultThreshold,
		FaceSize:  gallery.DefaultFaceSize,
		Log:       logrus.StandardLogger(),
		model:     model,
	}
}

// Trained reports whether Train has succeeded.
func (r *Recognizer) Trained() bool { return r.trained }

// Identities returns the labels the recognizer was trained with.
func (r *Recognizer) Identities() []string { return r.identities }

// Train fits the model against the gallery. It may only succeed once.
func (r *Recognizer) Train(g *gallery.Gallery) (err error) {
	if r.trained {
		return ErrAlreadyTrained
	}
	if g == nil || len(g.Samples) == 0 {
		return &FitError{Algorithm: r.Algorithm, Err: gallery.ErrEmptyGallery}
	}
	if r.Algorithm == AlgorithmFisher {
		if n := distinct(g.Labels()); n < 2 {
			return &FitError{Algorithm: r.Algorithm, Err: errors.Errorf("needs at least 2 identities, got %d", n)}
		}
	}

	r.logger().WithFields(logrus.Fields{
		"algorithm": r.Algorithm,
		"samples":   len(g.Samples),
	}).Info("Trainset processing...")

	// some model implementations panic on degenerate input instead of returning an error
	defer func() {
		if p := recover(); p != nil {
			err = &FitError{Algorithm: r.Algorithm, Err: errors.Errorf("%v", p)}
		}
	}()
	if err := r.model.Train(g.Images(), g.Labels()); err != nil {
		return &FitError{Algorithm: r.Algorithm, Err: err}
	}

	r.identities = append([]string(nil), g.Identities...)
	r.trained = true
	return nil
}

// Recognize resizes img to the canonical face size, finds the nearest identity
// and accepts it when the distance is strictly below Threshold.
func (r *Recognizer) Recognize(img image.Image) (Result, error) {
	if !r.trained {
		return Result{}, ErrNotTrained
	}

	sample := gallery.Normalize(img, r.FaceSize)
	idx, distance, err := r.model.Predict(sample)
	if err != nil {
		return Result{}, errors.Wrap(err, "prediction failed")
	}
	if idx < 0 || idx >= len(r.identities) {
		return Result{}, errors.Errorf("model returned unknown label %d", idx)
	}

	nearest := r.identities[idx]
	res := Result{Index: idx, Confidence: distance}
	if distance < r.Threshold {
		res.Matched = true
		res.Label = nearest
	} else {
		res.Label = UnknownLabel(nearest)
	}

	r.logger().WithFields(logrus.Fields{
		"identity":   nearest,
		"confidence": distance,
		"matched":    res.Matched,
	}).Debug("Face recognized")
	return res, nil
}

func (r *Recognizer) logger() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}

func distinct(labels []int) int {
	seen := map[int]struct{}{}
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	return len(seen)
}

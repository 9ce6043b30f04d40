package cv

import (
	"image"

	"github.com/andresmejia3/warden/internal/recognizer"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"
)

// faceRecognizer is the part of the contrib recognizers the pipeline uses.
type faceRecognizer interface {
	Train(images []gocv.Mat, labels []int) error
	PredictExtendedResponse(sample gocv.Mat) contrib.PredictResponse
}

// Model is an OpenCV contrib face recognizer.
type Model struct {
	algorithm recognizer.Algorithm
	fr        faceRecognizer
}

// NewModel returns an untrained OpenCV model for algorithm.
func NewModel(algorithm recognizer.Algorithm) (*Model, error) {
	var fr faceRecognizer
	switch algorithm {
	case recognizer.AlgorithmLBPH:
		fr = contrib.NewLBPHFaceRecognizer()
	case recognizer.AlgorithmFisher:
		fr = contrib.NewFisherFaceRecognizer()
	case recognizer.AlgorithmEigen:
		fr = contrib.NewEigenFaceRecognizer()
	default:
		return nil, errors.Errorf("unknown recognition algorithm: %s", algorithm)
	}
	return &Model{algorithm: algorithm, fr: fr}, nil
}

func (m *Model) Train(samples []*image.Gray, labels []int) error {
	mats := make([]gocv.Mat, 0, len(samples))
	defer func() {
		for _, mat := range mats {
			mat.Close()
		}
	}()

	for i, s := range samples {
		mat, err := gocv.ImageGrayToMatGray(s)
		if err != nil {
			return errors.Wrapf(err, "sample %d", i)
		}
		mats = append(mats, mat)
	}
	return errors.Wrap(m.fr.Train(mats, labels), "opencv train")
}

func (m *Model) Predict(sample *image.Gray) (int, float64, error) {
	mat, err := gocv.ImageGrayToMatGray(sample)
	if err != nil {
		return -1, 0, errors.Wrap(err, "failed to convert face")
	}
	defer mat.Close()

	res := m.fr.PredictExtendedResponse(mat)
	return int(res.Label), float64(res.Confidence), nil
}

func (m *Model) Close() error {
	if c, ok := m.fr.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

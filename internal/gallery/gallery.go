// Package gallery loads a labeled training set laid out as one folder per identity.
package gallery

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/andresmejia3/warden/internal/extract"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultFaceSize is the canonical width and height of every face sample.
const DefaultFaceSize = 170

// ErrEmptyGallery is returned when a training set yields no usable samples.
var ErrEmptyGallery = errors.New("gallery contains no samples")

// Sample is one normalized grayscale face and the index of its identity.
type Sample struct {
	Path  string
	Image *image.Gray
	Index int
}

// Gallery is the ordered sample list plus the identity labels, indexed from 0
// in sorted folder-name order. It must not be modified after Load returns.
type Gallery struct {
	Samples    []Sample
	Identities []string
}

// Labels returns the identity index of every sample, in sample order.
func (g *Gallery) Labels() []int {
	labels := make([]int, len(g.Samples))
	for i, s := range g.Samples {
		labels[i] = s.Index
	}
	return labels
}

// Images returns the pixel data of every sample, in sample order.
func (g *Gallery) Images() []*image.Gray {
	imgs := make([]*image.Gray, len(g.Samples))
	for i, s := range g.Samples {
		imgs[i] = s.Image
	}
	return imgs
}

// Identity returns the label for index, or "" when it is out of range.
func (g *Gallery) Identity(index int) string {
	if index < 0 || index >= len(g.Identities) {
		return ""
	}
	return g.Identities[index]
}

// Counts returns the number of samples loaded for each identity index.
func (g *Gallery) Counts() []int {
	counts := make([]int, len(g.Identities))
	for _, s := range g.Samples {
		counts[s.Index]++
	}
	return counts
}

// SampleIOError reports a training file that could not be opened or read.
// Load logs it and skips the file.
type SampleIOError struct {
	Path string
	Err  error
}

func (e *SampleIOError) Error() string {
	return fmt.Sprintf("I/O error on sample %s: %v", e.Path, e.Err)
}

func (e *SampleIOError) Unwrap() error { return e.Err }

// UnexpectedDecodeError reports a training file that was read but could not be
// decoded. It aborts Load.
type UnexpectedDecodeError struct {
	Path string
	Err  error
}

func (e *UnexpectedDecodeError) Error() string {
	return fmt.Sprintf("unexpected error decoding sample %s: %v", e.Path, e.Err)
}

func (e *UnexpectedDecodeError) Unwrap() error { return e.Err }

// Loader reads training sets from disk.
type Loader struct {
	FaceSize int
	Log      logrus.FieldLogger
}

// Load reads the training set under root with the default loader settings.
func Load(root string, faceSize int) (*Gallery, error) {
	return (&Loader{FaceSize: faceSize}).Load(root)
}

// Load walks the immediate subdirectories of root. Each subdirectory is one
// identity; every regular file in it becomes a sample resized to FaceSize.
func (l *Loader) Load(root string) (*Gallery, error) {
	log := l.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	size := l.FaceSize
	if size <= 0 {
		size = DefaultFaceSize
	}
	log.WithField("trainset", root).Info("Trainset loading...")

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read trainset %s", root)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	g := &Gallery{Identities: names}
	for idx, name := range names {
		log.WithField("identity", name).Info("Loading identity")
		dir := filepath.Join(root, name)

		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read identity folder %s", dir)
		}
		sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

		for _, f := range files {
			path := filepath.Join(dir, f.Name())
			if f.IsDir() {
				log.WithField("path", path).Debug("Skipping nested folder")
				continue
			}

			img, err := readSample(path, size)
			if err != nil {
				var ioErr *SampleIOError
				if errors.As(err, &ioErr) {
					log.WithError(ioErr.Err).WithField("path", path).Warn("I/O error, sample skipped")
					continue
				}
				return nil, err
			}
			g.Samples = append(g.Samples, Sample{Path: path, Image: img, Index: idx})
		}
	}

	if len(g.Samples) == 0 {
		return nil, errors.Wrapf(ErrEmptyGallery, "trainset %s", root)
	}
	log.WithFields(logrus.Fields{
		"identities": len(g.Identities),
		"samples":    len(g.Samples),
	}).Info("Trainset loaded")
	return g, nil
}

// readSample separates read failures from decode failures: the first are
// recoverable, the second are not.
func readSample(path string, size int) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &SampleIOError{Path: path, Err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &SampleIOError{Path: path, Err: err}
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &UnexpectedDecodeError{Path: path, Err: err}
	}
	return Normalize(img, size), nil
}

// Normalize converts img to grayscale at the canonical size x size.
func Normalize(img image.Image, size int) *image.Gray {
	gray := extract.Gray(img)
	if gray.Bounds().Dx() == size && gray.Bounds().Dy() == size {
		return gray
	}
	return extract.Gray(imaging.Resize(gray, size, size, imaging.Linear))
}

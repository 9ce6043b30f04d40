package pipeline

import (
	"context"

	"github.com/andresmejia3/warden/internal/recognizer"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Step runs one image through a flow.
type Step func(path string) (Outcome, error)

// Progress is advanced once per image. *progressbar.ProgressBar satisfies it.
type Progress interface {
	Add(n int) error
}

// Failure is an image that could not be processed.
type Failure struct {
	Path string
	Err  error
}

// Report summarizes a batch.
type Report struct {
	Processed int
	Failed    int
	Regions   int
	Matched   int
	Failures  []Failure
	Outcomes  []Outcome
}

// Batch runs step over paths in order. Per-image errors are recorded and the
// batch continues. It stops early on cancellation, or when the recognizer
// reports it is not trained, returning the partial report with the error.
func Batch(ctx context.Context, paths []string, step Step, progress Progress, log logrus.FieldLogger) (*Report, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	report := &Report{}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		out, err := step(path)
		if progress != nil {
			if perr := progress.Add(1); perr != nil {
				log.WithError(perr).Debug("Cannot advance progress")
			}
		}
		if err != nil {
			if errors.Is(err, recognizer.ErrNotTrained) {
				return report, err
			}
			log.WithError(err).WithField("image", path).Warn("Image skipped")
			report.Failed++
			report.Failures = append(report.Failures, Failure{Path: path, Err: err})
			continue
		}

		report.Processed++
		report.Regions += len(out.Regions)
		report.Matched += out.Matched()
		report.Outcomes = append(report.Outcomes, out)
	}
	return report, nil
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/andresmejia3/warden/internal/backend"
	"github.com/andresmejia3/warden/internal/config"
	"github.com/andresmejia3/warden/internal/cv"
	"github.com/andresmejia3/warden/internal/detect"
	"github.com/andresmejia3/warden/internal/frame"
	"github.com/andresmejia3/warden/internal/gallery"
	"github.com/andresmejia3/warden/internal/pipeline"
	"github.com/andresmejia3/warden/internal/recognizer"
	"github.com/andresmejia3/warden/internal/utils"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
)

// newPipeline loads the detection backend selected by cfg. The returned
// function releases the native resources behind it.
func newPipeline(cfg config.Config) (*pipeline.Pipeline, func(), error) {
	det, err := backend.NewDetection(cfg)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load classifiers")
	}
	fmt.Fprintf(os.Stderr, "⚙️  Loaded %d %s classifier(s)\n", len(det.Classifiers), cfg.Detector)

	var presenter frame.Presenter = frame.NopPresenter{}
	var window *cv.Window
	if cfg.Debug {
		window = cv.NewWindow("warden")
		presenter = window
	}

	n := frame.NewNormalizer(cfg.MaxDimension)
	n.Presenter = presenter

	d := detect.New(det.Classifiers...)
	d.ScaleFactor = cfg.ScaleFactor
	d.MinNeighbors = cfg.MinNeighbors

	p := &pipeline.Pipeline{
		Normalizer: n,
		Detector:   d,
		Presenter:  presenter,
		Format:     cfg.Format,
		Quality:    cfg.Quality,
	}
	cleanup := func() {
		det.Close()
		if window != nil {
			window.Close()
		}
	}
	return p, cleanup, nil
}

// newRecognizer loads the gallery under trainset and trains a model on it.
func newRecognizer(cfg config.Config, trainset string) (*recognizer.Recognizer, func(), error) {
	g, err := (&gallery.Loader{FaceSize: cfg.FaceSize}).Load(trainset)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load trainset")
	}
	fmt.Fprintf(os.Stderr, "🗂️  Trainset: %d identities, %d samples\n", len(g.Identities), len(g.Samples))

	model, release, err := backend.NewModel(cfg)
	if err != nil {
		return nil, nil, err
	}

	algo, _ := recognizer.ParseAlgorithm(cfg.Algorithm)
	r := recognizer.New(model, algo)
	r.Threshold = cfg.Threshold
	r.FaceSize = cfg.FaceSize
	if err := r.Train(g); err != nil {
		release()
		return nil, nil, err
	}
	fmt.Fprintf(os.Stderr, "🧠 %s model trained (threshold %.1f)\n", algo, cfg.Threshold)
	return r, release, nil
}

// runBatch lists dir and runs step over every file behind a progress bar.
func runBatch(ctx context.Context, description, dir string, step pipeline.Step) (*pipeline.Report, error) {
	paths, err := utils.ListFiles(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list input folder")
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("no images found in %s", dir)
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr), // Write bar to Stderr
		progressbar.OptionShowCount(),
	)
	report, err := pipeline.Batch(ctx, paths, step, bar, nil)
	bar.Finish()
	return report, err
}

// printReport writes the end-of-batch summary.
func printReport(w io.Writer, title string, report *pipeline.Report, recognition bool) {
	fmt.Fprintf(w, "\n---------------------------------------------------------\n")
	fmt.Fprintf(w, "📊 %s\n", title)
	fmt.Fprintf(w, "---------------------------------------------------------\n")
	fmt.Fprintf(w, "🖼️  Images processed: %d\n", report.Processed)
	fmt.Fprintf(w, "⚠️  Images failed:    %d\n", report.Failed)
	fmt.Fprintf(w, "👁️  Regions found:    %d\n", report.Regions)
	if recognition {
		fmt.Fprintf(w, "👤 Faces matched:    %d\n", report.Matched)
	}
	for _, f := range report.Failures {
		fmt.Fprintf(w, "   %s: %v\n", f.Path, f.Err)
	}
	fmt.Fprintf(w, "---------------------------------------------------------\n")
}

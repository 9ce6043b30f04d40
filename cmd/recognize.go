package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/andresmejia3/warden/internal/config"
	"github.com/andresmejia3/warden/internal/pipeline"
	"github.com/andresmejia3/warden/internal/utils"
	"github.com/spf13/cobra"
)

var recognizeOpts Options

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Label the known faces of a folder of photos",
	Long: `Trains a model on --trainset (one sub-folder per identity), then detects and
matches every face of every image in --input. Each image is written to
--archive with its regions outlined and its matches labeled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateRecognizeFlags(&recognizeOpts); err != nil {
			return err
		}
		cfg, err := loadConfig(cmd, &recognizeOpts)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		return runRecognize(cmd.Context(), cfg, recognizeOpts)
	},
}

func init() {
	recognizeCmd.Flags().StringVarP(&recognizeOpts.InputPath, "input", "i", "", "Folder of photos to process")
	recognizeCmd.Flags().StringVarP(&recognizeOpts.TrainsetPath, "trainset", "s", "", "Training set, one sub-folder per identity")
	recognizeCmd.Flags().StringVarP(&recognizeOpts.ArchivePath, "archive", "o", "", "Folder annotated images are written to")
	addRecognitionFlags(recognizeCmd, &recognizeOpts)

	recognizeCmd.MarkFlagRequired("input")
	recognizeCmd.MarkFlagRequired("trainset")
	recognizeCmd.MarkFlagRequired("archive")
	rootCmd.AddCommand(recognizeCmd)
}

func validateRecognizeFlags(opts *Options) error {
	if opts.InputPath == "" || opts.TrainsetPath == "" || opts.ArchivePath == "" {
		return fmt.Errorf("--input, --trainset and --archive are required")
	}
	if opts.InputPath == opts.ArchivePath {
		return fmt.Errorf("--archive must differ from --input")
	}
	if err := utils.EnsureDir(opts.ArchivePath); err != nil {
		return fmt.Errorf("cannot create archive folder: %w", err)
	}
	return nil
}

func runRecognize(ctx context.Context, cfg config.Config, opts Options) error {
	// Gallery and training failures are fatal, so they run before any image.
	r, release, err := newRecognizer(cfg, opts.TrainsetPath)
	if err != nil {
		return err
	}
	defer release()

	p, cleanup, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	p.Recognizer = r

	report, err := runBatch(ctx, "🔍 Recognizing", opts.InputPath, func(path string) (pipeline.Outcome, error) {
		return p.Recognize(path, opts.ArchivePath)
	})
	if report != nil {
		printReport(os.Stderr, "RECOGNITION SUMMARY", report, true)
	}
	return err
}

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

var prepareOpts Options

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Crop every detected region of a folder of photos into a trainset folder",
	Long: `Runs detection over every image of --input and writes each detected region as
{prefix}_item_{n} into --trainset. Sort the crops into one sub-folder per
identity afterwards to build a training set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validatePrepareFlags(&prepareOpts); err != nil {
			return err
		}
		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		return runPrepare(cmd.Context(), cfg, prepareOpts)
	},
}

func init() {
	prepareCmd.Flags().StringVarP(&prepareOpts.InputPath, "input", "i", "", "Folder of photos to crop")
	prepareCmd.Flags().StringVarP(&prepareOpts.TrainsetPath, "trainset", "s", "", "Folder the crops are written to")

	prepareCmd.MarkFlagRequired("input")
	prepareCmd.MarkFlagRequired("trainset")
	rootCmd.AddCommand(prepareCmd)
}

func validatePrepareFlags(opts *Options) error {
	if opts.InputPath == "" || opts.TrainsetPath == "" {
		return fmt.Errorf("both --input and --trainset are required")
	}
	if err := utils.EnsureDir(opts.TrainsetPath); err != nil {
		return fmt.Errorf("cannot create trainset folder: %w", err)
	}
	return nil
}

func runPrepare(ctx context.Context, cfg config.Config, opts Options) error {
	p, cleanup, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	crops := 0
	report, err := runBatch(ctx, "✂️  Cropping", opts.InputPath, func(path string) (pipeline.Outcome, error) {
		out, err := p.Prepare(path, opts.TrainsetPath)
		crops += len(out.Crops)
		return out, err
	})
	if report != nil {
		printReport(os.Stderr, "PREPARE SUMMARY", report, false)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "🏁 %d crops written to %s\n", crops, opts.TrainsetPath)
	return nil
}

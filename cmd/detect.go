package cmd

import (
	"fmt"
	"os"

	"github.com/andresmejia3/warden/internal/config"
	"github.com/andresmejia3/warden/internal/utils"
	"github.com/spf13/cobra"
)

var detectOpts Options

var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Detect regions in one image and archive the crops and the annotated image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		detectOpts.InputPath = args[0]
		if err := utils.EnsureDir(detectOpts.ArchivePath); err != nil {
			return fmt.Errorf("cannot create archive folder: %w", err)
		}
		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		return runDetect(cfg, detectOpts)
	},
}

func init() {
	detectCmd.Flags().StringVarP(&detectOpts.ArchivePath, "archive", "o", "", "Folder the output is written to")

	detectCmd.MarkFlagRequired("archive")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cfg config.Config, opts Options) error {
	p, cleanup, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := p.Detect(opts.InputPath, opts.ArchivePath)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "👁️  %d regions found in %s\n", len(out.Regions), opts.InputPath)
	for i, r := range out.Regions {
		fmt.Fprintf(os.Stderr, "   #%d %s -> %s\n", i, r, out.Crops[i])
	}
	fmt.Fprintf(os.Stderr, "🏁 Annotated image saved to %s\n", out.Annotated)
	return nil
}

package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/andresmejia3/warden/internal/config"
	"github.com/andresmejia3/warden/internal/gallery"
	"github.com/spf13/cobra"
)

var galleryOpts Options

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "List the identities of a training set and their sample counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, &galleryOpts)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		return runGallery(os.Stdout, cfg, galleryOpts.TrainsetPath)
	},
}

func init() {
	galleryCmd.Flags().StringVarP(&galleryOpts.TrainsetPath, "trainset", "s", "", "Training set, one sub-folder per identity")
	galleryCmd.Flags().IntVar(&galleryOpts.FaceSize, "face-size", config.Default().FaceSize, "Width and height samples are resized to")

	galleryCmd.MarkFlagRequired("trainset")
	rootCmd.AddCommand(galleryCmd)
}

func runGallery(w io.Writer, cfg config.Config, trainset string) error {
	g, err := (&gallery.Loader{FaceSize: cfg.FaceSize}).Load(trainset)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tIDENTITY\tSAMPLES")
	fmt.Fprintln(tw, "-----\t--------\t-------")

	counts := g.Counts()
	for i, name := range g.Identities {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", i, name, counts[i])
	}
	return tw.Flush()
}

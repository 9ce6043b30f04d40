package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/andresmejia3/warden/internal/config"
	"github.com/andresmejia3/warden/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Options holds the flag values of every command. Persistent flags land in
// rootOpts, command flags in the command's own Options value.
type Options struct {
	ConfigPath   string
	Debug        bool
	LogLevel     string
	MaxDimension int
	ScaleFactor  float64
	MinNeighbors int
	Detector     string
	Cascades     string
	Format       string

	InputPath    string
	TrainsetPath string
	ArchivePath  string

	Algorithm         string
	RecognizerBackend string
	Threshold         float64
	FaceSize          int
}

var rootOpts Options

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "warden",
	Short:         "Face detection & recognition over folders of photos",
	Version:       Version, // This enables the --version flag
	SilenceErrors: true,
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		utils.Die("Command failed", err)
	}
}

func init() {
	defaults := config.Default()
	f := rootCmd.PersistentFlags()
	f.StringVarP(&rootOpts.ConfigPath, "config", "c", "", "YAML config file (default: $"+config.EnvConfig+" or ./"+config.LocalConfig+")")
	f.BoolVarP(&rootOpts.Debug, "debug", "d", false, "Show every intermediate image in a preview window and log at debug level")
	f.StringVar(&rootOpts.LogLevel, "log-level", defaults.LogLevel, "Log level (trace, debug, info, warn, error)")
	f.IntVar(&rootOpts.MaxDimension, "max-dimension", defaults.MaxDimension, "Frames larger than this on either side are downscaled")
	f.Float64Var(&rootOpts.ScaleFactor, "scale-factor", defaults.ScaleFactor, "Detection pyramid step (must be > 1)")
	f.IntVar(&rootOpts.MinNeighbors, "min-neighbors", defaults.MinNeighbors, "Overlapping hits a candidate needs to be kept")
	f.StringVar(&rootOpts.Detector, "detector", defaults.Detector, "Detection backend (opencv, pigo, dlib, dlib-cnn)")
	f.StringVar(&rootOpts.Cascades, "cascades", defaults.Cascades, "Folder holding the classifier models of the detection backend")
	f.StringVar(&rootOpts.Format, "format", defaults.Format, "Archive image format (jpg, png)")
}

// addRecognitionFlags binds the recognizer tunables to opts.
func addRecognitionFlags(cmd *cobra.Command, opts *Options) {
	defaults := config.Default()
	cmd.Flags().StringVarP(&opts.Algorithm, "algorithm", "a", defaults.Algorithm, "Recognition algorithm (lbph, fisher, eigen)")
	cmd.Flags().StringVar(&opts.RecognizerBackend, "recognizer-backend", defaults.RecognizerBackend, "Recognition backend (opencv, native)")
	cmd.Flags().Float64VarP(&opts.Threshold, "threshold", "t", defaults.Threshold, "Largest distance accepted as a match (lower is stricter)")
	cmd.Flags().IntVar(&opts.FaceSize, "face-size", defaults.FaceSize, "Width and height faces are resized to before matching")
}

// loadConfig resolves defaults, the config file and explicitly set flags, in
// that order, validates the result and configures logging from it.
func loadConfig(cmd *cobra.Command, local *Options) (config.Config, error) {
	cfg, err := config.Load(config.Locate(rootOpts.ConfigPath))
	if err != nil {
		return cfg, err
	}
	applyOverrides(&cfg, cmd.Flags().Changed, &rootOpts, local)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetLevel(cfg.Level())
	return cfg, nil
}

// applyOverrides copies every flag the user set onto cfg.
func applyOverrides(cfg *config.Config, changed func(name string) bool, global, local *Options) {
	if changed("debug") {
		cfg.Debug = global.Debug
	}
	if changed("log-level") {
		cfg.LogLevel = global.LogLevel
	}
	if changed("max-dimension") {
		cfg.MaxDimension = global.MaxDimension
	}
	if changed("scale-factor") {
		cfg.ScaleFactor = global.ScaleFactor
	}
	if changed("min-neighbors") {
		cfg.MinNeighbors = global.MinNeighbors
	}
	if changed("detector") {
		cfg.Detector = global.Detector
	}
	if changed("cascades") {
		cfg.Cascades = global.Cascades
	}
	if changed("format") {
		cfg.Format = global.Format
	}

	if local == nil {
		return
	}
	if changed("algorithm") {
		cfg.Algorithm = local.Algorithm
	}
	if changed("recognizer-backend") {
		cfg.RecognizerBackend = local.RecognizerBackend
	}
	if changed("threshold") {
		cfg.Threshold = local.Threshold
	}
	if changed("face-size") {
		cfg.FaceSize = local.FaceSize
	}
}

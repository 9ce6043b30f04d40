// Package config holds the tunables shared by every warden command and
// resolves them from defaults, a YAML file and command-line flags.
package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/andresmejia3/warden/internal/archive"
	"github.com/andresmejia3/warden/internal/detect"
	"github.com/andresmejia3/warden/internal/frame"
	"github.com/andresmejia3/warden/internal/gallery"
	"github.com/andresmejia3/warden/internal/recognizer"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Detection backends.
const (
	DetectorOpenCV  = "opencv"
	DetectorPigo    = "pigo"
	DetectorDlib    = "dlib"
	DetectorDlibCNN = "dlib-cnn"
)

// Recognition backends.
const (
	BackendOpenCV = "opencv"
	BackendNative = "native"
)

const (
	// EnvConfig names the environment variable consulted when --config is not set.
	EnvConfig = "WARDEN_CONFIG"
	// LocalConfig is picked up from the working directory when present.
	LocalConfig = "warden.yaml"
	// DefaultCascades is where distribution packages install the OpenCV Haar cascades.
	DefaultCascades = "/usr/share/opencv4/haarcascades"
)

// Config is every tunable of a pipeline run.
type Config struct {
	MaxDimension int     `yaml:"max_dimension"`
	ScaleFactor  float64 `yaml:"scale_factor"`
	MinNeighbors int     `yaml:"min_neighbors"`
	Detector     string  `yaml:"detector"`
	Cascades     string  `yaml:"cascades"`

	Algorithm         string  `yaml:"algorithm"`
	RecognizerBackend string  `yaml:"recognizer_backend"`
	Threshold         float64 `yaml:"threshold"`
	FaceSize          int     `yaml:"face_size"`

	Format  string `yaml:"format"`
	Quality int    `yaml:"quality"`

	LogLevel string `yaml:"log_level"`
	Debug    bool   `yaml:"debug"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MaxDimension:      frame.DefaultMaxDimension,
		ScaleFactor:       detect.DefaultScaleFactor,
		MinNeighbors:      detect.DefaultMinNeighbors,
		Detector:          DetectorOpenCV,
		Cascades:          DefaultCascades,
		Algorithm:         string(recognizer.AlgorithmLBPH),
		RecognizerBackend: BackendOpenCV,
		Threshold:         recognizer.DefaultThreshold,
		FaceSize:          gallery.DefaultFaceSize,
		Format:            archive.DefaultFormat,
		Quality:           archive.DefaultQuality,
		LogLevel:          logrus.InfoLevel.String(),
	}
}

// Locate returns the config file to read: explicit if set, then $WARDEN_CONFIG,
// then ./warden.yaml when it exists. The empty string means none.
func Locate(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env
	}
	if _, err := os.Stat(LocalConfig); err == nil {
		return LocalConfig
	}
	return ""
}

// Load reads path over the defaults. An empty path yields Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := Decode(bytes.NewReader(data), &cfg); err != nil {
		return cfg, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Decode overlays the YAML document in r onto cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// Validate rejects values no component can work with and canonicalizes names.
func (c *Config) Validate() error {
	if c.ScaleFactor <= 1 {
		return errors.Errorf("scale factor must be greater than 1, got %v", c.ScaleFactor)
	}
	if c.MinNeighbors < 0 {
		return errors.Errorf("min neighbors cannot be negative, got %d", c.MinNeighbors)
	}
	if c.MaxDimension < 1 {
		return errors.Errorf("max dimension must be at least 1, got %d", c.MaxDimension)
	}
	if c.FaceSize < 1 {
		return errors.Errorf("face size must be at least 1, got %d", c.FaceSize)
	}
	if c.Threshold <= 0 {
		return errors.Errorf("threshold must be positive, got %v", c.Threshold)
	}

	c.Detector = strings.ToLower(strings.TrimSpace(c.Detector))
	switch c.Detector {
	case DetectorOpenCV, DetectorPigo, DetectorDlib, DetectorDlibCNN:
	default:
		return errors.Errorf("unknown detector: %s", c.Detector)
	}

	c.RecognizerBackend = strings.ToLower(strings.TrimSpace(c.RecognizerBackend))
	switch c.RecognizerBackend {
	case BackendOpenCV, BackendNative:
	default:
		return errors.Errorf("unknown recognizer backend: %s", c.RecognizerBackend)
	}

	algo, err := recognizer.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return err
	}
	if c.RecognizerBackend == BackendNative && algo != recognizer.AlgorithmLBPH {
		return errors.Errorf("the native backend only implements %s, got %s", recognizer.AlgorithmLBPH, algo)
	}
	c.Algorithm = string(algo)

	format, err := archive.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	c.Format = format

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	return nil
}

// Level is the logrus level to run at. Debug forces debug output.
func (c *Config) Level() logrus.Level {
	if c.Debug {
		return logrus.DebugLevel
	}
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

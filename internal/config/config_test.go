package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 800, cfg.MaxDimension)
	assert.Equal(t, 1.1, cfg.ScaleFactor)
	assert.Equal(t, 6, cfg.MinNeighbors)
	assert.Equal(t, 70.0, cfg.Threshold)
	assert.Equal(t, 170, cfg.FaceSize)
	assert.Equal(t, "jpg", cfg.Format)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"Defaults", func(c *Config) {}, false},
		{"Scale factor of one", func(c *Config) { c.ScaleFactor = 1 }, true},
		{"Negative neighbors", func(c *Config) { c.MinNeighbors = -1 }, true},
		{"Zero neighbors", func(c *Config) { c.MinNeighbors = 0 }, false},
		{"Zero max dimension", func(c *Config) { c.MaxDimension = 0 }, true},
		{"Zero face size", func(c *Config) { c.FaceSize = 0 }, true},
		{"Zero threshold", func(c *Config) { c.Threshold = 0 }, true},
		{"Unknown detector", func(c *Config) { c.Detector = "yolo" }, true},
		{"Pigo detector", func(c *Config) { c.Detector = "PIGO" }, false},
		{"Dlib CNN detector", func(c *Config) { c.Detector = "dlib-cnn" }, false},
		{"Unknown backend", func(c *Config) { c.RecognizerBackend = "tf" }, true},
		{"Native eigen", func(c *Config) { c.RecognizerBackend = BackendNative; c.Algorithm = "eigen" }, true},
		{"Native lbph", func(c *Config) { c.RecognizerBackend = BackendNative }, false},
		{"Unknown algorithm", func(c *Config) { c.Algorithm = "svm" }, true},
		{"Unknown format", func(c *Config) { c.Format = "webp" }, true},
		{"Bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Canonicalizes(t *testing.T) {
	cfg := Default()
	cfg.Detector = " Pigo "
	cfg.Algorithm = "FISHER"
	cfg.Format = ".JPEG"
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DetectorPigo, cfg.Detector)
	assert.Equal(t, "fisher", cfg.Algorithm)
	assert.Equal(t, "jpg", cfg.Format)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warden.yaml")
	doc := "scale_factor: 1.25\nmin_neighbors: 3\ndetector: pigo\nformat: png\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.25, cfg.ScaleFactor)
	assert.Equal(t, 3, cfg.MinNeighbors)
	assert.Equal(t, DetectorPigo, cfg.Detector)
	assert.Equal(t, "png", cfg.Format)
	// untouched keys keep their defaults
	assert.Equal(t, 800, cfg.MaxDimension)
	assert.Equal(t, 70.0, cfg.Threshold)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("scale: 2\n"), 0644))

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(unknown)
	assert.Error(t, err, "unknown keys are rejected")
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecode(t *testing.T) {
	cfg := Default()
	require.NoError(t, Decode(strings.NewReader("debug: true\n"), &cfg))
	assert.True(t, cfg.Debug)
	assert.Equal(t, logrus.DebugLevel, cfg.Level())
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv(EnvConfig, "")
	assert.Equal(t, "", Locate(""))
	assert.Equal(t, "explicit.yaml", Locate("explicit.yaml"))

	require.NoError(t, os.WriteFile(LocalConfig, []byte("debug: true\n"), 0644))
	assert.Equal(t, LocalConfig, Locate(""))

	t.Setenv(EnvConfig, "/etc/warden.yaml")
	assert.Equal(t, "/etc/warden.yaml", Locate(""))
	assert.Equal(t, "explicit.yaml", Locate("explicit.yaml"))
}

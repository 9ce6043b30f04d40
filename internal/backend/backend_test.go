package backend

import (
	"path/filepath"
	"testing"

	"github.com/andresmejia3/warden/internal/config"
	"github.com/andresmejia3/warden/internal/recognizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDetection_Errors(t *testing.T) {
	empty := t.TempDir()

	tests := []struct {
		name     string
		detector string
	}{
		{"Unknown variant", "yolo"},
		{"Missing Haar cascades", config.DetectorOpenCV},
		{"Missing pigo cascade", config.DetectorPigo},
		{"Missing dlib models", config.DetectorDlib},
		{"Missing dlib CNN model", config.DetectorDlibCNN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Detector = tt.detector
			cfg.Cascades = filepath.Join(empty, "nothing-here")

			d, err := NewDetection(cfg)
			assert.Error(t, err)
			assert.Nil(t, d)
		})
	}
}

func TestNewModel(t *testing.T) {
	tests := []struct {
		name      string
		backend   string
		algorithm string
		wantErr   bool
	}{
		{"Native LBPH", config.BackendNative, "lbph", false},
		{"Native Fisher", config.BackendNative, "fisher", true},
		{"Unknown backend", "tensorflow", "lbph", true},
		{"Unknown algorithm", config.BackendOpenCV, "svm", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.RecognizerBackend = tt.backend
			cfg.Algorithm = tt.algorithm

			m, release, err := NewModel(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewModel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer release()
			_, ok := m.(*recognizer.LBPH)
			require.True(t, ok, "native backend should yield the pure-Go LBPH model, got %T", m)
		})
	}
}

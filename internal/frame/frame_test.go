package frame

import (
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	return img
}

type recordingPresenter struct {
	titles []string
}

func (r *recordingPresenter) Show(title string, _ image.Image) {
	r.titles = append(r.titles, title)
}

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		want float64
	}{
		{"Within bounds", 640, 480, 1},
		{"Exactly at bound", 800, 800, 1},
		{"Landscape", 1600, 1200, 2},
		{"Portrait", 1000, 3000, 3.75},
		{"Only height too large", 300, 1600, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ratio(tt.w, tt.h, 800); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Ratio(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
			}
		})
	}
}

func TestNormalize_NoOpWithinBounds(t *testing.T) {
	src := solid(320, 200)
	n := NewNormalizer(800)

	out := n.Normalize(src)

	assert.Equal(t, src.Bounds().Size(), out.Bounds().Size())
	assert.Equal(t, src.Pix, out.Pix)

	// The result must not alias the source.
	out.Pix[0] = ^out.Pix[0]
	assert.NotEqual(t, src.Pix[0], out.Pix[0])
}

func TestNormalize_PreservesAspectRatio(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"Landscape 4:3", 1600, 1200, 800, 600},
		{"Wide", 2000, 1000, 800, 400},
		{"Portrait", 1000, 3000, 266, 800},
	}

	n := NewNormalizer(800)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := n.Normalize(solid(tt.w, tt.h))
			w, h := out.Bounds().Dx(), out.Bounds().Dy()
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
			assert.LessOrEqual(t, max(w, h), 800)

			src := float64(tt.w) / float64(tt.h)
			got := float64(w) / float64(h)
			assert.InDelta(t, math.Round(src), math.Round(got), 1)
		})
	}
}

func TestNormalize_ShowsPreview(t *testing.T) {
	p := &recordingPresenter{}
	n := NewNormalizer(800)
	n.Presenter = p

	n.Normalize(solid(10, 10))

	assert.Equal(t, []string{"preview"}, p.titles)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.png")
	require.NoError(t, imaging.Save(solid(1200, 900), path))

	out, err := NewNormalizer(600).Open(path)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(600, 450), out.Bounds().Size())
}

func TestOpen_LoadError(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.jpg")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0644))

	tests := []struct {
		name string
		path string
	}{
		{"Undecodable file", garbage},
		{"Missing file", filepath.Join(dir, "missing.jpg")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNormalizer(800).Open(tt.path)
			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("expected *LoadError, got %v", err)
			}
			if loadErr.Path != tt.path {
				t.Errorf("LoadError.Path = %q, want %q", loadErr.Path, tt.path)
			}
		})
	}
}

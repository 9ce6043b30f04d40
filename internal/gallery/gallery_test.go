package gallery

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFace(t *testing.T, path string, shade uint8, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: shade, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, imaging.Save(img, path))
}

// trainset builds {root}/{identity}/{n}.png for the given identities.
func trainset(t *testing.T, identities []string, perIdentity int) string {
	t.Helper()
	root := t.TempDir()
	for i, name := range identities {
		for n := 0; n < perIdentity; n++ {
			writeFace(t, filepath.Join(root, name, fmt.Sprintf("%d.png", n)), uint8(40*i+n), 60+n*10, 80)
		}
	}
	return root
}

func TestLoad_Indexing(t *testing.T) {
	// created in reverse order to make sure indexing does not follow creation order
	root := trainset(t, []string{"bob", "alice"}, 2)

	g, err := Load(root, DefaultFaceSize)
	require.NoError(t, err)

	assert.Equal(t, []string{"alice", "bob"}, g.Identities)
	require.Len(t, g.Samples, 4)
	assert.Equal(t, []int{0, 0, 1, 1}, g.Labels())
	assert.Equal(t, []int{2, 2}, g.Counts())
	assert.Equal(t, "bob", g.Identity(1))
	assert.Equal(t, "", g.Identity(7))

	for _, s := range g.Samples {
		assert.Equal(t, image.Pt(DefaultFaceSize, DefaultFaceSize), s.Image.Bounds().Size(), s.Path)
	}
}

func TestLoad_CustomFaceSize(t *testing.T) {
	root := trainset(t, []string{"carol"}, 1)

	g, err := Load(root, 32)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(32, 32), g.Samples[0].Image.Bounds().Size())
}

func TestLoad_SkipsUnreadableSample(t *testing.T) {
	root := trainset(t, []string{"alice", "bob"}, 1)
	// a dangling link fails on open, which is an I/O error rather than a decode error
	require.NoError(t, os.Symlink(filepath.Join(root, "nowhere.png"), filepath.Join(root, "alice", "broken.png")))

	g, err := Load(root, DefaultFaceSize)
	require.NoError(t, err)
	assert.Len(t, g.Samples, 2)
	assert.Equal(t, []int{0, 1}, g.Labels())
}

func TestLoad_DecodeErrorIsFatal(t *testing.T) {
	root := trainset(t, []string{"alice", "bob"}, 1)
	bad := filepath.Join(root, "bob", "notes.txt")
	require.NoError(t, os.WriteFile(bad, []byte("definitely not pixels"), 0644))

	g, err := Load(root, DefaultFaceSize)
	assert.Nil(t, g)

	var decodeErr *UnexpectedDecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *UnexpectedDecodeError, got %v", err)
	}
	assert.Equal(t, bad, decodeErr.Path)
}

func TestLoad_IgnoresLooseFilesAndNestedFolders(t *testing.T) {
	root := trainset(t, []string{"alice"}, 2)
	writeFace(t, filepath.Join(root, "loose.png"), 10, 20, 20)
	writeFace(t, filepath.Join(root, "alice", "older", "x.png"), 10, 20, 20)

	g, err := Load(root, DefaultFaceSize)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, g.Identities)
	assert.Len(t, g.Samples, 2)
}

func TestLoad_Errors(t *testing.T) {
	empty := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(empty, "nobody"), 0755))

	tests := []struct {
		name    string
		root    string
		wantErr error
	}{
		{"Missing root", filepath.Join(empty, "missing"), os.ErrNotExist},
		{"No samples", empty, ErrEmptyGallery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.root, DefaultFaceSize)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

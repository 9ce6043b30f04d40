// Package archive writes face crops and annotated frames to a flat folder.
package archive

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andresmejia3/warden/internal/types"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultFormat is the extension used when Archiver.Format is empty.
	DefaultFormat = "jpg"
	// DefaultQuality is the JPEG quality used when Archiver.Quality is unset.
	DefaultQuality = 95
)

// Formats lists the supported output extensions.
var Formats = []string{"jpg", "png"}

// ParseFormat validates an output extension. The empty string means jpg.
func ParseFormat(s string) (string, error) {
	switch f := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."); f {
	case "":
		return DefaultFormat, nil
	case "jpg", "jpeg":
		return "jpg", nil
	case "png":
		return f, nil
	default:
		return "", errors.Errorf("unsupported archive format: %s", s)
	}
}

// NewRunPrefix formats t as YYYYMMDD-HHMMSS-micro, the name shared by every
// file a single run writes.
func NewRunPrefix(t time.Time) string {
	return fmt.Sprintf("%s-%06d", t.Format("20060102-150405"), t.Nanosecond()/1000)
}

// Archiver names and writes output files. Files are never overwritten.
type Archiver struct {
	Prefix  string
	Format  string
	Quality int
	Log     logrus.FieldLogger
}

// New returns an archiver for the run that started at t.
func New(t time.Time) *Archiver {
	return &Archiver{Prefix: NewRunPrefix(t), Format: DefaultFormat, Quality: DefaultQuality}
}

// CropName is the file name of the n-th crop of this run.
func (a *Archiver) CropName(n int) string {
	return fmt.Sprintf("%s_item_%d.%s", a.Prefix, n, a.ext())
}

// FullName is the file name of the annotated frame of this run.
func (a *Archiver) FullName() string {
	return fmt.Sprintf("%s_full.%s", a.Prefix, a.ext())
}

// ArchiveCrops writes every crop to dir in order, numbered from 0, and returns
// the written paths.
func (a *Archiver) ArchiveCrops(crops []types.RegionCrop, dir string) ([]string, error) {
	paths := make([]string, 0, len(crops))
	for n, c := range crops {
		path := filepath.Join(dir, a.CropName(n))
		if err := a.write(c.Image, path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	a.logger().WithFields(logrus.Fields{"dir": dir, "count": len(paths)}).Debug("Crops archived")
	return paths, nil
}

// ArchiveAnnotated outlines every region on canvas, in list order, and writes
// the result to dir.
func (a *Archiver) ArchiveAnnotated(canvas *Canvas, regions []types.Region, dir string) (string, error) {
	for _, r := range regions {
		canvas.Outline(r)
	}
	path := filepath.Join(dir, a.FullName())
	if err := a.write(canvas.Image(), path); err != nil {
		return "", err
	}
	a.logger().WithFields(logrus.Fields{"path": path, "regions": len(regions)}).Debug("Annotated frame archived")
	return path, nil
}

func (a *Archiver) write(img image.Image, path string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "failed to create archive folder for %s", path)
	}
	format, err := imaging.FormatFromExtension(a.ext())
	if err != nil {
		return errors.Wrapf(err, "archive %s", path)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return errors.Wrapf(err, "refusing to write %s", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "failed to close %s", path)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	if err := imaging.Encode(f, img, format, imaging.JPEGQuality(a.quality())); err != nil {
		return errors.Wrapf(err, "failed to encode %s", path)
	}
	return nil
}

func (a *Archiver) ext() string {
	if a.Format == "" {
		return DefaultFormat
	}
	return a.Format
}

func (a *Archiver) quality() int {
	if a.Quality <= 0 || a.Quality > 100 {
		return DefaultQuality
	}
	return a.Quality
}

func (a *Archiver) logger() logrus.FieldLogger {
	if a.Log == nil {
		return logrus.StandardLogger()
	}
	return a.Log
}

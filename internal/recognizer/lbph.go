package recognizer

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// LBPH is a pure-Go local binary pattern histogram model using the 3x3
// operator and a GridX x GridY spatial histogram, matched by chi-square
// distance to the nearest training sample.
type LBPH struct {
	GridX, GridY int

	histograms [][]float64
	labels     []int
}

// NewLBPH returns an untrained model with an 8x8 grid.
func NewLBPH() *LBPH {
	return &LBPH{GridX: 8, GridY: 8}
}

func (m *LBPH) Train(samples []*image.Gray, labels []int) error {
	if len(samples) == 0 {
		return errors.New("no training samples")
	}
	if len(samples) != len(labels) {
		return errors.Errorf("%d samples but %d labels", len(samples), len(labels))
	}

	hists := make([][]float64, len(samples))
	for i, s := range samples {
		h, err := m.histogram(s)
		if err != nil {
			return errors.Wrapf(err, "sample %d", i)
		}
		hists[i] = h
	}
	m.histograms = hists
	m.labels = append([]int(nil), labels...)
	return nil
}

func (m *LBPH) Predict(sample *image.Gray) (int, float64, error) {
	if len(m.histograms) == 0 {
		return -1, 0, errors.New("model has no training data")
	}
	query, err := m.histogram(sample)
	if err != nil {
		return -1, 0, err
	}

	best, bestDist := -1, math.MaxFloat64
	for i, h := range m.histograms {
		if d := chiSquare(h, query); d < bestDist {
			best, bestDist = i, d
		}
	}
	return m.labels[best], bestDist, nil
}

// histogram concatenates the normalized LBP histogram of every grid cell.
func (m *LBPH) histogram(img *image.Gray) ([]float64, error) {
	codes, w, h := lbp(img)
	if w < m.GridX || h < m.GridY {
		return nil, errors.Errorf("image %dx%d too small for a %dx%d grid", w+2, h+2, m.GridX, m.GridY)
	}

	cw, ch := w/m.GridX, h/m.GridY
	out := make([]float64, 0, m.GridX*m.GridY*256)
	for gy := 0; gy < m.GridY; gy++ {
		for gx := 0; gx < m.GridX; gx++ {
			cell := make([]float64, 256)
			for y := gy * ch; y < (gy+1)*ch; y++ {
				for x := gx * cw; x < (gx+1)*cw; x++ {
					cell[codes[y*w+x]]++
				}
			}
			n := float64(cw * ch)
			for i := range cell {
				cell[i] /= n
			}
			out = append(out, cell...)
		}
	}
	return out, nil
}

// lbp returns the pattern code of every interior pixel, row-major, and the
// dimensions of the code image.
func lbp(img *image.Gray) ([]uint8, int, int) {
	b := img.Bounds()
	w, h := b.Dx()-2, b.Dy()-2
	if w <= 0 || h <= 0 {
		return nil, 0, 0
	}

	// clockwise from the top-left neighbor
	offsets := [8]image.Point{{-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}}
	codes := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cx, cy := b.Min.X+x+1, b.Min.Y+y+1
			center := img.GrayAt(cx, cy).Y
			var code uint8
			for bit, o := range offsets {
				if img.GrayAt(cx+o.X, cy+o.Y).Y >= center {
					code |= 1 << uint(7-bit)
				}
			}
			codes[y*w+x] = code
		}
	}
	return codes, w, h
}

func chiSquare(a, b []float64) float64 {
	var sum float64
	for i := range a {
		if s := a[i] + b[i]; s > 0 {
			d := a[i] - b[i]
			sum += d * d / s
		}
	}
	return 2 * sum
}

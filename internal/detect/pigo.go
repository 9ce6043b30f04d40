package detect

import (
	"image"
	"os"

	"github.com/andresmejia3/warden/internal/types"
	pigo "github.com/esimov/pigo/core"
	"github.com/pkg/errors"
)

// groupEps is the relative corner tolerance for two raw hits to count as neighbors.
const groupEps = 0.2

// DefaultMinQuality is the pigo score a raw hit must exceed to be kept.
const DefaultMinQuality = 5.0

// Pigo is a pure-Go frontal face classifier backed by a pigo cascade file.
type Pigo struct {
	classifier *pigo.Pigo
	// MinSize is the smallest window, in pixels, the cascade is evaluated at.
	MinSize int
	// ShiftFactor is the window step relative to its size.
	ShiftFactor float64
	// MinQuality drops raw hits whose score is not above it.
	MinQuality float32
	// Angle is the cascade rotation; 0.0 is 0 radians and 1.0 is 2*pi radians.
	Angle float64
}

// LoadPigo reads and unpacks the cascade at path.
func LoadPigo(path string) (*Pigo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "error reading the cascade file")
	}
	return NewPigo(data)
}

// NewPigo unpacks a binary pigo cascade.
func NewPigo(cascade []byte) (*Pigo, error) {
	p, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, errors.Wrap(err, "error unpacking the cascade file")
	}
	return &Pigo{classifier: p, MinSize: 20, ShiftFactor: 0.1, MinQuality: DefaultMinQuality}, nil
}

// DetectRegions scans img at every scale step and keeps the candidates that
// at least minNeighbors other raw hits agree with.
func (p *Pigo) DetectRegions(img image.Image, scaleFactor float64, minNeighbors int) ([]types.Region, error) {
	src := pigo.ImgToNRGBA(img)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()

	params := pigo.CascadeParams{
		MinSize:     p.MinSize,
		MaxSize:     max(cols, rows),
		ShiftFactor: p.ShiftFactor,
		ScaleFactor: scaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	// The result contains quadruplets representing the row, column, scale and detection score.
	dets := p.classifier.RunCascade(params, p.Angle)

	grouped := GroupRectangles(candidates(dets, p.MinQuality), minNeighbors)
	regions := make([]types.Region, 0, len(grouped))
	for _, r := range grouped {
		regions = append(regions, types.RegionFromRect(r))
	}
	return regions, nil
}

// candidates turns the raw hits scoring above minQuality into rectangles.
func candidates(dets []pigo.Detection, minQuality float32) []image.Rectangle {
	raw := make([]image.Rectangle, 0, len(dets))
	for _, d := range dets {
		if d.Q <= minQuality {
			continue
		}
		half := d.Scale / 2
		raw = append(raw, image.Rect(d.Col-half, d.Row-half, d.Col+half, d.Row+half))
	}
	return raw
}

// GroupRectangles clusters similar raw hits and returns one averaged rectangle
// per cluster that has more than minNeighbors members. Clusters come back in
// the order their first member appeared. minNeighbors <= 0 disables grouping.
func GroupRectangles(rects []image.Rectangle, minNeighbors int) []image.Rectangle {
	if minNeighbors <= 0 {
		out := make([]image.Rectangle, len(rects))
		copy(out, rects)
		return out
	}

	parent := make([]int, len(rects))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			if similar(rects[i], rects[j]) {
				parent[find(j)] = find(i)
			}
		}
	}

	type cluster struct {
		sum   image.Rectangle
		count int
	}
	var order []int
	clusters := map[int]*cluster{}
	for i, r := range rects {
		root := find(i)
		c, ok := clusters[root]
		if !ok {
			c = &cluster{}
			clusters[root] = c
			order = append(order, root)
		}
		c.sum.Min = c.sum.Min.Add(r.Min)
		c.sum.Max = c.sum.Max.Add(r.Max)
		c.count++
	}

	var out []image.Rectangle
	for _, root := range order {
		c := clusters[root]
		if c.count <= minNeighbors {
			continue
		}
		out = append(out, image.Rectangle{
			Min: c.sum.Min.Div(c.count),
			Max: c.sum.Max.Div(c.count),
		})
	}
	return out
}

func similar(a, b image.Rectangle) bool {
	delta := groupEps * float64(min(a.Dx(), b.Dx())+min(a.Dy(), b.Dy())) * 0.5
	return abs(a.Min.X-b.Min.X) <= int(delta) &&
		abs(a.Min.Y-b.Min.Y) <= int(delta) &&
		abs(a.Max.X-b.Max.X) <= int(delta) &&
		abs(a.Max.Y-b.Max.Y) <= int(delta)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

package cv

import (
	"image"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Window shows debug previews in a HighGUI window and blocks until a key is
// pressed.
type Window struct {
	window *gocv.Window
}

// NewWindow opens the preview window.
func NewWindow(title string) *Window {
	return &Window{window: gocv.NewWindow(title)}
}

func (w *Window) Show(title string, img image.Image) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		logrus.WithError(err).WithField("preview", title).Warn("Cannot render preview")
		return
	}
	defer mat.Close()

	log := logrus.WithField("preview", title)
	if err := w.window.SetWindowTitle(title); err != nil {
		log.WithError(err).Debug("Cannot set preview title")
	}
	if err := w.window.IMShow(mat); err != nil {
		log.WithError(err).Debug("Cannot show preview")
		return
	}
	w.window.WaitKey(0)
}

func (w *Window) Close() error {
	return w.window.Close()
}

package render

import (
	"gocv.io/x/gocv"
)

// WindowTitle is the title of the preview window.
const WindowTitle = "Fight Analysis"

// quitKey stops the run when pressed in the preview window.
const quitKey = 'q'

// Window shows annotated frames in a desktop window.
type Window struct {
	win *gocv.Window
}

// NewWindow opens the preview window.
func NewWindow() *Window {
	return &Window{win: gocv.NewWindow(WindowTitle)}
}

// Render draws the overlay, shows the frame and polls the keyboard once.
func (w *Window) Render(f *Frame) (bool, error) {
	if f.Image == nil || f.Image.Empty() {
		return false, nil
	}
	Draw(f)
	w.win.IMShow(*f.Image)
	key := w.win.WaitKey(1)
	return key&0xff == quitKey, nil
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}

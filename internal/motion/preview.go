package motion

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// QuitKey closes the preview and ends the game.
const QuitKey = 'q'

// Preview shows frames to the player. PollKey returns -1 when no key was
// pressed.
type Preview interface {
	Show(frame gocv.Mat, regions []Region)
	PollKey() int
	Close() error
}

// PreviewFactory is called on the sampling goroutine's locked OS thread.
type PreviewFactory func() Preview

func WindowPreview(title string) PreviewFactory {
	return func() Preview { return NewWindow(title) }
}

func HeadlessPreview() Preview {
	return Headless{}
}

// Window is a HighGUI preview. It must be used from a single OS thread.
type Window struct {
	window *gocv.Window
	canvas gocv.Mat
}

func NewWindow(title string) *Window {
	return &Window{
		window: gocv.NewWindow(title),
		canvas: gocv.NewMat(),
	}
}

func (w *Window) Show(frame gocv.Mat, regions []Region) {
	if frame.Empty() {
		return
	}
	if len(regions) == 0 {
		w.window.IMShow(frame)
		return
	}

	frame.CopyTo(&w.canvas)
	for _, r := range regions {
		gocv.Rectangle(&w.canvas, r.Bounds, color.RGBA{R: 255, A: 255}, 2)
	}
	gocv.PutText(&w.canvas, "Motion!", image.Pt(10, 30), gocv.FontHersheyPlain, 2, color.RGBA{R: 255, A: 255}, 2)
	w.window.IMShow(w.canvas)
}

func (w *Window) PollKey() int {
	return keyCode(w.window.WaitKey(1))
}

// keyCode strips the modifier bits some HighGUI backends set on key codes.
func keyCode(k int) int {
	if k < 0 {
		return -1
	}
	return k & 0xFF
}

func (w *Window) Close() error {
	w.canvas.Close()
	return w.window.Close()
}

// Headless discards frames and never reports a key.
type Headless struct{}

func (Headless) Show(gocv.Mat, []Region) {}
func (Headless) PollKey() int            { return -1 }
func (Headless) Close() error            { return nil }

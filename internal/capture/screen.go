package capture

import (
	"fmt"
	"image"
	"time"

	"github.com/kbinani/screenshot"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

const (
	lumaSampleGrid = 8
	darkLuma       = 3
)

// Screen treats a display as a camera. It lets the game run on machines
// without a capture device, e.g. pointed at a video call window.
type Screen struct {
	number int
	bounds image.Rectangle

	capture     func(n int) (*image.RGBA, error)
	lastWarning time.Time
}

var _ FrameSource = (*Screen)(nil)

func OpenScreen(number int) (*Screen, error) {
	if number < 0 {
		return nil, fmt.Errorf("%w: screen %d", ErrDeviceUnavailable, number)
	}
	active := screenshot.NumActiveDisplays()
	if number >= active {
		return nil, fmt.Errorf("%w: screen %d (active displays: %d)", ErrDeviceUnavailable, number, active)
	}

	bounds := screenshot.GetDisplayBounds(number)
	logger.With(zap.Int("screen", number), zap.Stringer("bounds", bounds)).Info("Screen source opened")

	return &Screen{
		number:  number,
		bounds:  bounds,
		capture: screenshot.CaptureDisplay,
	}, nil
}

func (s *Screen) Read(dst *gocv.Mat) error {
	img, err := s.capture(s.number)
	if err != nil {
		return fmt.Errorf("%w: screen %d: %v", ErrFrameRead, s.number, err)
	}

	// All black captures usually mean the OS denied screen recording.
	if luma := MeanLuma(img, lumaSampleGrid); luma <= darkLuma && time.Since(s.lastWarning) > 10*time.Second {
		logger.With(zap.Int("screen", s.number), zap.Uint8("luma", luma)).
			Warn("Screen capture is black. Check screen recording permissions.")
		s.lastWarning = time.Now()
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("%w: screen %d: %v", ErrFrameRead, s.number, err)
	}
	defer mat.Close()

	mat.CopyTo(dst)
	return nil
}

func (s *Screen) Close() error {
	return nil
}

func (s *Screen) Name() string {
	return fmt.Sprintf("screen %d", s.number)
}

// MeanLuma is the average Rec. 601 luma of the pixels on a sampling grid.
func MeanLuma(img *image.RGBA, pixelGridSize int) uint8 {
	if pixelGridSize < 1 {
		pixelGridSize = 1
	}

	var sum, totalPixels uint64
	bounds := img.Bounds()

	for y := bounds.Min.Y; y < bounds.Max.Y; y += pixelGridSize {
		for x := bounds.Min.X; x < bounds.Max.X; x += pixelGridSize {
			c := img.RGBAAt(x, y)
			sum += (299*uint64(c.R) + 587*uint64(c.G) + 114*uint64(c.B)) / 1000
			totalPixels++
		}
	}

	if totalPixels == 0 {
		return 0
	}
	return uint8(sum / totalPixels)
}

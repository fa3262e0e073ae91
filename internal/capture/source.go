package capture

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/scheerer/redlight/internal/config"
	"github.com/scheerer/redlight/internal/logging"
)

var logger = logging.New("capture")

var (
	// ErrDeviceUnavailable is returned when a frame source cannot be opened.
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	// ErrFrameRead is returned when an open source fails to deliver a frame.
	ErrFrameRead = errors.New("frame read failure")
	// ErrUnknownSource is returned for a source kind that is not supported.
	ErrUnknownSource = errors.New("unknown frame source")
)

// FrameSource delivers BGR frames.
type FrameSource interface {
	// Read fills dst with the next frame. Failures wrap ErrFrameRead.
	Read(dst *gocv.Mat) error
	Close() error
	Name() string
}

// Open returns the frame source selected by the configuration.
func Open(c config.Config) (FrameSource, error) {
	switch c.Source {
	case config.SourceCamera:
		return OpenCamera(c.CameraIndex)
	case config.SourceScreen:
		return OpenScreen(c.ScreenNumber)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, c.Source)
	}
}

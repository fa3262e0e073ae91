package capture

import (
	"fmt"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

type Camera struct {
	index  int
	device *gocv.VideoCapture
}

var _ FrameSource = (*Camera)(nil)

// OpenCamera opens the capture device with the given index.
func OpenCamera(index int) (*Camera, error) {
	device, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("%w: camera %d: %v", ErrDeviceUnavailable, index, err)
	}
	if !device.IsOpened() {
		device.Close()
		return nil, fmt.Errorf("%w: camera %d could not be opened", ErrDeviceUnavailable, index)
	}

	logger.With(
		zap.Int("index", index),
		zap.Float64("width", device.Get(gocv.VideoCaptureFrameWidth)),
		zap.Float64("height", device.Get(gocv.VideoCaptureFrameHeight)),
		zap.Float64("fps", device.Get(gocv.VideoCaptureFPS))).
		Info("Camera opened")

	return &Camera{index: index, device: device}, nil
}

func (c *Camera) Read(dst *gocv.Mat) error {
	if ok := c.device.Read(dst); !ok {
		return fmt.Errorf("%w: camera %d returned no frame", ErrFrameRead, c.index)
	}
	if dst.Empty() {
		return fmt.Errorf("%w: camera %d returned an empty frame", ErrFrameRead, c.index)
	}
	return nil
}

func (c *Camera) Close() error {
	logger.With(zap.Int("index", c.index)).Info("Releasing camera")
	return c.device.Close()
}

func (c *Camera) Name() string {
	return fmt.Sprintf("camera %d", c.index)
}

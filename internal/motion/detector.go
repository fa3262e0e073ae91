package motion

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/scheerer/redlight/internal/config"
)

type Config struct {
	// Threshold is the intensity above which a differing pixel counts as moving.
	Threshold float64
	// MinContourArea is the area a moving region must exceed to count as motion.
	MinContourArea   float64
	BlurSize         int
	DilateIterations int
}

func DefaultConfig() Config {
	return Config{
		Threshold:        20,
		MinContourArea:   1000,
		BlurSize:         5,
		DilateIterations: 3,
	}
}

func ConfigFrom(c config.Config) Config {
	return Config{
		Threshold:        c.MotionThreshold,
		MinContourArea:   c.MinContourArea,
		BlurSize:         c.BlurSize,
		DilateIterations: c.DilateIterations,
	}
}

// Region is a connected area of the motion mask.
type Region struct {
	Area   float64
	Bounds image.Rectangle
}

type Result struct {
	// Motion is true when at least one region exceeds MinContourArea.
	Motion bool
	// Regions holds the qualifying regions only.
	Regions []Region
	// Largest is the area of the largest region found, qualifying or not.
	Largest float64
}

// Detector runs the frame differencing pipeline. Its scratch buffers are
// reused between calls, so a Detector must not be shared between goroutines.
type Detector struct {
	config Config

	diff    gocv.Mat
	gray    gocv.Mat
	blurred gocv.Mat
	mask    gocv.Mat
	scratch gocv.Mat
	kernel  gocv.Mat
}

func NewDetector(config Config) *Detector {
	if config.BlurSize < 1 {
		config.BlurSize = 1
	}
	if config.BlurSize%2 == 0 {
		config.BlurSize++
	}
	return &Detector{
		config:  config,
		diff:    gocv.NewMat(),
		gray:    gocv.NewMat(),
		blurred: gocv.NewMat(),
		mask:    gocv.NewMat(),
		scratch: gocv.NewMat(),
		kernel:  gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
	}
}

func (d *Detector) Config() Config {
	return d.config
}

// Detect compares two frames of the same size and type.
func (d *Detector) Detect(prev, curr gocv.Mat) (Result, error) {
	if prev.Empty() || curr.Empty() {
		return Result{}, fmt.Errorf("detect: empty frame")
	}
	if prev.Rows() != curr.Rows() || prev.Cols() != curr.Cols() || prev.Type() != curr.Type() {
		return Result{}, fmt.Errorf("detect: frame mismatch %dx%d/%v vs %dx%d/%v",
			prev.Cols(), prev.Rows(), prev.Type(), curr.Cols(), curr.Rows(), curr.Type())
	}

	gocv.AbsDiff(prev, curr, &d.diff)

	switch d.diff.Channels() {
	case 1:
		d.diff.CopyTo(&d.gray)
	case 4:
		gocv.CvtColor(d.diff, &d.gray, gocv.ColorBGRAToGray)
	default:
		gocv.CvtColor(d.diff, &d.gray, gocv.ColorBGRToGray)
	}

	size := d.config.BlurSize
	gocv.GaussianBlur(d.gray, &d.blurred, image.Pt(size, size), 0, 0, gocv.BorderDefault)
	gocv.Threshold(d.blurred, &d.mask, float32(d.config.Threshold), 255, gocv.ThresholdBinary)

	for i := 0; i < d.config.DilateIterations; i++ {
		gocv.Dilate(d.mask, &d.scratch, d.kernel)
		d.scratch.CopyTo(&d.mask)
	}

	contours := gocv.FindContours(d.mask, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	var result Result
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area > result.Largest {
			result.Largest = area
		}
		if area <= d.config.MinContourArea {
			continue
		}
		result.Motion = true
		result.Regions = append(result.Regions, Region{
			Area:   area,
			Bounds: gocv.BoundingRect(contour),
		})
	}

	return result, nil
}

// Mask is the binary motion mask of the last Detect call.
func (d *Detector) Mask() gocv.Mat {
	return d.mask
}

func (d *Detector) Close() error {
	for _, m := range []*gocv.Mat{&d.diff, &d.gray, &d.blurred, &d.mask, &d.scratch, &d.kernel} {
		m.Close()
	}
	return nil
}

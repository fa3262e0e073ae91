package capture

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/scheerer/redlight/internal/config"
)

func filled(c color.RGBA, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestMeanLuma(t *testing.T) {
	assert.Equal(t, uint8(0), MeanLuma(filled(color.RGBA{A: 255}, 16, 16), 4))
	assert.Equal(t, uint8(255), MeanLuma(filled(color.RGBA{255, 255, 255, 255}, 16, 16), 4))
	assert.Equal(t, uint8(76), MeanLuma(filled(color.RGBA{R: 255, A: 255}, 16, 16), 1))
	assert.Equal(t, uint8(0), MeanLuma(image.NewRGBA(image.Rect(0, 0, 0, 0)), 0))
}

func TestScriptedReplaysThenFails(t *testing.T) {
	a := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 10, 10, 0), 4, 4, gocv.MatTypeCV8UC3)
	b := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(200, 200, 200, 0), 4, 4, gocv.MatTypeCV8UC3)
	src := NewScripted(a, b)
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	require.NoError(t, src.Read(&dst))
	assert.Equal(t, uint8(10), dst.GetVecbAt(0, 0)[0])
	require.NoError(t, src.Read(&dst))
	assert.Equal(t, uint8(200), dst.GetVecbAt(3, 3)[2])

	err := src.Read(&dst)
	assert.ErrorIs(t, err, ErrFrameRead)
	assert.Equal(t, 3, src.Reads())

	require.NoError(t, src.Close())
	assert.True(t, src.Closed())
	assert.ErrorIs(t, src.Read(&dst), ErrFrameRead)
}

func TestScreenReadConvertsCapture(t *testing.T) {
	s := &Screen{
		number: 0,
		capture: func(int) (*image.RGBA, error) {
			return filled(color.RGBA{R: 255, A: 255}, 8, 6), nil
		},
	}

	dst := gocv.NewMat()
	defer dst.Close()

	require.NoError(t, s.Read(&dst))
	assert.Equal(t, 6, dst.Rows())
	assert.Equal(t, 8, dst.Cols())
	assert.Equal(t, 3, dst.Channels())
}

func TestScreenReadFailure(t *testing.T) {
	s := &Screen{
		number: 1,
		capture: func(int) (*image.RGBA, error) {
			return nil, errors.New("display went away")
		},
	}

	dst := gocv.NewMat()
	defer dst.Close()

	err := s.Read(&dst)
	assert.ErrorIs(t, err, ErrFrameRead)
	assert.Contains(t, err.Error(), "display went away")
}

func TestOpenUnknownSource(t *testing.T) {
	_, err := Open(config.Config{Source: "PIGEON"})
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestOpenScreenRejectsMissingDisplay(t *testing.T) {
	_, err := OpenScreen(-1)
	assert.ErrorIs(t, err, ErrDeviceUnavailable)

	_, err = Open(config.Config{Source: config.SourceScreen, ScreenNumber: 99})
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
	assert.Contains(t, err.Error(), "screen 99")
}

package motion

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/scheerer/redlight/internal/capture"
	"github.com/scheerer/redlight/internal/game"
)

const (
	frameRows = 240
	frameCols = 320
)

func blankFrame() gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), frameRows, frameCols, gocv.MatTypeCV8UC3)
}

// frameWithBox returns a black frame with a filled white square.
func frameWithBox(at image.Point, side int) gocv.Mat {
	m := blankFrame()
	gocv.Rectangle(&m, image.Rect(at.X, at.Y, at.X+side, at.Y+side), color.RGBA{255, 255, 255, 255}, -1)
	return m
}

type fakePreview struct {
	shown  int
	marked int
	keys   []int
	closed bool
}

func (p *fakePreview) Show(_ gocv.Mat, regions []Region) {
	p.shown++
	if len(regions) > 0 {
		p.marked++
	}
}

func (p *fakePreview) PollKey() int {
	if len(p.keys) == 0 {
		return -1
	}
	k := p.keys[0]
	p.keys = p.keys[1:]
	return k
}

func (p *fakePreview) Close() error {
	p.closed = true
	return nil
}

func previewOf(p Preview) PreviewFactory {
	return func() Preview { return p }
}

func TestDetectorFindsLargeRegion(t *testing.T) {
	d := NewDetector(DefaultConfig())
	defer d.Close()

	prev := blankFrame()
	defer prev.Close()
	curr := frameWithBox(image.Pt(100, 80), 60)
	defer curr.Close()

	result, err := d.Detect(prev, curr)
	require.NoError(t, err)

	assert.True(t, result.Motion)
	require.NotEmpty(t, result.Regions)
	assert.Greater(t, result.Regions[0].Area, 3600.0)
	assert.True(t, image.Rect(100, 80, 160, 140).In(result.Regions[0].Bounds.Inset(-1)))
	assert.Equal(t, result.Largest, result.Regions[0].Area)
}

func TestDetectorIgnoresSmallRegion(t *testing.T) {
	d := NewDetector(DefaultConfig())
	defer d.Close()

	prev := blankFrame()
	defer prev.Close()
	curr := frameWithBox(image.Pt(30, 30), 10)
	defer curr.Close()

	result, err := d.Detect(prev, curr)
	require.NoError(t, err)

	assert.False(t, result.Motion)
	assert.Empty(t, result.Regions)
	assert.Greater(t, result.Largest, 0.0)
	assert.Less(t, result.Largest, 1000.0)
}

func TestDetectorIdenticalFrames(t *testing.T) {
	d := NewDetector(DefaultConfig())
	defer d.Close()

	a := frameWithBox(image.Pt(100, 80), 60)
	defer a.Close()
	b := frameWithBox(image.Pt(100, 80), 60)
	defer b.Close()

	result, err := d.Detect(a, b)
	require.NoError(t, err)
	assert.False(t, result.Motion)
	assert.Zero(t, result.Largest)
}

func TestDetectorRejectsMismatchedFrames(t *testing.T) {
	d := NewDetector(DefaultConfig())
	defer d.Close()

	a := blankFrame()
	defer a.Close()
	b := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 10, 10, gocv.MatTypeCV8UC3)
	defer b.Close()
	empty := gocv.NewMat()
	defer empty.Close()

	_, err := d.Detect(a, b)
	assert.Error(t, err)
	_, err = d.Detect(empty, a)
	assert.Error(t, err)
}

func TestNewDetectorNormalisesBlur(t *testing.T) {
	d := NewDetector(Config{BlurSize: 4})
	defer d.Close()
	assert.Equal(t, 5, d.Config().BlurSize)
}

func TestMonitorEndsGameOnMotionWhileRed(t *testing.T) {
	session := game.NewSession(5)
	source := capture.NewScripted(blankFrame(), frameWithBox(image.Pt(100, 80), 60), blankFrame())
	preview := &fakePreview{}

	m := NewMonitor(session, source, NewDetector(DefaultConfig()), previewOf(preview))
	require.NoError(t, m.Run(context.Background()))

	assert.False(t, session.Running())
	assert.Equal(t, game.ReasonMotion, session.Reason())
	assert.Equal(t, 2, source.Reads(), "motion must end the game on the first frame pair")
	assert.Equal(t, 1, preview.marked)
	assert.True(t, preview.closed)
	assert.True(t, source.Closed())
}

func TestMonitorIgnoresMotionWhileGreen(t *testing.T) {
	session := game.NewSession(5)
	game.NewController(session, 5).Toggle()
	require.Equal(t, game.Go, session.Signal())

	source := capture.NewScripted(
		blankFrame(),
		frameWithBox(image.Pt(100, 80), 60),
		blankFrame(),
		frameWithBox(image.Pt(10, 10), 80),
	)
	preview := &fakePreview{}

	m := NewMonitor(session, source, NewDetector(DefaultConfig()), previewOf(preview))
	err := m.Run(context.Background())

	assert.ErrorIs(t, err, capture.ErrFrameRead)
	assert.Equal(t, game.ReasonFrameReadFailure, session.Reason())
	assert.Equal(t, 3, preview.shown)
	assert.Zero(t, preview.marked)
	assert.True(t, source.Closed())
}

func TestMonitorQuitKey(t *testing.T) {
	session := game.NewSession(5)
	source := capture.NewScripted(blankFrame(), blankFrame(), blankFrame())
	preview := &fakePreview{keys: []int{-1, QuitKey}}

	m := NewMonitor(session, source, NewDetector(DefaultConfig()), previewOf(preview))
	require.NoError(t, m.Run(context.Background()))

	assert.Equal(t, game.ReasonUserQuit, session.Reason())
	assert.Equal(t, 2, preview.shown)
}

func TestMonitorFailsGracefullyWithoutFrames(t *testing.T) {
	session := game.NewSession(5)
	source := capture.NewScripted()

	m := NewMonitor(session, source, NewDetector(DefaultConfig()), nil)
	err := m.Run(context.Background())

	assert.ErrorIs(t, err, capture.ErrFrameRead)
	assert.False(t, session.Running())
	assert.Equal(t, game.ReasonFrameReadFailure, session.Reason())
	assert.True(t, source.Closed())
}

func TestMonitorStopsWhenSessionAlreadyEnded(t *testing.T) {
	session := game.NewSession(5)
	session.End(game.ReasonUserQuit)
	source := capture.NewScripted(blankFrame(), frameWithBox(image.Pt(100, 80), 60))

	m := NewMonitor(session, source, NewDetector(DefaultConfig()), nil)
	require.NoError(t, m.Run(context.Background()))

	assert.Equal(t, game.ReasonUserQuit, session.Reason())
	assert.True(t, source.Closed())
}

func TestMonitorHonoursContext(t *testing.T) {
	session := game.NewSession(5)
	source := capture.NewScripted(blankFrame(), blankFrame())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMonitor(session, source, NewDetector(DefaultConfig()), nil)
	err := m.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, source.Closed())
}

func TestWatchReportsEveryPair(t *testing.T) {
	source := capture.NewScripted(
		blankFrame(),
		frameWithBox(image.Pt(100, 80), 60),
		frameWithBox(image.Pt(100, 80), 60),
	)

	var results []Result
	err := Watch(context.Background(), source, NewDetector(DefaultConfig()), nil, func(r Result) {
		results = append(results, r)
	})

	assert.ErrorIs(t, err, capture.ErrFrameRead)
	require.Len(t, results, 2)
	assert.True(t, results[0].Motion)
	assert.False(t, results[1].Motion)
}

func TestKeyCodeStripsModifierBits(t *testing.T) {
	assert.Equal(t, -1, keyCode(-1))
	assert.Equal(t, QuitKey, keyCode(QuitKey))
	assert.Equal(t, QuitKey, keyCode(0x100000|QuitKey))
	assert.Equal(t, 27, keyCode(27))
}

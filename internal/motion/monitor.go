package motion

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/scheerer/redlight/internal/capture"
	"github.com/scheerer/redlight/internal/game"
	"github.com/scheerer/redlight/internal/logging"
)

var logger = logging.New("motion")

const slowIteration = 250 * time.Millisecond

// Monitor samples a frame source and ends the session when it sees motion
// while the signal is Stop.
type Monitor struct {
	session    *game.Session
	source     capture.FrameSource
	detector   *Detector
	newPreview PreviewFactory
	preview    Preview
}

// NewMonitor takes ownership of source and detector; Run closes them along
// with the preview it creates.
func NewMonitor(session *game.Session, source capture.FrameSource, detector *Detector, newPreview PreviewFactory) *Monitor {
	if newPreview == nil {
		newPreview = HeadlessPreview
	}
	return &Monitor{
		session:    session,
		source:     source,
		detector:   detector,
		newPreview: newPreview,
	}
}

// Run loops until the session ends or ctx is cancelled. A frame read failure
// ends the session with ReasonFrameReadFailure and is returned.
func (m *Monitor) Run(ctx context.Context) error {
	// HighGUI windows belong to the thread that created them.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	m.preview = m.newPreview()
	defer func() {
		if err := m.preview.Close(); err != nil {
			logger.With(zap.Error(err)).Warn("Failed to close preview")
		}
		if err := m.source.Close(); err != nil {
			logger.With(zap.Error(err)).Warn("Failed to release frame source")
		}
		m.detector.Close()
		logger.Info("Motion monitor stopped")
	}()

	prev := gocv.NewMat()
	defer prev.Close()
	curr := gocv.NewMat()
	defer curr.Close()

	if err := m.read(&prev); err != nil {
		return err
	}
	if err := m.read(&curr); err != nil {
		return err
	}

	logger.With(zap.String("source", m.source.Name()), zap.Float64("minContourArea", m.detector.Config().MinContourArea)).
		Info("Motion monitor started")

	var lastWarning time.Time
	for m.session.Running() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		startTime := time.Now()

		if m.session.Signal() == game.Stop {
			result, err := m.detector.Detect(prev, curr)
			if err != nil {
				logger.With(zap.Error(err)).Warn("Skipping frame pair")
			} else if result.Motion {
				logger.With(
					zap.Int("regions", len(result.Regions)),
					zap.Float64("largest", result.Largest)).
					Info("Motion detected while red")
				m.preview.Show(curr, result.Regions)
				m.session.End(game.ReasonMotion)
				return nil
			}
		}

		m.preview.Show(curr, nil)
		if m.preview.PollKey() == QuitKey {
			logger.Info("Quit requested from preview")
			m.session.End(game.ReasonUserQuit)
			return nil
		}

		prev, curr = curr, prev
		if err := m.read(&curr); err != nil {
			return err
		}

		if elapsed := time.Since(startTime); elapsed > slowIteration && time.Since(lastWarning) > 10*time.Second {
			logger.With(zap.Stringer("iteration", elapsed), zap.String("source", m.source.Name())).
				Warn("Motion sampling is slow; movement between frames will look larger")
			lastWarning = time.Now()
		}
	}

	return nil
}

func (m *Monitor) read(dst *gocv.Mat) error {
	if err := m.source.Read(dst); err != nil {
		logger.With(zap.Error(err), zap.String("source", m.source.Name())).Error("Failed to read frame")
		m.session.End(game.ReasonFrameReadFailure)
		return err
	}
	return nil
}

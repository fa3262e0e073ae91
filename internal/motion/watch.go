package motion

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/scheerer/redlight/internal/capture"
)

// Watch runs detection on every frame pair regardless of any game state and
// hands each result to report. It is meant for tuning the thresholds. It
// returns nil when the quit key is pressed on the preview.
func Watch(ctx context.Context, source capture.FrameSource, detector *Detector, newPreview PreviewFactory, report func(Result)) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if newPreview == nil {
		newPreview = HeadlessPreview
	}
	preview := newPreview()
	defer preview.Close()
	defer source.Close()
	defer detector.Close()

	prev := gocv.NewMat()
	defer prev.Close()
	curr := gocv.NewMat()
	defer curr.Close()

	if err := source.Read(&prev); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := source.Read(&curr); err != nil {
			return err
		}

		result, err := detector.Detect(prev, curr)
		if err != nil {
			logger.With(zap.Error(err)).Warn("Skipping frame pair")
		} else {
			report(result)
		}

		preview.Show(curr, result.Regions)
		if preview.PollKey() == QuitKey {
			return nil
		}

		prev, curr = curr, prev
	}
}

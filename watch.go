package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scheerer/redlight/internal/capture"
	"github.com/scheerer/redlight/internal/motion"
)

func newWatchCmd() *cobra.Command {
	var minArea float64
	var threshold float64

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show motion detection without playing, to tune MIN_CONTOUR_AREA and MOTION_THRESHOLD",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("min-area") {
				cfg.MinContourArea = minArea
			}
			if cmd.Flags().Changed("threshold") {
				cfg.MotionThreshold = threshold
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			source, err := capture.Open(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var newPreview motion.PreviewFactory = motion.HeadlessPreview
			if cfg.Preview {
				newPreview = motion.WindowPreview("Motion")
			}

			logger.With(
				zap.String("source", source.Name()),
				zap.Float64("minContourArea", cfg.MinContourArea),
				zap.Float64("threshold", cfg.MotionThreshold)).
				Info("Watching for motion. Press q in the preview or Ctrl+C to stop")

			err = motion.Watch(ctx, source, motion.NewDetector(motion.ConfigFrom(cfg)), newPreview, reportMotion)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().Float64Var(&minArea, "min-area", 0, "override MIN_CONTOUR_AREA")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "override MOTION_THRESHOLD")
	return cmd
}

func reportMotion(r motion.Result) {
	if !r.Motion {
		logger.With(zap.Float64("largest", r.Largest)).Debug("No qualifying motion")
		return
	}

	bounds := make([]string, 0, len(r.Regions))
	for _, region := range r.Regions {
		bounds = append(bounds, region.Bounds.String())
	}
	logger.With(
		zap.Int("regions", len(r.Regions)),
		zap.Float64("largest", r.Largest),
		zap.Strings("bounds", bounds)).
		Info("Motion")
}

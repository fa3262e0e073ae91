package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scheerer/redlight/internal/config"
	"github.com/scheerer/redlight/internal/logging"
)

var logger = logging.New("main")

func main() {
	defer logger.Sync()

	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "redlight:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "redlight",
		Short: "Red light, green light: freeze on red or the camera catches you",
		Long: `Red light, green light.

The light alternates between red and green every TIMER_DURATION ticks.
While it is red the camera watches for motion; move and the game is over.

Configuration is read from the environment:
  TIMER_DURATION, TICK_PERIOD, GAME_OVER_DELAY
  SOURCE (CAMERA|SCREEN), CAMERA_INDEX, SCREEN_NUMBER, PREVIEW
  MOTION_THRESHOLD, MIN_CONTOUR_AREA, BLUR_SIZE, DILATE_ITERATIONS
  LIGHT_TYPE (NONE|LIFX), LIGHT_GROUP_NAME, MIN_BRIGHTNESS, MAX_BRIGHTNESS
  AUDIO, HISTORY_PATH, LOG_LEVEL, LOG_FILE`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runPlay(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	root.AddCommand(newWatchCmd())
	root.AddCommand(newHistoryCmd())
	return root
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, fmt.Errorf("%w: LOG_LEVEL: %v", config.ErrInvalid, err)
	}
	logging.GetLeveler().SetAll(level)
	return cfg, nil
}

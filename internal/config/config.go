package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env"
)

var ErrInvalid = errors.New("invalid configuration")

const (
	SourceCamera = "CAMERA"
	SourceScreen = "SCREEN"

	LightNone = "NONE"
	LightLifx = "LIFX"
)

type Config struct {
	TimerDuration int           `env:"TIMER_DURATION" envDefault:"5"`
	TickPeriod    time.Duration `env:"TICK_PERIOD" envDefault:"1s"`
	GameOverDelay time.Duration `env:"GAME_OVER_DELAY" envDefault:"500ms"`

	Source       string `env:"SOURCE" envDefault:"CAMERA"`
	CameraIndex  int    `env:"CAMERA_INDEX" envDefault:"0"`
	ScreenNumber int    `env:"SCREEN_NUMBER" envDefault:"0"`
	Preview      bool   `env:"PREVIEW" envDefault:"true"`

	MotionThreshold  float64 `env:"MOTION_THRESHOLD" envDefault:"20"`
	MinContourArea   float64 `env:"MIN_CONTOUR_AREA" envDefault:"1000"`
	BlurSize         int     `env:"BLUR_SIZE" envDefault:"5"`
	DilateIterations int     `env:"DILATE_ITERATIONS" envDefault:"3"`

	LightType      string  `env:"LIGHT_TYPE" envDefault:"NONE"`
	LightGroupName string  `env:"LIGHT_GROUP_NAME" envDefault:"REDLIGHT"`
	MaxBrightness  float64 `env:"MAX_BRIGHTNESS" envDefault:"0.65"`
	MinBrightness  float64 `env:"MIN_BRIGHTNESS" envDefault:"0"`

	Audio       bool   `env:"AUDIO" envDefault:"false"`
	HistoryPath string `env:"HISTORY_PATH"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE" envDefault:"redlight.log"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	switch {
	case c.TimerDuration < 1:
		return fmt.Errorf("%w: TIMER_DURATION must be at least 1, got %d", ErrInvalid, c.TimerDuration)
	case c.TickPeriod <= 0:
		return fmt.Errorf("%w: TICK_PERIOD must be positive, got %s", ErrInvalid, c.TickPeriod)
	case c.GameOverDelay < 0:
		return fmt.Errorf("%w: GAME_OVER_DELAY must not be negative, got %s", ErrInvalid, c.GameOverDelay)
	case c.Source != SourceCamera && c.Source != SourceScreen:
		return fmt.Errorf("%w: SOURCE must be %s or %s, got %q", ErrInvalid, SourceCamera, SourceScreen, c.Source)
	case c.MotionThreshold < 0 || c.MotionThreshold > 255:
		return fmt.Errorf("%w: MOTION_THRESHOLD must be within [0, 255], got %v", ErrInvalid, c.MotionThreshold)
	case c.MinContourArea < 0:
		return fmt.Errorf("%w: MIN_CONTOUR_AREA must not be negative, got %v", ErrInvalid, c.MinContourArea)
	case c.BlurSize < 1 || c.BlurSize%2 == 0:
		return fmt.Errorf("%w: BLUR_SIZE must be a positive odd number, got %d", ErrInvalid, c.BlurSize)
	case c.DilateIterations < 0:
		return fmt.Errorf("%w: DILATE_ITERATIONS must not be negative, got %d", ErrInvalid, c.DilateIterations)
	case c.LightType != LightNone && c.LightType != LightLifx:
		return fmt.Errorf("%w: LIGHT_TYPE must be %s or %s, got %q", ErrInvalid, LightNone, LightLifx, c.LightType)
	case c.MinBrightness < 0 || c.MaxBrightness > 1 || c.MinBrightness > c.MaxBrightness:
		return fmt.Errorf("%w: brightness limits must satisfy 0 <= MIN_BRIGHTNESS <= MAX_BRIGHTNESS <= 1", ErrInvalid)
	}
	return nil
}

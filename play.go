package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scheerer/redlight/internal/audio"
	"github.com/scheerer/redlight/internal/capture"
	"github.com/scheerer/redlight/internal/config"
	"github.com/scheerer/redlight/internal/game"
	"github.com/scheerer/redlight/internal/history"
	"github.com/scheerer/redlight/internal/lights"
	"github.com/scheerer/redlight/internal/lights/lifx"
	"github.com/scheerer/redlight/internal/logging"
	"github.com/scheerer/redlight/internal/motion"
	"github.com/scheerer/redlight/internal/ui"
)

const lightTransition = 150 * time.Millisecond

func runPlay(ctx context.Context, cfg config.Config, out io.Writer) error {
	// The terminal UI owns stdout from here on.
	if err := logging.SetOutputFile(cfg.LogFile); err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logging.SetOutput(os.Stdout)

	logger.With(zap.Any("config", cfg)).Info("Starting red light, green light")

	source, err := capture.Open(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lightService, err := openLights(ctx, cfg)
	if err != nil {
		source.Close()
		return err
	}
	defer lightService.Stop()

	session := game.NewSession(cfg.TimerDuration)

	indicator := lights.NewIndicator(lightService, lightTransition)
	indicator.Show(lights.SignalColor(session.Signal()))
	hooks := []game.ToggleHook{indicator.OnToggle}

	var cues *audio.Cues
	if cfg.Audio {
		cues = audio.NewCues()
		if err := cues.Init(); err != nil {
			logger.With(zap.Error(err)).Warn("Audio unavailable; continuing without sound")
			cues = nil
		} else {
			defer cues.Close()
			hooks = append(hooks, cues.OnToggle)
		}
	}

	controller := game.NewController(session, cfg.TimerDuration, hooks...)

	var newPreview motion.PreviewFactory = motion.HeadlessPreview
	if cfg.Preview {
		newPreview = motion.WindowPreview("Live Video Feed")
	}
	monitor := motion.NewMonitor(session, source, motion.NewDetector(motion.ConfigFrom(cfg)), newPreview)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := monitor.Run(gctx)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, capture.ErrFrameRead):
			// a frame read failure already ended the session gracefully
			return nil
		default:
			return err
		}
	})
	g.Go(func() error {
		indicator.Run(gctx)
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			session.End(game.ReasonInterrupted)
		case <-session.Done():
			if cues != nil {
				cues.GameOver()
			}
		}
		return nil
	})

	program := tea.NewProgram(
		ui.New(session, controller, ui.Options{TickPeriod: cfg.TickPeriod, GameOverDelay: cfg.GameOverDelay}),
		tea.WithAltScreen(),
		tea.WithContext(gctx),
	)
	_, uiErr := program.Run()
	if uiErr != nil && !errors.Is(uiErr, tea.ErrProgramKilled) {
		logger.With(zap.Error(uiErr)).Error("Terminal UI failed")
	}

	session.End(game.ReasonInterrupted)
	cancel()
	if err := g.Wait(); err != nil {
		logger.With(zap.Error(err)).Error("Motion monitor failed")
	}

	record := history.FromSession(session, source.Name())
	if cfg.HistoryPath != "" {
		saveRecord(cfg.HistoryPath, record)
	}

	_, _ = fmt.Fprintf(out, "Game over: %s after %s (%d rounds, %d red lights survived)\n",
		record.Reason, record.Duration().Round(time.Second), record.Rounds, record.StopsSurvived)

	if uiErr != nil && !errors.Is(uiErr, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal ui: %w", uiErr)
	}
	return nil
}

func openLights(ctx context.Context, cfg config.Config) (lights.LightService, error) {
	switch cfg.LightType {
	case config.LightNone:
		return lights.Nop{}, nil
	case config.LightLifx:
		l, err := lifx.NewLifx(ctx, lifx.Config{
			GroupName:     cfg.LightGroupName,
			MinBrightness: cfg.MinBrightness,
			MaxBrightness: cfg.MaxBrightness,
		})
		if err != nil {
			return nil, fmt.Errorf("create LIFX light service: %w", err)
		}
		return l, nil
	default:
		return nil, fmt.Errorf("%w: %q", lights.ErrUnknownLightType, cfg.LightType)
	}
}

func saveRecord(path string, record history.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := history.Open(ctx, path)
	if err != nil {
		logger.With(zap.Error(err), zap.String("path", path)).Error("Failed to open history")
		return
	}
	defer store.Close()

	if err := store.Save(ctx, record); err != nil {
		logger.With(zap.Error(err)).Error("Failed to save game")
	}
}

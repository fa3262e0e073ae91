package lights

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/scheerer/redlight/internal/game"
	"github.com/scheerer/redlight/internal/logging"
)

var logger = logging.New("lights")

var ErrUnknownLightType = errors.New("unknown light type")

type LightService interface {
	Start(ctx context.Context)
	Stop()
	LightCount() int
	SetColorWithDuration(ctx context.Context, color Color, duration time.Duration)
}

// Nop is used when no physical light is configured.
type Nop struct{}

func (Nop) Start(context.Context)                                       {}
func (Nop) Stop()                                                       {}
func (Nop) LightCount() int                                             { return 0 }
func (Nop) SetColorWithDuration(context.Context, Color, time.Duration) {}

// lightPollInterval is how often the Indicator checks for lights that
// appeared after a colour was queued.
const lightPollInterval = 50 * time.Millisecond

// Indicator mirrors the game signal on a LightService. Signal changes are
// queued without blocking; if the light is slow only the latest one is sent.
// A colour queued before any light is discovered is applied once one shows up.
type Indicator struct {
	service    LightService
	transition time.Duration
	pending    chan Color
	poll       time.Duration
}

func NewIndicator(service LightService, transition time.Duration) *Indicator {
	return &Indicator{
		service:    service,
		transition: transition,
		pending:    make(chan Color, 1),
		poll:       lightPollInterval,
	}
}

// OnToggle can be registered with a game.Controller.
func (i *Indicator) OnToggle(signal game.Signal, round int) {
	i.enqueue(SignalColor(signal))
}

// Show queues a colour.
func (i *Indicator) Show(c Color) {
	i.enqueue(c)
}

func (i *Indicator) enqueue(c Color) {
	for {
		select {
		case i.pending <- c:
			return
		default:
		}
		select {
		case <-i.pending:
		default:
		}
	}
}

// Run applies queued colours until ctx is done. The latest colour is sent
// again whenever the light count goes from zero to non-zero.
func (i *Indicator) Run(ctx context.Context) {
	ticker := time.NewTicker(i.poll)
	defer ticker.Stop()

	var (
		want      Color
		wanted    bool
		applied   bool
		lastCount int
	)
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-i.pending:
			want, wanted, applied = c, true, false
		case <-ticker.C:
		}

		count := i.service.LightCount()
		if count > 0 && lastCount == 0 {
			applied = false
		}
		lastCount = count

		if !wanted || applied || count == 0 {
			continue
		}
		start := time.Now()
		i.service.SetColorWithDuration(ctx, want, i.transition)
		applied = true
		logger.With(zap.Any("color", want), zap.Int("lights", count), zap.Stringer("took", time.Since(start))).Debug("Indicator updated")
	}
}

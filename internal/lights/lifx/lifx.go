package lifx

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/pdf/golifx"
	"github.com/pdf/golifx/common"
	"github.com/pdf/golifx/protocol"
	"go.uber.org/zap"

	"github.com/scheerer/redlight/internal/lights"
	"github.com/scheerer/redlight/internal/logging"
)

var logger = logging.New("lifx")

const (
	discoveryInterval = 15 * time.Second
	discoveryTimeout  = 5 * time.Second
	kelvin            = 3500
)

type LifxLights struct {
	config Config
	client *golifx.Client

	lightsMu sync.RWMutex
	group    common.Group
}

var _ lights.LightService = (*LifxLights)(nil)

type Config struct {
	GroupName     string
	MaxBrightness float64
	MinBrightness float64
}

func NewLifx(ctx context.Context, config Config) (*LifxLights, error) {
	client, err := golifx.NewClient(&protocol.V2{})
	if err != nil {
		return nil, err
	}

	l := &LifxLights{
		config: config,
		client: client,
	}
	go l.Start(ctx)
	return l, nil
}

func (l *LifxLights) Start(ctx context.Context) {
	ticker := time.NewTicker(discoveryInterval)
	defer ticker.Stop()

	l.client.SetDiscoveryInterval(discoveryInterval)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, discoveryTimeout)
	l.discover(ctxWithTimeout)
	cancel()

	for {
		select {
		case <-ticker.C:
			ctxWithTimeout, cancel := context.WithTimeout(ctx, discoveryTimeout)
			l.discover(ctxWithTimeout)
			cancel()
		case <-ctx.Done():
			return
		}
	}
}

func (l *LifxLights) Stop() {
	if err := l.client.Close(); err != nil {
		logger.With(zap.Error(err)).Warn("Failed to close LIFX client")
	}
}

func (l *LifxLights) discover(ctx context.Context) {
	logger.With(zap.String("group", l.config.GroupName)).Debug("LIFX discovery starting...")

	type found struct {
		group common.Group
		err   error
	}
	completed := make(chan found, 1)

	go func() {
		g, err := l.client.GetGroupByLabel(l.config.GroupName)
		completed <- found{group: g, err: err}
	}()

	select {
	case <-ctx.Done():
		logger.With(zap.Error(ctx.Err())).Warn("LIFX discovery timed out")
	case f := <-completed:
		if f.err != nil || f.group == nil {
			logger.With(zap.String("group", l.config.GroupName), zap.Error(f.err)).Warn("Couldn't discover LIFX group")
			return
		}
		l.lightsMu.Lock()
		changed := l.group == nil
		l.group = f.group
		l.lightsMu.Unlock()
		if changed {
			logger.With(zap.String("group", f.group.GetLabel())).Info("LIFX group found")
		}
	}
}

func (l *LifxLights) LightCount() int {
	l.lightsMu.RLock()
	defer l.lightsMu.RUnlock()

	if l.group == nil {
		return 0
	}
	return len(l.group.Lights())
}

func (l *LifxLights) SetColorWithDuration(ctx context.Context, color lights.Color, duration time.Duration) {
	l.lightsMu.RLock()
	group := l.group
	l.lightsMu.RUnlock()
	if group == nil {
		return
	}

	lifxColor := bulbColor(color, l.config)

	logger.With(zap.Any("color", color), zap.Any("lifxColor", lifxColor)).Debug("Setting LIFX group color")

	if err := group.SetColor(lifxColor, duration); err != nil {
		logger.With(zap.Error(err)).Warn("Failed to set color for LIFX group")
	}
}

// bulbColor maps an indicator colour onto the bulbs. Off switches them off;
// any other colour keeps its hue and has its brightness spread over
// [MinBrightness, MaxBrightness], so full Red and Green both land on MaxBrightness.
func bulbColor(c lights.Color, config Config) common.Color {
	if c == lights.Off {
		return common.Color{Kelvin: kelvin}
	}

	hue, saturation, value := lights.RgbToHsb(c.Red, c.Green, c.Blue)
	span := config.MaxBrightness - config.MinBrightness
	level := config.MinBrightness + span*float64(value)/0xFFFF

	return common.Color{
		Hue:        hue,
		Saturation: saturation,
		Brightness: uint16(math.Round(level * 0xFFFF)),
		Kelvin:     kelvin,
	}
}

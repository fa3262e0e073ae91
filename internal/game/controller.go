package game

import (
	"go.uber.org/zap"
)

// ToggleHook is told about every signal change. Hooks run on the caller's
// goroutine and must not block.
type ToggleHook func(signal Signal, round int)

// Controller alternates the session's signal on a single tick time-base.
// Every TimerDuration ticks the signal flips and the countdown is reset.
type Controller struct {
	session       *Session
	timerDuration int
	hooks         []ToggleHook
}

func NewController(session *Session, timerDuration int, hooks ...ToggleHook) *Controller {
	if timerDuration < 1 {
		timerDuration = 1
	}
	return &Controller{
		session:       session,
		timerDuration: timerDuration,
		hooks:         hooks,
	}
}

func (c *Controller) TimerDuration() int {
	return c.timerDuration
}

// Toggle flips Stop and Go and resets the countdown. It is a no-op once the
// session has ended.
func (c *Controller) Toggle() bool {
	c.session.mu.Lock()
	if !c.session.Running() {
		c.session.mu.Unlock()
		return false
	}
	signal, round := c.toggleLocked()
	c.session.mu.Unlock()

	c.notify(signal, round)
	return true
}

// Tick advances the countdown by one unit and toggles when it runs out.
// It reports whether the signal changed.
func (c *Controller) Tick() bool {
	c.session.mu.Lock()
	if !c.session.Running() {
		c.session.mu.Unlock()
		return false
	}

	remaining := c.session.countdown.Add(-1)
	if remaining > 0 {
		c.session.mu.Unlock()
		return false
	}

	signal, round := c.toggleLocked()
	c.session.mu.Unlock()

	c.notify(signal, round)
	return true
}

func (c *Controller) toggleLocked() (Signal, int) {
	s := c.session
	prev := s.Signal()
	if prev == Stop {
		s.stops.Add(1)
	}
	next := prev.Opposite()
	s.signal.Store(int32(next))
	s.countdown.Store(int64(c.timerDuration))
	round := int(s.rounds.Add(1))
	return next, round
}

func (c *Controller) notify(signal Signal, round int) {
	logger.With(zap.Stringer("signal", signal), zap.Int("round", round)).Debug("Signal toggled")
	for _, hook := range c.hooks {
		hook(signal, round)
	}
}

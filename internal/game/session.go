package game

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/scheerer/redlight/internal/logging"
)

var logger = logging.New("game")

type Signal int32

const (
	Stop Signal = iota
	Go
)

func (s Signal) String() string {
	switch s {
	case Stop:
		return "Red"
	case Go:
		return "Green"
	default:
		return "Unknown"
	}
}

func (s Signal) Opposite() Signal {
	if s == Stop {
		return Go
	}
	return Stop
}

// Reason records why a session ended.
type Reason int32

const (
	ReasonNone Reason = iota
	ReasonMotion
	ReasonUserQuit
	ReasonFrameReadFailure
	ReasonInterrupted
)

func (r Reason) String() string {
	switch r {
	case ReasonMotion:
		return "motion"
	case ReasonUserQuit:
		return "quit"
	case ReasonFrameReadFailure:
		return "frame read failure"
	case ReasonInterrupted:
		return "interrupted"
	default:
		return "none"
	}
}

// Session is the shared game state. Writers are the Controller (event loop)
// and whoever calls End; the motion monitor only reads.
// Writes happen under mu so that nothing changes after End returns.
type Session struct {
	mu sync.Mutex

	running   atomic.Bool
	signal    atomic.Int32
	countdown atomic.Int64
	rounds    atomic.Int64
	stops     atomic.Int64
	reason    atomic.Int32

	startedAt time.Time
	endedAt   atomic.Int64

	endOnce sync.Once
	done    chan struct{}
}

func NewSession(timerDuration int) *Session {
	s := &Session{
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}
	s.running.Store(true)
	s.signal.Store(int32(Stop))
	s.countdown.Store(int64(timerDuration))
	return s
}

func (s *Session) Running() bool {
	return s.running.Load()
}

func (s *Session) Signal() Signal {
	return Signal(s.signal.Load())
}

func (s *Session) Countdown() int {
	return int(s.countdown.Load())
}

// Rounds is the number of toggles that have happened.
func (s *Session) Rounds() int {
	return int(s.rounds.Load())
}

// StopsSurvived counts Stop phases that ran to completion.
func (s *Session) StopsSurvived() int {
	return int(s.stops.Load())
}

func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// EndedAt is the zero time while the session is running.
func (s *Session) EndedAt() time.Time {
	ns := s.endedAt.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

func (s *Session) Reason() Reason {
	return Reason(s.reason.Load())
}

// Done is closed once the session has ended.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// End terminates the session. Only the first call has an effect; it reports
// whether this call was the one that ended the session.
func (s *Session) End(reason Reason) bool {
	ended := false
	s.endOnce.Do(func() {
		s.mu.Lock()
		s.reason.Store(int32(reason))
		s.endedAt.Store(time.Now().UnixNano())
		s.running.Store(false)
		close(s.done)
		s.mu.Unlock()
		ended = true

		logger.With(
			zap.Stringer("reason", reason),
			zap.Int("rounds", s.Rounds()),
			zap.Stringer("signal", s.Signal()),
			zap.Duration("elapsed", time.Since(s.startedAt))).
			Info("Game over")
	})
	return ended
}

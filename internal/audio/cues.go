package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"

	"github.com/scheerer/redlight/internal/game"
	"github.com/scheerer/redlight/internal/logging"
)

var logger = logging.New("audio")

const sampleRate = beep.SampleRate(44100)

// note is a single sine tone; a zero frequency is a rest.
type note struct {
	freq     float64
	duration time.Duration
}

var (
	goMelody       = []note{{660, 90 * time.Millisecond}, {880, 140 * time.Millisecond}}
	stopMelody     = []note{{440, 250 * time.Millisecond}}
	gameOverMelody = []note{{523, 180 * time.Millisecond}, {0, 40 * time.Millisecond}, {392, 180 * time.Millisecond}, {0, 40 * time.Millisecond}, {262, 450 * time.Millisecond}}
)

// Cues plays short sounds for signal changes and the end of a game.
type Cues struct {
	mu          sync.Mutex
	initialized bool
	volume      float64
}

func NewCues() *Cues {
	return &Cues{volume: 0.3}
}

func (c *Cues) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// OnToggle can be registered with a game.Controller; playback is asynchronous.
func (c *Cues) OnToggle(signal game.Signal, round int) {
	if signal == game.Go {
		c.play(goMelody)
	} else {
		c.play(stopMelody)
	}
}

func (c *Cues) GameOver() {
	c.play(gameOverMelody)
}

func (c *Cues) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	c.initialized = false
}

func (c *Cues) play(notes []note) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return
	}
	speaker.Clear()
	speaker.Play(melody(notes, c.volume, sampleRate))
	logger.With(zap.Int("notes", len(notes))).Debug("Playing cue")
}

// melody renders notes back to back.
func melody(notes []note, volume float64, rate beep.SampleRate) beep.Streamer {
	streamers := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		if n.freq == 0 {
			streamers = append(streamers, beep.Silence(rate.N(n.duration)))
			continue
		}
		streamers = append(streamers, newTone(n.freq, n.duration, volume, rate))
	}
	return beep.Seq(streamers...)
}

// tone is a sine wave with a short linear fade at both ends to avoid clicks.
type tone struct {
	freq     float64
	volume   float64
	rate     beep.SampleRate
	position int
	total    int
	fade     int
}

func newTone(freq float64, duration time.Duration, volume float64, rate beep.SampleRate) *tone {
	total := rate.N(duration)
	fade := rate.N(5 * time.Millisecond)
	if fade*2 > total {
		fade = total / 2
	}
	return &tone{freq: freq, volume: volume, rate: rate, total: total, fade: fade}
}

func (t *tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if t.position >= t.total {
			return i, i > 0
		}

		gain := t.volume
		if t.fade > 0 {
			if t.position < t.fade {
				gain *= float64(t.position) / float64(t.fade)
			} else if remaining := t.total - t.position; remaining < t.fade {
				gain *= float64(remaining) / float64(t.fade)
			}
		}

		v := gain * math.Sin(2*math.Pi*t.freq*float64(t.position)/float64(t.rate))
		samples[i][0] = v
		samples[i][1] = v
		t.position++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

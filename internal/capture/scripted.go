package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Scripted replays a fixed sequence of frames and then fails like a
// disconnected camera. It owns the frames it is given.
type Scripted struct {
	mu     sync.Mutex
	frames []gocv.Mat
	next   int
	reads  int
	closed bool
}

var _ FrameSource = (*Scripted)(nil)

func NewScripted(frames ...gocv.Mat) *Scripted {
	return &Scripted{frames: frames}
}

func (s *Scripted) Read(dst *gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads++
	if s.closed {
		return fmt.Errorf("%w: scripted source closed", ErrFrameRead)
	}
	if s.next >= len(s.frames) {
		return fmt.Errorf("%w: scripted source exhausted after %d frames", ErrFrameRead, len(s.frames))
	}
	s.frames[s.next].CopyTo(dst)
	s.next++
	return nil
}

// Reads counts calls to Read, including failed ones.
func (s *Scripted) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *Scripted) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Scripted) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	for i := range s.frames {
		s.frames[i].Close()
	}
	return nil
}

func (s *Scripted) Name() string {
	return "scripted"
}

package pipeline

import "sync"

// Signals is the controller's three-external-signal cancellation surface
// (spec.md §4.F, §5): pause/resume toggle the harvest loop's between-
// container gate, Stop requests a graceful finish, StopEmergency additionally
// tells the driver to cancel in-flight work.
type Signals struct {
	mu        sync.Mutex
	paused    bool
	stopped   bool
	emergency bool
	resumeCh  chan struct{}
}

func NewSignals() *Signals {
	return &Signals{resumeCh: make(chan struct{}, 1)}
}

// Pause blocks the next between-container checkpoint until Resume is called.
func (s *Signals) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// Resume releases a paused controller.
func (s *Signals) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
	select {
	case s.resumeCh <- struct{}{}:
	default:
	}
}

// Stop requests a graceful finish: the controller finishes its current
// container, persists any fully-verified download, then finalizes. Also
// wakes a goroutine blocked in waitIfPaused, since a stop must cut a pause
// short rather than wait for a Resume that may never come.
func (s *Signals) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.wake()
}

// StopEmergency requests an immediate stop: same as Stop, plus the driver's
// best-effort cancellation of in-flight navigation/downloads.
func (s *Signals) StopEmergency() {
	s.mu.Lock()
	s.stopped = true
	s.emergency = true
	s.mu.Unlock()
	s.wake()
}

func (s *Signals) wake() {
	select {
	case s.resumeCh <- struct{}{}:
	default:
	}
}

func (s *Signals) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Signals) isEmergency() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emergency
}

// waitIfPaused blocks the calling goroutine while paused is set, returning
// early if Stop fires while waiting.
func (s *Signals) waitIfPaused() {
	for {
		s.mu.Lock()
		paused := s.paused
		stopped := s.stopped
		s.mu.Unlock()
		if !paused || stopped {
			return
		}
		<-s.resumeCh
	}
}

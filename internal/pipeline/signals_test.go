package pipeline

import (
	"sync"
	"testing"
	"time"
)

func TestSignalsPauseBlocksUntilResume(t *testing.T) {
	s := NewSignals()
	s.Pause()

	var wg sync.WaitGroup
	released := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.waitIfPaused()
		close(released)
	}()

	select {
	case <-released:
		t.Fatalf("waitIfPaused returned before Resume was called")
	case <-time.After(50 * time.Millisecond):
	}

	s.Resume()

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatalf("waitIfPaused did not return after Resume")
	}
	wg.Wait()
}

func TestSignalsStopReleasesAPausedWaiter(t *testing.T) {
	s := NewSignals()
	s.Pause()

	done := make(chan struct{})
	go func() {
		s.waitIfPaused()
		close(done)
	}()

	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("waitIfPaused did not return after Stop")
	}
	if !s.isStopped() {
		t.Fatalf("expected isStopped() true")
	}
}

func TestSignalsStopEmergencySetsBothFlags(t *testing.T) {
	s := NewSignals()
	s.StopEmergency()
	if !s.isStopped() || !s.isEmergency() {
		t.Fatalf("expected both stopped and emergency set")
	}
}

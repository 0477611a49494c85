package announce

import (
	"errors"
	"sync"
	"testing"
)

func TestHostShutdownFiresOnce(t *testing.T) {
	calls := 0
	h := NewHostShutdown(func() error {
		calls++
		return nil
	})

	for i := 0; i < 3; i++ {
		if err := h.Request(); err != nil {
			t.Fatalf("Request: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("shutdown ran %d times, want 1", calls)
	}
}

func TestHostShutdownConcurrent(t *testing.T) {
	calls := 0
	h := NewHostShutdown(func() error {
		calls++
		return errors.New("not permitted")
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := h.Request(); err == nil {
				t.Error("Request did not return the first invocation's error")
			}
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("shutdown ran %d times, want 1", calls)
	}
}

func TestSpeakerDisabled(t *testing.T) {
	// Empty command must be a no-op, not a crash.
	NewSpeaker("").Say("hello")

	var s *Speaker
	s.Say("hello")
}

// Package announce holds the collaborators that act on alert decisions:
// spoken alerts through an external speech command and the one-shot host
// power-off request. The core never calls the OS directly.
package announce

import (
	"os/exec"
	"runtime"
	"sync"
)

// Speaker plays spoken alerts by shelling out to a text-to-speech
// command. Playback is fire-and-forget; a missing command is silently a
// no-op so a headless box still gets logged alerts.
type Speaker struct {
	command string
	args    []string
}

// NewSpeaker builds a Speaker for the given command line, e.g.
// "espeak-ng". An empty command disables speech.
func NewSpeaker(command string, args ...string) *Speaker {
	return &Speaker{command: command, args: args}
}

// DefaultSpeaker picks the platform's usual speech command.
func DefaultSpeaker() *Speaker {
	if runtime.GOOS == "darwin" {
		return NewSpeaker("say")
	}
	return NewSpeaker("espeak-ng")
}

// Say speaks msg without blocking the caller.
func (s *Speaker) Say(msg string) {
	if s == nil || s.command == "" {
		return
	}
	args := append(append([]string{}, s.args...), msg)
	cmd := exec.Command(s.command, args...)
	go cmd.Run()
}

// HostShutdown requests an operating system power-off. The request fires
// at most once for the process lifetime, no matter how many callers race
// to it.
type HostShutdown struct {
	once sync.Once
	run  func() error
	err  error
}

// NewHostShutdown creates the one-shot power-off collaborator. A nil run
// function uses the platform shutdown command with a short grace delay.
func NewHostShutdown(run func() error) *HostShutdown {
	if run == nil {
		run = platformShutdown
	}
	return &HostShutdown{run: run}
}

// Request triggers the power-off exactly once and returns the result of
// that first invocation on every call.
func (h *HostShutdown) Request() error {
	h.once.Do(func() {
		h.err = h.run()
	})
	return h.err
}

func platformShutdown() error {
	if runtime.GOOS == "windows" {
		return exec.Command("shutdown", "/s", "/t", "5").Run()
	}
	return exec.Command("shutdown", "-h", "+0").Run()
}

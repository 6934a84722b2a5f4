//go:build !cgo

package player

import (
	"sync"

	"github.com/gopxl/beep/v2"
)

// Speaker stands in for the system audio device in builds without cgo,
// where no device can be opened. Every playback attempt is rejected.
type Speaker struct {
	mu sync.Mutex
}

// NewSpeaker returns an output that rejects playback.
func NewSpeaker() Output { return &Speaker{} }

func (*Speaker) Init(beep.SampleRate, int) error { return ErrPlaybackRejected }
func (*Speaker) Play(beep.Streamer)              {}
func (*Speaker) Clear()                          {}
func (s *Speaker) Lock()                         { s.mu.Lock() }
func (s *Speaker) Unlock()                       { s.mu.Unlock() }

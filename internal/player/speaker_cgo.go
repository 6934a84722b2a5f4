//go:build cgo

package player

import (
	"fmt"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Speaker is the system audio device.
type Speaker struct{}

// NewSpeaker returns the system speaker output.
func NewSpeaker() Output { return Speaker{} }

func (Speaker) Init(rate beep.SampleRate, bufferSize int) error {
	if err := speaker.Init(rate, bufferSize); err != nil {
		return fmt.Errorf("%w: %w", ErrPlaybackRejected, err)
	}
	return nil
}

func (Speaker) Play(s beep.Streamer) { speaker.Play(s) }
func (Speaker) Clear()               { speaker.Clear() }
func (Speaker) Lock()                { speaker.Lock() }
func (Speaker) Unlock()              { speaker.Unlock() }

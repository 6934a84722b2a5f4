package player

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
)

// Output is the audio sink. The beep speaker is the production output;
// tests use a silent one.
type Output interface {
	// Init prepares the device at rate. It is called once per Player.
	Init(rate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

// bufferFor returns the speaker buffer size used for rate.
func bufferFor(rate beep.SampleRate) int {
	return rate.N(time.Second / 10)
}

// Silent is an Output that drains streamers on a ticker without a device.
// It keeps the timing of real playback so finish callbacks still fire.
type Silent struct {
	rate    beep.SampleRate
	mixer   beep.Mixer
	stop    chan struct{}
	mu      sync.Mutex
	started bool
}

// NewSilent returns an output that discards audio.
func NewSilent() *Silent {
	return &Silent{stop: make(chan struct{})}
}

func (s *Silent) Init(rate beep.SampleRate, bufferSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.rate = rate
	s.started = true
	go s.drain(bufferSize)
	return nil
}

func (s *Silent) drain(bufferSize int) {
	buf := make([][2]float64, bufferSize)
	ticker := time.NewTicker(s.rate.D(bufferSize))
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.mixer.Stream(buf)
			s.mu.Unlock()
		}
	}
}

func (s *Silent) Play(st beep.Streamer) {
	s.mu.Lock()
	s.mixer.Add(st)
	s.mu.Unlock()
}

func (s *Silent) Clear() {
	s.mu.Lock()
	s.mixer.Clear()
	s.mu.Unlock()
}

func (s *Silent) Lock()   { s.mu.Lock() }
func (s *Silent) Unlock() { s.mu.Unlock() }

// Close stops the drain loop.
func (s *Silent) Close() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}

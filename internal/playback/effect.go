package playback

import "github.com/llehouerou/waveshelf/internal/radio"

// Effect is a side effect requested by Reduce and run by the Service.
type Effect interface{ effect() }

// TeardownSource stops the transport, cancels any connect in flight and
// revokes the handles of the previous source.
type TeardownSource struct{}

// LoadLocal reads a track's payload and plays it.
type LoadLocal struct {
	TrackID    int64
	Generation uint64
}

// ConnectRadio opens a station stream in the background, bounded by the
// connect timeout.
type ConnectRadio struct {
	Station    radio.Station
	Generation uint64
}

type PauseOutput struct{}

type ResumeOutput struct{}

type SeekOutput struct{ Fraction float64 }

func (TeardownSource) effect() {}
func (LoadLocal) effect()      {}
func (ConnectRadio) effect()   {}
func (PauseOutput) effect()    {}
func (ResumeOutput) effect()   {}
func (SeekOutput) effect()     {}

package playback

import (
	"github.com/llehouerou/waveshelf/internal/playlist"
	"github.com/llehouerou/waveshelf/internal/radio"
)

// Event is an input to Reduce.
type Event interface{ event() }

// ViewChanged replaces the queue with the ids of the view just rendered.
type ViewChanged struct{ Queue playlist.Queue }

// SelectTrack starts a local track. Ignored unless ID is in the queue.
type SelectTrack struct{ ID int64 }

// SelectStation starts a radio station. The queue is not consulted.
type SelectStation struct{ Station radio.Station }

type Next struct{}

type Previous struct{}

// Finished reports that the source of Generation ran out of data.
type Finished struct{ Generation uint64 }

type TogglePlayPause struct{}

// Seek moves a local source to Fraction (0..1) of its length.
type Seek struct{ Fraction float64 }

// SourceReady reports that the transport produced audio for Generation.
type SourceReady struct{ Generation uint64 }

// SourceFailed reports that the source of Generation could not start.
type SourceFailed struct {
	Generation uint64
	Err        error
}

func (ViewChanged) event()     {}
func (SelectTrack) event()     {}
func (SelectStation) event()   {}
func (Next) event()            {}
func (Previous) event()        {}
func (Finished) event()        {}
func (TogglePlayPause) event() {}
func (Seek) event()            {}
func (SourceReady) event()     {}
func (SourceFailed) event()    {}

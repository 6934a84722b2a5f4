// Package playback is the playback engine: a pure state reducer plus the
// Service that runs its effects against the audio transport.
package playback

import (
	"context"
	"errors"
	"time"

	"github.com/llehouerou/waveshelf/internal/playlist"
)

var (
	// ErrNotInQueue is returned when selecting a track outside the current view.
	ErrNotInQueue = errors.New("track is not in the current queue")
	// ErrUnknownStation is returned for a station id missing from the directory.
	ErrUnknownStation = errors.New("unknown radio station")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("playback service closed")
)

// NowPlaying describes the active or last source for display.
type NowPlaying struct {
	Kind      Kind   `json:"kind"`
	TrackID   int64  `json:"trackId,omitempty"`
	StationID string `json:"stationId,omitempty"`
	Title     string `json:"title"`
	Artist    string `json:"artist,omitempty"`
	Album     string `json:"album,omitempty"`
	ArtURL    string `json:"artUrl,omitempty"`
	MediaURL  string `json:"mediaUrl,omitempty"`
}

// Snapshot is everything a display needs to draw the player.
type Snapshot struct {
	NowPlaying

	Phase       Phase         `json:"phase"`
	CanToggle   bool          `json:"canToggle"`
	CanNext     bool          `json:"canNext"`
	CanPrevious bool          `json:"canPrevious"`
	CanSeek     bool          `json:"canSeek"`
	Position    time.Duration `json:"-"`
	Duration    time.Duration `json:"-"`
	Error       string        `json:"error,omitempty"`
	QueueLen    int           `json:"queueLen"`
}

// Service defines the playback service contract.
type Service interface {
	// SetQueue replaces the queue with the ids of the rendered view.
	SetQueue(q playlist.Queue)

	// SelectTrack plays a track of the queue. It returns once the track
	// plays or failed to load.
	SelectTrack(ctx context.Context, id int64) error
	// SelectStation starts connecting to a station and returns without
	// waiting for the stream. The outcome is published as events.
	SelectStation(ctx context.Context, id string) error

	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	TogglePlayPause()
	Seek(fraction float64) error

	State() State
	Snapshot() Snapshot

	Subscribe() *Subscription
	// Unsubscribe stops delivery to sub and closes it.
	Unsubscribe(sub *Subscription)
	Close() error
}

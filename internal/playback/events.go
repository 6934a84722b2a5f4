package playback

import "time"

// StateChange is emitted after a transition changed the source or phase.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted when a new source starts.
//
// Emitted by:
//   - SelectTrack / SelectStation
//   - Next / Previous
//   - automatic advance when a local track finishes
//
// NOT emitted by toggling, seeking or failures; those produce StateChange
// and ErrorEvent only.
type TrackChange struct {
	Previous NowPlaying
	Current  NowPlaying
}

// QueueChange is emitted when the displayed view replaces the queue.
type QueueChange struct {
	IDs []int64
	// Index of the current track in IDs, or -1.
	Index int
}

// PositionChange is emitted when a seek occurs.
type PositionChange struct {
	Position time.Duration
}

// ErrorEvent is emitted when a source fails to start or drops.
type ErrorEvent struct {
	Operation string // e.g., "connect to radio"
	Subject   string // track title or station id
	Message   string // user-facing text
	Err       error
}

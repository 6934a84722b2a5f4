package playback

import (
	"github.com/llehouerou/waveshelf/internal/playlist"
	"github.com/llehouerou/waveshelf/internal/radio"
)

// Phase is the lifecycle position of the active source.
//
//	Idle ──select──► Loading ──ready──► Playing ◄──toggle──► Paused
//	                    │                  │
//	                    └──fail──► Failed  └──finished──► Loading (next) | Ended
//
//	Idle ──station──► RadioConnecting ──ready──► Playing
//	                        └──fail/timeout──► RadioFailed
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhasePlaying
	PhasePaused
	PhaseEnded
	PhaseRadioConnecting
	PhaseRadioFailed
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhasePlaying:
		return "playing"
	case PhasePaused:
		return "paused"
	case PhaseEnded:
		return "ended"
	case PhaseRadioConnecting:
		return "radio_connecting"
	case PhaseRadioFailed:
		return "radio_failed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Audible reports whether the transport is outputting (or holding) audio.
func (p Phase) Audible() bool {
	return p == PhasePlaying || p == PhasePaused
}

// Kind is the type of the current source.
type Kind int

const (
	KindNone Kind = iota
	KindLocal
	KindRadio
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindRadio:
		return "radio"
	default:
		return "none"
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Failure describes why the last source could not play.
type Failure struct {
	// Reason is set for radio failures.
	Reason  radio.Reason
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Message
	}
	return f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }

// State is one immutable snapshot of the engine. Reduce never mutates
// its input; every transition returns a new value.
type State struct {
	Phase   Phase
	Kind    Kind
	TrackID int64
	Station radio.Station
	Queue   playlist.Queue
	Policy  playlist.Policy
	Failure *Failure

	// Generation identifies the current source. Asynchronous outcomes
	// carrying an older generation are ignored.
	Generation uint64
}

// CanNavigate reports whether Next and Previous have an effect.
func (s State) CanNavigate() bool {
	return s.Kind == KindLocal && s.Queue.Contains(s.TrackID)
}

// CanSeek reports whether Seek has an effect.
func (s State) CanSeek() bool {
	return s.Kind == KindLocal && s.Phase.Audible()
}

// HasSource reports whether a source is loaded or being loaded.
func (s State) HasSource() bool {
	switch s.Phase {
	case PhaseLoading, PhasePlaying, PhasePaused, PhaseRadioConnecting:
		return true
	}
	return false
}

// sameSource compares everything but the queue.
func (s State) sameSource(o State) bool {
	return s.Phase == o.Phase &&
		s.Kind == o.Kind &&
		s.TrackID == o.TrackID &&
		s.Station == o.Station &&
		s.Failure == o.Failure &&
		s.Generation == o.Generation
}

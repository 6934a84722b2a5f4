package player

// State is the transport state.
//
//	           PlayLocal / PlayStream
//	┌─────────┐ ─────────────────────▶ ┌─────────┐
//	│ Stopped │                        │ Playing │
//	└─────────┘ ◀───────────────────── └─────────┘
//	     ▲        Stop / end of data      │   ▲
//	     │                          Pause │   │ Resume
//	     │            Stop                ▼   │
//	     └─────────────────────────── ┌─────────┐
//	                                  │ Paused  │
//	                                  └─────────┘
//
// Pause on anything but Playing and Resume on anything but Paused are
// ignored. Starting a source always stops the previous one first.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// CanPause returns true if the state allows pausing.
func (s State) CanPause() bool {
	return s == Playing
}

// CanResume returns true if the state allows resuming.
func (s State) CanResume() bool {
	return s == Paused
}

// SourceKind tells what the transport is playing.
type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceLocal
	SourceStream
)

func (k SourceKind) String() string {
	switch k {
	case SourceLocal:
		return "local"
	case SourceStream:
		return "stream"
	default:
		return "none"
	}
}

// Seekable reports whether sources of this kind support seeking.
func (k SourceKind) Seekable() bool {
	return k == SourceLocal
}

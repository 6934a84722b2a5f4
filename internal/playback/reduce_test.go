package playback

import (
	"context"
	"errors"
	"testing"

	"github.com/llehouerou/waveshelf/internal/playlist"
	"github.com/llehouerou/waveshelf/internal/radio"
)

var jazz = radio.Station{ID: "jazz", Title: "Jazz", StreamURL: "http://jazz.example/stream"}

func queued(ids ...int64) State {
	return State{Queue: playlist.NewQueue(ids), Policy: playlist.Wrap}
}

func playing(s State, id int64) State {
	s, _ = Reduce(s, SelectTrack{ID: id})
	s, _ = Reduce(s, SourceReady{Generation: s.Generation})
	return s
}

func effectTypes(effects []Effect) []string {
	out := make([]string, len(effects))
	for i, e := range effects {
		switch e.(type) {
		case TeardownSource:
			out[i] = "teardown"
		case LoadLocal:
			out[i] = "load"
		case ConnectRadio:
			out[i] = "connect"
		case PauseOutput:
			out[i] = "pause"
		case ResumeOutput:
			out[i] = "resume"
		case SeekOutput:
			out[i] = "seek"
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestReduce_SelectTrack(t *testing.T) {
	s := queued(1, 2, 3)

	next, effects := Reduce(s, SelectTrack{ID: 2})
	if next.Phase != PhaseLoading || next.Kind != KindLocal || next.TrackID != 2 {
		t.Fatalf("state = %+v, want Loading local 2", next)
	}
	if got := effectTypes(effects); !equalStrings(got, []string{"teardown", "load"}) {
		t.Errorf("effects = %v", got)
	}
	if load := effects[1].(LoadLocal); load.Generation != next.Generation || load.TrackID != 2 {
		t.Errorf("load = %+v, generation %d", load, next.Generation)
	}
	if s.Phase != PhaseIdle {
		t.Error("Reduce mutated its input")
	}
}

func TestReduce_SelectTrack_NotInQueue(t *testing.T) {
	s := queued(1, 2)
	next, effects := Reduce(s, SelectTrack{ID: 9})
	if next.Phase != PhaseIdle || len(effects) != 0 {
		t.Errorf("got %v with %d effects, want no-op", next.Phase, len(effects))
	}
}

func TestReduce_SourceReady(t *testing.T) {
	s, _ := Reduce(queued(1), SelectTrack{ID: 1})

	stale, _ := Reduce(s, SourceReady{Generation: s.Generation - 1})
	if stale.Phase != PhaseLoading {
		t.Errorf("stale ready moved phase to %v", stale.Phase)
	}

	ready, _ := Reduce(s, SourceReady{Generation: s.Generation})
	if ready.Phase != PhasePlaying {
		t.Errorf("phase = %v, want playing", ready.Phase)
	}
}

func TestReduce_NextPreviousWrap(t *testing.T) {
	s := playing(queued(10, 20, 30), 10)

	// Next K times from the first element returns to it.
	for _, want := range []int64{20, 30, 10} {
		s, _ = Reduce(s, Next{})
		if s.TrackID != want {
			t.Fatalf("next = %d, want %d", s.TrackID, want)
		}
		s, _ = Reduce(s, SourceReady{Generation: s.Generation})
	}

	s, _ = Reduce(s, Previous{})
	if s.TrackID != 30 {
		t.Errorf("previous from first = %d, want 30", s.TrackID)
	}
}

func TestReduce_NextPreviousClamp(t *testing.T) {
	s := queued(10, 20)
	s.Policy = playlist.Clamp
	s = playing(s, 20)

	next, effects := Reduce(s, Next{})
	if next.TrackID != 20 || len(effects) != 0 {
		t.Errorf("next at end = %d with %d effects, want no-op", next.TrackID, len(effects))
	}

	s = playing(s, 10)
	prev, effects := Reduce(s, Previous{})
	if prev.TrackID != 10 || len(effects) != 0 {
		t.Errorf("previous at start = %d with %d effects, want no-op", prev.TrackID, len(effects))
	}
}

func TestReduce_NavigationDisabled(t *testing.T) {
	tests := []struct {
		name  string
		state State
	}{
		{"idle", queued(1, 2)},
		{"empty queue", playing(queued(1), 1).withQueue()},
		{"radio", func() State { s, _ := Reduce(queued(1, 2), SelectStation{Station: jazz}); return s }()},
		{"track left the view", playing(queued(1, 2), 1).withQueue(5, 6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.state.CanNavigate() {
				t.Fatal("CanNavigate() = true")
			}
			for _, ev := range []Event{Next{}, Previous{}} {
				next, effects := Reduce(tt.state, ev)
				if next.Generation != tt.state.Generation || len(effects) != 0 {
					t.Errorf("%T changed state", ev)
				}
			}
		})
	}
}

// withQueue replaces the queue the way a new view would.
func (s State) withQueue(ids ...int64) State {
	s, _ = Reduce(s, ViewChanged{Queue: playlist.NewQueue(ids)})
	return s
}

func TestReduce_Finished(t *testing.T) {
	t.Run("advances", func(t *testing.T) {
		s := playing(queued(1, 2), 1)
		next, effects := Reduce(s, Finished{Generation: s.Generation})
		if next.TrackID != 2 || next.Phase != PhaseLoading {
			t.Errorf("got %d %v, want loading 2", next.TrackID, next.Phase)
		}
		if got := effectTypes(effects); !equalStrings(got, []string{"teardown", "load"}) {
			t.Errorf("effects = %v", got)
		}
	})

	t.Run("wraps", func(t *testing.T) {
		s := playing(queued(1, 2), 2)
		next, _ := Reduce(s, Finished{Generation: s.Generation})
		if next.TrackID != 1 {
			t.Errorf("got %d, want 1", next.TrackID)
		}
	})

	t.Run("ends under clamp", func(t *testing.T) {
		s := queued(1, 2)
		s.Policy = playlist.Clamp
		s = playing(s, 2)
		next, effects := Reduce(s, Finished{Generation: s.Generation})
		if next.Phase != PhaseEnded {
			t.Errorf("phase = %v, want ended", next.Phase)
		}
		if got := effectTypes(effects); !equalStrings(got, []string{"teardown"}) {
			t.Errorf("effects = %v", got)
		}
	})

	t.Run("ends when track left the view", func(t *testing.T) {
		s := playing(queued(1, 2), 1).withQueue(7)
		next, _ := Reduce(s, Finished{Generation: s.Generation})
		if next.Phase != PhaseEnded {
			t.Errorf("phase = %v, want ended", next.Phase)
		}
	})

	t.Run("stale generation ignored", func(t *testing.T) {
		s := playing(queued(1, 2), 1)
		next, effects := Reduce(s, Finished{Generation: s.Generation - 1})
		if next.TrackID != 1 || len(effects) != 0 {
			t.Error("stale finish was applied")
		}
	})

	t.Run("radio finish is a failure", func(t *testing.T) {
		s, _ := Reduce(queued(), SelectStation{Station: jazz})
		s, _ = Reduce(s, SourceReady{Generation: s.Generation})
		next, effects := Reduce(s, Finished{Generation: s.Generation})
		if next.Phase != PhaseRadioFailed || next.Failure == nil {
			t.Fatalf("phase = %v, want radio failed", next.Phase)
		}
		if next.Failure.Reason != radio.ReasonNetwork {
			t.Errorf("reason = %v, want network", next.Failure.Reason)
		}
		if !errors.Is(next.Failure, radio.ErrStreamEnded) {
			t.Error("failure does not wrap ErrStreamEnded")
		}
		if got := effectTypes(effects); !equalStrings(got, []string{"teardown"}) {
			t.Errorf("effects = %v", got)
		}
	})
}

func TestReduce_TogglePlayPause(t *testing.T) {
	s := playing(queued(1), 1)

	paused, effects := Reduce(s, TogglePlayPause{})
	if paused.Phase != PhasePaused || !equalStrings(effectTypes(effects), []string{"pause"}) {
		t.Errorf("toggle from playing = %v %v", paused.Phase, effectTypes(effects))
	}
	resumed, effects := Reduce(paused, TogglePlayPause{})
	if resumed.Phase != PhasePlaying || !equalStrings(effectTypes(effects), []string{"resume"}) {
		t.Errorf("toggle from paused = %v %v", resumed.Phase, effectTypes(effects))
	}

	for _, phase := range []Phase{PhaseIdle, PhaseLoading, PhaseEnded, PhaseRadioConnecting, PhaseRadioFailed, PhaseFailed} {
		st := State{Phase: phase}
		next, effects := Reduce(st, TogglePlayPause{})
		if next.Phase != phase || len(effects) != 0 {
			t.Errorf("toggle in %v changed state", phase)
		}
	}
}

func TestReduce_Seek(t *testing.T) {
	s := playing(queued(1), 1)
	_, effects := Reduce(s, Seek{Fraction: 1.7})
	if len(effects) != 1 || effects[0].(SeekOutput).Fraction != 1 {
		t.Errorf("effects = %+v, want clamped seek", effects)
	}

	r, _ := Reduce(queued(), SelectStation{Station: jazz})
	r, _ = Reduce(r, SourceReady{Generation: r.Generation})
	if _, effects := Reduce(r, Seek{Fraction: 0.5}); len(effects) != 0 {
		t.Error("radio accepted a seek")
	}
}

func TestReduce_Radio(t *testing.T) {
	s := playing(queued(1, 2), 1)

	next, effects := Reduce(s, SelectStation{Station: jazz})
	if next.Phase != PhaseRadioConnecting || next.Kind != KindRadio || next.TrackID != 0 {
		t.Fatalf("state = %+v", next)
	}
	if got := effectTypes(effects); !equalStrings(got, []string{"teardown", "connect"}) {
		t.Errorf("effects = %v", got)
	}
	if !next.Queue.Equal(s.Queue) {
		t.Error("radio replaced the queue")
	}

	failed, effects := Reduce(next, SourceFailed{Generation: next.Generation, Err: context.DeadlineExceeded})
	if failed.Phase != PhaseRadioFailed || failed.Failure.Reason != radio.ReasonTimeout {
		t.Errorf("got %v %+v, want radio failed timeout", failed.Phase, failed.Failure)
	}
	if !equalStrings(effectTypes(effects), []string{"teardown"}) {
		t.Errorf("effects = %v", effectTypes(effects))
	}
	if failed.HasSource() {
		t.Error("failed radio still has a source")
	}

	// Only a fresh selection recovers.
	again, _ := Reduce(failed, SourceReady{Generation: failed.Generation})
	if again.Phase != PhaseRadioFailed {
		t.Errorf("ready after failure moved to %v", again.Phase)
	}
}

func TestReduce_StaleRadioOutcomeAfterLocalSelect(t *testing.T) {
	s, _ := Reduce(queued(1), SelectStation{Station: jazz})
	connectGen := s.Generation

	s, _ = Reduce(s, SelectTrack{ID: 1})
	s, _ = Reduce(s, SourceReady{Generation: s.Generation})

	for _, ev := range []Event{
		SourceReady{Generation: connectGen},
		SourceFailed{Generation: connectGen, Err: context.Canceled},
	} {
		next, effects := Reduce(s, ev)
		if next.Phase != PhasePlaying || next.Kind != KindLocal || len(effects) != 0 {
			t.Errorf("%T from the old connect changed state to %v", ev, next.Phase)
		}
	}
}

func TestReduce_LocalLoadFailure(t *testing.T) {
	s, _ := Reduce(queued(1, 2), SelectTrack{ID: 1})
	failed, effects := Reduce(s, SourceFailed{Generation: s.Generation, Err: errors.New("bad file")})
	if failed.Phase != PhaseFailed || failed.Failure == nil {
		t.Fatalf("phase = %v, want failed", failed.Phase)
	}
	if !equalStrings(effectTypes(effects), []string{"teardown"}) {
		t.Errorf("effects = %v", effectTypes(effects))
	}
	// The user can move on from a broken track.
	next, _ := Reduce(failed, Next{})
	if next.TrackID != 2 || next.Phase != PhaseLoading {
		t.Errorf("next after failure = %d %v", next.TrackID, next.Phase)
	}
}

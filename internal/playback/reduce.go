package playback

import (
	"github.com/llehouerou/waveshelf/internal/errmsg"
	"github.com/llehouerou/waveshelf/internal/radio"
)

// Reduce applies ev to s and returns the next state with the effects the
// Service must run, in order. It has no side effects.
func Reduce(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case ViewChanged:
		s.Queue = e.Queue
		return s, nil

	case SelectTrack:
		if !s.Queue.Contains(e.ID) {
			return s, nil
		}
		return startLocal(s, e.ID)

	case SelectStation:
		return startRadio(s, e.Station)

	case Next:
		return step(s, 1)

	case Previous:
		return step(s, -1)

	case Finished:
		return finished(s, e.Generation)

	case TogglePlayPause:
		switch s.Phase {
		case PhasePlaying:
			s.Phase = PhasePaused
			return s, []Effect{PauseOutput{}}
		case PhasePaused:
			s.Phase = PhasePlaying
			return s, []Effect{ResumeOutput{}}
		}
		return s, nil

	case Seek:
		if !s.CanSeek() {
			return s, nil
		}
		return s, []Effect{SeekOutput{Fraction: min(max(e.Fraction, 0), 1)}}

	case SourceReady:
		if e.Generation != s.Generation {
			return s, nil
		}
		if s.Phase == PhaseLoading || s.Phase == PhaseRadioConnecting {
			s.Phase = PhasePlaying
		}
		return s, nil

	case SourceFailed:
		if e.Generation != s.Generation {
			return s, nil
		}
		switch s.Phase {
		case PhaseRadioConnecting:
			return radioFailed(s, e.Err)
		case PhaseLoading:
			s.Phase = PhaseFailed
			s.Failure = &Failure{Message: errmsg.TrackLoadFailed, Err: e.Err}
			return s, []Effect{TeardownSource{}}
		}
		return s, nil
	}
	return s, nil
}

func startLocal(s State, id int64) (State, []Effect) {
	s.Generation++
	s.Phase = PhaseLoading
	s.Kind = KindLocal
	s.TrackID = id
	s.Station = radio.Station{}
	s.Failure = nil
	return s, []Effect{
		TeardownSource{},
		LoadLocal{TrackID: id, Generation: s.Generation},
	}
}

func startRadio(s State, st radio.Station) (State, []Effect) {
	s.Generation++
	s.Phase = PhaseRadioConnecting
	s.Kind = KindRadio
	s.TrackID = 0
	s.Station = st
	s.Failure = nil
	return s, []Effect{
		TeardownSource{},
		ConnectRadio{Station: st, Generation: s.Generation},
	}
}

func step(s State, dir int) (State, []Effect) {
	if !s.CanNavigate() {
		return s, nil
	}
	id, ok := s.Queue.Adjacent(s.TrackID, dir, s.Policy)
	if !ok {
		return s, nil
	}
	return startLocal(s, id)
}

func finished(s State, gen uint64) (State, []Effect) {
	if gen != s.Generation || !s.Phase.Audible() {
		return s, nil
	}
	if s.Kind == KindRadio {
		// Live streams do not end on their own.
		return radioFailed(s, radio.ErrStreamEnded)
	}
	if s.CanNavigate() {
		if id, ok := s.Queue.Next(s.TrackID, s.Policy); ok {
			return startLocal(s, id)
		}
	}
	s.Phase = PhaseEnded
	return s, []Effect{TeardownSource{}}
}

func radioFailed(s State, err error) (State, []Effect) {
	f := radio.NewFailure(s.Station, err)
	s.Phase = PhaseRadioFailed
	s.Failure = &Failure{Reason: f.Reason, Message: f.Message(), Err: f}
	return s, []Effect{TeardownSource{}}
}

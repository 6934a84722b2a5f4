package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/llehouerou/waveshelf/internal/errmsg"
	"github.com/llehouerou/waveshelf/internal/playback"
	"github.com/llehouerou/waveshelf/internal/player"
)

// playbackJSON adds display-ready times to a snapshot.
type playbackJSON struct {
	playback.Snapshot
	PositionSec float64 `json:"positionSec"`
	DurationSec float64 `json:"durationSec"`
	Elapsed     string  `json:"elapsed"`
	Total       string  `json:"total"`
}

func toPlaybackJSON(snap playback.Snapshot) playbackJSON {
	return playbackJSON{
		Snapshot:    snap,
		PositionSec: snap.Position.Seconds(),
		DurationSec: snap.Duration.Seconds(),
		Elapsed:     player.FormatTime(snap.Position),
		Total:       player.FormatTime(snap.Duration),
	}
}

func (s *Server) writeSnapshot(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusOK, toPlaybackJSON(s.deps.Playback.Snapshot()))
}

func (s *Server) handlePlayback(w http.ResponseWriter, _ *http.Request) {
	s.writeSnapshot(w)
}

type selectRequest struct {
	TrackID   int64  `json:"trackId"`
	StationID string `json:"stationId"`
}

// handleSelect plays a track of the current queue or a radio station.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errmsg.OpPlaybackStart, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	var (
		op  = errmsg.OpPlaybackStart
		err error
	)
	switch {
	case req.StationID != "":
		op = errmsg.OpRadioConnect
		err = s.deps.Playback.SelectStation(r.Context(), req.StationID)
	case req.TrackID > 0:
		err = s.deps.Playback.SelectTrack(r.Context(), req.TrackID)
	default:
		err = fmt.Errorf("%w: trackId or stationId is required", errBadRequest)
	}
	if err != nil {
		s.writeError(w, op, err)
		return
	}
	s.writeSnapshot(w)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Playback.Next(r.Context()); err != nil {
		s.writeError(w, errmsg.OpPlaybackNext, err)
		return
	}
	s.writeSnapshot(w)
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Playback.Previous(r.Context()); err != nil {
		s.writeError(w, errmsg.OpPlaybackPrev, err)
		return
	}
	s.writeSnapshot(w)
}

func (s *Server) handleToggle(w http.ResponseWriter, _ *http.Request) {
	s.deps.Playback.TogglePlayPause()
	s.writeSnapshot(w)
}

type seekRequest struct {
	Fraction float64 `json:"fraction"`
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errmsg.OpPlaybackSeek, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	if err := s.deps.Playback.Seek(req.Fraction); err != nil {
		s.writeError(w, errmsg.OpPlaybackSeek, err)
		return
	}
	s.writeSnapshot(w)
}

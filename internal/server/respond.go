package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/llehouerou/waveshelf/internal/errmsg"
	"github.com/llehouerou/waveshelf/internal/playback"
	"github.com/llehouerou/waveshelf/internal/player"
	"github.com/llehouerou/waveshelf/internal/radio"
	"github.com/llehouerou/waveshelf/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response", zap.Error(err))
	}
}

// writeError maps err to a status code and a user-facing message.
func (s *Server) writeError(w http.ResponseWriter, op errmsg.Op, err error) {
	status := statusFor(err)
	msg := errmsg.Format(op, err)

	// Failures that carry their own user-facing text report it verbatim.
	var pf *playback.Failure
	var rf *radio.Failure
	switch {
	case errors.As(err, &pf):
		msg = pf.Message
	case errors.Is(err, radio.ErrOffline):
		msg = errmsg.RadioOffline
	case errors.As(err, &rf):
		msg = rf.Message()
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(string(op), zap.Error(err))
	}
	s.writeJSON(w, status, errorBody{Error: msg})
}

func statusFor(err error) int {
	var pf *playback.Failure
	var rf *radio.Failure
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, playback.ErrUnknownStation):
		return http.StatusNotFound
	case errors.Is(err, playback.ErrNotInQueue), errors.Is(err, player.ErrNotSeekable):
		return http.StatusConflict
	case errors.As(err, &pf):
		return http.StatusUnprocessableEntity
	case errors.As(err, &rf),
		errors.Is(err, store.ErrStorageUnavailable),
		errors.Is(err, playback.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

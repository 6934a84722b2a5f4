package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/llehouerou/waveshelf/internal/playback"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Message types pushed over /ws.
const (
	msgPlayback = "playback"
	msgQueue    = "queue"
	msgPosition = "position"
	msgError    = "error"
)

type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type queueJSON struct {
	IDs   []int64 `json:"ids"`
	Index int     `json:"index"`
}

type positionJSON struct {
	PositionSec float64 `json:"positionSec"`
}

type errorEventJSON struct {
	Operation string `json:"operation"`
	Subject   string `json:"subject,omitempty"`
	Message   string `json:"message"`
}

// handleEvents upgrades to a WebSocket and pushes playback events until
// the client goes away. A snapshot is sent first.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := s.deps.Playback.Subscribe()
	defer s.deps.Playback.Unsubscribe(sub)

	gone := make(chan struct{})
	go s.readPump(conn, gone)

	send := func(msgType string, data any) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(wsMessage{Type: msgType, Data: data}); err != nil {
			s.logger.Debug("websocket write failed", zap.Error(err))
			return false
		}
		return true
	}
	snapshot := func() bool {
		return send(msgPlayback, toPlaybackJSON(s.deps.Playback.Snapshot()))
	}

	if !snapshot() {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		ok := true
		select {
		case <-sub.StateChanged:
			ok = snapshot()
		case <-sub.TrackChanged:
			ok = snapshot()
		case e := <-sub.QueueChanged:
			ok = send(msgQueue, queueJSON{IDs: e.IDs, Index: e.Index})
		case e := <-sub.PositionChanged:
			ok = send(msgPosition, positionJSON{PositionSec: e.Position.Seconds()})
		case e := <-sub.Error:
			ok = send(msgError, toErrorEventJSON(e))
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			ok = conn.WriteMessage(websocket.PingMessage, nil) == nil
		case <-sub.Done:
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case <-gone:
			return
		}
		if !ok {
			return
		}
	}
}

// readPump consumes control frames so pongs and close are processed.
func (s *Server) readPump(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func toErrorEventJSON(e playback.ErrorEvent) errorEventJSON {
	return errorEventJSON{Operation: e.Operation, Subject: e.Subject, Message: e.Message}
}

// Package server is the HTTP display port: JSON endpoints for the library
// and playback, handle-backed /art/ and /media/ URLs, and a WebSocket that
// pushes playback events.
package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/llehouerou/waveshelf/internal/artwork"
	"github.com/llehouerou/waveshelf/internal/handles"
	"github.com/llehouerou/waveshelf/internal/importer"
	"github.com/llehouerou/waveshelf/internal/library"
	"github.com/llehouerou/waveshelf/internal/playback"
	"github.com/llehouerou/waveshelf/internal/radio"
	"github.com/llehouerou/waveshelf/internal/store"
)

const (
	shutdownTimeout = 5 * time.Second
	maxUploadMemory = 32 << 20
)

// TrackReader reads single records, for per-track endpoints.
type TrackReader interface {
	Get(ctx context.Context, id int64) (*store.Track, error)
}

// Deps are the components the server exposes.
type Deps struct {
	Browser     *library.Browser
	Playback    playback.Service
	Importer    *importer.Importer
	Stations    *radio.Directory
	Tracks      TrackReader
	Images      *artwork.Images
	Media       *handles.Registry
	RecentLimit int
	Logger      *zap.Logger
}

// Server routes display-port requests to the core.
type Server struct {
	deps     Deps
	router   *mux.Router
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// New builds the router.
func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.RecentLimit <= 0 {
		d.RecentLimit = 10
	}
	s := &Server{
		deps:   d,
		router: mux.NewRouter(),
		upgrader: websocket.Upgrader{
			// The UI may be served from another local origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: d.Logger.Named("server"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/library", s.handleLibrary).Methods(http.MethodGet)
	api.HandleFunc("/recent", s.handleRecent).Methods(http.MethodGet)
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	api.HandleFunc("/import", s.handleImport).Methods(http.MethodPost)
	api.HandleFunc("/radio", s.handleStations).Methods(http.MethodGet)
	api.HandleFunc("/tracks/{id:[0-9]+}/color", s.handleColor).Methods(http.MethodGet)

	api.HandleFunc("/playback", s.handlePlayback).Methods(http.MethodGet)
	api.HandleFunc("/playback/select", s.handleSelect).Methods(http.MethodPost)
	api.HandleFunc("/playback/next", s.handleNext).Methods(http.MethodPost)
	api.HandleFunc("/playback/previous", s.handlePrevious).Methods(http.MethodPost)
	api.HandleFunc("/playback/toggle", s.handleToggle).Methods(http.MethodPost)
	api.HandleFunc("/playback/seek", s.handleSeek).Methods(http.MethodPost)

	r.HandleFunc("/ws", s.handleEvents)

	if s.deps.Images != nil {
		r.PathPrefix(s.deps.Images.Registry().Prefix()).Handler(s.deps.Images).Methods(http.MethodGet, http.MethodHead)
	}
	if s.deps.Media != nil {
		r.PathPrefix(s.deps.Media.Prefix()).Handler(s.deps.Media).Methods(http.MethodGet, http.MethodHead)
	}
}

// Handler returns the root handler. CORS wraps the router because mux
// middleware only runs for matched routes, and no route accepts OPTIONS.
func (s *Server) Handler() http.Handler { return cors(s.router) }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrade through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

package playback

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/waveshelf/internal/errmsg"
	"github.com/llehouerou/waveshelf/internal/handles"
	"github.com/llehouerou/waveshelf/internal/player"
	"github.com/llehouerou/waveshelf/internal/playlist"
	"github.com/llehouerou/waveshelf/internal/radio"
	"github.com/llehouerou/waveshelf/internal/store"
)

const defaultConnectTimeout = 10 * time.Second

// TrackSource reads tracks for playback.
type TrackSource interface {
	Get(ctx context.Context, id int64) (*store.Track, error)
	GetFile(ctx context.Context, id int64) (*store.File, error)
}

// Config wires a Service to its collaborators.
type Config struct {
	Tracks    TrackSource
	Transport player.Interface
	Stations  *radio.Directory
	// Media and Art hold the handles of the playing local file and its cover.
	Media *handles.Registry
	Art   *handles.Registry

	ConnectTimeout time.Duration // default 10s
	Online         radio.Probe   // nil skips the offline check
	Policy         playlist.Policy
	Logger         *zap.Logger
}

// Verify serviceImpl implements Service at compile time.
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	tracks    TrackSource
	transport player.Interface
	stations  *radio.Directory
	media     *handles.Registry
	art       *handles.Registry
	timeout   time.Duration
	online    radio.Probe
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu serializes transitions. Effects run while it is held.
	mu            sync.Mutex
	state         State
	current       *store.Track // last loaded track, kept for display after it ends
	mediaHandle   handles.Handle
	artHandle     handles.Handle
	artURL        string
	connectCancel context.CancelFunc
	closed        bool

	// tmu serializes transport calls with the background radio connect.
	tmu sync.Mutex

	subs   []*Subscription
	subsMu sync.RWMutex
}

// New creates a playback service.
func New(cfg Config) Service {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Media == nil {
		cfg.Media = handles.NewRegistry("/media/")
	}
	if cfg.Art == nil {
		cfg.Art = handles.NewRegistry("/art/")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &serviceImpl{
		tracks:    cfg.Tracks,
		transport: cfg.Transport,
		stations:  cfg.Stations,
		media:     cfg.Media,
		art:       cfg.Art,
		timeout:   cfg.ConnectTimeout,
		online:    cfg.Online,
		logger:    cfg.Logger.Named("playback"),
		ctx:       ctx,
		cancel:    cancel,
		state:     State{Policy: cfg.Policy},
	}
}

// SetQueue replaces the queue.
func (s *serviceImpl) SetQueue(q playlist.Queue) {
	_, _ = s.dispatch(s.ctx, ViewChanged{Queue: q}, nil)
}

// SelectTrack plays id and waits for the load outcome.
func (s *serviceImpl) SelectTrack(ctx context.Context, id int64) error {
	cur, err := s.dispatch(ctx, SelectTrack{ID: id}, func(st State) error {
		if !st.Queue.Contains(id) {
			return fmt.Errorf("%w: %d", ErrNotInQueue, id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if cur.Phase == PhaseFailed && cur.TrackID == id {
		return cur.Failure
	}
	return nil
}

// SelectStation tears down the current source and connects to the station
// in the background. When the host is offline it fails at once and leaves
// the current source alone.
func (s *serviceImpl) SelectStation(ctx context.Context, id string) error {
	var st radio.Station
	ok := false
	if s.stations != nil {
		st, ok = s.stations.Get(id)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStation, id)
	}

	if err := radio.CheckOnline(s.online); err != nil {
		f := radio.NewFailure(st, err)
		s.logger.Info("radio offline", zap.String("station", st.ID))
		s.publishError(ErrorEvent{
			Operation: string(errmsg.OpRadioConnect),
			Subject:   st.ID,
			Message:   errmsg.RadioOffline,
			Err:       f,
		})
		return f
	}

	_, err := s.dispatch(ctx, SelectStation{Station: st}, nil)
	return err
}

func (s *serviceImpl) Next(ctx context.Context) error {
	_, err := s.dispatch(ctx, Next{}, nil)
	return err
}

func (s *serviceImpl) Previous(ctx context.Context) error {
	_, err := s.dispatch(ctx, Previous{}, nil)
	return err
}

// TogglePlayPause flips play and pause; it does nothing without a source.
func (s *serviceImpl) TogglePlayPause() {
	_, _ = s.dispatch(s.ctx, TogglePlayPause{}, nil)
}

// Seek moves a local source to fraction of its length.
func (s *serviceImpl) Seek(fraction float64) error {
	_, err := s.dispatch(s.ctx, Seek{Fraction: fraction}, func(st State) error {
		if !st.CanSeek() {
			return player.ErrNotSeekable
		}
		return nil
	})
	return err
}

func (s *serviceImpl) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the now-playing view with transport position.
func (s *serviceImpl) Snapshot() Snapshot {
	s.mu.Lock()
	st := s.state
	now := s.nowPlayingLocked()
	s.mu.Unlock()

	snap := Snapshot{
		NowPlaying:  now,
		Phase:       st.Phase,
		CanToggle:   st.Phase.Audible(),
		CanNext:     st.CanNavigate(),
		CanPrevious: st.CanNavigate(),
		CanSeek:     st.CanSeek(),
		QueueLen:    st.Queue.Len(),
	}
	if st.Failure != nil {
		snap.Error = st.Failure.Message
	}
	if st.Phase.Audible() {
		snap.Position = s.transport.Position()
		snap.Duration = s.transport.Duration()
	}
	return snap
}

func (s *serviceImpl) nowPlayingLocked() NowPlaying {
	st := s.state
	switch st.Kind {
	case KindLocal:
		n := NowPlaying{
			Kind:     KindLocal,
			TrackID:  st.TrackID,
			ArtURL:   s.artURL,
			MediaURL: string(s.mediaHandle),
		}
		if s.current != nil && s.current.ID == st.TrackID {
			n.Title = s.current.Title
			n.Artist = s.current.Artist
			n.Album = s.current.Album
		}
		return n
	case KindRadio:
		return NowPlaying{
			Kind:      KindRadio,
			StationID: st.Station.ID,
			Title:     st.Station.Title,
			Artist:    st.Station.Artist,
			ArtURL:    st.Station.ArtURL,
		}
	}
	return NowPlaying{Title: errmsg.NothingPlaying}
}

// dispatch runs ev and every outcome its effects feed back, then publishes
// the resulting events. guard, when set, can reject ev before it runs.
func (s *serviceImpl) dispatch(ctx context.Context, ev Event, guard func(State) error) (State, error) {
	s.mu.Lock()
	if s.closed {
		st := s.state
		s.mu.Unlock()
		return st, ErrClosed
	}
	if guard != nil {
		if err := guard(s.state); err != nil {
			st := s.state
			s.mu.Unlock()
			return st, err
		}
	}

	prev := s.state
	prevNow := s.nowPlayingLocked()
	var seeked bool

	pending := []Event{ev}
	for len(pending) > 0 {
		e := pending[0]
		pending = pending[1:]

		next, effects := Reduce(s.state, e)
		s.state = next
		for _, eff := range effects {
			if _, ok := eff.(SeekOutput); ok {
				seeked = true
			}
			if out := s.runLocked(ctx, eff); out != nil {
				pending = append(pending, out)
			}
		}
	}

	cur := s.state
	curNow := s.nowPlayingLocked()
	s.mu.Unlock()

	s.publish(prev, cur, prevNow, curNow, seeked)
	return cur, nil
}

func (s *serviceImpl) runLocked(ctx context.Context, eff Effect) Event {
	switch e := eff.(type) {
	case TeardownSource:
		s.teardownLocked()
	case LoadLocal:
		return s.loadLocalLocked(ctx, e)
	case ConnectRadio:
		s.connectLocked(e)
	case PauseOutput:
		s.tmu.Lock()
		s.transport.Pause()
		s.tmu.Unlock()
	case ResumeOutput:
		s.tmu.Lock()
		s.transport.Resume()
		s.tmu.Unlock()
	case SeekOutput:
		s.tmu.Lock()
		err := s.transport.SeekFraction(e.Fraction)
		s.tmu.Unlock()
		if err != nil {
			s.logger.Warn("seek failed", zap.Float64("fraction", e.Fraction), zap.Error(err))
		}
	}
	return nil
}

// teardownLocked stops the previous source and releases everything it held.
func (s *serviceImpl) teardownLocked() {
	if s.connectCancel != nil {
		s.connectCancel()
		s.connectCancel = nil
	}

	s.tmu.Lock()
	s.transport.Stop()
	s.tmu.Unlock()

	if s.mediaHandle != "" {
		s.media.Revoke(s.mediaHandle)
		s.mediaHandle = ""
	}
	if s.artHandle != "" {
		s.art.Revoke(s.artHandle)
		s.artHandle = ""
	}
	s.artURL = ""
}

func (s *serviceImpl) loadLocalLocked(ctx context.Context, e LoadLocal) Event {
	fail := func(err error) Event {
		s.logger.Warn("track load failed", zap.Int64("id", e.TrackID), zap.Error(err))
		return SourceFailed{Generation: e.Generation, Err: err}
	}

	track, err := s.tracks.Get(ctx, e.TrackID)
	if err != nil {
		return fail(err)
	}
	file, err := s.tracks.GetFile(ctx, e.TrackID)
	if err != nil {
		return fail(err)
	}

	s.current = track
	s.mediaHandle = s.media.Acquire(file.Data, file.MIMEType)
	if pic := track.Picture; pic != nil && len(pic.Data) > 0 {
		s.artHandle = s.art.Acquire(pic.Data, pic.MIMEType)
		s.artURL = string(s.artHandle)
	} else {
		s.artURL = handles.Placeholder(track.Title)
	}

	s.tmu.Lock()
	s.transport.OnFinished(s.finishedFunc(e.Generation))
	err = s.transport.PlayLocal(ctx, file.Data, file.Name)
	s.tmu.Unlock()
	if err != nil {
		return fail(err)
	}

	s.logger.Debug("track started", zap.Int64("id", e.TrackID), zap.String("title", track.Title))
	return SourceReady{Generation: e.Generation}
}

// connectLocked opens the stream on its own goroutine so the timeout and a
// later selection can both interrupt it. Exactly one of SourceReady or
// SourceFailed is dispatched per attempt.
func (s *serviceImpl) connectLocked(e ConnectRadio) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	s.connectCancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		s.tmu.Lock()
		err := ctx.Err()
		if err == nil {
			s.transport.OnFinished(s.finishedFunc(e.Generation))
			err = s.transport.PlayStream(ctx, e.Station.StreamURL)
		}
		s.tmu.Unlock()

		if err != nil {
			s.logger.Info("radio connect failed",
				zap.String("station", e.Station.ID),
				zap.Stringer("reason", radio.Classify(err)),
				zap.Error(err))
			_, _ = s.dispatch(s.ctx, SourceFailed{Generation: e.Generation, Err: err}, nil)
			return
		}
		s.logger.Debug("radio connected", zap.String("station", e.Station.ID))
		_, _ = s.dispatch(s.ctx, SourceReady{Generation: e.Generation}, nil)
	}()
}

func (s *serviceImpl) finishedFunc(gen uint64) func() {
	return func() {
		_, _ = s.dispatch(s.ctx, Finished{Generation: gen}, nil)
	}
}

func (s *serviceImpl) publish(prev, cur State, prevNow, curNow NowPlaying, seeked bool) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()

	var pos time.Duration
	if seeked {
		pos = s.transport.Position()
	}
	startedNew := cur.Generation != prev.Generation && cur.HasSource()
	queueChanged := !cur.Queue.Equal(prev.Queue)
	failed := cur.Failure != nil && cur.Failure != prev.Failure

	for _, sub := range s.subs {
		if !cur.sameSource(prev) {
			sub.sendState(StateChange{Previous: prev, Current: cur})
		}
		if startedNew {
			sub.sendTrack(TrackChange{Previous: prevNow, Current: curNow})
		}
		if queueChanged {
			sub.sendQueue(QueueChange{IDs: cur.Queue.IDs(), Index: cur.Queue.IndexOf(cur.TrackID)})
		}
		if seeked {
			sub.sendPosition(pos)
		}
		if failed {
			sub.sendError(failureEvent(cur, curNow))
		}
	}
}

func failureEvent(st State, now NowPlaying) ErrorEvent {
	ev := ErrorEvent{Message: st.Failure.Message, Err: st.Failure}
	if st.Kind == KindRadio {
		ev.Operation = string(errmsg.OpRadioConnect)
		ev.Subject = st.Station.ID
	} else {
		ev.Operation = string(errmsg.OpPlaybackStart)
		ev.Subject = now.Title
		if ev.Subject == "" {
			ev.Subject = fmt.Sprintf("track %d", st.TrackID)
		}
	}
	return ev
}

func (s *serviceImpl) publishError(ev ErrorEvent) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendError(ev)
	}
}

// Subscribe creates a new event subscription.
func (s *serviceImpl) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}

func (s *serviceImpl) Unsubscribe(sub *Subscription) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for i, cur := range s.subs {
		if cur == sub {
			s.subs = slices.Delete(s.subs, i, i+1)
			sub.close()
			return
		}
	}
}

// Close stops playback, waits for a pending connect and closes every
// subscription.
func (s *serviceImpl) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.teardownLocked()
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()

	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	s.subsMu.Unlock()

	return nil
}

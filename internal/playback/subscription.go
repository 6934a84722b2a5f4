package playback

import "time"

// eventBufferSize is the per-channel backlog a subscriber may fall behind by.
const eventBufferSize = 16

// Subscription receives the service's events. Every channel is buffered;
// when a subscriber falls eventBufferSize events behind on one channel,
// further events of that kind are dropped until it catches up. Done is
// closed by Unsubscribe or Close.
type Subscription struct {
	StateChanged    <-chan StateChange
	TrackChanged    <-chan TrackChange
	PositionChanged <-chan PositionChange
	QueueChanged    <-chan QueueChange
	Error           <-chan ErrorEvent
	Done            <-chan struct{}

	stateCh    chan StateChange
	trackCh    chan TrackChange
	positionCh chan PositionChange
	queueCh    chan QueueChange
	errorCh    chan ErrorEvent
	doneCh     chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		stateCh:    make(chan StateChange, eventBufferSize),
		trackCh:    make(chan TrackChange, eventBufferSize),
		positionCh: make(chan PositionChange, eventBufferSize),
		queueCh:    make(chan QueueChange, eventBufferSize),
		errorCh:    make(chan ErrorEvent, eventBufferSize),
		doneCh:     make(chan struct{}),
	}
	s.StateChanged = s.stateCh
	s.TrackChanged = s.trackCh
	s.PositionChanged = s.positionCh
	s.QueueChanged = s.queueCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// offer delivers e unless ch is full.
func offer[T any](ch chan<- T, e T) {
	select {
	case ch <- e:
	default:
	}
}

func (s *Subscription) close() { close(s.doneCh) }

func (s *Subscription) sendState(e StateChange) { offer(s.stateCh, e) }
func (s *Subscription) sendTrack(e TrackChange) { offer(s.trackCh, e) }
func (s *Subscription) sendQueue(e QueueChange) { offer(s.queueCh, e) }
func (s *Subscription) sendError(e ErrorEvent) { offer(s.errorCh, e) }

func (s *Subscription) sendPosition(pos time.Duration) {
	offer(s.positionCh, PositionChange{Position: pos})
}

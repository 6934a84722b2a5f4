package player

import (
	"context"
	"sync"
	"time"
)

// Mock is a test double for Player. It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	state      State
	source     SourceKind
	position   time.Duration
	duration   time.Duration
	onFinished func()

	localErr   error
	streamErr  error
	blockUntil chan struct{}

	localCalls  []string
	streamCalls []string
	seekCalls   []float64
	stopCalls   int
}

// NewMock creates a new mock player for testing.
func NewMock() *Mock {
	return &Mock{state: Stopped}
}

func (m *Mock) PlayLocal(ctx context.Context, _ []byte, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.Stop()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.localCalls = append(m.localCalls, name)
	if m.localErr != nil {
		return m.localErr
	}
	m.state = Playing
	m.source = SourceLocal
	return nil
}

func (m *Mock) PlayStream(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.Stop()

	m.mu.Lock()
	m.streamCalls = append(m.streamCalls, url)
	block := m.blockUntil
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.streamErr != nil {
		return m.streamErr
	}
	m.state = Playing
	m.source = SourceStream
	return nil
}

func (m *Mock) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
	m.state = Stopped
	m.source = SourceNone
	m.position = 0
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Playing {
		m.state = Paused
	}
}

func (m *Mock) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Paused {
		m.state = Playing
	}
}

func (m *Mock) SeekFraction(f float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.source.Seekable() {
		return ErrNotSeekable
	}
	m.seekCalls = append(m.seekCalls, f)
	m.position = time.Duration(f * float64(m.duration))
	return nil
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) Source() SourceKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) OnFinished(fn func()) {
	m.mu.Lock()
	m.onFinished = fn
	m.mu.Unlock()
}

// Test helpers

// SetLocalError makes PlayLocal fail with err.
func (m *Mock) SetLocalError(err error) {
	m.mu.Lock()
	m.localErr = err
	m.mu.Unlock()
}

// SetStreamError makes PlayStream fail with err.
func (m *Mock) SetStreamError(err error) {
	m.mu.Lock()
	m.streamErr = err
	m.mu.Unlock()
}

// BlockStreams makes PlayStream wait until the returned release function
// is called or its context ends.
func (m *Mock) BlockStreams() (release func()) {
	ch := make(chan struct{})
	m.mu.Lock()
	m.blockUntil = ch
	m.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	m.duration = d
	m.mu.Unlock()
}

func (m *Mock) LocalCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.localCalls...)
}

func (m *Mock) StreamCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.streamCalls...)
}

func (m *Mock) SeekCalls() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.seekCalls...)
}

func (m *Mock) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalls
}

// SimulateFinished ends the current source and runs the finish callback
// synchronously.
func (m *Mock) SimulateFinished() {
	m.mu.Lock()
	m.state = Stopped
	m.source = SourceNone
	fn := m.onFinished
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)

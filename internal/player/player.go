package player

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"go.uber.org/zap"
)

const resampleQuality = 4

// Player plays one source at a time through an Output.
type Player struct {
	out    Output
	client *http.Client
	logger *zap.Logger

	mu          sync.Mutex
	initialized bool
	rate        beep.SampleRate
	state       State
	source      SourceKind
	ctrl        *beep.Ctrl
	streamer    beep.StreamSeekCloser
	format      beep.Format
	length      int
	cancel      context.CancelFunc
	gen         uint64
	onFinished  func()
}

// Option configures a Player.
type Option func(*Player)

// WithOutput replaces the system speaker.
func WithOutput(o Output) Option {
	return func(p *Player) { p.out = o }
}

// WithHTTPClient sets the client used for radio streams.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Player) { p.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Player) { p.logger = l }
}

// New returns a stopped player on the system speaker.
func New(opts ...Option) *Player {
	p := &Player{state: Stopped}
	for _, opt := range opts {
		opt(p)
	}
	if p.out == nil {
		p.out = NewSpeaker()
	}
	if p.client == nil {
		// Streams are open-ended, so no overall timeout; connects are
		// bounded by the caller's context.
		p.client = &http.Client{}
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	p.logger = p.logger.Named("player")
	return p
}

// PlayLocal stops the current source and plays data.
func (p *Player) PlayLocal(ctx context.Context, data []byte, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	expect := p.stop()

	codec := Sniff(data, name)
	s, format, err := decode(memFile{bytes.NewReader(data)}, codec)
	if err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return p.start(s, format, SourceLocal, nil, expect)
}

// PlayStream stops the current source and connects to url. The connection
// outlives ctx once the first frame has decoded.
func (p *Player) PlayStream(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	expect := p.stop()

	streamCtx, cancel := context.WithCancel(context.Background())
	detach := context.AfterFunc(ctx, cancel)

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return err
	}
	req.Header.Set("User-Agent", "waveshelf")

	resp, err := p.client.Do(req)
	if err != nil {
		cancel()
		return connectErr(ctx, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return fmt.Errorf("%w: %s", ErrStreamUnavailable, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	codec := CodecFromContentType(contentType)
	if codec == CodecUnknown {
		resp.Body.Close()
		cancel()
		return fmt.Errorf("%w: content type %q", ErrUnsupportedFormat, contentType)
	}

	s, format, err := decode(resp.Body, codec)
	if err != nil {
		resp.Body.Close()
		cancel()
		return connectErr(ctx, err)
	}

	if !detach() {
		s.Close()
		cancel()
		return ctx.Err()
	}

	p.logger.Debug("stream connected",
		zap.String("url", url),
		zap.String("codec", string(codec)),
		zap.Int("rate", int(format.SampleRate)))
	return p.start(s, format, SourceStream, cancel, expect)
}

// connectErr prefers the caller's context error over the transport error
// it caused.
func connectErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// start plays s unless another Play or Stop ran since the generation
// expect was observed.
func (p *Player) start(s beep.StreamSeekCloser, format beep.Format, kind SourceKind, cancel context.CancelFunc, expect uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.gen != expect {
		s.Close()
		if cancel != nil {
			cancel()
		}
		return ErrSuperseded
	}

	if !p.initialized {
		if err := p.out.Init(format.SampleRate, bufferFor(format.SampleRate)); err != nil {
			s.Close()
			if cancel != nil {
				cancel()
			}
			return err
		}
		p.rate = format.SampleRate
		p.initialized = true
	}

	// Resample if the source rate differs from the output's.
	var playStreamer beep.Streamer = s
	if format.SampleRate != p.rate {
		playStreamer = beep.Resample(resampleQuality, format.SampleRate, p.rate, s)
	}

	p.gen++
	gen := p.gen
	p.ctrl = &beep.Ctrl{Streamer: playStreamer}
	p.streamer = s
	p.format = format
	p.source = kind
	p.cancel = cancel
	p.state = Playing
	p.length = 0
	if kind == SourceLocal {
		p.length = s.Len()
	}

	p.out.Play(beep.Seq(p.ctrl, beep.Callback(func() {
		// The output holds its lock while calling back.
		go p.finished(gen)
	})))
	return nil
}

func (p *Player) finished(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || p.state == Stopped {
		p.mu.Unlock()
		return
	}
	p.gen++
	p.releaseLocked()
	fn := p.onFinished
	p.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Stop stops playback and releases the source.
func (p *Player) Stop() {
	p.stop()
}

// stop releases the source and returns the new generation. Every call
// bumps the generation so an in-flight start is abandoned.
func (p *Player) stop() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.gen++
	if p.streamer != nil || p.state != Stopped {
		p.out.Clear()
		p.releaseLocked()
	}
	return p.gen
}

func (p *Player) releaseLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if p.streamer != nil {
		if err := p.streamer.Close(); err != nil {
			p.logger.Debug("close streamer", zap.Error(err))
		}
		p.streamer = nil
	}
	p.ctrl = nil
	p.length = 0
	p.source = SourceNone
	p.state = Stopped
}

// Pause pauses playback.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.state.CanPause() || p.ctrl == nil {
		return
	}
	p.out.Lock()
	p.ctrl.Paused = true
	p.out.Unlock()
	p.state = Paused
}

// Resume resumes paused playback.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.state.CanResume() || p.ctrl == nil {
		return
	}
	p.out.Lock()
	p.ctrl.Paused = false
	p.out.Unlock()
	p.state = Playing
}

// SeekFraction moves a local source to fraction f of its length.
func (p *Player) SeekFraction(f float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil || !p.source.Seekable() || p.length <= 0 {
		return ErrNotSeekable
	}

	f = min(max(f, 0), 1)
	pos := min(int(f*float64(p.length)), p.length-1)

	p.out.Lock()
	err := p.streamer.Seek(pos)
	p.out.Unlock()
	return err
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) Source() SourceKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source
}

// Position returns the current playback position.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	p.out.Lock()
	pos := p.streamer.Position()
	p.out.Unlock()
	return p.format.SampleRate.D(pos)
}

// Duration returns the length of a local source; streams report zero.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	return p.format.SampleRate.D(p.length)
}

func (p *Player) OnFinished(fn func()) {
	p.mu.Lock()
	p.onFinished = fn
	p.mu.Unlock()
}

// Package player is the single audio transport: it decodes one local file
// or one internet radio stream at a time and sends it to the speaker.
package player

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnsupportedFormat is returned for audio the decoders cannot read.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrPlaybackRejected is returned when the audio output refuses to play.
	ErrPlaybackRejected = errors.New("playback rejected by audio output")
	// ErrStreamUnavailable is returned when a stream URL answers with an error status.
	ErrStreamUnavailable = errors.New("stream unavailable")
	// ErrNotSeekable is returned when seeking a live stream or nothing.
	ErrNotSeekable = errors.New("source is not seekable")
	// ErrSuperseded is returned when Stop or another Play ran while a
	// source was still being opened.
	ErrSuperseded = errors.New("playback superseded")
)

// Interface defines the transport contract for dependency injection and testing.
type Interface interface {
	// PlayLocal stops the current source and plays an in-memory audio file.
	// name is used as a format hint when sniffing fails.
	PlayLocal(ctx context.Context, data []byte, name string) error
	// PlayStream stops the current source, connects to url and returns once
	// the first audio frame decoded, or with ctx's error.
	PlayStream(ctx context.Context, url string) error
	Pause()
	Resume()
	Stop()
	// SeekFraction moves a local source to f (0..1) of its duration.
	SeekFraction(f float64) error
	State() State
	Source() SourceKind
	Position() time.Duration
	Duration() time.Duration
	// OnFinished registers fn to run, on its own goroutine, when the
	// current source runs out of data.
	OnFinished(fn func())
}

// Verify Player implements Interface at compile time.
var _ Interface = (*Player)(nil)

package radio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/llehouerou/waveshelf/internal/errmsg"
	"github.com/llehouerou/waveshelf/internal/player"
)

// Reason classifies why a station could not be played.
type Reason int

const (
	ReasonUnknown Reason = iota
	ReasonPlaybackBlocked
	ReasonUnsupportedFormat
	ReasonNetwork
	ReasonTimeout
	ReasonUnavailable
)

func (r Reason) String() string {
	switch r {
	case ReasonPlaybackBlocked:
		return "playback_blocked"
	case ReasonUnsupportedFormat:
		return "unsupported_format"
	case ReasonNetwork:
		return "network"
	case ReasonTimeout:
		return "timeout"
	case ReasonUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Message returns the user-facing text for the reason.
func (r Reason) Message() string {
	switch r {
	case ReasonPlaybackBlocked:
		return errmsg.RadioBlocked
	case ReasonUnsupportedFormat:
		return errmsg.RadioUnsupported
	case ReasonNetwork:
		return errmsg.RadioNetwork
	case ReasonTimeout:
		return errmsg.RadioTimeout
	case ReasonUnavailable:
		return errmsg.RadioUnavailable
	default:
		return errmsg.RadioUnknown
	}
}

// ErrStreamEnded is reported when a live stream stops delivering audio.
var ErrStreamEnded = errors.New("stream ended unexpectedly")

// Classify maps a transport error to a Reason.
func Classify(err error) Reason {
	if err == nil {
		return ReasonUnknown
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, player.ErrPlaybackRejected):
		return ReasonPlaybackBlocked
	case errors.Is(err, player.ErrUnsupportedFormat):
		return ReasonUnsupportedFormat
	case errors.Is(err, player.ErrStreamUnavailable):
		return ReasonUnavailable
	case errors.Is(err, ErrOffline), errors.Is(err, ErrStreamEnded):
		return ReasonNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	switch {
	case errors.As(err, &dnsErr), errors.As(err, &opErr):
		return ReasonNetwork
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return ReasonNetwork
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return ReasonNetwork
	}

	return ReasonUnknown
}

// Failure is a classified radio connection failure.
type Failure struct {
	Station Station
	Reason  Reason
	Err     error
}

// NewFailure classifies err for station.
func NewFailure(st Station, err error) *Failure {
	return &Failure{Station: st, Reason: Classify(err), Err: err}
}

func (f *Failure) Error() string {
	return fmt.Sprintf("radio %s: %s: %v", f.Station.ID, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Message returns the user-facing text for the failure.
func (f *Failure) Message() string { return f.Reason.Message() }

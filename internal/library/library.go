// Package library builds the browsable views of the track store: the flat
// song list, artist and album groupings, recent tracks and search results.
package library

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/llehouerou/waveshelf/internal/artwork"
	"github.com/llehouerou/waveshelf/internal/handles"
	"github.com/llehouerou/waveshelf/internal/playlist"
	"github.com/llehouerou/waveshelf/internal/store"
)

// Mode selects how a library view is organised.
type Mode int

const (
	ModeSongs Mode = iota
	ModeArtists
	ModeAlbums
)

func (m Mode) String() string {
	switch m {
	case ModeSongs:
		return "songs"
	case ModeArtists:
		return "artists"
	case ModeAlbums:
		return "albums"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps "songs", "artists" or "albums" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "songs":
		return ModeSongs, nil
	case "artists":
		return ModeArtists, nil
	case "albums":
		return ModeAlbums, nil
	default:
		return ModeSongs, fmt.Errorf("unknown library mode %q", s)
	}
}

// SubFilter narrows a view to tracks whose artist or album equals Value.
type SubFilter struct {
	Key   store.Field
	Value string
}

// ArtistFilter returns a sub-filter on artist.
func ArtistFilter(name string) *SubFilter {
	return &SubFilter{Key: store.FieldArtist, Value: name}
}

// AlbumFilter returns a sub-filter on album.
func AlbumFilter(name string) *SubFilter {
	return &SubFilter{Key: store.FieldAlbum, Value: name}
}

func (f *SubFilter) storeFilter() store.Filter {
	if f == nil || f.Key == store.FieldNone {
		return store.Filter{}
	}
	return store.Filter{Field: f.Key, Value: f.Value}
}

func (f *SubFilter) active() bool {
	return f != nil && f.Key != store.FieldNone
}

// Outcome tells the display layer which kind of content a view holds.
type Outcome int

const (
	OutcomeItems Outcome = iota
	OutcomeLibraryEmpty
	OutcomeNoResults
	OutcomePrompt
)

func (o Outcome) String() string {
	switch o {
	case OutcomeItems:
		return "items"
	case OutcomeLibraryEmpty:
		return "library_empty"
	case OutcomeNoResults:
		return "no_results"
	case OutcomePrompt:
		return "prompt"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Song is one rendered track row.
type Song struct {
	ID       int64
	Title    string
	Artist   string
	Album    string
	ImageURL string
}

// Group is one rendered artist or album row.
type Group struct {
	Name     string
	Tracks   int
	ImageURL string
	// Artist labels an album: the shared artist, or "Various Artists".
	Artist string
}

// View is everything the display layer needs to render one library screen.
type View struct {
	Mode    Mode
	Filter  *SubFilter
	Title   string
	Outcome Outcome
	Message string
	Songs   []Song
	Groups  []Group
	// Queue holds the song ids in display order. It is empty for grouped views.
	Queue playlist.Queue

	scope *handles.Scope
}

// Live reports whether the view's image handles are still being served.
func (v *View) Live() bool {
	return v.scope != nil && v.scope.Current()
}

// ListsSongs reports whether the view is a song list. Only song lists
// carry a non-empty Queue.
func (v *View) ListsSongs() bool {
	return v.Mode == ModeSongs
}

// TrackSource is the read side of the track store.
type TrackSource interface {
	QueryAll(ctx context.Context, f store.Filter) ([]store.Track, error)
}

// Browser renders library views. Each rendered view owns a fresh image
// handle scope, which releases the previous view's handles.
type Browser struct {
	source TrackSource
	images *artwork.Images
	lang   language.Tag
	logger *zap.Logger
}

// NewBrowser returns a browser sorting titles for locale (a BCP 47 tag).
func NewBrowser(source TrackSource, images *artwork.Images, locale string, logger *zap.Logger) (*Browser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	lang := language.English
	if locale != "" {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parse collation locale %q: %w", locale, err)
		}
		lang = tag
	}
	return &Browser{
		source: source,
		images: images,
		lang:   lang,
		logger: logger.Named("library"),
	}, nil
}

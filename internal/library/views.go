package library

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"

	"github.com/llehouerou/waveshelf/internal/errmsg"
	"github.com/llehouerou/waveshelf/internal/handles"
	"github.com/llehouerou/waveshelf/internal/playlist"
	"github.com/llehouerou/waveshelf/internal/store"
)

// MinSearchRunes is the shortest search term that runs a query.
const MinSearchRunes = 2

// LoadGrouped renders the library in mode, optionally narrowed by sub.
// The previous view's image handles are released before querying.
func (b *Browser) LoadGrouped(ctx context.Context, mode Mode, sub *SubFilter) (*View, error) {
	scope := b.images.BeginView()

	view := &View{
		Mode:   mode,
		Filter: sub,
		Title:  errmsg.DefaultTitle,
		scope:  scope,
	}
	if sub.active() {
		view.Title = sub.Value
	}

	tracks, err := b.source.QueryAll(ctx, sub.storeFilter())
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", mode, err)
	}

	if len(tracks) == 0 {
		if sub.active() {
			view.Outcome = OutcomeNoResults
			view.Message = errmsg.NoResults
		} else {
			view.Outcome = OutcomeLibraryEmpty
			view.Message = errmsg.LibraryEmpty
		}
		return view, nil
	}

	switch mode {
	case ModeArtists:
		view.Groups = b.groups(scope, tracks, func(t store.Track) string { return t.Artist }, false)
	case ModeAlbums:
		view.Groups = b.groups(scope, tracks, func(t store.Track) string { return t.Album }, true)
	default:
		b.sortByTitle(tracks)
		view.Songs = b.songs(scope, tracks)
		view.Queue = queueOf(tracks)
	}

	b.logger.Debug("view loaded",
		zap.Stringer("mode", mode),
		zap.Int("tracks", len(tracks)),
		zap.Int("handles", scope.Outstanding()))
	return view, nil
}

// Recent renders the limit most recently added tracks.
func (b *Browser) Recent(ctx context.Context, limit int) (*View, error) {
	scope := b.images.BeginView()
	view := &View{Mode: ModeSongs, Title: errmsg.RecentTitle, scope: scope}

	tracks, err := b.source.QueryAll(ctx, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("load recent: %w", err)
	}
	if len(tracks) == 0 {
		view.Outcome = OutcomeLibraryEmpty
		view.Message = errmsg.LibraryEmpty
		return view, nil
	}

	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	view.Songs = b.songs(scope, tracks)
	view.Queue = queueOf(tracks)
	return view, nil
}

// Search renders tracks whose title, artist or album contains term,
// ignoring case. Results keep library order (most recent first).
func (b *Browser) Search(ctx context.Context, term string) (*View, error) {
	scope := b.images.BeginView()
	view := &View{Mode: ModeSongs, Title: errmsg.SearchTitle, scope: scope}

	if utf8.RuneCountInString(term) < MinSearchRunes {
		view.Outcome = OutcomePrompt
		view.Message = errmsg.SearchPrompt
		return view, nil
	}

	tracks, err := b.source.QueryAll(ctx, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}

	fold := cases.Fold()
	needle := fold.String(term)
	hits := lo.Filter(tracks, func(t store.Track, _ int) bool {
		return strings.Contains(fold.String(t.Title), needle) ||
			strings.Contains(fold.String(t.Artist), needle) ||
			strings.Contains(fold.String(t.Album), needle)
	})

	if len(hits) == 0 {
		view.Outcome = OutcomeNoResults
		view.Message = errmsg.NoResultsFor(term)
		return view, nil
	}
	view.Songs = b.songs(scope, hits)
	view.Queue = queueOf(hits)
	return view, nil
}

// sortByTitle orders tracks by title for the browser's locale. Equal
// titles keep query order.
func (b *Browser) sortByTitle(tracks []store.Track) {
	c := collate.New(b.lang)
	slices.SortStableFunc(tracks, func(x, y store.Track) int {
		return c.CompareString(x.Title, y.Title)
	})
}

func (b *Browser) songs(scope *handles.Scope, tracks []store.Track) []Song {
	return lo.Map(tracks, func(t store.Track, _ int) Song {
		return Song{
			ID:       t.ID,
			Title:    t.Title,
			Artist:   t.Artist,
			Album:    t.Album,
			ImageURL: b.images.Acquire(scope, t.Picture, t.Title),
		}
	})
}

// groups buckets tracks by key. Keys sort byte-wise; each bucket keeps
// query order and borrows the first cover found in it.
func (b *Browser) groups(scope *handles.Scope, tracks []store.Track, key func(store.Track) string, labelArtist bool) []Group {
	buckets := lo.GroupBy(tracks, key)
	names := lo.Keys(buckets)
	slices.Sort(names)

	out := make([]Group, 0, len(names))
	for _, name := range names {
		members := buckets[name]
		g := Group{Name: name, Tracks: len(members)}

		var picture *store.Picture
		if withArt, ok := lo.Find(members, store.Track.HasPicture); ok {
			picture = withArt.Picture
		}
		g.ImageURL = b.images.Acquire(scope, picture, name)

		if labelArtist {
			g.Artist = albumArtist(members)
		}
		out = append(out, g)
	}
	return out
}

// albumArtist returns the artist shared by every track, or the various
// artists label.
func albumArtist(members []store.Track) string {
	first := members[0].Artist
	if lo.EveryBy(members, func(t store.Track) bool { return t.Artist == first }) {
		return first
	}
	return errmsg.VariousArtists
}

func queueOf(tracks []store.Track) playlist.Queue {
	return playlist.NewQueue(lo.Map(tracks, func(t store.Track, _ int) int64 { return t.ID }))
}

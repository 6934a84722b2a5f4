package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"github.com/llehouerou/waveshelf/internal/artwork"
	"github.com/llehouerou/waveshelf/internal/errmsg"
	"github.com/llehouerou/waveshelf/internal/library"
	"github.com/llehouerou/waveshelf/internal/radio"
)

type songJSON struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	ImageURL string `json:"imageUrl"`
}

type groupJSON struct {
	Name     string `json:"name"`
	Tracks   int    `json:"tracks"`
	ImageURL string `json:"imageUrl"`
	Artist   string `json:"artist,omitempty"`
}

type viewJSON struct {
	Mode    string      `json:"mode"`
	Filter  *filterJSON `json:"filter,omitempty"`
	Title   string      `json:"title"`
	Outcome string      `json:"outcome"`
	Message string      `json:"message,omitempty"`
	Songs   []songJSON  `json:"songs,omitempty"`
	Groups  []groupJSON `json:"groups,omitempty"`
}

type filterJSON struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func toViewJSON(v *library.View) viewJSON {
	out := viewJSON{
		Mode:    v.Mode.String(),
		Title:   v.Title,
		Outcome: v.Outcome.String(),
		Message: v.Message,
		Songs: lo.Map(v.Songs, func(s library.Song, _ int) songJSON {
			return songJSON(s)
		}),
		Groups: lo.Map(v.Groups, func(g library.Group, _ int) groupJSON {
			return groupJSON(g)
		}),
	}
	if v.Filter != nil {
		out.Filter = &filterJSON{Key: v.Filter.Key.String(), Value: v.Filter.Value}
	}
	return out
}

// present sends a rendered view and makes its ids the play queue. A
// grouped view empties the queue.
func (s *Server) present(w http.ResponseWriter, v *library.View) {
	if s.deps.Playback != nil {
		s.deps.Playback.SetQueue(v.Queue)
	}
	s.writeJSON(w, http.StatusOK, toViewJSON(v))
}

// handleLibrary renders GET /api/library?mode=artists&artist=X.
func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, err := library.ParseMode(q.Get("mode"))
	if err != nil {
		s.writeError(w, errmsg.OpLibraryLoad, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	var sub *library.SubFilter
	switch {
	case q.Get("artist") != "":
		sub = library.ArtistFilter(q.Get("artist"))
	case q.Get("album") != "":
		sub = library.AlbumFilter(q.Get("album"))
	}

	view, err := s.deps.Browser.LoadGrouped(r.Context(), mode, sub)
	if err != nil {
		s.writeError(w, errmsg.OpLibraryLoad, err)
		return
	}
	s.present(w, view)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Browser.Recent(r.Context(), s.deps.RecentLimit)
	if err != nil {
		s.writeError(w, errmsg.OpRecentLoad, err)
		return
	}
	s.present(w, view)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Browser.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, errmsg.OpLibrarySearch, err)
		return
	}
	s.present(w, view)
}

type stationJSON struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	ArtURL string `json:"artUrl"`
}

func (s *Server) handleStations(w http.ResponseWriter, _ *http.Request) {
	var stations []radio.Station
	if s.deps.Stations != nil {
		stations = s.deps.Stations.All()
	}
	s.writeJSON(w, http.StatusOK, lo.Map(stations, func(st radio.Station, _ int) stationJSON {
		return stationJSON{ID: st.ID, Title: st.Title, Artist: st.Artist, ArtURL: st.ArtURL}
	}))
}

// handleColor returns the adaptive background colour of a track's cover.
func (s *Server) handleColor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.writeError(w, errmsg.OpArtworkLoad, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	track, err := s.deps.Tracks.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, errmsg.OpArtworkLoad, err)
		return
	}

	color := artwork.DefaultBackground
	if track.HasPicture() {
		color = artwork.DominantColor(track.Picture.Data)
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"color": color})
}

// Package radio holds the static internet radio directory and classifies
// stream connection failures.
package radio

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/llehouerou/waveshelf/internal/config"
)

// Station is one internet radio stream.
type Station struct {
	ID        string
	Title     string
	Artist    string
	ArtURL    string
	StreamURL string
}

// Directory is the fixed list of stations, in configuration order.
type Directory struct {
	stations []Station
	byID     map[string]int
}

// NewDirectory validates cfgs and builds a directory. IDs must be unique
// and every station needs an http(s) stream URL.
func NewDirectory(cfgs []config.StationConfig) (*Directory, error) {
	d := &Directory{byID: make(map[string]int, len(cfgs))}
	var errs []error

	for i, c := range cfgs {
		if c.ID == "" {
			errs = append(errs, fmt.Errorf("station %d: missing id", i))
			continue
		}
		if _, dup := d.byID[c.ID]; dup {
			errs = append(errs, fmt.Errorf("station %q: duplicate id", c.ID))
			continue
		}
		u, err := url.Parse(c.StreamURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("station %q: invalid stream url %q", c.ID, c.StreamURL))
			continue
		}
		title := c.Title
		if title == "" {
			title = c.ID
		}
		d.byID[c.ID] = len(d.stations)
		d.stations = append(d.stations, Station{
			ID:        c.ID,
			Title:     title,
			Artist:    c.Artist,
			ArtURL:    c.ArtURL,
			StreamURL: c.StreamURL,
		})
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return d, nil
}

// All returns a copy of the stations.
func (d *Directory) All() []Station {
	return append([]Station(nil), d.stations...)
}

// Get returns the station with id.
func (d *Directory) Get(id string) (Station, bool) {
	i, ok := d.byID[id]
	if !ok {
		return Station{}, false
	}
	return d.stations[i], true
}

// Len returns the number of stations.
func (d *Directory) Len() int { return len(d.stations) }

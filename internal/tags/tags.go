// Package tags extracts title, artist, album and cover art from audio
// file contents. Extraction never fails: unreadable input degrades to
// defaults derived from the file name.
package tags

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
)

// File extensions the library accepts.
const (
	ExtMP3  = ".mp3"
	ExtFLAC = ".flac"
	ExtOGG  = ".ogg"
	ExtOGA  = ".oga"
	ExtWAV  = ".wav"
)

// Fallback values for missing tags.
const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

const (
	mimeJPEG = "image/jpeg"
	mimePNG  = "image/png"
)

// id3Magic is the magic bytes for ID3v2 header detection.
const id3Magic = "ID3"

// flacMagic starts every native FLAC stream.
const flacMagic = "fLaC"

// Picture is embedded cover art.
type Picture struct {
	MIMEType string
	Data     []byte
}

// Metadata is the result of an extraction.
type Metadata struct {
	Title   string
	Artist  string
	Album   string
	Picture *Picture

	// Degraded is set when the tags could not be read and defaults were used
	// for every field. Reason says why.
	Degraded bool
	Reason   string
}

// Extractor reads metadata from audio file contents.
type Extractor interface {
	Extract(ctx context.Context, name string, data []byte) Metadata
}

// TitleFromName returns the base file name without its extension.
func TitleFromName(name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Defaults returns the fallback metadata for a file.
func Defaults(name string) Metadata {
	return Metadata{
		Title:  TitleFromName(name),
		Artist: UnknownArtist,
		Album:  UnknownAlbum,
	}
}

// Apply fills every empty field with its default and normalizes the picture.
func (m Metadata) Apply(name string) Metadata {
	m.Title = strings.TrimSpace(m.Title)
	m.Artist = strings.TrimSpace(m.Artist)
	m.Album = strings.TrimSpace(m.Album)

	if m.Title == "" {
		m.Title = TitleFromName(name)
	}
	if m.Artist == "" {
		m.Artist = UnknownArtist
	}
	if m.Album == "" {
		m.Album = UnknownAlbum
	}

	if m.Picture != nil && len(m.Picture.Data) == 0 {
		m.Picture = nil
	}
	if m.Picture != nil && m.Picture.MIMEType == "" {
		m.Picture = &Picture{MIMEType: detectMimeType(m.Picture.Data), Data: m.Picture.Data}
	}
	return m
}

// detectMimeType sniffs image bytes, defaulting to JPEG.
func detectMimeType(data []byte) string {
	if len(data) == 0 {
		return mimeJPEG
	}
	if http.DetectContentType(data) == mimePNG {
		return mimePNG
	}
	return mimeJPEG
}

// IsMusicFile returns true if the path has a supported music file extension.
func IsMusicFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtMP3, ExtFLAC, ExtOGG, ExtOGA, ExtWAV:
		return true
	default:
		return false
	}
}

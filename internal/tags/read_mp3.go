package tags

import (
	"bytes"
	"errors"

	"github.com/bogem/id3v2/v2"
)

// readMP3WithID3v2Fallback reads MP3 metadata using only the id3v2 library.
func readMP3WithID3v2Fallback(data []byte) (Metadata, error) {
	id3tag, err := id3v2.ParseReader(bytes.NewReader(data), id3v2.Options{
		Parse:       true,
		ParseFrames: []string{"Title", "Artist", "Album/Movie/Show title", "Attached picture"},
	})
	if err != nil {
		return Metadata{}, err
	}
	if !id3tag.HasFrames() {
		return Metadata{}, errors.New("no ID3v2 frames")
	}

	m := Metadata{
		Title:  id3tag.Title(),
		Artist: id3tag.Artist(),
		Album:  id3tag.Album(),
	}

	// Prefer the front cover, otherwise the first picture.
	for _, frame := range id3tag.GetFrames(id3tag.CommonID("Attached picture")) {
		pic, ok := frame.(id3v2.PictureFrame)
		if !ok || len(pic.Picture) == 0 {
			continue
		}
		if m.Picture == nil || pic.PictureType == id3v2.PTFrontCover {
			m.Picture = &Picture{MIMEType: pic.MimeType, Data: pic.Picture}
		}
		if pic.PictureType == id3v2.PTFrontCover {
			break
		}
	}

	return m, nil
}

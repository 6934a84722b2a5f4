package tags

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
)

// readFLACBlocks reads Vorbis comments and the cover picture straight
// from the FLAC metadata blocks. Audio frames are never parsed.
func readFLACBlocks(data []byte) (m Metadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = Metadata{}, fmt.Errorf("malformed FLAC metadata: %v", r)
		}
	}()

	f, err := goflac.ParseMetadata(bytes.NewReader(data))
	if err != nil {
		return Metadata{}, err
	}

	found := false

	for _, meta := range f.Meta {
		switch meta.Type {
		case goflac.VorbisComment:
			cmts, err := flacvorbis.ParseFromMetaDataBlock(*meta)
			if err != nil {
				continue
			}
			m.Title = firstComment(cmts, flacvorbis.FIELD_TITLE)
			m.Artist = firstComment(cmts, flacvorbis.FIELD_ARTIST)
			m.Album = firstComment(cmts, flacvorbis.FIELD_ALBUM)
			found = true
		case goflac.Picture:
			pic, err := flacpicture.ParseFromMetaDataBlock(*meta)
			if err != nil || len(pic.ImageData) == 0 {
				continue
			}
			if m.Picture == nil || pic.PictureType == flacpicture.PictureTypeFrontCover {
				m.Picture = &Picture{MIMEType: pic.MIME, Data: pic.ImageData}
			}
			found = true
		}
	}

	if !found {
		return Metadata{}, errors.New("no FLAC tag blocks")
	}
	return m, nil
}

func firstComment(cmts *flacvorbis.MetaDataBlockVorbisComment, key string) string {
	values, err := cmts.Get(key)
	if err != nil || len(values) == 0 {
		return ""
	}
	return values[0]
}

package player

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// Codec identifies a decoder.
type Codec string

const (
	CodecUnknown Codec = ""
	CodecMP3     Codec = "mp3"
	CodecFLAC    Codec = "flac"
	CodecWAV     Codec = "wav"
	CodecVorbis  Codec = "vorbis"
)

// Sniff guesses the codec from the first bytes of a file, falling back to
// the extension of name.
func Sniff(data []byte, name string) Codec {
	switch {
	case bytes.HasPrefix(data, []byte("fLaC")):
		return CodecFLAC
	case bytes.HasPrefix(data, []byte("OggS")):
		return CodecVorbis
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return CodecWAV
	case bytes.HasPrefix(data, []byte("ID3")):
		// FLAC files sometimes carry a prepended ID3v2 tag.
		if strings.EqualFold(filepath.Ext(name), ".flac") {
			return CodecFLAC
		}
		return CodecMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return CodecMP3
	}
	return codecFromExt(name)
}

func codecFromExt(name string) Codec {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3":
		return CodecMP3
	case ".flac":
		return CodecFLAC
	case ".wav":
		return CodecWAV
	case ".ogg", ".oga":
		return CodecVorbis
	default:
		return CodecUnknown
	}
}

// CodecFromContentType maps a stream's Content-Type to a codec.
func CodecFromContentType(contentType string) Codec {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch mediaType {
	case "audio/mpeg", "audio/mp3", "audio/mpeg3", "audio/x-mpeg":
		return CodecMP3
	case "audio/ogg", "application/ogg", "audio/vorbis":
		return CodecVorbis
	case "audio/flac", "audio/x-flac":
		return CodecFLAC
	case "audio/wav", "audio/x-wav", "audio/wave":
		return CodecWAV
	default:
		return CodecUnknown
	}
}

// memFile lets decoders seek within an in-memory file.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

// decode opens a beep streamer for rc. rc is closed with the streamer.
func decode(rc io.ReadCloser, codec Codec) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		s   beep.StreamSeekCloser
		f   beep.Format
		err error
	)
	switch codec {
	case CodecMP3:
		s, f, err = mp3.Decode(rc)
	case CodecFLAC:
		if rs, ok := rc.(io.ReadSeeker); ok {
			if err := skipID3v2(rs); err != nil {
				return nil, beep.Format{}, err
			}
		}
		s, f, err = flac.Decode(rc)
	case CodecWAV:
		s, f, err = wav.Decode(rc)
	case CodecVorbis:
		s, f, err = vorbis.Decode(rc)
	default:
		return nil, beep.Format{}, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: %s: %w", ErrUnsupportedFormat, codec, err)
	}
	return s, f, nil
}

// skipID3v2 skips an ID3v2 tag if present at the beginning of the file.
// The FLAC decoder does not handle a prepended tag.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := io.ReadFull(r, header)
	if err != nil && n < len(header) {
		_, serr := r.Seek(0, io.SeekStart)
		return serr
	}

	if string(header[0:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// Size is a syncsafe integer: 7 bits per byte.
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err = r.Seek(10+size, io.SeekStart)
	return err
}

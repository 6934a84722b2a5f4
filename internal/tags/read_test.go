package tags

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
)

// testPNG returns a small valid PNG image.
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := range 4 {
		for y := range 4 {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// mp3Frame is a minimal MPEG1 Layer3 frame header followed by silence.
func mp3Frame() []byte {
	frame := make([]byte, 417)
	frame[0] = 0xff
	frame[1] = 0xfb
	frame[2] = 0x90
	frame[3] = 0x00
	return frame
}

// flacFrame is a frame header sync code followed by padding.
func flacFrame() []byte {
	frame := make([]byte, 16)
	frame[0] = 0xff
	frame[1] = 0xf8
	return frame
}

// createTestMP3 builds MP3 contents with an ID3v2.4 tag.
func createTestMP3(t *testing.T, title, artist, album string, picture []byte) []byte {
	t.Helper()

	tag := id3v2.NewEmptyTag()
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	if title != "" {
		tag.SetTitle(title)
	}
	if artist != "" {
		tag.SetArtist(artist)
	}
	if album != "" {
		tag.SetAlbum(album)
	}
	if picture != nil {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    mimePNG,
			PictureType: id3v2.PTFrontCover,
			Description: "Front Cover",
			Picture:     picture,
		})
	}

	var buf bytes.Buffer
	if _, err := tag.WriteTo(&buf); err != nil {
		t.Fatalf("write id3 tag: %v", err)
	}
	buf.Write(mp3Frame())
	return buf.Bytes()
}

// createTestFLAC builds FLAC contents with Vorbis comments and a picture.
func createTestFLAC(t *testing.T, title, artist, album string, picture []byte) []byte {
	t.Helper()

	cmts := flacvorbis.New()
	for key, value := range map[string]string{
		flacvorbis.FIELD_TITLE:  title,
		flacvorbis.FIELD_ARTIST: artist,
		flacvorbis.FIELD_ALBUM:  album,
	} {
		if value == "" {
			continue
		}
		if err := cmts.Add(key, value); err != nil {
			t.Fatalf("add comment: %v", err)
		}
	}
	cmtBlock := cmts.Marshal()

	meta := []*goflac.MetaDataBlock{
		{Type: goflac.StreamInfo, Data: make([]byte, 34)},
		&cmtBlock,
	}
	if picture != nil {
		pic, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Front Cover", picture, mimePNG)
		if err != nil {
			t.Fatalf("create picture: %v", err)
		}
		picBlock := pic.Marshal()
		meta = append(meta, &picBlock)
	}

	f := &goflac.File{Meta: meta, Frames: flacFrame()}
	return f.Marshal()
}

func TestExtract_MP3(t *testing.T) {
	art := testPNG(t)
	data := createTestMP3(t, "Song", "Band", "Record", art)

	m := NewReader(nil).Extract(context.Background(), "file.mp3", data)

	if m.Degraded {
		t.Fatalf("unexpected degraded result: %s", m.Reason)
	}
	if m.Title != "Song" || m.Artist != "Band" || m.Album != "Record" {
		t.Errorf("got %q / %q / %q", m.Title, m.Artist, m.Album)
	}
	if m.Picture == nil {
		t.Fatal("expected picture")
	}
	if !bytes.Equal(m.Picture.Data, art) {
		t.Error("picture bytes differ")
	}
	if m.Picture.MIMEType != mimePNG {
		t.Errorf("picture MIME = %q, want %q", m.Picture.MIMEType, mimePNG)
	}
}

func TestExtract_PartialTagsUseDefaults(t *testing.T) {
	data := createTestMP3(t, "", "Band", "", nil)

	m := NewReader(nil).Extract(context.Background(), "dir/Track 01.mp3", data)

	if m.Degraded {
		t.Fatalf("unexpected degraded result: %s", m.Reason)
	}
	if m.Title != "Track 01" {
		t.Errorf("Title = %q, want file name without extension", m.Title)
	}
	if m.Artist != "Band" {
		t.Errorf("Artist = %q", m.Artist)
	}
	if m.Album != UnknownAlbum {
		t.Errorf("Album = %q, want %q", m.Album, UnknownAlbum)
	}
	if m.Picture != nil {
		t.Error("expected no picture")
	}
}

func TestExtract_NoReadableTags(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
	}{
		{"garbage", "My Song.wav", []byte("definitely not audio data at all")},
		{"empty", "Empty.mp3", nil},
		{"bare mp3 frame", "Bare.mp3", mp3Frame()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewReader(nil).Extract(context.Background(), tt.file, tt.data)

			if !m.Degraded {
				t.Error("expected degraded result")
			}
			if m.Reason == "" {
				t.Error("degraded result should carry a reason")
			}
			want := Defaults(tt.file)
			if m.Title != want.Title || m.Artist != UnknownArtist || m.Album != UnknownAlbum {
				t.Errorf("got %q / %q / %q, want defaults", m.Title, m.Artist, m.Album)
			}
			if m.Picture != nil {
				t.Error("expected no picture")
			}
		})
	}
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewReader(nil).Extract(ctx, "a.mp3", createTestMP3(t, "Song", "Band", "Record", nil))
	if !m.Degraded || m.Title != "a" {
		t.Errorf("got %+v, want degraded defaults", m)
	}
}

func TestExtract_FLAC(t *testing.T) {
	art := testPNG(t)
	data := createTestFLAC(t, "Flac Song", "Flac Band", "Flac Album", art)

	m := NewReader(nil).Extract(context.Background(), "song.flac", data)

	if m.Degraded {
		t.Fatalf("unexpected degraded result: %s", m.Reason)
	}
	if m.Title != "Flac Song" || m.Artist != "Flac Band" || m.Album != "Flac Album" {
		t.Errorf("got %q / %q / %q", m.Title, m.Artist, m.Album)
	}
	if m.Picture == nil || !bytes.Equal(m.Picture.Data, art) {
		t.Error("expected the embedded picture")
	}
}

func TestReadMP3WithID3v2Fallback(t *testing.T) {
	art := testPNG(t)
	data := createTestMP3(t, "Fallback", "Band", "Record", art)

	m, err := readMP3WithID3v2Fallback(data)
	if err != nil {
		t.Fatalf("fallback failed: %v", err)
	}
	if m.Title != "Fallback" || m.Artist != "Band" || m.Album != "Record" {
		t.Errorf("got %q / %q / %q", m.Title, m.Artist, m.Album)
	}
	if m.Picture == nil || m.Picture.MIMEType != mimePNG {
		t.Errorf("picture = %+v", m.Picture)
	}

	if _, err := readMP3WithID3v2Fallback(mp3Frame()); err == nil {
		t.Error("expected error for data without ID3 frames")
	}
}

func TestReadFLACBlocks(t *testing.T) {
	art := testPNG(t)
	data := createTestFLAC(t, "Title", "Artist", "", art)

	m, err := readFLACBlocks(data)
	if err != nil {
		t.Fatalf("readFLACBlocks failed: %v", err)
	}
	if m.Title != "Title" || m.Artist != "Artist" || m.Album != "" {
		t.Errorf("got %q / %q / %q", m.Title, m.Artist, m.Album)
	}
	if m.Picture == nil || m.Picture.MIMEType != mimePNG {
		t.Errorf("picture = %+v", m.Picture)
	}

	if _, err := readFLACBlocks([]byte("not flac")); err == nil {
		t.Error("expected error for non-FLAC data")
	}
}

func TestReadFLACBlocks_MetadataOnly(t *testing.T) {
	data := createTestFLAC(t, "Title", "Artist", "Album", nil)
	data = data[:len(data)-len(flacFrame())]

	m, err := readFLACBlocks(data)
	if err != nil {
		t.Fatalf("readFLACBlocks failed: %v", err)
	}
	if m.Title != "Title" || m.Album != "Album" {
		t.Errorf("got %q / %q", m.Title, m.Album)
	}

	// A block header announcing more bytes than remain.
	if _, err := readFLACBlocks(data[:10]); err == nil {
		t.Error("expected error for truncated metadata")
	}
}

func TestApply(t *testing.T) {
	art := testPNG(t)

	tests := []struct {
		name     string
		in       Metadata
		wantMIME string
		wantPic  bool
	}{
		{"empty picture dropped", Metadata{Picture: &Picture{MIMEType: mimePNG}}, "", false},
		{"missing MIME sniffed", Metadata{Picture: &Picture{Data: art}}, mimePNG, true},
		{"unknown bytes default to JPEG", Metadata{Picture: &Picture{Data: []byte("xyz")}}, mimeJPEG, true},
		{"MIME kept", Metadata{Picture: &Picture{MIMEType: "image/gif", Data: art}}, "image/gif", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Apply("x.mp3")
			if (got.Picture != nil) != tt.wantPic {
				t.Fatalf("picture present = %v, want %v", got.Picture != nil, tt.wantPic)
			}
			if tt.wantPic && got.Picture.MIMEType != tt.wantMIME {
				t.Errorf("MIME = %q, want %q", got.Picture.MIMEType, tt.wantMIME)
			}
		})
	}

	trimmed := Metadata{Title: "  ", Artist: " A "}.Apply("/music/b.flac")
	if trimmed.Title != "b" || trimmed.Artist != "A" || trimmed.Album != UnknownAlbum {
		t.Errorf("trimmed = %+v", trimmed)
	}
}

func TestTitleFromName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"song.mp3", "song"},
		{"/music/Artist - Song.flac", "Artist - Song"},
		{"archive.tar.gz", "archive.tar"},
		{"noext", "noext"},
		{".hidden", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := TitleFromName(tt.input); got != tt.want {
				t.Errorf("TitleFromName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsMusicFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.mp3", true},
		{"a.MP3", true},
		{"a.flac", true},
		{"a.ogg", true},
		{"a.oga", true},
		{"a.wav", true},
		{"a.txt", false},
		{"cover.jpg", false},
		{"mp3", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsMusicFile(tt.path); got != tt.want {
				t.Errorf("IsMusicFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

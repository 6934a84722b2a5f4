package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/waveshelf/internal/db"
)

// Picture is an embedded cover image.
type Picture struct {
	MIMEType string
	Data     []byte
}

// Draft is a track about to be inserted. The store assigns its id.
type Draft struct {
	Title    string
	Artist   string
	Album    string
	Picture  *Picture
	FileName string
	File     []byte
}

// Track is a stored record without its audio payload.
type Track struct {
	ID       int64
	Title    string
	Artist   string
	Album    string
	Picture  *Picture
	FileName string
	FileSize int64
	AddedAt  time.Time
}

// HasPicture reports whether the track carries cover art.
func (t Track) HasPicture() bool {
	return t.Picture != nil && len(t.Picture.Data) > 0
}

// File is the original audio payload of a track.
type File struct {
	TrackID  int64
	Name     string
	MIMEType string
	Data     []byte
}

// Field is an indexed track field usable as a query filter.
type Field int

const (
	FieldNone Field = iota
	FieldArtist
	FieldAlbum
)

func (f Field) String() string {
	switch f {
	case FieldArtist:
		return "artist"
	case FieldAlbum:
		return "album"
	default:
		return ""
	}
}

// Filter restricts QueryAll to records whose field equals Value exactly.
// The zero Filter matches everything.
type Filter struct {
	Field Field
	Value string
}

// ByArtist returns a filter on the artist index.
func ByArtist(name string) Filter { return Filter{Field: FieldArtist, Value: name} }

// ByAlbum returns a filter on the album index.
func ByAlbum(name string) Filter { return Filter{Field: FieldAlbum, Value: name} }

// Active reports whether the filter restricts results.
func (f Filter) Active() bool { return f.Field != FieldNone }

const trackColumns = `id, title, artist, album, picture, picture_mime, file_name, file_size, added_at`

// AddBatch inserts every draft in one transaction and returns the assigned
// ids in draft order. Either all drafts are stored or none are.
func (s *Store) AddBatch(ctx context.Context, drafts []Draft) ([]int64, error) {
	conn, err := s.handle()
	if err != nil {
		return nil, err
	}
	if len(drafts) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(drafts))
	now := time.Now().Unix()

	err = db.WithTx(ctx, conn, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO tracks (title, artist, album, picture, picture_mime, file, file_name, file_size, added_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i := range drafts {
			d := &drafts[i]
			var pic []byte
			var picMIME sql.NullString
			if d.Picture != nil && len(d.Picture.Data) > 0 {
				pic = d.Picture.Data
				picMIME = db.NullString(d.Picture.MIMEType)
			}
			file := d.File
			if file == nil {
				file = []byte{}
			}

			res, err := stmt.ExecContext(ctx,
				d.Title, d.Artist, d.Album, pic, picMIME,
				file, d.FileName, len(d.File), now,
			)
			if err != nil {
				return fmt.Errorf("insert %q: %w", d.FileName, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("batch aborted", zap.Int("size", len(drafts)), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrTransactionAborted, err)
	}

	s.logger.Debug("batch added", zap.Int("size", len(ids)))
	return ids, nil
}

// QueryAll returns matching records. Without a filter the newest record
// comes first. With a filter the lookup goes through the field's index
// and records come back in insertion order.
func (s *Store) QueryAll(ctx context.Context, f Filter) ([]Track, error) {
	conn, err := s.handle()
	if err != nil {
		return nil, err
	}

	query, args, err := buildQuery(f)
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

func buildQuery(f Filter) (string, []any, error) {
	switch f.Field {
	case FieldNone:
		return `SELECT ` + trackColumns + ` FROM tracks ORDER BY id DESC`, nil, nil
	case FieldArtist:
		return `SELECT ` + trackColumns + ` FROM tracks INDEXED BY idx_tracks_artist
			WHERE artist = ? ORDER BY id`, []any{f.Value}, nil
	case FieldAlbum:
		return `SELECT ` + trackColumns + ` FROM tracks INDEXED BY idx_tracks_album
			WHERE album = ? ORDER BY id`, []any{f.Value}, nil
	default:
		return "", nil, fmt.Errorf("unknown filter field %d", f.Field)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrack(row scanner) (Track, error) {
	var (
		t       Track
		pic     []byte
		picMIME sql.NullString
		added   int64
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Artist, &t.Album, &pic, &picMIME,
		&t.FileName, &t.FileSize, &added); err != nil {
		return Track{}, err
	}
	if len(pic) > 0 {
		t.Picture = &Picture{MIMEType: db.NullStringValue(picMIME), Data: pic}
	}
	t.AddedAt = time.Unix(added, 0)
	return t, nil
}

// Get returns one record without its payload.
func (s *Store) Get(ctx context.Context, id int64) (*Track, error) {
	conn, err := s.handle()
	if err != nil {
		return nil, err
	}

	row := conn.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id)
	t, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetFile returns the original audio payload of a record.
func (s *Store) GetFile(ctx context.Context, id int64) (*File, error) {
	conn, err := s.handle()
	if err != nil {
		return nil, err
	}

	f := &File{TrackID: id}
	err = conn.QueryRowContext(ctx, `SELECT file, file_name FROM tracks WHERE id = ?`, id).
		Scan(&f.Data, &f.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	f.MIMEType = mime.TypeByExtension(filepath.Ext(f.Name))
	if f.MIMEType == "" {
		f.MIMEType = "application/octet-stream"
	}
	return f, nil
}

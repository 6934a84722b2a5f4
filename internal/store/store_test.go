package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

// setupTestStore opens a store on a fresh in-memory database.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s := New(memoryPath, nil)
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func draft(title, artist, album string) Draft {
	return Draft{
		Title:    title,
		Artist:   artist,
		Album:    album,
		FileName: title + ".mp3",
		File:     []byte("audio:" + title),
	}
}

func mustAdd(t *testing.T, s *Store, drafts ...Draft) []int64 {
	t.Helper()
	ids, err := s.AddBatch(context.Background(), drafts)
	if err != nil {
		t.Fatalf("AddBatch failed: %v", err)
	}
	return ids
}

func titles(tracks []Track) []string {
	out := make([]string, len(tracks))
	for i, tr := range tracks {
		out[i] = tr.Title
	}
	return out
}

func TestOpen_Idempotent(t *testing.T) {
	s := setupTestStore(t)
	mustAdd(t, s, draft("a", "X", "Y"))

	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("second Open failed: %v", err)
	}

	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1 (second open must keep the same handle)", n)
	}

	v, err := s.Version(context.Background())
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if v != CurrentSchemaVersion {
		t.Errorf("Version = %d, want %d", v, CurrentSchemaVersion)
	}
}

func TestClosedStore_StorageUnavailable(t *testing.T) {
	ctx := context.Background()
	s := New(memoryPath, nil)

	if _, err := s.AddBatch(ctx, []Draft{draft("a", "b", "c")}); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("AddBatch err = %v, want ErrStorageUnavailable", err)
	}
	if _, err := s.QueryAll(ctx, Filter{}); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("QueryAll err = %v, want ErrStorageUnavailable", err)
	}
	if _, err := s.GetFile(ctx, 1); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("GetFile err = %v, want ErrStorageUnavailable", err)
	}

	if err := s.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if s.IsOpen() {
		t.Error("IsOpen() = true after Close")
	}
	if _, err := s.Count(ctx); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("Count after Close err = %v, want ErrStorageUnavailable", err)
	}
}

func TestAddBatch_IDsUniqueAndIncreasing(t *testing.T) {
	s := setupTestStore(t)

	first := mustAdd(t, s, draft("a", "A", "1"), draft("b", "A", "1"), draft("c", "B", "2"))
	second := mustAdd(t, s, draft("d", "B", "2"), draft("e", "C", "3"))

	all := append(append([]int64{}, first...), second...)
	for i := 1; i < len(all); i++ {
		if all[i] <= all[i-1] {
			t.Fatalf("ids not strictly increasing: %v", all)
		}
	}

	tracks, err := s.QueryAll(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("QueryAll failed: %v", err)
	}
	got := strings.Join(titles(tracks), "")
	if got != "edcba" {
		t.Errorf("unfiltered order = %q, want most recent first %q", got, "edcba")
	}
}

func TestAddBatch_Empty(t *testing.T) {
	s := setupTestStore(t)

	ids, err := s.AddBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("AddBatch(nil) failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ids = %v, want none", ids)
	}
}

func TestAddBatch_Atomic(t *testing.T) {
	s := setupTestStore(t)
	mustAdd(t, s, draft("kept", "A", "1"))

	_, err := s.db.Exec(`
		CREATE TRIGGER reject_boom BEFORE INSERT ON tracks
		WHEN NEW.title = 'boom'
		BEGIN SELECT RAISE(ABORT, 'boom rejected'); END
	`)
	if err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	_, err = s.AddBatch(context.Background(), []Draft{
		draft("x", "A", "1"),
		draft("boom", "A", "1"),
		draft("y", "A", "1"),
	})
	if !errors.Is(err, ErrTransactionAborted) {
		t.Fatalf("err = %v, want ErrTransactionAborted", err)
	}

	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1 (no partial batch)", n)
	}
}

func TestAddBatch_CancelledContext(t *testing.T) {
	s := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.AddBatch(ctx, []Draft{draft("a", "A", "1")})
	if !errors.Is(err, ErrTransactionAborted) {
		t.Fatalf("err = %v, want ErrTransactionAborted", err)
	}
}

func TestQueryAll_IndexCorrectness(t *testing.T) {
	s := setupTestStore(t)
	mustAdd(t, s,
		draft("one", "X", "Alpha"),
		draft("two", "Y", "Alpha"),
		draft("three", "X", "Beta"),
		draft("four", "x", "Beta"),
		draft("five", "X ", "Gamma"),
	)

	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{"artist exact", ByArtist("X"), "one,three"},
		{"artist case sensitive", ByArtist("x"), "four"},
		{"album", ByAlbum("Beta"), "three,four"},
		{"no partial match", ByAlbum("Alp"), ""},
		{"missing", ByArtist("Z"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracks, err := s.QueryAll(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("QueryAll failed: %v", err)
			}
			got := strings.Join(titles(tracks), ",")
			if got != tt.want {
				t.Errorf("QueryAll(%s=%q) = %q, want %q", tt.filter.Field, tt.filter.Value, got, tt.want)
			}
		})
	}
}

func TestQueryAll_UsesIndex(t *testing.T) {
	s := setupTestStore(t)

	for _, tt := range []struct {
		filter Filter
		index  string
	}{
		{ByArtist("X"), "idx_tracks_artist"},
		{ByAlbum("Y"), "idx_tracks_album"},
	} {
		query, args, err := buildQuery(tt.filter)
		if err != nil {
			t.Fatalf("buildQuery failed: %v", err)
		}
		rows, err := s.db.Query(`EXPLAIN QUERY PLAN `+query, args...)
		if err != nil {
			t.Fatalf("explain failed: %v", err)
		}
		var plan []string
		for rows.Next() {
			var id, parent, notused int
			var detail string
			if err := rows.Scan(&id, &parent, &notused, &detail); err != nil {
				rows.Close()
				t.Fatalf("scan plan: %v", err)
			}
			plan = append(plan, detail)
		}
		rows.Close()

		joined := strings.Join(plan, "; ")
		if !strings.Contains(joined, tt.index) {
			t.Errorf("plan %q does not use %s", joined, tt.index)
		}
		if strings.Contains(joined, "SCAN tracks") && !strings.Contains(joined, "USING") {
			t.Errorf("plan %q is a full scan", joined)
		}
	}
}

func TestQueryAll_OmitsPayloadKeepsPicture(t *testing.T) {
	s := setupTestStore(t)
	d := draft("cover", "A", "B")
	d.Picture = &Picture{MIMEType: "image/png", Data: []byte{1, 2, 3}}
	mustAdd(t, s, d, draft("plain", "A", "B"))

	tracks, err := s.QueryAll(context.Background(), ByAlbum("B"))
	if err != nil {
		t.Fatalf("QueryAll failed: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("len = %d, want 2", len(tracks))
	}
	if !tracks[0].HasPicture() || tracks[0].Picture.MIMEType != "image/png" {
		t.Errorf("picture = %+v, want png", tracks[0].Picture)
	}
	if tracks[1].HasPicture() {
		t.Error("track without picture reports one")
	}
	if tracks[0].FileSize != int64(len("audio:cover")) {
		t.Errorf("FileSize = %d", tracks[0].FileSize)
	}
}

func TestGetFile(t *testing.T) {
	s := setupTestStore(t)
	ids := mustAdd(t, s, draft("song", "A", "B"))

	f, err := s.GetFile(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}
	if string(f.Data) != "audio:song" || f.Name != "song.mp3" {
		t.Errorf("file = %q %q", f.Name, f.Data)
	}
	if f.MIMEType == "" {
		t.Error("MIMEType should never be empty")
	}

	if _, err := s.GetFile(context.Background(), ids[0]+100); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetFile(missing) err = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(context.Background(), ids[0]+100); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) err = %v, want ErrNotFound", err)
	}

	tr, err := s.Get(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if tr.Title != "song" || tr.AddedAt.IsZero() {
		t.Errorf("track = %+v", tr)
	}
}

func TestOpen_UpgradesOlderSchemaPreservingRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.db")

	// A version 1 database: tracks table only, no indices.
	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	if _, err := raw.Exec(migrations[0]); err != nil {
		t.Fatalf("create v1: %v", err)
	}
	if _, err := raw.Exec(`PRAGMA user_version = 1`); err != nil {
		t.Fatalf("set version: %v", err)
	}
	_, err = raw.Exec(`INSERT INTO tracks (title, artist, album, file, file_name, file_size, added_at)
		VALUES ('old', 'A', 'B', x'00', 'old.mp3', 1, 0)`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	raw.Close()

	s := New(path, nil)
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	v, err := s.Version(context.Background())
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if v != CurrentSchemaVersion {
		t.Errorf("Version = %d, want %d", v, CurrentSchemaVersion)
	}

	tracks, err := s.QueryAll(context.Background(), ByArtist("A"))
	if err != nil {
		t.Fatalf("QueryAll failed: %v", err)
	}
	if len(tracks) != 1 || tracks[0].Title != "old" {
		t.Errorf("tracks = %+v, want the preserved row", tracks)
	}
}

func TestOpen_ReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "library.db")
	ctx := context.Background()

	s := New(path, nil)
	if err := s.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	mustAdd(t, s, draft("a", "A", "B"))
	s.Close()

	if err := s.Open(ctx); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.db")
	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	if _, err := raw.Exec(`PRAGMA user_version = 99`); err != nil {
		t.Fatalf("set version: %v", err)
	}
	raw.Close()

	s := New(path, nil)
	err = s.Open(context.Background())
	if !errors.Is(err, ErrSchemaTooNew) {
		t.Fatalf("err = %v, want ErrSchemaTooNew", err)
	}
	if s.IsOpen() {
		t.Error("store must stay closed after a failed open")
	}
}

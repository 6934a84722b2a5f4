package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/waveshelf/internal/store"
	"github.com/llehouerou/waveshelf/internal/tags"
)

// fakeStore records committed batches.
type fakeStore struct {
	mu      sync.Mutex
	batches [][]store.Draft
	nextID  int64
	err     error
}

func (s *fakeStore) AddBatch(_ context.Context, drafts []store.Draft) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.batches = append(s.batches, drafts)
	ids := make([]int64, len(drafts))
	for i := range drafts {
		s.nextID++
		ids[i] = s.nextID
	}
	return ids, nil
}

// fakeExtractor reads "title|artist|album" from the data, and degrades
// anything else. It tracks peak concurrency.
type fakeExtractor struct {
	active atomic.Int32
	peak   atomic.Int32
}

func (e *fakeExtractor) Extract(_ context.Context, name string, data []byte) tags.Metadata {
	n := e.active.Add(1)
	defer e.active.Add(-1)
	for {
		p := e.peak.Load()
		if n <= p || e.peak.CompareAndSwap(p, n) {
			break
		}
	}

	parts := strings.Split(string(data), "|")
	if len(parts) != 3 {
		m := tags.Defaults(name)
		m.Degraded = true
		m.Reason = "unreadable"
		return m
	}
	return tags.Metadata{Title: parts[0], Artist: parts[1], Album: parts[2]}.Apply(name)
}

func TestImport_OneBatchInInputOrder(t *testing.T) {
	st := &fakeStore{}
	ex := &fakeExtractor{}
	im := New(st, ex, Options{Concurrency: 2}, nil)

	files := []Source{
		{Name: "a.mp3", Data: []byte("A|X|One")},
		{Name: "b.mp3", Data: []byte("garbage")},
		{Name: "c.mp3", Data: []byte("C|Y|Two")},
		{Name: "d.mp3", Data: []byte("D|X|One")},
	}

	report, err := im.Import(context.Background(), files)
	require.NoError(t, err)

	require.Len(t, st.batches, 1, "all files must be committed in one batch")
	batch := st.batches[0]
	require.Len(t, batch, 4)
	assert.Equal(t, "A", batch[0].Title)
	assert.Equal(t, "b", batch[1].Title)
	assert.Equal(t, tags.UnknownArtist, batch[1].Artist)
	assert.Equal(t, "C", batch[2].Title)
	assert.Equal(t, "d.mp3", batch[3].FileName)
	assert.Equal(t, []byte("D|X|One"), batch[3].File)

	assert.Equal(t, 4, report.Imported())
	assert.Equal(t, []string{"b.mp3"}, report.Degraded)
	assert.Equal(t, []int64{1, 2, 3, 4}, report.IDs)
	assert.LessOrEqual(t, ex.peak.Load(), int32(2))
}

func TestImport_StoreFailureFailsBatch(t *testing.T) {
	st := &fakeStore{err: store.ErrTransactionAborted}
	im := New(st, &fakeExtractor{}, Options{}, nil)

	report, err := im.Import(context.Background(), []Source{
		{Name: "a.mp3", Data: []byte("A|X|One")},
	})
	assert.ErrorIs(t, err, store.ErrTransactionAborted)
	assert.Nil(t, report)
}

func TestImport_Empty(t *testing.T) {
	st := &fakeStore{}
	im := New(st, &fakeExtractor{}, Options{}, nil)

	report, err := im.Import(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported())
	assert.Empty(t, st.batches)
}

func TestImport_Progress(t *testing.T) {
	var calls []int
	var total int
	im := New(&fakeStore{}, &fakeExtractor{}, Options{
		Concurrency: 3,
		Progress: func(done, n int) {
			calls = append(calls, done)
			total = n
		},
	}, nil)

	files := make([]Source, 5)
	for i := range files {
		files[i] = Source{Name: "f.mp3", Data: []byte("t|a|b")}
	}
	_, err := im.Import(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4, 5}, calls)
	assert.Equal(t, 5, total)
}

func TestImport_CancelledBeforeCommit(t *testing.T) {
	st := &fakeStore{}
	im := New(st, &fakeExtractor{}, Options{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := im.Import(ctx, []Source{{Name: "a.mp3", Data: []byte("A|X|One")}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, st.batches)
}

func TestImport_RealStoreAndReader(t *testing.T) {
	st := store.New(":memory:", nil)
	require.NoError(t, st.Open(context.Background()))
	defer st.Close()

	im := New(st, tags.NewReader(nil), Options{}, nil)
	report, err := im.Import(context.Background(), []Source{
		{Name: "Untagged Song.wav", Data: []byte("RIFF....WAVEfmt ")},
	})
	require.NoError(t, err)
	require.Equal(t, 1, report.Imported())

	tracks, err := st.QueryAll(context.Background(), store.ByArtist(tags.UnknownArtist))
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Untagged Song", tracks[0].Title)
	assert.Equal(t, tags.UnknownAlbum, tracks[0].Album)
	assert.False(t, tracks[0].HasPicture())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestImportPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "album", "02.mp3"), "Two|X|Album")
	writeFile(t, filepath.Join(dir, "album", "01.mp3"), "One|X|Album")
	writeFile(t, filepath.Join(dir, "album", "cover.jpg"), "\xff\xd8jpeg")
	writeFile(t, filepath.Join(dir, "album", "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, "single.flac"), "Single|Y|Other")
	writeFile(t, filepath.Join(dir, "readme.md"), "explicit non-music")

	st := &fakeStore{}
	im := New(st, &fakeExtractor{}, Options{}, nil)

	report, err := im.ImportPaths(context.Background(), []string{
		filepath.Join(dir, "album"),
		filepath.Join(dir, "single.flac"),
		filepath.Join(dir, "readme.md"),
		filepath.Join(dir, "missing.mp3"),
		filepath.Join(dir, "album", "01.mp3"), // duplicate of a walked file
	})
	require.NoError(t, err)

	require.Len(t, st.batches, 1)
	batch := st.batches[0]
	got := make([]string, len(batch))
	for i, d := range batch {
		got[i] = d.Title
	}
	assert.Equal(t, []string{"One", "Two", "Single"}, got)

	// Folder art fills in for tags without a picture.
	require.NotNil(t, batch[0].Picture)
	assert.Equal(t, "image/jpeg", batch[0].Picture.MIMEType)
	assert.Nil(t, batch[2].Picture)

	skipped := make([]string, len(report.Skipped))
	for i, s := range report.Skipped {
		skipped[i] = filepath.Base(s.Path)
	}
	sort.Strings(skipped)
	assert.Equal(t, []string{"missing.mp3", "readme.md"}, skipped)
	for _, s := range report.Skipped {
		if filepath.Base(s.Path) == "readme.md" {
			assert.True(t, errors.Is(s.Err, ErrUnsupportedFile))
		}
	}
	assert.Contains(t, report.String(), "imported 3 track(s)")
	assert.Contains(t, report.String(), "2 skipped")
}

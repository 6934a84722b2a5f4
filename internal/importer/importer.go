// Package importer turns audio files into stored track records: metadata
// is extracted for every file concurrently, then the whole batch is
// committed in one store transaction.
package importer

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/waveshelf/internal/store"
	"github.com/llehouerou/waveshelf/internal/tags"
)

// TrackStore is the write side of the track store.
type TrackStore interface {
	AddBatch(ctx context.Context, drafts []store.Draft) ([]int64, error)
}

// Source is one file to import.
type Source struct {
	Name string
	Data []byte
	// Dir is the folder the file was read from, if any. It enables the
	// folder cover art fallback.
	Dir string
}

// Progress reports extraction progress. Calls are serialized.
type Progress func(done, total int)

// Skipped is a file that could not be read.
type Skipped struct {
	Path string
	Err  error
}

// Report summarizes one import.
type Report struct {
	IDs      []int64
	Degraded []string // files imported with default metadata
	Skipped  []Skipped
	Bytes    int64
}

// Imported returns the number of stored tracks.
func (r *Report) Imported() int { return len(r.IDs) }

// String returns a one line human summary.
func (r *Report) String() string {
	s := fmt.Sprintf("imported %d track(s), %s", r.Imported(), humanize.Bytes(uint64(r.Bytes)))
	if n := len(r.Degraded); n > 0 {
		s += fmt.Sprintf(", %d without tags", n)
	}
	if n := len(r.Skipped); n > 0 {
		s += fmt.Sprintf(", %d skipped", n)
	}
	return s
}

// Options configures an Importer.
type Options struct {
	Concurrency int // parallel extractions, NumCPU when <= 0
	Progress    Progress
}

// Importer runs imports against a store.
type Importer struct {
	store       TrackStore
	extractor   tags.Extractor
	concurrency int
	progress    Progress
	logger      *zap.Logger
}

// New returns an Importer writing to st and reading tags with ex.
func New(st TrackStore, ex tags.Extractor, opts Options, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	return &Importer{
		store:       st,
		extractor:   ex,
		concurrency: opts.Concurrency,
		progress:    opts.Progress,
		logger:      logger.Named("importer"),
	}
}

// Import extracts metadata for every file, then stores the batch in one
// transaction. A file whose tags cannot be read is stored with default
// metadata. A store failure fails the whole batch and nothing is stored.
func (im *Importer) Import(ctx context.Context, files []Source) (*Report, error) {
	report := &Report{}
	if len(files) == 0 {
		return report, nil
	}

	results := make([]tags.Metadata, len(files))
	folderArt := newFolderArtCache()

	var (
		progressMu sync.Mutex
		done       int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.concurrency)

	for i, f := range files {
		g.Go(func() error {
			md := im.extractor.Extract(gctx, f.Name, f.Data)
			if md.Picture == nil && f.Dir != "" && !md.Degraded {
				md.Picture = folderArt.get(f.Dir)
			}
			results[i] = md

			if im.progress != nil {
				progressMu.Lock()
				done++
				im.progress(done, len(files))
				progressMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() // workers never fail

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	drafts := make([]store.Draft, len(files))
	for i, f := range files {
		md := results[i]
		if md.Degraded {
			report.Degraded = append(report.Degraded, f.Name)
		}
		drafts[i] = store.Draft{
			Title:    md.Title,
			Artist:   md.Artist,
			Album:    md.Album,
			FileName: f.Name,
			File:     f.Data,
		}
		if md.Picture != nil {
			drafts[i].Picture = &store.Picture{MIMEType: md.Picture.MIMEType, Data: md.Picture.Data}
		}
		report.Bytes += int64(len(f.Data))
	}

	ids, err := im.store.AddBatch(ctx, drafts)
	if err != nil {
		im.logger.Error("import batch failed", zap.Int("files", len(files)), zap.Error(err))
		return nil, err
	}
	report.IDs = ids

	im.logger.Info("import complete",
		zap.Int("tracks", len(ids)),
		zap.Int("degraded", len(report.Degraded)),
		zap.String("size", humanize.Bytes(uint64(report.Bytes))),
	)
	return report, nil
}

// folderArtCache looks up each folder's cover file at most once.
type folderArtCache struct {
	mu    sync.Mutex
	byDir map[string]*tags.Picture
}

func newFolderArtCache() *folderArtCache {
	return &folderArtCache{byDir: make(map[string]*tags.Picture)}
}

func (c *folderArtCache) get(dir string) *tags.Picture {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pic, ok := c.byDir[dir]; ok {
		return pic
	}
	pic := tags.FolderArt(dir)
	c.byDir[dir] = pic
	return pic
}

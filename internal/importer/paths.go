package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/waveshelf/internal/tags"
)

// Retry configuration
const (
	maxRetries       = 3
	initialBackoff   = 500 * time.Millisecond
	maxBackoff       = 5 * time.Second
	operationTimeout = 30 * time.Second
)

// ErrUnsupportedFile is reported for explicit paths that are not music files.
var ErrUnsupportedFile = errors.New("unsupported file type")

// ImportPaths reads the given files and directories (searched recursively
// for music files) and imports them as one batch. Unreadable files are
// reported as skipped.
func (im *Importer) ImportPaths(ctx context.Context, paths []string) (*Report, error) {
	files, skipped := expandPaths(paths)

	sources := make([]Source, 0, len(files))
	for _, path := range files {
		var data []byte
		err := retryWithBackoff(ctx, "read "+filepath.Base(path), func() error {
			var err error
			data, err = os.ReadFile(path)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			im.logger.Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
			skipped = append(skipped, Skipped{Path: path, Err: err})
			continue
		}
		sources = append(sources, Source{
			Name: filepath.Base(path),
			Data: data,
			Dir:  filepath.Dir(path),
		})
	}

	report, err := im.Import(ctx, sources)
	if err != nil {
		return nil, err
	}
	report.Skipped = append(report.Skipped, skipped...)
	return report, nil
}

// expandPaths returns the music files named by paths, directories walked
// recursively, in a stable order.
func expandPaths(paths []string) (files []string, skipped []Skipped) {
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			skipped = append(skipped, Skipped{Path: root, Err: err})
			continue
		}
		if !info.IsDir() {
			if !tags.IsMusicFile(root) {
				skipped = append(skipped, Skipped{Path: root, Err: ErrUnsupportedFile})
				continue
			}
			add(root)
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				skipped = append(skipped, Skipped{Path: path, Err: err})
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if !d.IsDir() && tags.IsMusicFile(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			skipped = append(skipped, Skipped{Path: root, Err: err})
		}
		sort.Strings(found)
		for _, p := range found {
			add(p)
		}
	}
	return files, skipped
}

// retryWithBackoff executes an operation with exponential backoff retry.
// Returns the last error if all retries fail.
func retryWithBackoff(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: cancelled after %d attempts: %w", operation, attempt, lastErr)
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
		}

		done := make(chan error, 1)
		go func() {
			done <- fn()
		}()

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: cancelled: %w", operation, ctx.Err())
		case err := <-done:
			if err == nil {
				return nil
			}
			lastErr = err
			if !isRetryableError(err) {
				return fmt.Errorf("%s: %w", operation, err)
			}
		case <-time.After(operationTimeout):
			lastErr = fmt.Errorf("timeout after %v", operationTimeout)
		}
	}

	return fmt.Errorf("%s: failed after %d attempts: %w", operation, maxRetries+1, lastErr)
}

// isRetryableError checks if an error is likely temporary and worth retrying.
// Missing files and permission errors are permanent for an import.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return false
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, hint := range []string{"locked", "in use", "busy", "timeout", "i/o", "temporary"} {
		if strings.Contains(errStr, hint) {
			return true
		}
	}
	return false
}

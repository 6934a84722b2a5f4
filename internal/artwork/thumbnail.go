package artwork

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif" // decoders for embedded cover formats
	_ "image/jpeg"
	"image/png"

	"github.com/nfnt/resize"
	"go.uber.org/zap"
)

// Size limits for thumbnails.
const (
	MinThumbnail = 16
	MaxThumbnail = 1024
)

// ErrBadSize is returned for sizes outside [MinThumbnail, MaxThumbnail].
var ErrBadSize = errors.New("thumbnail size out of range")

// Thumbnail decodes data and returns a PNG fitting in size x size pixels,
// preserving the aspect ratio.
func Thumbnail(data []byte, size int) ([]byte, error) {
	if size < MinThumbnail || size > MaxThumbnail {
		return nil, ErrBadSize
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	resized := resize.Thumbnail(uint(size), uint(size), img, resize.Lanczos3) //nolint:gosec // size is bounded

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Thumbnailer serves thumbnails through a disk cache.
type Thumbnailer struct {
	cache  *Cache
	logger *zap.Logger
}

// NewThumbnailer returns a thumbnailer. A nil cache disables caching.
func NewThumbnailer(cache *Cache, logger *zap.Logger) *Thumbnailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Thumbnailer{cache: cache, logger: logger.Named("artwork")}
}

// Get returns the cached thumbnail or renders and stores it.
func (t *Thumbnailer) Get(data []byte, size int) ([]byte, error) {
	if out := t.cache.Get(data, size); out != nil {
		return out, nil
	}

	out, err := Thumbnail(data, size)
	if err != nil {
		return nil, err
	}
	if err := t.cache.Put(data, size, out); err != nil {
		t.logger.Warn("thumbnail cache write failed", zap.Error(err))
	}
	return out, nil
}

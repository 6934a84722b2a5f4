package artwork

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/waveshelf/internal/handles"
	"github.com/llehouerou/waveshelf/internal/store"
)

// Images exposes cover art through an image handle registry.
type Images struct {
	registry *handles.Registry
	thumbs   *Thumbnailer
	logger   *zap.Logger
}

// NewImages wraps registry. thumbs may be nil, in which case ?size= is ignored.
func NewImages(registry *handles.Registry, thumbs *Thumbnailer, logger *zap.Logger) *Images {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Images{registry: registry, thumbs: thumbs, logger: logger.Named("images")}
}

// Registry returns the underlying handle registry.
func (i *Images) Registry() *handles.Registry { return i.registry }

// BeginView starts a new render scope, releasing the previous view's images.
func (i *Images) BeginView() *handles.Scope { return i.registry.BeginView() }

// Acquire returns the image URL for picture within scope, or a placeholder
// seeded by seed when the picture is absent.
func (i *Images) Acquire(scope *handles.Scope, picture *store.Picture, seed string) string {
	if picture == nil {
		return scope.Image(nil, "", seed)
	}
	return scope.Image(picture.Data, picture.MIMEType, seed)
}

// ServeHTTP serves image handles, resized when a size query is present.
func (i *Images) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sizeParam := r.URL.Query().Get("size")
	if sizeParam == "" || i.thumbs == nil {
		i.registry.ServeHTTP(w, r)
		return
	}

	size, err := strconv.Atoi(sizeParam)
	if err != nil || size < MinThumbnail || size > MaxThumbnail {
		http.Error(w, "invalid size", http.StatusBadRequest)
		return
	}

	data, _, ok := i.registry.Lookup(handles.Handle(r.URL.Path))
	if !ok {
		http.NotFound(w, r)
		return
	}

	out, err := i.thumbs.Get(data, size)
	if err != nil {
		i.logger.Debug("thumbnail failed, serving original", zap.Error(err))
		i.registry.ServeHTTP(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(out))
}

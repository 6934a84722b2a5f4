// Package handles mints revocable URLs for in-memory blobs (cover art,
// audio payloads) and serves them over HTTP until they are released.
package handles

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handle is a URL path owned by a Registry, e.g. "/art/<uuid>".
type Handle string

type entry struct {
	data     []byte
	mimeType string
	scope    *Scope
	created  time.Time
}

// Registry tracks every outstanding handle. It is safe for concurrent use.
type Registry struct {
	prefix string

	mu      sync.RWMutex
	entries map[Handle]*entry
	current *Scope
}

// NewRegistry returns a registry minting handles under prefix ("/art/").
func NewRegistry(prefix string) *Registry {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Registry{
		prefix:  prefix,
		entries: make(map[Handle]*entry),
	}
}

// Prefix returns the URL prefix of minted handles.
func (r *Registry) Prefix() string { return r.prefix }

// Acquire mints an unscoped handle for data. It stays valid until
// Revoke or ReleaseAll.
func (r *Registry) Acquire(data []byte, mimeType string) Handle {
	return r.acquire(nil, data, mimeType)
}

func (r *Registry) acquire(s *Scope, data []byte, mimeType string) Handle {
	h := Handle(r.prefix + uuid.NewString())

	r.mu.Lock()
	if s == nil || s == r.current {
		r.entries[h] = &entry{data: data, mimeType: mimeType, scope: s, created: time.Now()}
	}
	r.mu.Unlock()

	return h
}

// Revoke invalidates one handle. It reports whether the handle was live.
func (r *Registry) Revoke(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[h]; !ok {
		return false
	}
	delete(r.entries, h)
	return true
}

// ReleaseAll revokes every outstanding handle, scoped or not, and returns
// how many there were. Commands call it on shutdown.
func (r *Registry) ReleaseAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.entries)
	r.entries = make(map[Handle]*entry)
	r.current = nil
	return n
}

// Outstanding returns the number of live handles.
func (r *Registry) Outstanding() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Lookup returns the bytes behind a live handle.
func (r *Registry) Lookup(h Handle) (data []byte, mimeType string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[h]
	if !ok {
		return nil, "", false
	}
	return e.data, e.mimeType, true
}

// ServeHTTP serves live handles. Revoked or unknown handles are 404.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	e, ok := r.entries[Handle(req.URL.Path)]
	r.mu.RUnlock()
	if !ok {
		http.NotFound(w, req)
		return
	}

	if e.mimeType != "" {
		w.Header().Set("Content-Type", e.mimeType)
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	// ServeContent handles Range requests, which audio elements rely on.
	http.ServeContent(w, req, "", e.created, bytes.NewReader(e.data))
}

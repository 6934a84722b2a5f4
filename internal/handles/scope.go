package handles

// Scope groups the handles acquired while rendering one view. Starting the
// next view through BeginView releases them, so a render can never leave
// the previous view's handles behind.
type Scope struct {
	registry *Registry
}

// BeginView releases every handle owned by an earlier view scope and
// returns the scope for the view about to be rendered. Renders may
// overlap, so this covers every superseded scope, not just the last one.
func (r *Registry) BeginView() *Scope {
	r.mu.Lock()
	defer r.mu.Unlock()

	for h, e := range r.entries {
		if e.scope != nil {
			delete(r.entries, h)
		}
	}
	s := &Scope{registry: r}
	r.current = s
	return s
}

// Acquire mints a handle owned by the scope. Once the scope has been
// superseded the handle is never registered and resolves to nothing.
func (s *Scope) Acquire(data []byte, mimeType string) Handle {
	return s.registry.acquire(s, data, mimeType)
}

// Image returns a handle for picture bytes, or a placeholder derived from
// seed when there are none. Placeholders are not tracked.
func (s *Scope) Image(data []byte, mimeType, seed string) string {
	if len(data) == 0 {
		return Placeholder(seed)
	}
	return string(s.Acquire(data, mimeType))
}

// Current reports whether s is the registry's active view scope.
func (s *Scope) Current() bool {
	s.registry.mu.RLock()
	defer s.registry.mu.RUnlock()
	return s.registry.current == s
}

// Outstanding returns the number of live handles owned by the scope.
func (s *Scope) Outstanding() int {
	s.registry.mu.RLock()
	defer s.registry.mu.RUnlock()
	n := 0
	for _, e := range s.registry.entries {
		if e.scope == s {
			n++
		}
	}
	return n
}

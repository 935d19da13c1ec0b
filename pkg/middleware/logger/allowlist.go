package logger

import (
	"net/http"
	"strings"
	"sync"
)

type bodyAllowlist struct {
	mu    sync.RWMutex
	paths map[string]struct{}
}

func newBodyAllowlist(paths []string) *bodyAllowlist {
	a := &bodyAllowlist{paths: map[string]struct{}{}}
	a.add(paths...)
	return a
}

func (a *bodyAllowlist) add(paths ...string) {
	a.mu.Lock()
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p != "" {
			a.paths[p] = struct{}{}
		}
	}
	a.mu.Unlock()
}

// AddBodyLogPaths lets callers extend the allowlist at runtime (optional).
func (m *Middleware) AddBodyLogPaths(paths ...string) { m.bodies.add(paths...) }

// Only log small JSON request bodies on allowlisted routes.
func (m *Middleware) shouldLogBody(r *http.Request, body []byte) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return false
	}
	if len(body) == 0 || len(body) > 1<<16 { // 64 KiB cap
		return false
	}
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "application/json") {
		return false
	}
	m.bodies.mu.RLock()
	_, ok := m.bodies.paths[r.URL.Path]
	m.bodies.mu.RUnlock()
	return ok
}

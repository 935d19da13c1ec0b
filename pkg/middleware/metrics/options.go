package metrics

import (
	"net/http"
	"strings"
	"sync"

	"github.com/joeydtaylor/steeze-jrtc/pkg/transport/httpx"
)

// skipped holds request paths that are never counted: the scrape endpoint
// and the heartbeat by default.
var skipped = struct {
	sync.RWMutex
	paths map[string]bool
}{paths: map[string]bool{"/metrics": true, "/ping": true}}

// AddMetricsSkipPaths excludes more request paths from the HTTP collectors,
// e.g. a metrics endpoint mounted somewhere other than /metrics.
func AddMetricsSkipPaths(paths ...string) {
	skipped.Lock()
	defer skipped.Unlock()
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			skipped.paths[p] = true
		}
	}
}

func isSkipPath(r *http.Request) bool {
	skipped.RLock()
	defer skipped.RUnlock()
	return skipped.paths[r.URL.Path]
}

// uriLabel is the matched route template, so /app/7 and /app/8 share the
// series /app/{id}.
func uriLabel(r *http.Request) string { return httpx.RoutePattern(r) }

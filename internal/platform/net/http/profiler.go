package http

import (
	stdhttp "net/http"

	mw "github.com/go-chi/chi/v5/middleware"
)

// MountProfiler serves pprof below prefix, e.g. /debug/pprof/heap.
// It is a no-op unless enabled
func MountProfiler(r Router, prefix string, enabled bool) {
	if !enabled {
		return
	}
	pprof := stdhttp.StripPrefix(prefix, mw.Profiler())
	r.Group(func(g Router) {
		g.Use(mw.NoCache)
		g.Method(stdhttp.MethodGet, prefix, pprof.ServeHTTP)
		g.Method(stdhttp.MethodGet, prefix+"/*", pprof.ServeHTTP)
	})
}

//go:build dev

package api

import (
	"net/http/pprof"

	"github.com/go-chi/chi/v5"
)

var namedProfiles = []string{"heap", "goroutine", "allocs", "block", "mutex", "threadcreate"}

// registerPprof mounts the runtime profiler under /api/v1/debug/pprof in dev builds.
func registerPprof(r chi.Router) {
	r.Route("/debug/pprof", func(r chi.Router) {
		r.HandleFunc("/", pprof.Index)
		r.HandleFunc("/cmdline", pprof.Cmdline)
		r.HandleFunc("/profile", pprof.Profile)
		r.HandleFunc("/symbol", pprof.Symbol)
		r.HandleFunc("/trace", pprof.Trace)
		for _, name := range namedProfiles {
			r.Handle("/"+name, pprof.Handler(name))
		}
	})
}

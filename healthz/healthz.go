// Package healthz serves liveness and readiness probes for the demo
// client's debug listener.
package healthz

import (
	"net/http"
	"sync/atomic"
)

type Handler struct {
	ready atomic.Bool
}

func New() *Handler {
	return &Handler{}
}

// SetReady flips the readiness bit, typically once the backend clients
// are constructed.
func (h *Handler) SetReady(ok bool) {
	h.ready.Store(ok)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("200 OK"))
}

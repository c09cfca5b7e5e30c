package api

import (
	"fmt"
	"net/http"
)

// handleEvents streams repository change notifications as server-sent
// events, one `data: <repo name>` line per change. Closes when the client
// disconnects or the watcher shuts down.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.watcher == nil {
		http.Error(w, "change events are not enabled", http.StatusNotImplemented)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case repo, ok := <-s.watcher.Events():
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", repo)
			flusher.Flush()
		}
	}
}

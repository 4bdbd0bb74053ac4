package handler

import (
	"fmt"
	"net/http"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/sse"
)

// ServeEvents streams a session's autosave and publish events.
func (h *EditorHandler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "Session parameter required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, config.CTypeSSE)
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Del("X-Content-Type-Options")

	fmt.Fprintf(w, "event: connected\ndata: SSE connection established\n\n")
	flusher.Flush()

	client := sse.NewClient(sessionID)
	h.clients.Add(client)
	handlerLogger.Debug().Str("session_id", sessionID).Msg("SSE client connected")

	defer func() {
		h.clients.Delete(client)
		handlerLogger.Debug().Str("session_id", sessionID).Msg("SSE client disconnected")
	}()

	notify := r.Context().Done()
	for {
		select {
		case msg, open := <-client.Msg:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: autosave\ndata: %s\n\n", msg)
			flusher.Flush()
		case <-notify:
			return
		}
	}
}

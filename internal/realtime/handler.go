// AngelaMos | 2026
// handler.go

package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marketflow/agency-api/internal/core"
)

const keepAliveInterval = 25 * time.Second

type Handler struct {
	hub       *Hub
	keepAlive time.Duration
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub, keepAlive: keepAliveInterval}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, access func(http.Handler) http.Handler,
) {
	r.With(authenticator, access).Get("/changes", h.Stream)
}

// Stream sends changes as server-sent events until the client goes away.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	table := r.URL.Query().Get("table")
	if table != "" && !KnownTable(table) {
		core.BadRequest(w, "table must be briefs or tasks")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		core.InternalServerError(w, errors.New("streaming unsupported"))
		return
	}

	changes, unsubscribe := h.hub.Subscribe(table)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case c, open := <-changes:
			if !open {
				return
			}
			data, err := json.Marshal(c)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", data)
			flusher.Flush()

		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

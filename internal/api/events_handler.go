package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// keepAliveInterval is how often an idle event stream sends a comment line.
const keepAliveInterval = 25 * time.Second

// changeEvent is the payload of a `change` event.
type changeEvent struct {
	Table string    `json:"table"`
	Year  int       `json:"year"`
	At    time.Time `json:"at"`
}

// Events handles GET /api/v1/events as a Server-Sent Events stream. Each
// committed write is sent as a `change` event naming the table and year.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// The server write timeout would cut a long-lived stream.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		slog.Debug("event stream write deadline not cleared", "error", err)
	}

	changes, cancel := h.changes.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		slog.Warn("event stream unsupported", "error", err)
		return
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case c, ok := <-changes:
			if !ok {
				return
			}
			data, err := json.Marshal(changeEvent{Table: c.Table, Year: c.Year, At: c.At.UTC()})
			if err != nil {
				slog.Error("failed to encode change event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: change\ndata: %s\n\n", data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}

		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bibektako/borrow-lend-backend/internal/logging"
)

// streamEvents serves the realtime channel as a server-sent event stream.
// Connecting registers the user in the presence registry; the registration is
// removed when the client goes away.
func (h *handlers) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported")
		return
	}

	userID := UserID(r.Context())
	conn := h.hub.Connect(userID)
	defer h.hub.Disconnect(conn.ID())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: connected\ndata: {\"conn_id\":%q}\n\n", conn.ID())
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-conn.Events():
			if !open {
				return
			}
			payload, err := json.Marshal(ev.Payload)
			if err != nil {
				h.log.Warn("skipping unencodable event", logging.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, payload)
			flusher.Flush()
		}
	}
}

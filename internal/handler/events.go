package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pairplay/sync-server-go/internal/events"
)

const heartbeatInterval = 30 * time.Second

// EventsHandler streams session change events to the device UI over SSE.
// This replaces the storage layer calling back into presentation code: the
// UI subscribes here and re-reads sessions when an event arrives.
type EventsHandler struct {
	broker  *events.Broker
	pairKey string
}

func NewEventsHandler(broker *events.Broker, pairKey string) *EventsHandler {
	return &EventsHandler{
		broker:  broker,
		pairKey: pairKey,
	}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := h.broker.Subscribe(h.pairKey)
	defer h.broker.Unsubscribe(client)

	log.Info().Str("pairKey", h.pairKey).Msg("event stream established")

	h.sendEvent(w, flusher, "connected", map[string]any{
		"pairKey":   h.pairKey,
		"timestamp": time.Now().UnixMilli(),
	})

	ctx := r.Context()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-client.Done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case event := <-client.Events:
			h.sendEvent(w, flusher, event.Type, event)
		}
	}
}

func (h *EventsHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event")
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
	flusher.Flush()
}

package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"bustracker/internal/broadcast"
	"bustracker/internal/core/model"
	"bustracker/internal/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // cross-origin handled upstream, dashboards connect from anywhere
	},
}

// streamMessage is the frame written to websocket clients for every update.
type streamMessage struct {
	Type      string            `json:"type"`
	Data      *model.LiveRecord `json:"data,omitempty"`
	Message   string            `json:"message,omitempty"`
	Timestamp string            `json:"timestamp,omitempty"`
}

// StreamHandler relays broadcast live records to websocket clients. One
// subscription per connection; the connection's fate never affects other
// subscribers.
type StreamHandler struct {
	broadcaster *broadcast.Broadcaster
}

func NewStreamHandler(broadcaster *broadcast.Broadcaster) *StreamHandler {
	return &StreamHandler{
		broadcaster: broadcaster,
	}
}

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	sub := h.broadcaster.Subscribe()
	if sub == nil {
		conn.Close()
		return
	}
	observability.Subscribers.Inc()
	log.Printf("websocket client connected (%d subscribers)", h.broadcaster.Count())

	defer func() {
		h.broadcaster.Unsubscribe(sub)
		observability.Subscribers.Dec()
		conn.Close()
	}()

	if err := conn.WriteJSON(streamMessage{
		Type:    "connected",
		Message: "Connected to live GPS feed",
	}); err != nil {
		return
	}

	// Drain and discard client frames so pings and close frames are
	// processed; the feed is one-way.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	for record := range sub.C {
		msg := streamMessage{
			Type:      "gps_update",
			Data:      record,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("websocket client write failed, disconnecting: %v", err)
			return
		}
	}
}

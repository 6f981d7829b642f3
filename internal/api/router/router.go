package router

import (
	"encoding/json"
	"net/http"

	"bustracker/internal/api/handler"
	"bustracker/internal/api/middleware"
	"bustracker/internal/broadcast"
	"bustracker/internal/core/service"
)

func NewRouter(
	trackingService service.TrackingService,
	broadcaster *broadcast.Broadcaster,
) http.Handler {
	// Initialize handlers
	liveHandler := handler.NewLiveHandler(trackingService)
	streamHandler := handler.NewStreamHandler(broadcaster)

	// Create router
	mux := http.NewServeMux()

	// Add middleware chain
	withMiddleware := func(handler http.Handler) http.Handler {
		return middleware.CORSMiddleware(
			middleware.LoggingMiddleware(handler),
		)
	}

	// Health check endpoint
	mux.Handle("/health", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	})))

	// GPS ingest route
	mux.Handle("/api/gps/update", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			liveHandler.UpdatePosition(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Live read routes
	mux.Handle("/api/gps/live", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		liveHandler.GetLive(w, r)
	})))

	mux.Handle("/api/gps/live/all", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		liveHandler.GetAllLive(w, r)
	})))

	mux.Handle("/api/gps/history", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		liveHandler.GetHistory(w, r)
	})))

	// Geo helpers
	mux.Handle("/api/gps/distance", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		liveHandler.GetDistance(w, r)
	})))

	mux.Handle("/api/gps/eta", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		liveHandler.GetETA(w, r)
	})))

	// Operator recovery for a jumped filter
	mux.Handle("/api/gps/filter/reset", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			liveHandler.ResetFilter(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Websocket live feed; upgrade handshake bypasses the CORS middleware
	mux.Handle("/ws/live", middleware.LoggingMiddleware(http.HandlerFunc(streamHandler.Stream)))

	return mux
}

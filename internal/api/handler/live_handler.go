package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"bustracker/internal/core/model"
	"bustracker/internal/core/service"
	"bustracker/internal/gps"
)

type LiveHandler struct {
	trackingService service.TrackingService
}

func NewLiveHandler(trackingService service.TrackingService) *LiveHandler {
	return &LiveHandler{
		trackingService: trackingService,
	}
}

// UpdatePosition ingests one raw fix from a device.
func (h *LiveHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	var fix model.RawFix
	if err := json.NewDecoder(r.Body).Decode(&fix); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if fix.BusID == "" {
		http.Error(w, "Bus ID required", http.StatusBadRequest)
		return
	}
	if fix.Timestamp == 0 {
		fix.Timestamp = time.Now().UnixMilli()
	}

	record, err := h.trackingService.Ingest(&fix)
	if err != nil {
		if errors.Is(err, service.ErrBusNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

// GetLive returns the current record for one bus.
func (h *LiveHandler) GetLive(w http.ResponseWriter, r *http.Request) {
	busID := r.URL.Query().Get("busId")
	if busID == "" {
		http.Error(w, "Bus ID required", http.StatusBadRequest)
		return
	}

	record, err := h.trackingService.GetLive(busID)
	if err != nil {
		if errors.Is(err, service.ErrNoLiveRecord) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

// GetAllLive returns the current record of every bus that has reported.
func (h *LiveHandler) GetAllLive(w http.ResponseWriter, r *http.Request) {
	records, err := h.trackingService.GetAllLive()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// GetHistory returns a bus's archived positions for one calendar day,
// ascending by timestamp.
func (h *LiveHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	busID := r.URL.Query().Get("busId")
	if busID == "" {
		http.Error(w, "Bus ID required", http.StatusBadRequest)
		return
	}

	date := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	entries, err := h.trackingService.GetHistoryForDay(busID, date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

type resetFilterRequest struct {
	BusID string  `json:"busId"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// ResetFilter re-seeds a bus's smoothing filter. Operator recovery after an
// implausible position jump.
func (h *LiveHandler) ResetFilter(w http.ResponseWriter, r *http.Request) {
	var req resetFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.BusID == "" {
		http.Error(w, "Bus ID required", http.StatusBadRequest)
		return
	}

	if err := h.trackingService.ResetFilter(req.BusID, req.Lat, req.Lng); err != nil {
		if errors.Is(err, service.ErrBusNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// GetDistance computes the great-circle distance in kilometers between two
// points passed as query parameters.
func (h *LiveHandler) GetDistance(w http.ResponseWriter, r *http.Request) {
	coords, err := parseFloats(r, "lat1", "lng1", "lat2", "lng2")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	km := gps.DistanceKm(coords[0], coords[1], coords[2], coords[3])
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]float64{"distanceKm": km})
}

// GetETA estimates minutes to destination at the given speed. Returns -1
// when the speed is zero.
func (h *LiveHandler) GetETA(w http.ResponseWriter, r *http.Request) {
	coords, err := parseFloats(r, "lat1", "lng1", "lat2", "lng2", "speed")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	eta := gps.ETAMinutes(coords[0], coords[1], coords[2], coords[3], coords[4])
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"etaMinutes": eta})
}

func parseFloats(r *http.Request, keys ...string) ([]float64, error) {
	values := make([]float64, len(keys))
	for i, key := range keys {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			return nil, errors.New(key + " required")
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.New("invalid " + key)
		}
		values[i] = v
	}
	return values, nil
}

package model

import "time"

// LiveStatus is the coarse operational state of a bus.
type LiveStatus string

const (
	StatusIdle    LiveStatus = "idle"     // initial value before any fix is processed
	StatusEnRoute LiveStatus = "en_route" // moving
	StatusStopped LiveStatus = "stopped"  // speed below the movement threshold
	StatusDelayed LiveStatus = "delayed"  // set by downstream trip logic, never by this service
	StatusArrived LiveStatus = "arrived"  // set by downstream geofence logic, never by this service
)

// LiveRecord is the authoritative current state of one bus. It is replaced
// wholesale on every accepted fix, never merged field by field.
type LiveRecord struct {
	BusID           string     `json:"busId" bson:"busid"`
	Position        Position   `json:"position" bson:"position"` // filtered, not raw
	Status          LiveStatus `json:"status" bson:"status"`
	DriverID        string     `json:"driverId,omitempty" bson:"driverid,omitempty"`
	RouteID         string     `json:"routeId,omitempty" bson:"routeid,omitempty"`
	PassengersCount int        `json:"passengersCount" bson:"passengerscount"`
	LastUpdate      time.Time  `json:"lastUpdate" bson:"lastupdate"`
}

// HistoryEntry is one immutable archival record of a bus's raw position.
// Entries are partitioned by (bus, calendar day) and only ever appended.
type HistoryEntry struct {
	BusID     string    `json:"busId" bson:"busid"`
	Position  Position  `json:"position" bson:"position"` // raw fix, deliberately unfiltered
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

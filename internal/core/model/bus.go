package model

import "time"

// Bus is the directory record for one vehicle. The tracking core only reads
// it for existence checks and driver/route enrichment; fleet CRUD lives elsewhere.
type Bus struct {
	ID          string    `json:"id" bson:"id"`
	PlateNumber string    `json:"plateNumber" bson:"platenumber"`
	Capacity    int       `json:"capacity" bson:"capacity"`
	Model       string    `json:"model,omitempty" bson:"model,omitempty"`
	Year        int       `json:"year,omitempty" bson:"year,omitempty"`
	Status      string    `json:"status" bson:"status"`
	DriverID    string    `json:"driverId,omitempty" bson:"driverid,omitempty"`
	RouteID     string    `json:"routeId,omitempty" bson:"routeid,omitempty"`
	SchoolID    string    `json:"schoolId,omitempty" bson:"schoolid,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdat"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedat"`
}

func NewBus(id, plateNumber string, capacity int) *Bus {
	now := time.Now()
	return &Bus{
		ID:          id,
		PlateNumber: plateNumber,
		Capacity:    capacity,
		Status:      "active",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewTestBus creates a bus with a driver and route assigned, for tests.
func NewTestBus(id string) *Bus {
	bus := NewBus(id, "TEST-"+id, 30)
	bus.DriverID = "driver-" + id
	bus.RouteID = "route-" + id
	return bus
}

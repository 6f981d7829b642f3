package gps

import "bustracker/internal/core/model"

// movementThreshold is the speed below which a bus counts as stopped,
// in the same unit the devices report (km/h).
const movementThreshold = 1

// ClassifySpeed maps a device-reported speed to a live status. Stateless and
// memory-less: a bus hovering around the threshold will flap between the two
// values on consecutive fixes. Delayed and arrived are never produced here;
// they need trip or geofence context this service does not have.
func ClassifySpeed(speed float64) model.LiveStatus {
	if speed < movementThreshold {
		return model.StatusStopped
	}
	return model.StatusEnRoute
}

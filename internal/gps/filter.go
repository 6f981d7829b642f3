package gps

import "math"

const (
	defaultProcessNoise     = 0.01 // trust in the constant-velocity model
	defaultMeasurementNoise = 20   // GPS accurate to ~20m
	minDt                   = 0.1  // floor so velocity derivation never divides by ~0
)

// Filter smooths noisy GPS fixes for one bus. Latitude and longitude are
// treated as two independent 1-D linear estimators with no cross-axis
// covariance, which is a deliberate simplification at city scale.
//
// Each update runs predict (extrapolate by velocity, grow variance) then
// correct (blend prediction and measurement by the per-axis gain). The gain
// is variance/(variance+measurementNoise), so it stays in [0,1]: near 0 the
// fix is ignored, near 1 it is followed.
type Filter struct {
	lat, lng float64 // estimated position
	vLat     float64 // velocity, degrees per second
	vLng     float64
	pLat     float64 // positional variance per axis
	pLng     float64
	q        float64 // process noise
	r        float64 // measurement noise
}

// FilterState is a diagnostic snapshot of a filter.
type FilterState struct {
	Lat, Lng    float64
	VLat, VLng  float64
	Uncertainty float64
}

// NewFilter creates a filter seeded at the given position with default noise.
func NewFilter(initialLat, initialLng float64) *Filter {
	return NewFilterWithNoise(initialLat, initialLng, defaultProcessNoise, defaultMeasurementNoise)
}

// NewFilterWithNoise creates a filter with explicit noise tuning.
// processNoise: smaller trusts the motion model more. measurementNoise:
// larger trusts raw fixes less.
func NewFilterWithNoise(initialLat, initialLng, processNoise, measurementNoise float64) *Filter {
	return &Filter{
		lat:  initialLat,
		lng:  initialLng,
		pLat: measurementNoise,
		pLng: measurementNoise,
		q:    processNoise,
		r:    measurementNoise,
	}
}

// Update feeds one measured position into the filter and returns the
// smoothed position. dt is the elapsed time in seconds since the previous
// measurement; values at or below zero are floored internally.
func (f *Filter) Update(measuredLat, measuredLng, dt float64) (lat, lng float64) {
	// A negative dt (clock skew between fixes) must not shrink the variance:
	// a large enough one would drive it to -r and the gain to infinity.
	if dt < 0 {
		dt = 0
	}

	// Predict: extrapolate by current velocity, grow uncertainty with the gap.
	predLat := f.lat + f.vLat*dt
	predLng := f.lng + f.vLng*dt
	f.pLat += f.q * dt
	f.pLng += f.q * dt

	// Correct: blend prediction and measurement by the per-axis gain.
	kLat := f.pLat / (f.pLat + f.r)
	kLng := f.pLng / (f.pLng + f.r)
	f.lat = predLat + kLat*(measuredLat-predLat)
	f.lng = predLng + kLng*(measuredLng-predLng)

	// Re-derive velocity from the correction the measurement caused.
	f.vLat = (f.lat - predLat) / math.Max(dt, minDt)
	f.vLng = (f.lng - predLng) / math.Max(dt, minDt)

	// Consistent measurements shrink the variance over time.
	f.pLat *= 1 - kLat
	f.pLng *= 1 - kLng

	return f.lat, f.lng
}

// Reset hard-sets the position and zeroes velocity without touching the
// accumulated variance. Operator recovery after an implausible jump; the
// filter never triggers this itself.
func (f *Filter) Reset(lat, lng float64) {
	f.lat = lat
	f.lng = lng
	f.vLat = 0
	f.vLng = 0
}

// State returns the current estimate for diagnostics.
func (f *Filter) State() FilterState {
	return FilterState{
		Lat:         f.lat,
		Lng:         f.lng,
		VLat:        f.vLat,
		VLng:        f.vLng,
		Uncertainty: math.Sqrt(f.pLat*f.pLat + f.pLng*f.pLng),
	}
}

package gps

import (
	"math"
	"math/rand"
	"testing"
)

func TestFilterFirstUpdateFollowsMeasurement(t *testing.T) {
	f := NewFilter(5.36, -4.01)

	lat, lng := f.Update(5.37, -4.02, 5)

	// Initial variance equals R, so the first gain is close to 1/2 and the
	// estimate must land strictly between the seed and the measurement.
	if lat <= 5.36 || lat >= 5.37 {
		t.Errorf("filtered lat = %v, want between 5.36 and 5.37", lat)
	}
	if lng >= -4.01 || lng <= -4.02 {
		t.Errorf("filtered lng = %v, want between -4.02 and -4.01", lng)
	}
}

func TestFilterUncertaintyShrinksUnderConsistentFixes(t *testing.T) {
	f := NewFilter(5.36, -4.01)
	rng := rand.New(rand.NewSource(42))

	prev := math.Inf(1)
	for i := 0; i < 50; i++ {
		jitterLat := 5.36 + rng.Float64()*0.0001
		jitterLng := -4.01 + rng.Float64()*0.0001
		f.Update(jitterLat, jitterLng, 5)

		u := f.State().Uncertainty
		if u > prev+1e-12 {
			t.Fatalf("uncertainty grew on update %d: %v > %v", i, u, prev)
		}
		prev = u
	}
}

func TestFilterConvergesToSteadyMeasurement(t *testing.T) {
	f := NewFilter(5.36, -4.01)

	var lat, lng float64
	for i := 0; i < 100; i++ {
		lat, lng = f.Update(5.40, -4.05, 5)
	}

	if math.Abs(lat-5.40) > 0.001 {
		t.Errorf("lat = %v after 100 steady fixes, want ~5.40", lat)
	}
	if math.Abs(lng+4.05) > 0.001 {
		t.Errorf("lng = %v after 100 steady fixes, want ~-4.05", lng)
	}
}

func TestFilterDegenerateDt(t *testing.T) {
	tests := []struct {
		name string
		dt   float64
	}{
		{"zero dt", 0},
		{"negative dt", -5},
		// -(p+r)/q would zero the predicted variance denominator if the
		// predict step applied negative dt.
		{"negative dt at the gain singularity", -4000},
		{"hugely negative dt", -1e9},
		{"tiny dt", 1e-9},
		{"huge dt", 86400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter(5.36, -4.01)
			f.Update(5.361, -4.011, 5)
			lat, lng := f.Update(5.362, -4.012, tt.dt)

			state := f.State()
			for _, v := range []float64{lat, lng, state.VLat, state.VLng, state.Uncertainty} {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("non-finite filter output %v for dt=%v", v, tt.dt)
				}
			}
		})
	}
}

func TestFilterReset(t *testing.T) {
	f := NewFilter(5.36, -4.01)
	for i := 0; i < 10; i++ {
		f.Update(5.37, -4.02, 5)
	}
	before := f.State()

	f.Reset(5.50, -4.10)

	state := f.State()
	if state.Lat != 5.50 || state.Lng != -4.10 {
		t.Errorf("position after reset = (%v, %v), want (5.50, -4.10)", state.Lat, state.Lng)
	}
	if state.VLat != 0 || state.VLng != 0 {
		t.Errorf("velocity after reset = (%v, %v), want zero", state.VLat, state.VLng)
	}
	if state.Uncertainty != before.Uncertainty {
		t.Errorf("reset changed uncertainty: %v -> %v", before.Uncertainty, state.Uncertainty)
	}
}

func TestFilterZeroMeasurementNoiseTrustsFix(t *testing.T) {
	f := NewFilterWithNoise(5.36, -4.01, 0.01, 0)

	lat, lng := f.Update(5.40, -4.05, 5)

	// R=0 makes the gain exactly 1, so the fix is followed verbatim.
	if lat != 5.40 || lng != -4.05 {
		t.Errorf("filtered = (%v, %v), want the raw fix (5.40, -4.05)", lat, lng)
	}
}

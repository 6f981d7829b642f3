package gps

import "sync"

// Registry owns one filter per bus for the life of the process. Updates for
// the same bus are serialized on a per-bus lock; updates for different buses
// run in parallel and only contend on the map lookup itself.
type Registry struct {
	mu      sync.RWMutex
	filters map[string]*busFilter
}

type busFilter struct {
	mu     sync.Mutex
	filter *Filter
}

func NewRegistry() *Registry {
	return &Registry{
		filters: make(map[string]*busFilter),
	}
}

// Update runs one fix through the bus's filter, creating it lazily on first
// use, and returns the smoothed position.
func (r *Registry) Update(busID string, lat, lng, dt float64) (float64, float64) {
	bf := r.get(busID, lat, lng)

	bf.mu.Lock()
	defer bf.mu.Unlock()
	return bf.filter.Update(lat, lng, dt)
}

// Reset re-seeds the bus's filter at the given position. Creates the filter
// if the bus has never reported.
func (r *Registry) Reset(busID string, lat, lng float64) {
	bf := r.get(busID, lat, lng)

	bf.mu.Lock()
	defer bf.mu.Unlock()
	bf.filter.Reset(lat, lng)
}

// State returns a snapshot of the bus's filter, or false if the bus has
// never reported.
func (r *Registry) State(busID string) (FilterState, bool) {
	r.mu.RLock()
	bf, ok := r.filters[busID]
	r.mu.RUnlock()
	if !ok {
		return FilterState{}, false
	}

	bf.mu.Lock()
	defer bf.mu.Unlock()
	return bf.filter.State(), true
}

func (r *Registry) get(busID string, lat, lng float64) *busFilter {
	r.mu.RLock()
	bf, ok := r.filters[busID]
	r.mu.RUnlock()
	if ok {
		return bf
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if bf, ok = r.filters[busID]; ok {
		return bf
	}
	bf = &busFilter{filter: NewFilter(lat, lng)}
	r.filters[busID] = bf
	return bf
}

package repository

import (
	"errors"
	"sync"
)

type inMemoryAttendanceRepository struct {
	// present counts keyed by busID, then day
	counts map[string]map[string]int
	mutex  sync.RWMutex

	// when set, CountPresent fails with this error; used to exercise the
	// pipeline's enrichment fallback
	failWith error
}

func NewInMemoryAttendanceRepository() *inMemoryAttendanceRepository {
	return &inMemoryAttendanceRepository{
		counts: make(map[string]map[string]int),
	}
}

func (r *inMemoryAttendanceRepository) CountPresent(busID, day string) (int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if r.failWith != nil {
		return 0, r.failWith
	}
	return r.counts[busID][day], nil
}

// MarkPresent records count students present for the bus and day.
func (r *inMemoryAttendanceRepository) MarkPresent(busID, day string, count int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	days, exists := r.counts[busID]
	if !exists {
		days = make(map[string]int)
		r.counts[busID] = days
	}
	days[day] = count
}

// Fail makes every subsequent CountPresent return an error.
func (r *inMemoryAttendanceRepository) Fail(message string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.failWith = errors.New(message)
}

// Recover clears a previous Fail.
func (r *inMemoryAttendanceRepository) Recover() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.failWith = nil
}

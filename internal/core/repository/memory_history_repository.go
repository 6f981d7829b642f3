package repository

import (
	"sort"
	"sync"

	"bustracker/internal/core/model"
)

type inMemoryHistoryRepository struct {
	// keyed by busID, then day
	entries map[string]map[string][]*model.HistoryEntry
	mutex   sync.RWMutex
}

func NewInMemoryHistoryRepository() HistoryRepository {
	return &inMemoryHistoryRepository{
		entries: make(map[string]map[string][]*model.HistoryEntry),
	}
}

func (r *inMemoryHistoryRepository) Append(busID, day string, entry *model.HistoryEntry) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	days, exists := r.entries[busID]
	if !exists {
		days = make(map[string][]*model.HistoryEntry)
		r.entries[busID] = days
	}
	days[day] = append(days[day], entry)
	return nil
}

func (r *inMemoryHistoryRepository) FindByDay(busID, day string) ([]*model.HistoryEntry, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entries := r.entries[busID][day]
	result := make([]*model.HistoryEntry, len(entries))
	copy(result, entries)

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

package repository

import (
	"sync"

	"bustracker/internal/core/model"
)

type inMemoryLiveRepository struct {
	records map[string]*model.LiveRecord
	mutex   sync.RWMutex
}

func NewInMemoryLiveRepository() LiveRepository {
	return &inMemoryLiveRepository{
		records: make(map[string]*model.LiveRecord),
	}
}

func (r *inMemoryLiveRepository) Put(record *model.LiveRecord) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.records[record.BusID] = record
	return nil
}

func (r *inMemoryLiveRepository) Find(busID string) (*model.LiveRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if record, exists := r.records[busID]; exists {
		return record, nil
	}
	return nil, nil
}

func (r *inMemoryLiveRepository) FindAll() ([]*model.LiveRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*model.LiveRecord, 0, len(r.records))
	for _, record := range r.records {
		result = append(result, record)
	}
	return result, nil
}

package repository

import (
	"sync"

	"bustracker/internal/core/model"
)

type inMemoryBusRepository struct {
	buses map[string]*model.Bus
	mutex sync.RWMutex
}

func NewInMemoryBusRepository() BusRepository {
	return &inMemoryBusRepository{
		buses: make(map[string]*model.Bus),
	}
}

func (r *inMemoryBusRepository) Create(bus *model.Bus) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.buses[bus.ID] = bus
	return nil
}

func (r *inMemoryBusRepository) Update(bus *model.Bus) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.buses[bus.ID] = bus
	return nil
}

func (r *inMemoryBusRepository) FindByID(id string) (*model.Bus, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if bus, exists := r.buses[id]; exists {
		return bus, nil
	}
	return nil, nil
}

func (r *inMemoryBusRepository) FindAll() ([]*model.Bus, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*model.Bus, 0, len(r.buses))
	for _, bus := range r.buses {
		result = append(result, bus)
	}
	return result, nil
}

func (r *inMemoryBusRepository) Exists(id string) (bool, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, exists := r.buses[id]
	return exists, nil
}

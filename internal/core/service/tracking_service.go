package service

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"bustracker/internal/cache"
	"bustracker/internal/core/model"
	"bustracker/internal/core/repository"
	"bustracker/internal/gps"
	"bustracker/internal/observability"
)

var (
	// ErrBusNotFound is returned when a fix or read names a bus the
	// directory does not know.
	ErrBusNotFound = errors.New("bus not found")
	// ErrNoLiveRecord is returned by GetLive for a known endpoint that has
	// never reported a position.
	ErrNoLiveRecord = errors.New("no live record")
)

// defaultDtSeconds is assumed for a bus's first fix, when there is no
// previous timestamp to diff against. Devices report roughly every 5s.
const defaultDtSeconds = 5

// Publisher receives every successfully ingested live record.
// *broadcast.Broadcaster satisfies it.
type Publisher interface {
	Publish(record *model.LiveRecord)
}

type TrackingService interface {
	Ingest(fix *model.RawFix) (*model.LiveRecord, error)
	GetLive(busID string) (*model.LiveRecord, error)
	GetAllLive() ([]*model.LiveRecord, error)
	GetHistoryForDay(busID string, date time.Time) ([]*model.HistoryEntry, error)
	ResetFilter(busID string, lat, lng float64) error
}

type trackingService struct {
	busRepo        repository.BusRepository
	liveRepo       repository.LiveRepository
	historyRepo    repository.HistoryRepository
	attendanceRepo repository.AttendanceRepository
	filters        *gps.Registry
	publisher      Publisher

	// busLocks serializes the read-modify-write on one bus's live state.
	// Ingests for different buses only contend on the map itself.
	busLocks sync.Map // busID -> *sync.Mutex
}

func NewTrackingService(
	busRepo repository.BusRepository,
	liveRepo repository.LiveRepository,
	historyRepo repository.HistoryRepository,
	attendanceRepo repository.AttendanceRepository,
	filters *gps.Registry,
	publisher Publisher,
) TrackingService {
	return &trackingService{
		busRepo:        busRepo,
		liveRepo:       liveRepo,
		historyRepo:    historyRepo,
		attendanceRepo: attendanceRepo,
		filters:        filters,
		publisher:      publisher,
	}
}

// Ingest turns one raw fix into the bus's new live record, an immutable
// history entry and one broadcast. The live record stores the filtered
// position while history keeps the raw fix; the two fidelities are
// deliberately different.
func (s *trackingService) Ingest(fix *model.RawFix) (*model.LiveRecord, error) {
	bus, err := s.busRepo.FindByID(fix.BusID)
	if err != nil {
		observability.IngestErrors.Inc()
		return nil, err
	}
	if bus == nil {
		observability.IngestErrors.Inc()
		return nil, fmt.Errorf("%w: %s", ErrBusNotFound, fix.BusID)
	}

	// From the previous-record read through persistence and broadcast, this
	// bus's live state is a read-modify-write: two interleaved ingests for
	// the same bus could let an older fix overwrite a newer one. Hold the
	// bus's lock for the rest of the call; other buses proceed in parallel.
	lock := s.lockBus(fix.BusID)
	lock.Lock()
	defer lock.Unlock()

	previous, err := s.liveRepo.Find(fix.BusID)
	if err != nil {
		observability.IngestErrors.Inc()
		return nil, err
	}

	dt := float64(defaultDtSeconds)
	if previous != nil {
		if elapsed := float64(fix.Timestamp-previous.Position.Timestamp) / 1000; elapsed > 0 {
			dt = elapsed
		}
	}
	filteredLat, filteredLng := s.filters.Update(fix.BusID, fix.Lat, fix.Lng, dt)

	// Status comes from the device-reported speed, not the filter's
	// re-derived velocity.
	status := gps.ClassifySpeed(fix.Speed)

	passengers := s.countPassengers(fix, previous)

	record := &model.LiveRecord{
		BusID: fix.BusID,
		Position: model.Position{
			Lat:       filteredLat,
			Lng:       filteredLng,
			Speed:     fix.Speed,
			Heading:   fix.Heading,
			Accuracy:  fix.Accuracy,
			Timestamp: fix.Timestamp,
		},
		Status:          status,
		DriverID:        bus.DriverID,
		RouteID:         bus.RouteID,
		PassengersCount: passengers,
		LastUpdate:      time.Now(),
	}

	if err := s.liveRepo.Put(record); err != nil {
		observability.IngestErrors.Inc()
		return nil, err
	}

	entry := &model.HistoryEntry{
		BusID: fix.BusID,
		Position: model.Position{
			Lat:       fix.Lat,
			Lng:       fix.Lng,
			Speed:     fix.Speed,
			Heading:   fix.Heading,
			Accuracy:  fix.Accuracy,
			Timestamp: fix.Timestamp,
		},
		Timestamp: fix.Time(),
	}
	if err := s.historyRepo.Append(fix.BusID, fix.Day(), entry); err != nil {
		observability.IngestErrors.Inc()
		return nil, err
	}

	cache.SetLive(record)
	observability.FixesIngested.Inc()
	s.publisher.Publish(record)
	return record, nil
}

// countPassengers resolves today's attendance for the bus. An attendance
// failure must never block the position update: fall back to the previous
// count, or zero, and surface the degradation through logs and a counter.
func (s *trackingService) countPassengers(fix *model.RawFix, previous *model.LiveRecord) int {
	count, err := s.attendanceRepo.CountPresent(fix.BusID, fix.Day())
	if err == nil {
		return count
	}

	observability.EnrichmentFallbacks.Inc()
	fallback := 0
	if previous != nil {
		fallback = previous.PassengersCount
	}
	log.Printf("attendance lookup failed for bus %s, keeping count %d: %v", fix.BusID, fallback, err)
	return fallback
}

func (s *trackingService) GetLive(busID string) (*model.LiveRecord, error) {
	if record := cache.GetLive(busID); record != nil {
		return record, nil
	}

	record, err := s.liveRepo.Find(busID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoLiveRecord, busID)
	}
	cache.SetLive(record)
	return record, nil
}

func (s *trackingService) GetAllLive() ([]*model.LiveRecord, error) {
	return s.liveRepo.FindAll()
}

func (s *trackingService) GetHistoryForDay(busID string, date time.Time) ([]*model.HistoryEntry, error) {
	day := date.UTC().Format("2006-01-02")
	return s.historyRepo.FindByDay(busID, day)
}

// ResetFilter re-seeds the bus's smoothing filter at the given position.
// Operator recovery after an implausible jump; nothing triggers it
// automatically.
func (s *trackingService) ResetFilter(busID string, lat, lng float64) error {
	bus, err := s.busRepo.FindByID(busID)
	if err != nil {
		return err
	}
	if bus == nil {
		return fmt.Errorf("%w: %s", ErrBusNotFound, busID)
	}

	// Take the bus lock so a reset never lands in the middle of an ingest.
	lock := s.lockBus(busID)
	lock.Lock()
	defer lock.Unlock()
	s.filters.Reset(busID, lat, lng)
	return nil
}

func (s *trackingService) lockBus(busID string) *sync.Mutex {
	lock, _ := s.busLocks.LoadOrStore(busID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

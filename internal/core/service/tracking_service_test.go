package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"bustracker/internal/core/model"
	"bustracker/internal/core/repository"
	"bustracker/internal/gps"
)

type capturingPublisher struct {
	records []*model.LiveRecord
}

func (p *capturingPublisher) Publish(record *model.LiveRecord) {
	p.records = append(p.records, record)
}

type fixture struct {
	service    TrackingService
	buses      repository.BusRepository
	live       repository.LiveRepository
	attendance interface {
		repository.AttendanceRepository
		MarkPresent(busID, day string, count int)
		Fail(message string)
		Recover()
	}
	publisher *capturingPublisher
}

func newFixture() *fixture {
	buses := repository.NewInMemoryBusRepository()
	live := repository.NewInMemoryLiveRepository()
	history := repository.NewInMemoryHistoryRepository()
	attendance := repository.NewInMemoryAttendanceRepository()
	publisher := &capturingPublisher{}

	svc := NewTrackingService(buses, live, history, attendance, gps.NewRegistry(), publisher)
	return &fixture{
		service:    svc,
		buses:      buses,
		live:       live,
		attendance: attendance,
		publisher:  publisher,
	}
}

func fixAt(busID string, lat, lng, speed float64, ts time.Time) *model.RawFix {
	return &model.RawFix{
		BusID:     busID,
		Lat:       lat,
		Lng:       lng,
		Speed:     speed,
		Timestamp: ts.UnixMilli(),
	}
}

func TestIngestUnknownBus(t *testing.T) {
	f := newFixture()

	_, err := f.service.Ingest(fixAt("ghost", 5.36, -4.01, 10, time.Now()))

	if !errors.Is(err, ErrBusNotFound) {
		t.Fatalf("Ingest() error = %v, want ErrBusNotFound", err)
	}
	if _, err := f.service.GetLive("ghost"); !errors.Is(err, ErrNoLiveRecord) {
		t.Errorf("GetLive() after rejected ingest = %v, want ErrNoLiveRecord", err)
	}
	if len(f.publisher.records) != 0 {
		t.Errorf("rejected ingest published %d records, want 0", len(f.publisher.records))
	}
}

func TestIngestFirstFix(t *testing.T) {
	f := newFixture()
	f.buses.Create(model.NewTestBus("B1"))

	ts := time.Now()
	record, err := f.service.Ingest(fixAt("B1", 5.36, -4.01, 0, ts))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if record.Status != model.StatusStopped {
		t.Errorf("status = %v, want stopped for a zero-speed fix", record.Status)
	}
	if record.DriverID != "driver-B1" || record.RouteID != "route-B1" {
		t.Errorf("enrichment = (%s, %s), want the bus's driver and route", record.DriverID, record.RouteID)
	}
	if record.PassengersCount != 0 {
		t.Errorf("passengersCount = %d, want 0 with no attendance docs", record.PassengersCount)
	}

	entries, err := f.service.GetHistoryForDay("B1", ts)
	if err != nil {
		t.Fatalf("GetHistoryForDay() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("history has %d entries after one fix, want 1", len(entries))
	}

	if len(f.publisher.records) != 1 || f.publisher.records[0] != record {
		t.Errorf("expected exactly one publish of the ingested record")
	}
}

func TestIngestSecondFix(t *testing.T) {
	f := newFixture()
	f.buses.Create(model.NewTestBus("B1"))

	ts := time.Now()
	if _, err := f.service.Ingest(fixAt("B1", 5.36, -4.01, 0, ts)); err != nil {
		t.Fatal(err)
	}
	record, err := f.service.Ingest(fixAt("B1", 5.361, -4.011, 20, ts.Add(5*time.Second)))
	if err != nil {
		t.Fatal(err)
	}

	if record.Status != model.StatusEnRoute {
		t.Errorf("status = %v, want en_route at speed 20", record.Status)
	}

	entries, err := f.service.GetHistoryForDay("B1", ts)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("history has %d entries after two fixes, want 2", len(entries))
	}
	if entries[0].Timestamp.After(entries[1].Timestamp) {
		t.Error("history entries are not in ascending timestamp order")
	}
}

func TestIngestAttendanceEnrichment(t *testing.T) {
	f := newFixture()
	f.buses.Create(model.NewTestBus("B1"))

	ts := time.Now()
	day := ts.UTC().Format("2006-01-02")
	f.attendance.MarkPresent("B1", day, 17)

	record, err := f.service.Ingest(fixAt("B1", 5.36, -4.01, 10, ts))
	if err != nil {
		t.Fatal(err)
	}
	if record.PassengersCount != 17 {
		t.Errorf("passengersCount = %d, want 17", record.PassengersCount)
	}
}

func TestIngestAttendanceFailureFallsBack(t *testing.T) {
	f := newFixture()
	f.buses.Create(model.NewTestBus("B1"))

	ts := time.Now()
	day := ts.UTC().Format("2006-01-02")
	f.attendance.MarkPresent("B1", day, 12)
	if _, err := f.service.Ingest(fixAt("B1", 5.36, -4.01, 10, ts)); err != nil {
		t.Fatal(err)
	}

	f.attendance.Fail("attendance store down")
	record, err := f.service.Ingest(fixAt("B1", 5.361, -4.011, 10, ts.Add(5*time.Second)))
	if err != nil {
		t.Fatalf("Ingest() failed on attendance outage: %v, want fallback", err)
	}
	if record.PassengersCount != 12 {
		t.Errorf("passengersCount = %d after outage, want previous count 12", record.PassengersCount)
	}

	if len(f.publisher.records) != 2 {
		t.Errorf("published %d records, want 2: degraded ingests still broadcast", len(f.publisher.records))
	}
}

func TestIngestAttendanceFailureWithoutPrior(t *testing.T) {
	f := newFixture()
	f.buses.Create(model.NewTestBus("B1"))
	f.attendance.Fail("attendance store down")

	record, err := f.service.Ingest(fixAt("B1", 5.36, -4.01, 10, time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	if record.PassengersCount != 0 {
		t.Errorf("passengersCount = %d with no prior record, want 0", record.PassengersCount)
	}
}

func TestLiveRecordKeepsFilteredHistoryKeepsRaw(t *testing.T) {
	f := newFixture()
	f.buses.Create(model.NewTestBus("B1"))

	ts := time.Now()
	if _, err := f.service.Ingest(fixAt("B1", 5.36, -4.01, 10, ts)); err != nil {
		t.Fatal(err)
	}
	// A jumpy second fix: the filter pulls the live position back toward the
	// prediction, while history archives the fix verbatim.
	record, err := f.service.Ingest(fixAt("B1", 5.40, -4.05, 10, ts.Add(5*time.Second)))
	if err != nil {
		t.Fatal(err)
	}

	entries, err := f.service.GetHistoryForDay("B1", ts)
	if err != nil {
		t.Fatal(err)
	}
	raw := entries[1].Position
	if raw.Lat != 5.40 || raw.Lng != -4.05 {
		t.Errorf("history position = (%v, %v), want the raw fix (5.40, -4.05)", raw.Lat, raw.Lng)
	}
	if record.Position.Lat == raw.Lat && record.Position.Lng == raw.Lng {
		t.Error("live position equals the raw fix; expected the filtered estimate to differ")
	}
}

func TestGetLiveOverwrittenWholesale(t *testing.T) {
	f := newFixture()
	bus := model.NewTestBus("B1")
	f.buses.Create(bus)

	ts := time.Now()
	if _, err := f.service.Ingest(fixAt("B1", 5.36, -4.01, 10, ts)); err != nil {
		t.Fatal(err)
	}

	// Unassign the driver; the next record must reflect the directory as-is
	// rather than merging with the previous record.
	bus.DriverID = ""
	f.buses.Update(bus)

	if _, err := f.service.Ingest(fixAt("B1", 5.361, -4.011, 10, ts.Add(5*time.Second))); err != nil {
		t.Fatal(err)
	}
	record, err := f.service.GetLive("B1")
	if err != nil {
		t.Fatal(err)
	}
	if record.DriverID != "" {
		t.Errorf("driverId = %q, want empty after the directory unassigned it", record.DriverID)
	}
}

func TestGetAllLive(t *testing.T) {
	f := newFixture()
	f.buses.Create(model.NewTestBus("B1"))
	f.buses.Create(model.NewTestBus("B2"))

	ts := time.Now()
	if _, err := f.service.Ingest(fixAt("B1", 5.36, -4.01, 10, ts)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.Ingest(fixAt("B2", 5.40, -4.05, 0, ts)); err != nil {
		t.Fatal(err)
	}

	records, err := f.service.GetAllLive()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Errorf("GetAllLive() returned %d records, want 2", len(records))
	}
}

// gatedLiveRepository stalls the first Put until the gate opens, signalling
// entry on entered. Lets a test hold one ingest mid-persistence while a
// second one runs.
type gatedLiveRepository struct {
	repository.LiveRepository
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (r *gatedLiveRepository) Put(record *model.LiveRecord) error {
	first := false
	r.once.Do(func() { first = true })
	if first {
		close(r.entered)
		<-r.gate
	}
	return r.LiveRepository.Put(record)
}

func TestIngestSameBusSerialized(t *testing.T) {
	buses := repository.NewInMemoryBusRepository()
	buses.Create(model.NewTestBus("B1"))
	live := &gatedLiveRepository{
		LiveRepository: repository.NewInMemoryLiveRepository(),
		gate:           make(chan struct{}),
		entered:        make(chan struct{}),
	}
	svc := NewTrackingService(
		buses,
		live,
		repository.NewInMemoryHistoryRepository(),
		repository.NewInMemoryAttendanceRepository(),
		gps.NewRegistry(),
		&capturingPublisher{},
	)

	ts := time.Now()
	older := fixAt("B1", 5.36, -4.01, 10, ts)
	newer := fixAt("B1", 5.361, -4.011, 10, ts.Add(5*time.Second))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := svc.Ingest(older); err != nil {
			t.Errorf("older ingest failed: %v", err)
		}
	}()

	// The older ingest is now stalled inside Put, still holding B1's lock.
	<-live.entered
	go func() {
		defer wg.Done()
		if _, err := svc.Ingest(newer); err != nil {
			t.Errorf("newer ingest failed: %v", err)
		}
	}()

	// Give the newer ingest time to reach the per-bus lock before releasing
	// the stalled Put. Without same-bus serialization it would read the same
	// stale previous record and finish first, leaving the older fix live.
	time.Sleep(50 * time.Millisecond)
	close(live.gate)
	wg.Wait()

	record, err := svc.GetLive("B1")
	if err != nil {
		t.Fatal(err)
	}
	if record.Position.Timestamp != newer.Timestamp {
		t.Errorf("live record holds fix ts=%d, want the newer fix ts=%d",
			record.Position.Timestamp, newer.Timestamp)
	}
}

func TestIngestConcurrentSameBus(t *testing.T) {
	f := newFixture()
	f.buses.Create(model.NewTestBus("B1"))

	base := time.Date(2026, 3, 10, 7, 30, 0, 0, time.UTC)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.service.Ingest(fixAt("B1", 5.36, -4.01, 10, ts)); err != nil {
				t.Errorf("Ingest() error = %v", err)
			}
		}()
	}
	wg.Wait()

	record, err := f.service.GetLive("B1")
	if err != nil {
		t.Fatal(err)
	}
	// Serialized ingests always leave the highest processed timestamp live.
	if record.Position.Timestamp < base.UnixMilli() {
		t.Errorf("live timestamp %d predates every fix", record.Position.Timestamp)
	}

	entries, err := f.service.GetHistoryForDay("B1", base)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 10 {
		t.Errorf("history has %d entries after 10 concurrent fixes, want 10", len(entries))
	}
}

func TestResetFilter(t *testing.T) {
	f := newFixture()
	f.buses.Create(model.NewTestBus("B1"))

	if err := f.service.ResetFilter("ghost", 5.36, -4.01); !errors.Is(err, ErrBusNotFound) {
		t.Errorf("ResetFilter(ghost) error = %v, want ErrBusNotFound", err)
	}
	if err := f.service.ResetFilter("B1", 5.36, -4.01); err != nil {
		t.Errorf("ResetFilter(B1) error = %v", err)
	}
}

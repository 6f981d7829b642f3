package main

import (
	"log"
	"net/http"

	"bustracker/internal/api/router"
	"bustracker/internal/broadcast"
	"bustracker/internal/cache"
	"bustracker/internal/config"
	"bustracker/internal/core/repository"
	"bustracker/internal/core/service"
	"bustracker/internal/gps"
	"bustracker/internal/observability"
)

func main() {
	cfg := config.LoadConfig()

	// Load MongoDB configuration
	mongoConfig := config.NewMongoConfig()

	// Connect to MongoDB
	db, err := config.ConnectMongoDB(mongoConfig)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	// Optional Redis live cache
	cache.Initialize(cfg.RedisURL)
	defer cache.Close()

	// Initialize repositories with MongoDB
	busRepo := repository.NewMongoBusRepository(db)
	liveRepo := repository.NewMongoLiveRepository(db)
	historyRepo := repository.NewMongoHistoryRepository(db)
	attendanceRepo := repository.NewMongoAttendanceRepository(db)

	// Fan-out for live subscribers
	broadcaster := broadcast.NewBroadcaster()
	broadcaster.OnDrop(observability.BroadcastsDropped.Inc)
	defer broadcaster.Shutdown()

	// Initialize the tracking pipeline
	trackingService := service.NewTrackingService(
		busRepo,
		liveRepo,
		historyRepo,
		attendanceRepo,
		gps.NewRegistry(),
		broadcaster,
	)

	// Initialize router
	r := router.NewRouter(trackingService, broadcaster)

	// Metrics and health on a separate port
	go observability.StartMetricsServer(cfg.MetricsPort)

	// Start server
	log.Printf("Server starting on %s:%s", cfg.Host, cfg.Port)
	if err := http.ListenAndServe(cfg.Host+":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

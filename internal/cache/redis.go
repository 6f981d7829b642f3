// Package cache is a Redis read-through cache for live records. It is an
// optimization only: when REDIS_URL is absent or Redis is unreachable the
// cache disables itself and every lookup falls through to Mongo.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"bustracker/internal/core/model"
)

const liveTTL = 30 * time.Second

var (
	redisClient *redis.Client
	enabled     bool
)

// Initialize sets up the Redis connection if a URL is provided.
func Initialize(redisURL string) {
	if redisURL == "" {
		log.Println("Redis URL not provided, live cache disabled")
		enabled = false
		return
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("Failed to parse Redis URL: %v, live cache disabled", err)
		enabled = false
		return
	}

	redisClient = redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Failed to connect to Redis: %v, live cache disabled", err)
		enabled = false
		return
	}

	enabled = true
	log.Println("Redis live cache initialized")
}

// Close closes the Redis connection.
func Close() {
	if redisClient != nil {
		redisClient.Close()
	}
}

// SetLive stores a bus's current record. Errors are logged, never returned:
// a cache write failure must not fail an ingestion.
func SetLive(record *model.LiveRecord) {
	if !enabled {
		return
	}

	data, err := json.Marshal(record)
	if err != nil {
		log.Printf("Failed to marshal live record for cache: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := redisClient.Set(ctx, liveKey(record.BusID), data, liveTTL).Err(); err != nil {
		log.Printf("Failed to cache live record for bus %s: %v", record.BusID, err)
	}
}

// GetLive returns the cached record for a bus, or nil on any miss or error.
func GetLive(busID string) *model.LiveRecord {
	if !enabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	data, err := redisClient.Get(ctx, liveKey(busID)).Bytes()
	if err != nil {
		return nil
	}

	var record model.LiveRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil
	}
	return &record
}

// Delete evicts a bus's cached record.
func Delete(busID string) {
	if !enabled {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := redisClient.Del(ctx, liveKey(busID)).Err(); err != nil {
		log.Printf("Failed to evict cached record for bus %s: %v", busID, err)
	}
}

func liveKey(busID string) string {
	return "gps_live:" + busID
}

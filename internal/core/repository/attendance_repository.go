package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AttendanceRepository answers how many students are marked present on a bus
// for a given day. The pipeline treats its failures as non-fatal.
type AttendanceRepository interface {
	CountPresent(busID, day string) (int, error)
}

type MongoAttendanceRepository struct {
	collection *mongo.Collection
}

func NewMongoAttendanceRepository(db *mongo.Database) *MongoAttendanceRepository {
	return &MongoAttendanceRepository{
		collection: db.Collection("attendance"),
	}
}

func (r *MongoAttendanceRepository) CountPresent(busID, day string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"busid":  busID,
		"date":   day,
		"status": "present",
	})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

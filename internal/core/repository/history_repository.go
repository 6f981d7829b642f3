package repository

import (
	"context"
	"time"

	"bustracker/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// HistoryRepository is the append-only archive of raw positions, partitioned
// by (bus, calendar day). Entries are never updated or deleted; FindByDay
// returns them in ascending timestamp order.
type HistoryRepository interface {
	Append(busID, day string, entry *model.HistoryEntry) error
	FindByDay(busID, day string) ([]*model.HistoryEntry, error)
}

type historyDocument struct {
	BusID     string              `bson:"busid"`
	Day       string              `bson:"day"`
	Entry     *model.HistoryEntry `bson:"entry"`
	Timestamp time.Time           `bson:"timestamp"`
}

type MongoHistoryRepository struct {
	collection *mongo.Collection
}

func NewMongoHistoryRepository(db *mongo.Database) *MongoHistoryRepository {
	return &MongoHistoryRepository{
		collection: db.Collection("gps_history"),
	}
}

func (r *MongoHistoryRepository) Append(busID, day string, entry *model.HistoryEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	doc := historyDocument{
		BusID:     busID,
		Day:       day,
		Entry:     entry,
		Timestamp: entry.Timestamp,
	}
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}

func (r *MongoHistoryRepository) FindByDay(busID, day string) ([]*model.HistoryEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"timestamp": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"busid": busID, "day": day}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []historyDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	entries := make([]*model.HistoryEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, doc.Entry)
	}
	return entries, nil
}

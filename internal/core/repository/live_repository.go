package repository

import (
	"context"
	"time"

	"bustracker/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LiveRepository stores the single current-state record per bus. Put replaces
// the record wholesale; there is no partial update.
type LiveRepository interface {
	Put(record *model.LiveRecord) error
	Find(busID string) (*model.LiveRecord, error)
	FindAll() ([]*model.LiveRecord, error)
}

type MongoLiveRepository struct {
	collection *mongo.Collection
}

func NewMongoLiveRepository(db *mongo.Database) *MongoLiveRepository {
	return &MongoLiveRepository{
		collection: db.Collection("gps_live"),
	}
}

func (r *MongoLiveRepository) Put(record *model.LiveRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"busid": record.BusID}, record, opts)
	return err
}

func (r *MongoLiveRepository) Find(busID string) (*model.LiveRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var record model.LiveRecord
	err := r.collection.FindOne(ctx, bson.M{"busid": busID}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &record, err
}

func (r *MongoLiveRepository) FindAll() ([]*model.LiveRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*model.LiveRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

package repository

import (
	"context"
	"time"

	"bustracker/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// BusRepository is the bus directory: the tracking pipeline uses it for
// existence checks and driver/route enrichment.
type BusRepository interface {
	Create(bus *model.Bus) error
	Update(bus *model.Bus) error
	FindByID(id string) (*model.Bus, error)
	FindAll() ([]*model.Bus, error)
	Exists(id string) (bool, error)
}

type MongoBusRepository struct {
	collection *mongo.Collection
}

func NewMongoBusRepository(db *mongo.Database) *MongoBusRepository {
	return &MongoBusRepository{
		collection: db.Collection("buses"),
	}
}

func (r *MongoBusRepository) Create(bus *model.Bus) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, bus)
	return err
}

func (r *MongoBusRepository) Update(bus *model.Bus) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bus.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"id": bus.ID}, bus)
	return err
}

func (r *MongoBusRepository) FindByID(id string) (*model.Bus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var bus model.Bus
	err := r.collection.FindOne(ctx, bson.M{"id": id}).Decode(&bus)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &bus, err
}

func (r *MongoBusRepository) FindAll() ([]*model.Bus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var buses []*model.Bus
	if err = cursor.All(ctx, &buses); err != nil {
		return nil, err
	}
	return buses, nil
}

func (r *MongoBusRepository) Exists(id string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"id": id})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

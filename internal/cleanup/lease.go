package cleanup

import (
	"busbook/pkg/config"
	mongotx "busbook/pkg/db/mongo"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const LeaseCollectionName = "Leases"

// LeaseRepository hands out named, expiring, single-owner leases.
type LeaseRepository interface {
	Acquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, owner string) error
}

type mongoLeaseRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoLeaseRepository(cfg *config.Config) LeaseRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLeaseRepository{
		cfg:        cfg,
		collection: db.Collection(LeaseCollectionName),
	}
}

// Acquire takes the lease when it is free, expired or already ours. A live
// lease of another owner makes the upsert collide on _id, which reads as held.
func (r *mongoLeaseRepository) Acquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	filter := bson.M{
		"_id": name,
		"$or": bson.A{
			bson.M{"expires_at": bson.M{"$lte": now}},
			bson.M{"owner": owner},
		},
	}
	update := bson.M{"$set": bson.M{
		"owner":       owner,
		"acquired_at": now,
		"expires_at":  now.Add(ttl),
	}}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongotx.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire lease %s: %w", name, err)
	}
	return true, nil
}

func (r *mongoLeaseRepository) Release(ctx context.Context, name, owner string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": name, "owner": owner}); err != nil {
		return fmt.Errorf("failed to release lease %s: %w", name, err)
	}
	return nil
}

package mongo

import (
	"busbook/internal/migrations/mongo/validators"
	"busbook/pkg/logger"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	BusesCollection    = "Buses"
	BookingsCollection = "Bookings"
	LeasesCollection   = "Leases"
)

var (
	BusesIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "source", Value: 1},
			{Key: "destination", Value: 1},
			{Key: "date", Value: 1},
			{Key: "departure_time", Value: 1},
		}},
		{Keys: bson.D{{Key: "date", Value: 1}}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "transaction_id", Value: 1}},
			Options: options.Index().
				SetName("transaction_id_unique").
				SetUnique(true).
				SetSparse(true),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "bus_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	LeasesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
	}
)

type collectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections is the schema RunMigration applies, in order.
var Collections = []collectionDef{
	{Name: BusesCollection, Indexes: BusesIndexes, Validator: validators.BusValidator},
	{Name: BookingsCollection, Indexes: BookingsIndexes, Validator: validators.BookingValidator},
	{Name: LeasesCollection, Indexes: LeasesIndexes, Validator: validators.LeaseValidator},
}

// RunMigration creates missing collections, refreshes validators on existing
// ones and ensures indexes. It is safe to run repeatedly.
func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for _, def := range Collections {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	names, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", names)
	return nil
}

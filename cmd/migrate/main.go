package main

import (
	mongoMigration "busbook/internal/migrations/mongo"
	"busbook/pkg/config"
	"context"
	"time"
)

const JobName = "mongo-migration"

// main is the one-shot job run before the service starts. busctl migrate
// performs the same migration interactively.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Mongo migration job")
	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
		cfg.Log.Error("Migration failed", "error", err)
		return
	}
	cfg.Log.Info("Migration completed successfully")
}

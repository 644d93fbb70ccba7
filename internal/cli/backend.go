package cli

import (
	"busbook/internal/audit"
	bookingrepository "busbook/internal/bookings/repository"
	"busbook/internal/buses/repository"
	"busbook/internal/buses/service"
	"busbook/internal/buses/validator"
	"busbook/internal/cleanup"
	"busbook/internal/events"
	mongoMigration "busbook/internal/migrations/mongo"
	"busbook/pkg/config"
	"busbook/pkg/model"
	"context"
	"os"
)

type mongoBackend struct {
	cfg       *config.Config
	buses     service.BusService
	sweeper   *cleanup.Sweeper
	auditor   *audit.Auditor
	publisher events.Publisher
}

// MongoConnector wires the same repositories and services the HTTP service
// uses, so operator actions keep their locking and events.
func MongoConnector(serviceName string) Connector {
	return func(ctx context.Context) (Backend, error) {
		cfg := config.LoadTo(serviceName, os.Stderr)
		cfg.SetMongo()

		publisher, err := events.NewPublisher(cfg, serviceName)
		if err != nil {
			cfg.GracefulShutdown()
			return nil, err
		}

		busRepo := repository.NewMongoBusRepository(cfg)
		busService := service.NewBusService(busRepo, validator.NewBusValidator(cfg.Log), cfg, service.WithPublisher(publisher))

		return &mongoBackend{
			cfg:       cfg,
			buses:     busService,
			sweeper:   cleanup.NewSweeper(busService, cleanup.NewMongoLeaseRepository(cfg), cfg),
			auditor:   audit.NewAuditor(busRepo, bookingrepository.NewMongoBookingRepository(cfg), cfg.Log),
			publisher: publisher,
		}, nil
	}
}

func (b *mongoBackend) Migrate(ctx context.Context) error {
	return mongoMigration.RunMigration(ctx, b.cfg.Client.Mongo, b.cfg.MongoDatabaseName, b.cfg.Log)
}

func (b *mongoBackend) Cleanup(ctx context.Context) (int64, error) {
	return b.sweeper.RunOnce(ctx)
}

func (b *mongoBackend) ReleaseLocks(ctx context.Context, busID string) (*model.ReleaseLocksResponse, error) {
	return b.buses.ReleaseExpiredLocks(ctx, busID)
}

func (b *mongoBackend) Audit(ctx context.Context) ([]audit.Report, error) {
	return b.auditor.FindOrphans(ctx)
}

func (b *mongoBackend) Close() {
	if err := b.publisher.Close(); err != nil {
		b.cfg.Log.Warn("Failed to close event publisher", "error", err)
	}
	b.cfg.GracefulShutdown()
}

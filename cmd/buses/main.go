package main

import (
	bookinghandler "busbook/internal/bookings/handler"
	bookingrepository "busbook/internal/bookings/repository"
	bookingservice "busbook/internal/bookings/service"
	bookingvalidator "busbook/internal/bookings/validator"
	"busbook/internal/buses/handler"
	"busbook/internal/buses/repository"
	"busbook/internal/buses/service"
	"busbook/internal/buses/validator"
	"busbook/internal/cleanup"
	"busbook/internal/events"
	paymenthandler "busbook/internal/payments/handler"
	paymentservice "busbook/internal/payments/service"
	paymentvalidator "busbook/internal/payments/validator"
	"busbook/pkg/app"
	"busbook/pkg/config"
	"busbook/pkg/middleware"
	"time"
)

const ServiceName = "buses"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting BusBook service")

	publisher, err := events.NewPublisher(cfg, ServiceName)
	if err != nil {
		cfg.Log.Fatal("Failed to create event publisher", "error", err)
	}

	admin := middleware.RequireAdmin(cfg.JWTSecret, cfg.Log)

	busRepo := repository.NewMongoBusRepository(cfg)
	busService := service.NewBusService(
		busRepo,
		validator.NewBusValidator(cfg.Log),
		cfg,
		service.WithPublisher(publisher),
	)

	bookingService := bookingservice.NewBookingService(
		bookingrepository.NewMongoBookingRepository(cfg),
		busRepo,
		bookingvalidator.NewBookingValidator(cfg.Log),
		cfg,
		bookingservice.WithPublisher(publisher),
	)

	paymentService := paymentservice.NewPaymentService(
		paymentvalidator.NewPaymentValidator(cfg.Log, time.Now),
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewBusHandler(busService, cfg.Log, admin),
		bookinghandler.NewBookingHandler(bookingService, cfg.Log, admin),
		paymenthandler.NewPaymentHandler(paymentService, cfg.Log),
	)
	if cfg.CleanupEnabled {
		serverApp.AddWorker(cleanup.NewSweeper(busService, cleanup.NewMongoLeaseRepository(cfg), cfg))
	}
	serverApp.AddCloser(publisher)
	serverApp.Run()
}

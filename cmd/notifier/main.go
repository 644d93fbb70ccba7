package main

import (
	"busbook/internal/notifications"
	"busbook/pkg/config"
	"busbook/pkg/kafka"
	kafka_config "busbook/pkg/kafka/config"
	kafka_middleware "busbook/pkg/kafka/middleware"
	"busbook/pkg/rabbitmq"
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"
)

const (
	ServiceName      = "notifier"
	rabbitMQPrefetch = 10
)

func main() {
	cfg := config.Load(ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifier := notifications.NewNotifier(notifications.NewLogMailer(cfg.Log.Component("mailer")), cfg.Log)

	var err error
	switch cfg.EventsBackend {
	case config.EventsBackendKafka:
		err = runKafka(ctx, cfg, notifier)
	case config.EventsBackendRabbitMQ:
		cfg.Log.Info("Consuming events from RabbitMQ", "queue", cfg.EventsTopic)
		err = rabbitmq.Consume(ctx, cfg.RabbitMQURL, cfg.EventsTopic, rabbitMQPrefetch, notifier.RabbitMQHandler(), cfg.Log.Component("rabbitmq"))
	default:
		cfg.Log.Fatal("Notifier needs a broker backend", "events_backend", cfg.EventsBackend)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Fatal("Notifier stopped", "error", err)
	}
	cfg.Log.Info("Notifier stopped gracefully")
}

func runKafka(ctx context.Context, cfg *config.Config, notifier *notifications.Notifier) error {
	kcfg, err := kafka_config.Load()
	if err != nil {
		return err
	}
	kcfg.LogConfiguration(cfg.Log)

	log := cfg.Log.Component("kafka")
	consumer, err := kafka.NewConsumer(kcfg, cfg.EventsTopic, kcfg.ConsumerGroupID, cfg.EventsDLQ, notifier.KafkaHandler(), log)
	if err != nil {
		return err
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			log.Error("Failed to close consumer", "error", err)
		}
	}()

	if kcfg.EnableMiddleware {
		metrics := kafka_middleware.NewMetrics()
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(log))
		consumer.Use(metrics.ConsumerMiddleware())
		go reportMetrics(ctx, metrics, cfg)
	}

	cfg.Log.Info("Consuming events from Kafka", "topic", cfg.EventsTopic, "group_id", kcfg.ConsumerGroupID)
	return consumer.Start(ctx)
}

func reportMetrics(ctx context.Context, metrics *kafka_middleware.Metrics, cfg *config.Config) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cfg.Log.Info("Consumer metrics", metrics.Snapshot().LogArgs()...)
		}
	}
}

package events

import (
	"busbook/pkg/config"
	"busbook/pkg/kafka"
	kafka_config "busbook/pkg/kafka/config"
	kafka_middleware "busbook/pkg/kafka/middleware"
	"busbook/pkg/rabbitmq"
	"fmt"
)

// NewPublisher builds the sink selected by EVENTS_BACKEND. source names the
// emitting service in message headers.
func NewPublisher(cfg *config.Config, source string) (Publisher, error) {
	switch cfg.EventsBackend {
	case config.EventsBackendKafka:
		kcfg, err := kafka_config.Load()
		if err != nil {
			return nil, err
		}
		kcfg.LogConfiguration(cfg.Log)

		producer, err := kafka.NewProducer(kcfg, cfg.EventsTopic, cfg.EventsDLQ, cfg.Log.Component("kafka"))
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka producer: %w", err)
		}
		if kcfg.EnableMiddleware {
			producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log.Component("kafka")))
		}
		return NewKafkaPublisher(producer, source), nil

	case config.EventsBackendRabbitMQ:
		pub, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.EventsTopic, cfg.Log.Component("rabbitmq"))
		if err != nil {
			return nil, err
		}
		return NewRabbitMQPublisher(pub), nil

	default:
		return NewLogPublisher(cfg.Log), nil
	}
}

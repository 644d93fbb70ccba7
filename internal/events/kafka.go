package events

import (
	"busbook/pkg/kafka"
	"context"
)

type KafkaPublisher struct {
	producer *kafka.Producer
	source   string
}

func NewKafkaPublisher(producer *kafka.Producer, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	msg := kafka.NewMessage().
		WithKey(evt.PartitionKey()).
		WithValue(evt).
		WithEventID(evt.ID).
		WithEventType(string(evt.Type)).
		WithCorrelationID(evt.CorrelationID).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithTimestamp(evt.OccurredAt).
		Build()

	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

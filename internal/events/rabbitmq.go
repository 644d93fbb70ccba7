package events

import (
	"busbook/pkg/rabbitmq"
	"context"
	"encoding/json"
	"fmt"
)

type RabbitMQPublisher struct {
	publisher *rabbitmq.Publisher
}

func NewRabbitMQPublisher(publisher *rabbitmq.Publisher) *RabbitMQPublisher {
	return &RabbitMQPublisher{publisher: publisher}
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return p.publisher.Publish(ctx, evt.ID, string(evt.Type), body)
}

func (p *RabbitMQPublisher) Close() error {
	return p.publisher.Close()
}

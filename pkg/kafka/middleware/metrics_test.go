package kafka_middleware

import (
	"busbook/pkg/kafka"
	"context"
	"errors"
	"testing"
)

func TestMetrics_CountsOutcomes(t *testing.T) {
	m := NewMetrics()
	produce := m.ProducerMiddleware()
	consume := m.ConsumerMiddleware()

	ok := func(context.Context, kafka.Message) error { return nil }
	fail := func(context.Context, kafka.Message) error { return errors.New("boom") }

	_ = produce(context.Background(), kafka.Message{}, ok)
	_ = produce(context.Background(), kafka.Message{}, ok)
	_ = produce(context.Background(), kafka.Message{}, fail)
	_ = consume(context.Background(), kafka.Message{}, fail)

	s := m.Snapshot()
	if s.Published != 2 || s.PublishFailed != 1 {
		t.Errorf("producer counts = %d/%d, want 2/1", s.Published, s.PublishFailed)
	}
	if s.Consumed != 0 || s.ConsumeFailed != 1 {
		t.Errorf("consumer counts = %d/%d, want 0/1", s.Consumed, s.ConsumeFailed)
	}
	if len(s.LogArgs())%2 != 0 {
		t.Error("LogArgs must be key/value pairs")
	}
}

func TestMetrics_PropagatesError(t *testing.T) {
	want := errors.New("write failed")
	err := NewMetrics().ProducerMiddleware()(context.Background(), kafka.Message{}, func(context.Context, kafka.Message) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Errorf("got %v, want %v", err, want)
	}
}

package events

import (
	"busbook/pkg/logger"
	"context"
	"encoding/json"
	"sync"
)

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Emit publishes evt and logs a failure instead of returning it. State changes
// are already committed when events go out, so a broker outage must not turn
// a successful request into an error.
func Emit(ctx context.Context, pub Publisher, log *logger.Logger, evt Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, evt); err != nil {
		log.Warn("Failed to publish event",
			"event_id", evt.ID,
			"event_type", evt.Type,
			"bus_id", evt.BusID,
			"error", err,
		)
	}
}

// LogPublisher writes events to the structured log. It is the default sink
// for single-node deployments and local development.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log.Component("events")}
}

func (p *LogPublisher) Publish(_ context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	p.log.Info("domain event", "event_type", evt.Type, "event_id", evt.ID, "payload", string(payload))
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Recorder keeps published events in memory. Tests use it to assert emissions.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, evt)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

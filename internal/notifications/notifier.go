package notifications

import (
	"busbook/internal/events"
	"busbook/pkg/kafka"
	"busbook/pkg/logger"
	"busbook/pkg/model"
	"busbook/pkg/rabbitmq"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// bookingEvent decodes the bus snapshot that booking events carry in Details.
type bookingEvent struct {
	events.Event
	Details model.BusDetails `json:"details"`
}

type Option func(*Notifier)

func WithClock(now func() time.Time) Option {
	return func(n *Notifier) {
		n.now = now
	}
}

// Notifier turns booking events into passenger emails.
type Notifier struct {
	mailer Mailer
	log    *logger.Logger
	now    func() time.Time
}

func NewNotifier(mailer Mailer, log *logger.Logger, opts ...Option) *Notifier {
	n := &Notifier{
		mailer: mailer,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Handle sends the email for one raw event payload. Types without an email
// are acknowledged and skipped.
func (n *Notifier) Handle(ctx context.Context, payload []byte) error {
	var evt bookingEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return kafka.NewPermanentError("undecodable event", err)
	}

	var render func(Ticket, time.Time) (Email, error)
	switch evt.Type {
	case events.BookingCreated:
		render = RenderConfirmation
	case events.BookingCancelled:
		render = RenderCancellation
	default:
		n.log.Debug("event ignored", "event_id", evt.ID, "event_type", evt.Type)
		return nil
	}

	if evt.PassengerEmail == "" {
		return kafka.NewPermanentError(fmt.Sprintf("event %s has no passenger email", evt.ID), nil)
	}

	email, err := render(Ticket{
		BookingID:      evt.BookingID,
		TransactionID:  evt.TransactionID,
		PassengerName:  evt.PassengerName,
		PassengerEmail: evt.PassengerEmail,
		Seats:          evt.Seats,
		TotalPrice:     evt.TotalPrice,
		Bus:            evt.Details,
	}, n.now())
	if err != nil {
		return kafka.NewPermanentError("render failed", err)
	}

	if err := n.mailer.Send(ctx, email); err != nil {
		return kafka.NewTransientError("mail delivery failed", err)
	}

	n.log.Info("notification delivered",
		"event_id", evt.ID,
		"event_type", evt.Type,
		"booking_id", evt.BookingID,
	)
	return nil
}

func (n *Notifier) KafkaHandler() kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		return n.Handle(ctx, msg.Value)
	}
}

func (n *Notifier) RabbitMQHandler() rabbitmq.Handler {
	return func(ctx context.Context, d rabbitmq.Delivery) error {
		return n.Handle(ctx, d.Body)
	}
}

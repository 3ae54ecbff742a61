// Package eventbus publishes adapter lifecycle notifications
// (deposit.created, note.spent, withdrawal.confirmed, transfer.completed)
// to a pluggable sink. This is purely additive observability: the toolkit
// never requires a notifier to function, mirroring the teacher's pattern of
// binding publishers to aliases but defaulting, here, to doing nothing.
package eventbus

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventKind names a lifecycle event.
type EventKind string

const (
	EventDepositCreated      EventKind = "deposit.created"
	EventNoteSpent           EventKind = "note.spent"
	EventWithdrawalConfirmed EventKind = "withdrawal.confirmed"
	EventTransferCompleted   EventKind = "transfer.completed"
)

// Event is one lifecycle notification.
type Event struct {
	Kind      EventKind         `json:"kind"`
	Provider  string            `json:"provider"`
	Fields    map[string]string `json:"fields"`
	Timestamp time.Time         `json:"timestamp"`
}

// Notifier publishes lifecycle events. Adapters hold one and call Publish
// after each state transition worth surfacing; failures are logged by the
// caller, never escalated into the operation's own error return.
type Notifier interface {
	Publish(ctx context.Context, event Event) error
}

// NoopNotifier discards every event. It is the default so the toolkit
// carries no mandatory network dependency.
type NoopNotifier struct{}

func (NoopNotifier) Publish(context.Context, Event) error { return nil }

// RabbitMQNotifier publishes events to a fixed exchange/routing key,
// grounded on the teacher's RabbitmqPublisher: a bound channel plus a
// fire-and-forget Publish call.
type RabbitMQNotifier struct {
	Channel    *amqp.Channel
	Exchange   string
	RoutingKey string
}

// NewRabbitMQNotifier binds a notifier to an already-open channel.
func NewRabbitMQNotifier(ch *amqp.Channel, exchange, routingKey string) *RabbitMQNotifier {
	return &RabbitMQNotifier{Channel: ch, Exchange: exchange, RoutingKey: routingKey}
}

func (n *RabbitMQNotifier) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return n.Channel.PublishWithContext(
		ctx,
		n.Exchange,
		n.RoutingKey,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    event.Timestamp,
			DeliveryMode: amqp.Persistent,
		},
	)
}

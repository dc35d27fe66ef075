package notify

import (
	"context"
	"log/slog"
)

type Topic string

const (
	TopicOrderCreated         Topic = "order.created"
	TopicOrderStatusChanged   Topic = "order.status_changed"
	TopicOrderItemsChanged    Topic = "order.items_changed"
	TopicOrderPaymentChanged  Topic = "order.payment_changed"
	TopicTableStatusChanged   Topic = "table.status_changed"
	TopicTableCall            Topic = "table.call"
	TopicTableCheckout        Topic = "table.checkout"
	TopicCashSessionOpened    Topic = "cash.session_opened"
	TopicCashSessionClosed    Topic = "cash.session_closed"
	TopicCashMovementRecorded Topic = "cash.movement_recorded"
)

// Publisher fans state changes out to connected clients. Callers publish
// after their transaction commits and never depend on delivery.
//
//go:generate mockgen -source=notify.go -destination=publisher_mock.go -package=notify
type Publisher interface {
	Publish(ctx context.Context, topic Topic, payload any) error
}

// Send publishes and logs a failure instead of returning it.
func Send(ctx context.Context, p Publisher, topic Topic, payload any) {
	if err := p.Publish(ctx, topic, payload); err != nil {
		slog.Warn("failed to publish notification", "topic", topic, "error", err)
	}
}

// Log is a Publisher that only writes events to the structured log. It is
// used when no message broker is configured.
type Log struct{}

func (Log) Publish(_ context.Context, topic Topic, payload any) error {
	slog.Debug("notification", "topic", topic, "payload", payload)
	return nil
}

package producer

import (
	"context"

	"github.com/jdeveloperweb/axonrh-sub004/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
)

// publishEvent ships one outbox row to its topic. The aggregate id keys the
// message so every event of one payroll or run lands in the same partition,
// in order. Tenant travels as a header for consumer-side routing.
func publishEvent(ctx context.Context, writer *kafkago.Writer, event kafka.OutboxEvent) error {
	if err := kafka.ValidateOutboxEvent(event); err != nil {
		return err
	}

	msg := kafkago.Message{
		Topic: event.Topic,
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "aggregate_type", Value: []byte(event.AggregateType)},
			{Key: "tenant_id", Value: []byte(event.TenantID)},
		},
	}

	return writer.WriteMessages(ctx, msg)
}
